// Command canvas creates, inspects and replays canvas workspaces.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/canvas/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
