// Package settings reads workspace settings files and validates them
// against an embedded CUE schema.
//
// Files may be CUE, JSON or YAML. Unknown fields are rejected and missing
// fields take their schema defaults.
package settings

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/canvas/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// Error is a settings validation failure with its source position when
// CUE reports one.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads and validates the settings file at path.
func Load(path string) (ir.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ir.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return Parse(filepath.Base(path), data)
}

// Parse validates data against the settings schema. The filename extension
// selects the format: .yaml and .yml are YAML, anything else is CUE (which
// includes JSON).
func Parse(filename string, data []byte) (ir.Settings, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return ir.Settings{}, fmt.Errorf("compile settings schema: %w", err)
	}

	var value cue.Value
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return ir.Settings{}, &Error{Field: "yaml", Message: err.Error()}
		}
		if raw == nil {
			raw = map[string]any{}
		}
		value = ctx.Encode(raw)
	default:
		value = ctx.CompileBytes(data, cue.Filename(filename))
	}
	if err := value.Err(); err != nil {
		return ir.Settings{}, formatCUEError(err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Settings")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return ir.Settings{}, formatCUEError(err)
	}

	var s ir.Settings
	if err := unified.Decode(&s); err != nil {
		return ir.Settings{}, formatCUEError(err)
	}
	return s, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := strings.Join(first.Path(), ".")
	if field == "" {
		field = "settings"
	}
	format, args := first.Msg()
	out := &Error{Field: field, Message: fmt.Sprintf(format, args...)}
	if positions := errors.Positions(first); len(positions) > 0 {
		out.Pos = positions[0]
	}
	return out
}
