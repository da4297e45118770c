package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/canvas/internal/ir"
)

// marshalRecord serializes v to canonical JSON TEXT.
func marshalRecord(v any) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return string(data), nil
}

func unmarshalNode(data string) (ir.Node, error) {
	var n ir.Node
	if err := json.Unmarshal([]byte(data), &n); err != nil {
		return ir.Node{}, fmt.Errorf("unmarshal node: %w", err)
	}
	return n, nil
}

func unmarshalConnection(data string) (ir.Connection, error) {
	var c ir.Connection
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return ir.Connection{}, fmt.Errorf("unmarshal connection: %w", err)
	}
	return c, nil
}

// unmarshalSettings parses settings TEXT. Empty settings decode to the
// defaults.
func unmarshalSettings(data string) (ir.Settings, error) {
	if data == "" || data == "{}" {
		return ir.DefaultSettings(), nil
	}
	s := ir.DefaultSettings()
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return ir.Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
