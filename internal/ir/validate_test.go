package ir

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNode(t *testing.T) {
	valid := Node{ID: "n", Size: Size{Width: 1, Height: 1}, Metadata: Metadata{Kind: KindNote}}
	require.NoError(t, ValidateNode(valid))

	tests := []struct {
		name   string
		mutate func(n *Node)
		code   ValidationErrorCode
	}{
		{"no id", func(n *Node) { n.ID = "" }, ErrCodeMissingField},
		{"no kind", func(n *Node) { n.Metadata.Kind = "" }, ErrCodeInvalidKind},
		{"nan x", func(n *Node) { n.Position.X = math.NaN() }, ErrCodeInvalidPosition},
		{"inf y", func(n *Node) { n.Position.Y = math.Inf(1) }, ErrCodeInvalidPosition},
		{"nan width", func(n *Node) { n.Size.Width = math.NaN() }, ErrCodeInvalidSize},
		{"inf height", func(n *Node) { n.Size.Height = math.Inf(1) }, ErrCodeInvalidSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := valid
			tt.mutate(&n)
			err := ValidateNode(n)
			require.Error(t, err)
			assert.Equal(t, tt.code, ValidationCode(err))
		})
	}
}

func TestValidateConnection(t *testing.T) {
	alive := func(id string) bool { return id == "a" || id == "b" }
	base := Connection{
		ID:     "c1",
		Source: Endpoint{NodeID: "a", Anchor: Anchor{Side: SideRight, Offset: 0.5}},
		Target: Endpoint{NodeID: "b", Anchor: Anchor{Side: SideLeft, Offset: 0.5}},
	}
	require.NoError(t, ValidateConnection(base, alive))

	tests := []struct {
		name   string
		mutate func(c *Connection)
		code   ValidationErrorCode
	}{
		{"self", func(c *Connection) { c.Target.NodeID = "a" }, ErrCodeSelfConnection},
		{"bad side", func(c *Connection) { c.Source.Anchor.Side = "corner" }, ErrCodeInvalidAnchor},
		{"offset above one", func(c *Connection) { c.Target.Anchor.Offset = 1.5 }, ErrCodeInvalidAnchor},
		{"negative offset", func(c *Connection) { c.Source.Anchor.Offset = -0.1 }, ErrCodeInvalidAnchor},
		{"unknown target", func(c *Connection) { c.Target.NodeID = "zzz" }, ErrCodeUnknownNode},
		{"missing source", func(c *Connection) { c.Source.NodeID = "" }, ErrCodeMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := ValidateConnection(c, alive)
			require.Error(t, err)
			assert.Equal(t, tt.code, ValidationCode(err))
		})
	}
}

func TestValidationError_Wrapped(t *testing.T) {
	err := fmt.Errorf("add node: %w", NewValidationError(ErrCodeInvalidSize, "size", "bad"))

	assert.True(t, IsValidationError(err))
	assert.Equal(t, ErrCodeInvalidSize, ValidationCode(err))
	assert.Contains(t, err.Error(), "field=size")
	assert.Equal(t, ValidationErrorCode(""), ValidationCode(fmt.Errorf("plain")))
}
