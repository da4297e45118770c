package ir

// Side names the edge of a node an anchor attaches to.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideCenter Side = "center"
)

// Valid reports whether s is one of the five anchor sides.
func (s Side) Valid() bool {
	switch s {
	case SideTop, SideRight, SideBottom, SideLeft, SideCenter:
		return true
	}
	return false
}

// Anchor is a connection attachment point: a side plus a fractional offset
// in [0, 1] along that side. Offsets let several connections share a side.
type Anchor struct {
	Side   Side    `json:"side"`
	Offset float64 `json:"offset"`
}

// Endpoint is one end of a connection.
type Endpoint struct {
	NodeID string `json:"node_id"`
	Anchor Anchor `json:"anchor"`
}

// ConnectionStyle is the visual style of an edge.
type ConnectionStyle struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
	Dash  string  `json:"dash,omitempty"`
	Arrow string  `json:"arrow,omitempty"`
}

// DefaultConnectionStyle returns the style used when a connection is
// created without one.
func DefaultConnectionStyle() ConnectionStyle {
	return ConnectionStyle{Color: "#6b7280", Width: 2, Arrow: "end"}
}

// Connection is a directed edge between two distinct nodes.
//
// A connection whose endpoints are missing or soft-deleted is kept but not
// rendered; cascading deletes belong to durable storage.
type Connection struct {
	ID      string          `json:"id"`
	Source  Endpoint        `json:"source"`
	Target  Endpoint        `json:"target"`
	Label   string          `json:"label,omitempty"`
	Style   ConnectionStyle `json:"style"`
	ZIndex  int             `json:"z_index"`
	Deleted bool            `json:"deleted,omitempty"`
	Audit   Audit           `json:"audit"`
}

// Clone returns a copy of the connection. Connections hold no reference
// types so a value copy is already deep.
func (c Connection) Clone() Connection {
	return c
}

// CloneValue lets the replicated document copy connections on read and write.
func (c Connection) CloneValue() any {
	return c.Clone()
}
