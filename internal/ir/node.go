package ir

import (
	"maps"
	"time"
)

// NodeKind tags the content variant of a node.
type NodeKind string

const (
	// KindNote has a title, rich text and a background.
	KindNote NodeKind = "note"
	// KindText holds plain text only, has no background and auto-fits its content.
	KindText NodeKind = "text"
)

// Valid reports whether k is a known node kind.
func (k NodeKind) Valid() bool {
	return k == KindNote || k == KindText
}

// Position is a point in world coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair in world units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Content is the body of a node. Title and Background are only meaningful
// for notes.
type Content struct {
	Title      string  `json:"title,omitempty"`
	Text       string  `json:"text"`
	Background string  `json:"background,omitempty"`
	TextScale  float64 `json:"text_scale"`
}

// Style is the optional visual decoration of a node. A nil Style means
// transparent.
type Style struct {
	Background  string  `json:"background,omitempty"`
	BorderColor string  `json:"border_color,omitempty"`
	BorderWidth float64 `json:"border_width,omitempty"`
	Shadow      bool    `json:"shadow,omitempty"`
	Opacity     float64 `json:"opacity"`
}

// Metadata carries the explicit kind tag plus free-form extension fields.
type Metadata struct {
	Kind  NodeKind          `json:"kind"`
	Extra map[string]string `json:"extra,omitempty"`
}

// Audit records who created and last updated a record.
type Audit struct {
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Node is a positioned rectangular entity on the canvas.
type Node struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Size     Size     `json:"size"`
	Content  Content  `json:"content"`
	Style    *Style   `json:"style,omitempty"`
	ZIndex   int      `json:"z_index"`
	Metadata Metadata `json:"metadata"`
	Deleted  bool     `json:"deleted,omitempty"`
	Audit    Audit    `json:"audit"`
}

// Kind returns the explicit node kind tag.
func (n Node) Kind() NodeKind {
	return n.Metadata.Kind
}

// Clone returns a deep copy of the node. Style and Metadata.Extra are
// copied so the clone never aliases the original.
func (n Node) Clone() Node {
	c := n
	if n.Style != nil {
		s := *n.Style
		c.Style = &s
	}
	if n.Metadata.Extra != nil {
		c.Metadata.Extra = maps.Clone(n.Metadata.Extra)
	}
	return c
}

// CloneValue lets the replicated document copy nodes on read and write.
func (n Node) CloneValue() any {
	return n.Clone()
}

// NodeDefaults supplies the values used when a creation request omits a
// field.
type NodeDefaults struct {
	Kind           NodeKind
	NoteSize       Size
	TextSize       Size
	NoteBackground string
}

// DefaultNodeDefaults returns the stock creation defaults.
func DefaultNodeDefaults() NodeDefaults {
	return NodeDefaults{
		Kind:           KindNote,
		NoteSize:       Size{Width: 240, Height: 160},
		TextSize:       Size{Width: 200, Height: 40},
		NoteBackground: "#fff8c5",
	}
}

// SizeFor returns the default size for a kind.
func (d NodeDefaults) SizeFor(kind NodeKind) Size {
	if kind == KindText {
		return d.TextSize
	}
	return d.NoteSize
}

// NodeInput is a creation request. Every nil or zero field is filled from
// NodeDefaults by NewNode; invalid values are rejected.
type NodeInput struct {
	ID       string
	Kind     NodeKind
	Position *Position
	Size     *Size
	Content  *Content
	Style    *Style
	ZIndex   *int
	Extra    map[string]string
}

// NewNode builds a complete node record from a possibly partial input.
// The result always has a position, a positive size and a valid kind.
func NewNode(in NodeInput, defaults NodeDefaults, user string, now time.Time) (Node, error) {
	if in.ID == "" {
		return Node{}, NewValidationError(ErrCodeMissingField, "id", "node id is required")
	}

	kind := in.Kind
	if kind == "" {
		kind = defaults.Kind
	}
	if !kind.Valid() {
		return Node{}, NewValidationError(ErrCodeInvalidKind, "metadata.kind",
			"unknown node kind %q", kind)
	}

	n := Node{
		ID:       in.ID,
		Size:     defaults.SizeFor(kind),
		Content:  Content{TextScale: 1},
		Metadata: Metadata{Kind: kind},
		Audit: Audit{
			CreatedBy: user,
			CreatedAt: now,
			UpdatedBy: user,
			UpdatedAt: now,
		},
	}
	if in.Position != nil {
		n.Position = *in.Position
	}
	if in.Size != nil {
		n.Size = *in.Size
	}
	if in.Content != nil {
		n.Content = *in.Content
		if n.Content.TextScale <= 0 {
			n.Content.TextScale = 1
		}
	}
	if kind == KindNote && n.Content.Background == "" {
		n.Content.Background = defaults.NoteBackground
	}
	if kind == KindText {
		n.Content.Title = ""
		n.Content.Background = ""
	}
	if in.Style != nil {
		s := *in.Style
		n.Style = &s
	}
	if in.ZIndex != nil {
		n.ZIndex = *in.ZIndex
	}
	if len(in.Extra) > 0 {
		n.Metadata.Extra = maps.Clone(in.Extra)
	}

	if err := ValidateNode(n); err != nil {
		return Node{}, err
	}
	return n, nil
}

// MigrateNode backfills fields that records written by older clients may
// lack. The kind tag is inferred once here ("has a title" means note) and
// never re-derived on read. Returns the migrated node and whether anything
// changed.
func MigrateNode(n Node, defaults NodeDefaults) (Node, bool) {
	changed := false
	n = n.Clone()

	if !n.Metadata.Kind.Valid() {
		if n.Content.Title != "" {
			n.Metadata.Kind = KindNote
		} else {
			n.Metadata.Kind = KindText
		}
		changed = true
	}
	if n.Size.Width <= 0 || n.Size.Height <= 0 {
		d := defaults.SizeFor(n.Metadata.Kind)
		if n.Size.Width <= 0 {
			n.Size.Width = d.Width
		}
		if n.Size.Height <= 0 {
			n.Size.Height = d.Height
		}
		changed = true
	}
	if n.Content.TextScale <= 0 {
		n.Content.TextScale = 1
		changed = true
	}
	return n, changed
}
