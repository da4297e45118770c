package ir

import "maps"

// Ptr returns a pointer to v. Used to build patches inline:
//
//	ir.NodePatch{Position: &ir.PositionPatch{X: ir.Ptr(100.0)}}
func Ptr[T any](v T) *T {
	return &v
}

// PositionPatch updates individual coordinates of a position.
type PositionPatch struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

// SizePatch updates individual dimensions of a size.
type SizePatch struct {
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// ContentPatch updates individual content fields.
type ContentPatch struct {
	Title      *string  `json:"title,omitempty"`
	Text       *string  `json:"text,omitempty"`
	Background *string  `json:"background,omitempty"`
	TextScale  *float64 `json:"text_scale,omitempty"`
}

// StylePatch updates individual style fields. Applying a StylePatch to a
// node without a style starts from a fully opaque blank style.
type StylePatch struct {
	Background  *string  `json:"background,omitempty"`
	BorderColor *string  `json:"border_color,omitempty"`
	BorderWidth *float64 `json:"border_width,omitempty"`
	Shadow      *bool    `json:"shadow,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
}

// NodePatch is a partial node update. Nil fields are left untouched, and so
// is every nil sub-field of a non-nil nested patch.
type NodePatch struct {
	Position   *PositionPatch    `json:"position,omitempty"`
	Size       *SizePatch        `json:"size,omitempty"`
	Content    *ContentPatch     `json:"content,omitempty"`
	Style      *StylePatch       `json:"style,omitempty"`
	ClearStyle bool              `json:"clear_style,omitempty"`
	ZIndex     *int              `json:"z_index,omitempty"`
	Kind       *NodeKind         `json:"kind,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
	Deleted    *bool             `json:"deleted,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p NodePatch) Empty() bool {
	return p.Position == nil && p.Size == nil && p.Content == nil && p.Style == nil &&
		!p.ClearStyle && p.ZIndex == nil && p.Kind == nil && len(p.Extra) == 0 && p.Deleted == nil
}

// MergeNode is the single place partial node updates are applied. It merges
// field by field into nested attributes so a patch touching only
// Position.X keeps Position.Y, and validates the result.
//
// The input node is not modified.
func MergeNode(old Node, p NodePatch) (Node, error) {
	n := old.Clone()

	if p.Position != nil {
		mergeFloat(&n.Position.X, p.Position.X)
		mergeFloat(&n.Position.Y, p.Position.Y)
	}
	if p.Size != nil {
		mergeFloat(&n.Size.Width, p.Size.Width)
		mergeFloat(&n.Size.Height, p.Size.Height)
	}
	if p.Content != nil {
		mergeString(&n.Content.Title, p.Content.Title)
		mergeString(&n.Content.Text, p.Content.Text)
		mergeString(&n.Content.Background, p.Content.Background)
		mergeFloat(&n.Content.TextScale, p.Content.TextScale)
	}
	if p.ClearStyle {
		n.Style = nil
	}
	if p.Style != nil {
		if n.Style == nil {
			n.Style = &Style{Opacity: 1}
		}
		mergeString(&n.Style.Background, p.Style.Background)
		mergeString(&n.Style.BorderColor, p.Style.BorderColor)
		mergeFloat(&n.Style.BorderWidth, p.Style.BorderWidth)
		if p.Style.Shadow != nil {
			n.Style.Shadow = *p.Style.Shadow
		}
		mergeFloat(&n.Style.Opacity, p.Style.Opacity)
	}
	if p.ZIndex != nil {
		n.ZIndex = *p.ZIndex
	}
	if p.Kind != nil {
		n.Metadata.Kind = *p.Kind
	}
	if len(p.Extra) > 0 {
		if n.Metadata.Extra == nil {
			n.Metadata.Extra = make(map[string]string, len(p.Extra))
		}
		maps.Copy(n.Metadata.Extra, p.Extra)
	}
	if p.Deleted != nil {
		n.Deleted = *p.Deleted
	}

	if n.Metadata.Kind == KindText {
		n.Content.Background = ""
	}

	if err := ValidateNode(n); err != nil {
		return old, err
	}
	return n, nil
}

// ConnectionStylePatch is a partial connection style update.
type ConnectionStylePatch struct {
	Color *string  `json:"color,omitempty"`
	Width *float64 `json:"width,omitempty"`
	Dash  *string  `json:"dash,omitempty"`
	Arrow *string  `json:"arrow,omitempty"`
}

// MergeConnectionStyle applies a style patch field by field.
func MergeConnectionStyle(s ConnectionStyle, p ConnectionStylePatch) ConnectionStyle {
	mergeString(&s.Color, p.Color)
	mergeFloat(&s.Width, p.Width)
	mergeString(&s.Dash, p.Dash)
	mergeString(&s.Arrow, p.Arrow)
	return s
}

func mergeFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func mergeString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
