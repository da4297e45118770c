package ir

// Zoom bounds for Viewport.Scale.
const (
	MinScale = 0.1
	MaxScale = 4.0
)

// Viewport is a per-user pan/zoom state. OffsetX/OffsetY are the world
// coordinates of the screen origin.
type Viewport struct {
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Scale   float64 `json:"scale"`
}

// DefaultViewport is used when no viewport has been persisted for a user.
func DefaultViewport() Viewport {
	return Viewport{Scale: 1}
}

// Clamp bounds the scale to [MinScale, MaxScale]. A non-positive scale is
// reset to 1.
func (v Viewport) Clamp() Viewport {
	switch {
	case v.Scale <= 0:
		v.Scale = 1
	case v.Scale < MinScale:
		v.Scale = MinScale
	case v.Scale > MaxScale:
		v.Scale = MaxScale
	}
	return v
}

// ViewportPatch is a partial viewport update.
type ViewportPatch struct {
	OffsetX *float64 `json:"offset_x,omitempty"`
	OffsetY *float64 `json:"offset_y,omitempty"`
	Scale   *float64 `json:"scale,omitempty"`
}

// MergeViewport applies a patch and clamps the result.
func MergeViewport(v Viewport, p ViewportPatch) Viewport {
	if p.OffsetX != nil {
		v.OffsetX = *p.OffsetX
	}
	if p.OffsetY != nil {
		v.OffsetY = *p.OffsetY
	}
	if p.Scale != nil {
		v.Scale = *p.Scale
	}
	return v.Clamp()
}
