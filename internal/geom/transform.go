package geom

import "github.com/roach88/canvas/internal/ir"

// Transform maps between world and screen space.
type Transform struct {
	OffsetX float64
	OffsetY float64
	Scale   float64
}

// FromViewport builds the transform for a viewport. The viewport is clamped
// first so Scale is always positive.
func FromViewport(v ir.Viewport) Transform {
	v = v.Clamp()
	return Transform{OffsetX: v.OffsetX, OffsetY: v.OffsetY, Scale: v.Scale}
}

// Viewport returns the viewport this transform represents.
func (t Transform) Viewport() ir.Viewport {
	return ir.Viewport{OffsetX: t.OffsetX, OffsetY: t.OffsetY, Scale: t.Scale}
}

// WorldToScreen converts a world point into screen pixels.
func (t Transform) WorldToScreen(p Point) Point {
	return Point{
		X: (p.X - t.OffsetX) * t.Scale,
		Y: (p.Y - t.OffsetY) * t.Scale,
	}
}

// ScreenToWorld converts a screen pixel into world coordinates.
func (t Transform) ScreenToWorld(p Point) Point {
	return Point{
		X: p.X/t.Scale + t.OffsetX,
		Y: p.Y/t.Scale + t.OffsetY,
	}
}

// ScreenDeltaToWorld converts a pointer movement in pixels into a world
// displacement. Offsets cancel out, only scale matters.
func (t Transform) ScreenDeltaToWorld(d Point) Point {
	return Point{X: d.X / t.Scale, Y: d.Y / t.Scale}
}

// WorldRectToScreen converts a world rectangle into screen space.
func (t Transform) WorldRectToScreen(r Rect) Rect {
	origin := t.WorldToScreen(Point{X: r.X, Y: r.Y})
	return Rect{X: origin.X, Y: origin.Y, W: r.W * t.Scale, H: r.H * t.Scale}
}

// VisibleWorldRect returns the world rectangle covered by a screen of the
// given pixel dimensions.
func (t Transform) VisibleWorldRect(screenW, screenH float64) Rect {
	return Rect{
		X: t.OffsetX,
		Y: t.OffsetY,
		W: screenW / t.Scale,
		H: screenH / t.Scale,
	}
}

// ZoomAt multiplies the scale by factor while keeping the world point under
// the screen point fixed. The new scale is bounded to [minScale, maxScale].
func (t Transform) ZoomAt(screen Point, factor, minScale, maxScale float64) Transform {
	if factor <= 0 {
		return t
	}
	anchor := t.ScreenToWorld(screen)

	scale := t.Scale * factor
	if scale < minScale {
		scale = minScale
	}
	if scale > maxScale {
		scale = maxScale
	}

	return Transform{
		OffsetX: anchor.X - screen.X/scale,
		OffsetY: anchor.Y - screen.Y/scale,
		Scale:   scale,
	}
}

// PanBy shifts the transform so content follows a screen-space drag of d.
func (t Transform) PanBy(d Point) Transform {
	w := t.ScreenDeltaToWorld(d)
	t.OffsetX -= w.X
	t.OffsetY -= w.Y
	return t
}
