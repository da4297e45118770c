package gesture

import (
	"github.com/roach88/canvas/internal/geom"
	"github.com/roach88/canvas/internal/ir"
)

// resizeRect applies a world delta to start from the given handle. The edge
// opposite the handle stays fixed, and the result is never smaller than minSize.
func resizeRect(start geom.Rect, h Handle, d geom.Point, minSize ir.Size) geom.Rect {
	r := start
	switch {
	case h.has('e'):
		r.W = max(start.W+d.X, minSize.Width)
	case h.has('w'):
		r.W = max(start.W-d.X, minSize.Width)
		r.X = start.MaxX() - r.W
	}
	switch {
	case h.has('s'):
		r.H = max(start.H+d.Y, minSize.Height)
	case h.has('n'):
		r.H = max(start.H-d.Y, minSize.Height)
		r.Y = start.MaxY() - r.H
	}
	return r
}

// scaledText scales a text factor by the change in height.
func scaledText(scale, fromH, toH float64) float64 {
	if scale <= 0 || fromH <= 0 {
		return scale
	}
	return scale * toH / fromH
}
