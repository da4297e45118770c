package geom

import (
	"math"

	"github.com/roach88/canvas/internal/ir"
)

// AnchorPoint returns the world position of an anchor on rectangle r.
// Offsets run left to right on the top and bottom sides and top to bottom
// on the left and right sides. Center ignores the offset.
func AnchorPoint(r Rect, side ir.Side, offset float64) Point {
	offset = clamp01(offset)
	switch side {
	case ir.SideTop:
		return Point{X: r.X + r.W*offset, Y: r.Y}
	case ir.SideBottom:
		return Point{X: r.X + r.W*offset, Y: r.MaxY()}
	case ir.SideLeft:
		return Point{X: r.X, Y: r.Y + r.H*offset}
	case ir.SideRight:
		return Point{X: r.MaxX(), Y: r.Y + r.H*offset}
	default:
		return r.Center()
	}
}

// EndpointPoint resolves a connection endpoint against its node.
func EndpointPoint(n ir.Node, a ir.Anchor) Point {
	return AnchorPoint(NodeRect(n), a.Side, a.Offset)
}

// NearestAnchor returns the perimeter anchor of r closest to p: the side
// with the smallest distance, and p projected onto that side as the offset.
func NearestAnchor(r Rect, p Point) ir.Anchor {
	type candidate struct {
		side ir.Side
		dist float64
	}
	cands := []candidate{
		{ir.SideTop, math.Abs(p.Y - r.Y)},
		{ir.SideRight, math.Abs(p.X - r.MaxX())},
		{ir.SideBottom, math.Abs(p.Y - r.MaxY())},
		{ir.SideLeft, math.Abs(p.X - r.X)},
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.dist < best.dist {
			best = c
		}
	}

	var offset float64
	switch best.side {
	case ir.SideTop, ir.SideBottom:
		offset = fraction(p.X-r.X, r.W)
	default:
		offset = fraction(p.Y-r.Y, r.H)
	}
	return ir.Anchor{Side: best.side, Offset: offset}
}

func fraction(v, length float64) float64 {
	if length <= 0 {
		return 0.5
	}
	return clamp01(v / length)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0.5
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
