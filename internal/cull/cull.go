// Package cull selects the nodes that should be rendered for a viewport.
//
// Cull is a pure bounding-box scan and the reference behaviour. GridIndex
// buckets nodes into a uniform grid for larger canvases and must return the
// same ids as Cull for every query.
package cull

import (
	"github.com/roach88/canvas/internal/geom"
	"github.com/roach88/canvas/internal/ir"
)

// DefaultOverscanPx is the screen margin added around the viewport.
const DefaultOverscanPx = 200

// Cull returns the ids of live nodes whose bounding box intersects view
// grown by overscan world units, in paint order (ZIndex, then ID).
func Cull(nodes []ir.Node, view geom.Rect, overscan float64) []string {
	expanded := view.Expand(overscan)

	hits := make([]ir.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Deleted {
			continue
		}
		if geom.NodeRect(n).Intersects(expanded) {
			hits = append(hits, n)
		}
	}
	return ids(hits)
}

// CullViewport culls against the area a screenW x screenH pixel canvas
// shows under vp. overscanPx is in screen pixels and is converted to world
// units at the viewport's scale.
func CullViewport(nodes []ir.Node, vp ir.Viewport, screenW, screenH, overscanPx float64) []string {
	view, overscan := worldView(vp, screenW, screenH, overscanPx)
	return Cull(nodes, view, overscan)
}

// Contained returns the ids of live nodes whose whole bounding box lies
// inside r, in paint order. Box selection uses it.
func Contained(nodes []ir.Node, r geom.Rect) []string {
	hits := make([]ir.Node, 0)
	for _, n := range nodes {
		if n.Deleted {
			continue
		}
		if r.ContainsRect(geom.NodeRect(n)) {
			hits = append(hits, n)
		}
	}
	return ids(hits)
}

func worldView(vp ir.Viewport, screenW, screenH, overscanPx float64) (geom.Rect, float64) {
	t := geom.FromViewport(vp)
	return t.VisibleWorldRect(screenW, screenH), overscanPx / t.Scale
}

func ids(nodes []ir.Node) []string {
	ir.SortNodes(nodes)
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
