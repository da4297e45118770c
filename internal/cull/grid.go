package cull

import (
	"math"

	"github.com/roach88/canvas/internal/geom"
	"github.com/roach88/canvas/internal/ir"
)

// DefaultCellSize is the grid cell edge, in world units.
const DefaultCellSize = 512

type cell struct {
	cx, cy int
}

// GridIndex is a uniform bucket grid over node bounding boxes. A node is
// stored in every cell its box touches. Not safe for concurrent use.
type GridIndex struct {
	cellSize float64
	cells    map[cell][]int
	nodes    []ir.Node
}

// NewGridIndex creates an empty index. A non-positive cellSize uses
// DefaultCellSize.
func NewGridIndex(cellSize float64) *GridIndex {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &GridIndex{
		cellSize: cellSize,
		cells:    make(map[cell][]int),
	}
}

// Rebuild replaces the indexed node set. Soft-deleted nodes are skipped.
func (g *GridIndex) Rebuild(nodes []ir.Node) {
	g.cells = make(map[cell][]int, len(g.cells))
	g.nodes = g.nodes[:0]

	for _, n := range nodes {
		if n.Deleted {
			continue
		}
		idx := len(g.nodes)
		g.nodes = append(g.nodes, n)
		g.forEachCell(geom.NodeRect(n), func(c cell) {
			g.cells[c] = append(g.cells[c], idx)
		})
	}
}

// Len returns the number of indexed nodes.
func (g *GridIndex) Len() int {
	return len(g.nodes)
}

// Query returns the same ids Cull would for the indexed nodes.
func (g *GridIndex) Query(view geom.Rect, overscan float64) []string {
	expanded := view.Expand(overscan)

	seen := make(map[int]struct{})
	hits := make([]ir.Node, 0)
	g.forEachCell(expanded, func(c cell) {
		for _, idx := range g.cells[c] {
			if _, ok := seen[idx]; ok {
				continue
			}
			seen[idx] = struct{}{}
			// Cells are coarse; the exact test decides.
			if geom.NodeRect(g.nodes[idx]).Intersects(expanded) {
				hits = append(hits, g.nodes[idx])
			}
		}
	})
	return ids(hits)
}

// QueryViewport is the GridIndex counterpart of CullViewport.
func (g *GridIndex) QueryViewport(vp ir.Viewport, screenW, screenH, overscanPx float64) []string {
	view, overscan := worldView(vp, screenW, screenH, overscanPx)
	return g.Query(view, overscan)
}

// forEachCell visits every cell a closed rectangle touches. Edges that fall
// exactly on a cell boundary touch both neighbours, matching the closed
// intersection test.
func (g *GridIndex) forEachCell(r geom.Rect, fn func(cell)) {
	x0 := int(math.Floor(r.X / g.cellSize))
	y0 := int(math.Floor(r.Y / g.cellSize))
	x1 := int(math.Floor(r.MaxX() / g.cellSize))
	y1 := int(math.Floor(r.MaxY() / g.cellSize))
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			fn(cell{cx: cx, cy: cy})
		}
	}
}
