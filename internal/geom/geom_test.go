package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/canvas/internal/ir"
)

func TestTransform_RoundTrip(t *testing.T) {
	tr := Transform{OffsetX: 100, OffsetY: -50, Scale: 2}

	screen := tr.WorldToScreen(Point{X: 110, Y: -40})
	assert.Equal(t, Point{X: 20, Y: 20}, screen)
	assert.Equal(t, Point{X: 110, Y: -40}, tr.ScreenToWorld(screen))
}

func TestTransform_ScreenDeltaIgnoresOffset(t *testing.T) {
	tr := Transform{OffsetX: 1000, OffsetY: 1000, Scale: 4}
	assert.Equal(t, Point{X: 2.5, Y: -1}, tr.ScreenDeltaToWorld(Point{X: 10, Y: -4}))
}

func TestTransform_VisibleWorldRect(t *testing.T) {
	tr := Transform{OffsetX: 10, OffsetY: 20, Scale: 0.5}
	assert.Equal(t, Rect{X: 10, Y: 20, W: 1600, H: 1200}, tr.VisibleWorldRect(800, 600))
}

func TestTransform_ZoomAtKeepsCursorFixed(t *testing.T) {
	tr := Transform{OffsetX: 0, OffsetY: 0, Scale: 1}
	cursor := Point{X: 200, Y: 100}
	before := tr.ScreenToWorld(cursor)

	zoomed := tr.ZoomAt(cursor, 2, ir.MinScale, ir.MaxScale)
	assert.Equal(t, 2.0, zoomed.Scale)
	assert.Equal(t, before, zoomed.ScreenToWorld(cursor))
	assert.Equal(t, Point{X: 100, Y: 50}, Point{X: zoomed.OffsetX, Y: zoomed.OffsetY})
}

func TestTransform_ZoomAtClamps(t *testing.T) {
	tr := Transform{Scale: 2}
	assert.Equal(t, ir.MaxScale, tr.ZoomAt(Point{}, 100, ir.MinScale, ir.MaxScale).Scale)
	assert.Equal(t, ir.MinScale, tr.ZoomAt(Point{}, 0.0001, ir.MinScale, ir.MaxScale).Scale)
	assert.Equal(t, tr, tr.ZoomAt(Point{}, 0, ir.MinScale, ir.MaxScale))
}

func TestTransform_PanBy(t *testing.T) {
	tr := Transform{OffsetX: 0, OffsetY: 0, Scale: 2}
	got := tr.PanBy(Point{X: 20, Y: -10})
	assert.Equal(t, -10.0, got.OffsetX)
	assert.Equal(t, 5.0, got.OffsetY)
}

func TestFromViewport_Clamps(t *testing.T) {
	tr := FromViewport(ir.Viewport{Scale: 0})
	assert.Equal(t, 1.0, tr.Scale)
}

func TestRect_Intersects(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 10, H: 10}

	tests := []struct {
		name  string
		other Rect
		want  bool
	}{
		{"overlap", Rect{X: 5, Y: 5, W: 10, H: 10}, true},
		{"inside", Rect{X: 2, Y: 2, W: 1, H: 1}, true},
		{"touching edge", Rect{X: 10, Y: 0, W: 5, H: 5}, true},
		{"touching corner", Rect{X: 10, Y: 10, W: 5, H: 5}, true},
		{"right of", Rect{X: 10.5, Y: 0, W: 5, H: 5}, false},
		{"above", Rect{X: 0, Y: -6, W: 5, H: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Intersects(tt.other))
			assert.Equal(t, tt.want, tt.other.Intersects(r))
		})
	}
}

func TestRect_ContainsRect(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 100, H: 100}
	assert.True(t, r.ContainsRect(Rect{X: 10, Y: 10, W: 20, H: 20}))
	assert.True(t, r.ContainsRect(r))
	assert.False(t, r.ContainsRect(Rect{X: 90, Y: 90, W: 20, H: 5}))
}

func TestRectFromCorners(t *testing.T) {
	got := RectFromCorners(Point{X: 10, Y: 5}, Point{X: -10, Y: 25})
	assert.Equal(t, Rect{X: -10, Y: 5, W: 20, H: 20}, got)
}

func TestRect_Expand(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 10, H: 10}
	assert.Equal(t, Rect{X: -5, Y: -5, W: 20, H: 20}, r.Expand(5))
	assert.Equal(t, Rect{X: 5, Y: 5, W: 0, H: 0}, r.Expand(-20))
}

func TestSnap(t *testing.T) {
	assert.Equal(t, 32.0, Snap(30, 16))
	assert.Equal(t, 16.0, Snap(20, 16))
	assert.Equal(t, 7.5, Snap(7.5, 0))
}

func TestAnchorPoint(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 100, H: 50}

	assert.Equal(t, Point{X: 50, Y: 0}, AnchorPoint(r, ir.SideTop, 0.5))
	assert.Equal(t, Point{X: 100, Y: 25}, AnchorPoint(r, ir.SideRight, 0.5))
	assert.Equal(t, Point{X: 25, Y: 50}, AnchorPoint(r, ir.SideBottom, 0.25))
	assert.Equal(t, Point{X: 0, Y: 50}, AnchorPoint(r, ir.SideLeft, 1))
	assert.Equal(t, Point{X: 50, Y: 25}, AnchorPoint(r, ir.SideCenter, 0.9))
	// Out-of-range offsets clamp to the side's ends.
	assert.Equal(t, Point{X: 100, Y: 0}, AnchorPoint(r, ir.SideTop, 3))
}

func TestNearestAnchor(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 100, H: 50}

	assert.Equal(t, ir.Anchor{Side: ir.SideRight, Offset: 0.5}, NearestAnchor(r, Point{X: 98, Y: 25}))
	assert.Equal(t, ir.Anchor{Side: ir.SideTop, Offset: 0.25}, NearestAnchor(r, Point{X: 25, Y: -3}))
	assert.Equal(t, ir.Anchor{Side: ir.SideBottom, Offset: 1}, NearestAnchor(r, Point{X: 150, Y: 52}))
}
