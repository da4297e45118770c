// Package geom converts between world and screen coordinates.
//
// World coordinates are what the replicated document stores; screen
// coordinates are pixels relative to the top-left of the rendered canvas.
// A Transform is derived from a viewport: the viewport offset is the world
// point shown at the screen origin and scale is pixels per world unit.
//
//	screen = (world - offset) * scale
//	world  = screen / scale + offset
//
// Everything in this package is a pure function of its arguments.
package geom
