// Package gesture turns pointer and keyboard input into canvas actions.
//
// The Controller is a state machine:
//
//	idle --down on node--------> pending-drag --move past threshold--> dragging
//	idle --down on handle------> resizing
//	idle --down on anchor------> connecting
//	idle --down on canvas------> box-selecting
//	idle --middle or space+left> panning
//
// Every state returns to idle on pointer up. Escape and lost pointer capture
// return to idle from anywhere and discard the gesture's preview.
//
// Drags and resizes are previewed and written once on pointer up, so a
// canceled gesture never touches the document and a completed one is a
// single mutation and a single undo step. Pans apply live; canceling a pan
// restores the viewport it started from.
//
// Gestures never fail. Input that does not fit the current state is
// ignored, and action errors from the canvas are logged at debug level.
package gesture
