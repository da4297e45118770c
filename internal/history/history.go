// Package history keeps bounded undo and redo stacks of canvas snapshots.
//
// Entries are pushed only when an action completes. Intermediate pointer
// moves never reach the stack, so one drag is one undo step.
package history

import (
	"log/slog"
	"time"

	"github.com/roach88/canvas/internal/ir"
)

const (
	// DefaultDepth bounds each stack. The oldest entry is dropped first.
	DefaultDepth = 50

	// DefaultWindow is the quiet period for coalesced records.
	DefaultWindow = 500 * time.Millisecond
)

// Target is the state history reads from and restores into.
// *model.Store implements it.
type Target interface {
	Snapshot() ir.Snapshot
	ReplaceState(snap ir.Snapshot)
}

// Entry is one undo step: the state to return to and the action that left it.
type Entry struct {
	Label    string
	Snapshot ir.Snapshot
}

// History records snapshots of a Target.
type History struct {
	target Target
	depth  int
	window time.Duration
	now    func() time.Time

	past   []Entry
	future []Entry

	// coalescing run
	runLabel string
	runAt    time.Time
}

// Option configures a History.
type Option func(*History)

// WithDepth sets the stack bound. Values below 1 are ignored.
func WithDepth(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.depth = n
		}
	}
}

// WithWindow sets the coalescing window.
func WithWindow(d time.Duration) Option {
	return func(h *History) { h.window = d }
}

// WithClock sets the time source used for coalescing.
func WithClock(now func() time.Time) Option {
	return func(h *History) { h.now = now }
}

// New returns an empty history over target.
func New(target Target, opts ...Option) *History {
	h := &History{
		target: target,
		depth:  DefaultDepth,
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Record pushes the current state as the pre-action snapshot of label.
// Call it immediately before the action runs.
func (h *History) Record(label string) {
	h.endRun()
	h.push(label, h.target.Snapshot())
}

// Checkpoint pushes before as the pre-action snapshot of a completed action.
// Nothing is pushed when the action left the state unchanged. It reports
// whether an entry was added.
func (h *History) Checkpoint(label string, before ir.Snapshot) bool {
	h.endRun()
	if before.Equal(h.target.Snapshot()) {
		return false
	}
	h.push(label, before.Clone())
	return true
}

// RecordDebounced is Record for bursts of small actions such as keyboard
// nudges. Calls with the same label less than the window apart collapse
// into the first call's entry.
func (h *History) RecordDebounced(label string) {
	if h.inRun(label) {
		h.runAt = h.now()
		return
	}
	h.push(label, h.target.Snapshot())
	h.startRun(label)
}

// CheckpointCoalesced is Checkpoint with the coalescing of RecordDebounced.
// It is used for wheel zoom, which completes on every event.
func (h *History) CheckpointCoalesced(label string, before ir.Snapshot) bool {
	if h.inRun(label) {
		h.runAt = h.now()
		return false
	}
	if before.Equal(h.target.Snapshot()) {
		return false
	}
	h.push(label, before.Clone())
	h.startRun(label)
	return true
}

// Undo restores the most recent pre-action snapshot. The current state is
// pushed onto the redo stack. It reports whether anything was undone.
func (h *History) Undo() bool {
	if len(h.past) == 0 {
		return false
	}
	h.endRun()
	e := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = appendBounded(h.future, Entry{Label: e.Label, Snapshot: h.target.Snapshot()}, h.depth)

	slog.Debug("undo", "label", e.Label, "past", len(h.past), "future", len(h.future))
	h.target.ReplaceState(e.Snapshot)
	return true
}

// Redo reapplies the most recently undone action.
func (h *History) Redo() bool {
	if len(h.future) == 0 {
		return false
	}
	h.endRun()
	e := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = appendBounded(h.past, Entry{Label: e.Label, Snapshot: h.target.Snapshot()}, h.depth)

	slog.Debug("redo", "label", e.Label, "past", len(h.past), "future", len(h.future))
	h.target.ReplaceState(e.Snapshot)
	return true
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Len returns the sizes of the undo and redo stacks.
func (h *History) Len() (past, future int) {
	return len(h.past), len(h.future)
}

// UndoLabel returns the label Undo would revert, or "".
func (h *History) UndoLabel() string {
	if len(h.past) == 0 {
		return ""
	}
	return h.past[len(h.past)-1].Label
}

// RedoLabel returns the label Redo would reapply, or "".
func (h *History) RedoLabel() string {
	if len(h.future) == 0 {
		return ""
	}
	return h.future[len(h.future)-1].Label
}

// Clear empties both stacks.
func (h *History) Clear() {
	h.past = nil
	h.future = nil
	h.endRun()
}

func (h *History) push(label string, snap ir.Snapshot) {
	h.past = appendBounded(h.past, Entry{Label: label, Snapshot: snap}, h.depth)
	h.future = nil
}

func (h *History) inRun(label string) bool {
	return h.runLabel != "" && h.runLabel == label && h.now().Sub(h.runAt) < h.window
}

func (h *History) startRun(label string) {
	h.runLabel = label
	h.runAt = h.now()
}

func (h *History) endRun() {
	h.runLabel = ""
}

// appendBounded appends e and drops entries from the front beyond depth.
func appendBounded(stack []Entry, e Entry, depth int) []Entry {
	stack = append(stack, e)
	if over := len(stack) - depth; over > 0 {
		stack = append(stack[:0:0], stack[over:]...)
	}
	return stack
}
