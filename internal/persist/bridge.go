package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/canvas/internal/doc"
	"github.com/roach88/canvas/internal/ir"
	"github.com/roach88/canvas/internal/model"
)

// DefaultDelay is the quiet period before dirty entities are flushed.
const DefaultDelay = 500 * time.Millisecond

// SaveState is the coarse state of the bridge for a status indicator.
type SaveState string

const (
	StateIdle   SaveState = "idle"
	StateSaving SaveState = "saving"
	StateSaved  SaveState = "saved"
	StateFailed SaveState = "failed"
)

// Status is a point-in-time view of the bridge.
type Status struct {
	State     SaveState
	Pending   int
	LastError error
	LastSaved time.Time
	Failures  int
}

// Bridge observes a document and saves changed entities. Observation runs
// on the document's goroutine; values are copied at observation time so
// flushes never read the document.
type Bridge struct {
	workspaceID string
	userID      string
	saver       Saver
	log         UpdateLog
	delay       time.Duration
	now         func() time.Time

	unsubs []func()

	// flushMu serializes flushes so saves of one entity stay in order.
	flushMu sync.Mutex

	mu       sync.Mutex
	nodes    map[string]ir.Node
	conns    map[string]ir.Connection
	viewport *ir.Viewport
	updates  [][]byte
	timer    *time.Timer
	status   Status
	closed   bool
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithDelay sets the debounce delay. Zero flushes only on Flush and Close.
func WithDelay(d time.Duration) BridgeOption {
	return func(b *Bridge) { b.delay = d }
}

// WithUpdateLog also appends every observed document update to log.
func WithUpdateLog(log UpdateLog) BridgeOption {
	return func(b *Bridge) { b.log = log }
}

// WithNow sets the clock used for Status.LastSaved.
func WithNow(now func() time.Time) BridgeOption {
	return func(b *Bridge) { b.now = now }
}

// NewBridge starts observing d. Transactions with OriginLoad are not saved;
// they came from storage.
func NewBridge(d *doc.Doc, saver Saver, workspaceID, userID string, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		workspaceID: workspaceID,
		userID:      userID,
		saver:       saver,
		delay:       DefaultDelay,
		now:         time.Now,
		nodes:       make(map[string]ir.Node),
		conns:       make(map[string]ir.Connection),
		status:      Status{State: StateIdle},
	}
	for _, opt := range opts {
		opt(b)
	}

	b.unsubs = []func(){
		d.Observe(model.MapNodes, b.onNodes),
		d.Observe(model.MapConnections, b.onConnections),
		d.Observe(model.MapViewport, func(cs doc.Changeset) { b.onViewport(d, cs) }),
	}
	if b.log != nil {
		b.unsubs = append(b.unsubs, d.OnUpdate(b.onUpdate))
	}
	return b
}

func (b *Bridge) onNodes(cs doc.Changeset) {
	if cs.Origin == doc.OriginLoad {
		return
	}
	var dirty []ir.Node
	for _, ch := range cs.Changes {
		if n, ok := changedValue[ir.Node](ch); ok {
			dirty = append(dirty, n)
		}
	}
	b.MarkNodes(dirty...)
}

func (b *Bridge) onConnections(cs doc.Changeset) {
	if cs.Origin == doc.OriginLoad {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range cs.Changes {
		if c, ok := changedValue[ir.Connection](ch); ok {
			b.conns[c.ID] = c
		}
	}
	b.scheduleLocked()
}

func (b *Bridge) onViewport(d *doc.Doc, cs doc.Changeset) {
	if cs.Origin == doc.OriginLoad {
		return
	}
	var v ir.Viewport
	err := doc.Guard("persist.viewport", func() error {
		var err error
		v, err = model.ReadViewport(d)
		return err
	})
	if err != nil {
		slog.Warn("viewport not captured for save", "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.viewport = &v
	b.scheduleLocked()
}

// changedValue returns the value to save for one change. Keys removed
// from the document are saved as soft-deleted records built from the
// previous value; storage never hard-deletes.
func changedValue[T interface{ ir.Node | ir.Connection }](ch doc.Change) (T, bool) {
	var zero T
	if ch.Action == doc.ActionDelete {
		old, ok := ch.Old.(T)
		if !ok {
			return zero, false
		}
		return markDeleted(old), true
	}
	v, ok, err := ch.Ref.Load()
	if err != nil {
		slog.Debug("change released before save", "key", ch.Key, "error", err)
		return zero, false
	}
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func markDeleted[T interface{ ir.Node | ir.Connection }](v T) T {
	switch x := any(v).(type) {
	case ir.Node:
		x.Deleted = true
		return any(x).(T)
	case ir.Connection:
		x.Deleted = true
		return any(x).(T)
	}
	return v
}

func (b *Bridge) onUpdate(u doc.Update) {
	if u.Origin == doc.OriginLoad {
		return
	}
	data, err := doc.EncodeUpdate(u)
	if err != nil {
		slog.Warn("update not logged", "error", err)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.updates = append(b.updates, data)
	b.scheduleLocked()
}

// MarkNodes queues nodes for saving as if they had changed in the document.
func (b *Bridge) MarkNodes(nodes ...ir.Node) {
	if len(nodes) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, n := range nodes {
		b.nodes[n.ID] = n.Clone()
	}
	b.scheduleLocked()
}

// scheduleLocked restarts the debounce timer. Callers hold b.mu.
func (b *Bridge) scheduleLocked() {
	b.status.Pending = b.pendingLocked()
	if b.delay <= 0 {
		return
	}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.delay, b.flushFromTimer)
		return
	}
	b.timer.Reset(b.delay)
}

func (b *Bridge) pendingLocked() int {
	n := len(b.nodes) + len(b.conns) + len(b.updates)
	if b.viewport != nil {
		n++
	}
	return n
}

func (b *Bridge) flushFromTimer() {
	if err := b.Flush(context.Background()); err != nil {
		slog.Warn("background save failed", "workspace", b.workspaceID, "error", err)
	}
}

// Status returns the current save status. It never blocks on a flush.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

type batch struct {
	nodes    []ir.Node
	conns    []ir.Connection
	viewport *ir.Viewport
	updates  [][]byte
}

func (bt batch) size() int {
	n := len(bt.nodes) + len(bt.conns) + len(bt.updates)
	if bt.viewport != nil {
		n++
	}
	return n
}

// take removes everything pending. Callers hold b.mu.
func (b *Bridge) takeLocked() batch {
	bt := batch{viewport: b.viewport, updates: b.updates}
	for _, id := range slices.Sorted(maps.Keys(b.nodes)) {
		bt.nodes = append(bt.nodes, b.nodes[id])
	}
	for _, id := range slices.Sorted(maps.Keys(b.conns)) {
		bt.conns = append(bt.conns, b.conns[id])
	}
	clear(b.nodes)
	clear(b.conns)
	b.viewport = nil
	b.updates = nil
	return bt
}

// Flush saves everything pending now. Entities that fail are queued again
// unless a newer change has replaced them, and the error is reported in
// Status as well as returned.
func (b *Bridge) Flush(ctx context.Context) error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
	}
	bt := b.takeLocked()
	if bt.size() == 0 {
		b.mu.Unlock()
		return nil
	}
	b.status.State = StateSaving
	b.status.Pending = 0
	b.mu.Unlock()

	ctx, span := tracer.Start(ctx, "persist.flush", trace.WithAttributes(
		attribute.String("workspace.id", b.workspaceID),
		attribute.Int("nodes", len(bt.nodes)),
		attribute.Int("connections", len(bt.conns)),
		attribute.Bool("viewport", bt.viewport != nil),
		attribute.Int("updates", len(bt.updates)),
	))
	defer span.End()

	failed := batch{}
	var errs []error

	if len(bt.updates) > 0 && b.log != nil {
		if err := b.log.AppendUpdates(ctx, b.workspaceID, bt.updates); err != nil {
			errs = append(errs, fmt.Errorf("append updates: %w", err))
			failed.updates = bt.updates
		}
	}
	for _, n := range bt.nodes {
		if err := b.saver.SaveNode(ctx, b.workspaceID, n); err != nil {
			errs = append(errs, fmt.Errorf("save node %s: %w", n.ID, err))
			failed.nodes = append(failed.nodes, n)
		}
	}
	for _, c := range bt.conns {
		if err := b.saver.SaveConnection(ctx, b.workspaceID, c); err != nil {
			errs = append(errs, fmt.Errorf("save connection %s: %w", c.ID, err))
			failed.conns = append(failed.conns, c)
		}
	}
	if bt.viewport != nil {
		if err := b.saver.SaveViewport(ctx, b.workspaceID, b.userID, *bt.viewport); err != nil {
			errs = append(errs, fmt.Errorf("save viewport: %w", err))
			failed.viewport = bt.viewport
		}
	}

	err := errors.Join(errs...)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.requeueLocked(failed)
		b.status.State = StateFailed
		b.status.LastError = err
		b.status.Failures++
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("save failed", "workspace", b.workspaceID, "failed", failed.size(), "error", err)
		if !b.closed {
			b.scheduleLocked()
		}
	} else {
		b.status.State = StateSaved
		b.status.LastError = nil
		b.status.LastSaved = b.now()
		slog.Debug("saved", "workspace", b.workspaceID, "entities", bt.size())
	}
	b.status.Pending = b.pendingLocked()
	return err
}

// requeueLocked puts failed entities back unless a newer version arrived
// during the flush. Failed log entries go in front of newer ones.
func (b *Bridge) requeueLocked(failed batch) {
	for _, n := range failed.nodes {
		if _, newer := b.nodes[n.ID]; !newer {
			b.nodes[n.ID] = n
		}
	}
	for _, c := range failed.conns {
		if _, newer := b.conns[c.ID]; !newer {
			b.conns[c.ID] = c
		}
	}
	if failed.viewport != nil && b.viewport == nil {
		b.viewport = failed.viewport
	}
	if len(failed.updates) > 0 {
		b.updates = append(failed.updates, b.updates...)
	}
}

// Close stops observing and flushes what is pending. The document's
// observers must only be released from the document's goroutine, so Close
// is called from there too.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()

	for _, u := range b.unsubs {
		u()
	}
	b.unsubs = nil
	return b.Flush(ctx)
}
