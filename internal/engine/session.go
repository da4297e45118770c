package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/canvas/internal/cull"
	"github.com/roach88/canvas/internal/doc"
	"github.com/roach88/canvas/internal/gesture"
	"github.com/roach88/canvas/internal/history"
	"github.com/roach88/canvas/internal/ir"
	"github.com/roach88/canvas/internal/model"
	"github.com/roach88/canvas/internal/persist"
)

// Storage is durable storage for a session: a loader, a per-entity saver
// and an update log over the same workspace tables.
type Storage interface {
	persist.Loader
	persist.Saver
	persist.UpdateLog
	CreateWorkspace(ctx context.Context, ws ir.Workspace) error
}

// Session is the single-writer event loop for one workspace.
//
// Thread-safety model:
//   - Enqueue and Stop: safe from any goroutine
//   - Run, Drain, Process, Mount, Unmount: one goroutine at a time
//   - accessors (Store, History, ...): only from the goroutine running the loop
type Session struct {
	workspaceID string
	userID      string

	clock *Clock
	queue *eventQueue

	store      *model.Store
	history    *history.History
	controller *gesture.Controller

	storage   Storage
	saveDelay time.Duration
	now       func() time.Time
	replicaID string

	doc       *doc.Doc
	bridge    *persist.Bridge
	lastClock uint64
	mounts    int

	storeOpts   []model.Option
	historyOpts []history.Option
	gestureCfg  gesture.Config
	overscanPx  float64
}

// Option configures a Session.
type Option func(*Session)

// WithStorage persists the session. Without it the session is in-memory.
func WithStorage(st Storage) Option {
	return func(s *Session) { s.storage = st }
}

// WithSaveDelay sets the persistence debounce delay. Zero saves only on
// flush and unmount.
func WithSaveDelay(d time.Duration) Option {
	return func(s *Session) { s.saveDelay = d }
}

// WithGestureConfig sets the gesture controller tunables.
func WithGestureConfig(cfg gesture.Config) Option {
	return func(s *Session) { s.gestureCfg = cfg }
}

// WithHistory sets the undo depth and debounce window.
func WithHistory(depth int, window time.Duration) Option {
	return func(s *Session) {
		s.historyOpts = append(s.historyOpts, history.WithDepth(depth), history.WithWindow(window))
	}
}

// WithOverscan sets the screen margin, in pixels, that Visible adds around
// the viewport.
func WithOverscan(px float64) Option {
	return func(s *Session) { s.overscanPx = px }
}

// WithNow sets the wall clock for audit fields, history coalescing and save
// status.
func WithNow(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator sets the node and connection id generator.
func WithIDGenerator(g model.IDGenerator) Option {
	return func(s *Session) { s.storeOpts = append(s.storeOpts, model.WithIDGenerator(g)) }
}

// WithReplicaID fixes the document replica id. The default is a fresh
// UUIDv7 per mount.
func WithReplicaID(id string) Option {
	return func(s *Session) { s.replicaID = id }
}

// New creates an unmounted session for workspaceID edited by userID.
func New(workspaceID, userID string, opts ...Option) *Session {
	s := &Session{
		workspaceID: workspaceID,
		userID:      userID,
		clock:       NewClock(),
		queue:       newEventQueue(),
		saveDelay:   persist.DefaultDelay,
		now:         time.Now,
		gestureCfg:  gesture.DefaultConfig(),
		overscanPx:  cull.DefaultOverscanPx,
	}
	for _, opt := range opts {
		opt(s)
	}

	storeOpts := append([]model.Option{
		model.WithIdentity(model.StaticIdentity(userID)),
		model.WithClock(s.now),
	}, s.storeOpts...)
	s.store = model.NewStore(storeOpts...)
	s.history = history.New(s.store, append([]history.Option{history.WithClock(s.now)}, s.historyOpts...)...)
	s.controller = gesture.New(s.store,
		gesture.WithConfig(s.gestureCfg),
		gesture.WithRecorder(s.history),
	)
	return s
}

// Visible returns the live nodes a screen of the given size shows under the
// current viewport, overscan included, in paint order.
func (s *Session) Visible(screenW, screenH float64) []string {
	return cull.CullViewport(s.store.Nodes(), s.store.Viewport(), screenW, screenH, s.overscanPx)
}

// WorkspaceID returns the workspace being edited.
func (s *Session) WorkspaceID() string { return s.workspaceID }

// Store returns the read model.
func (s *Session) Store() *model.Store { return s.store }

// History returns the undo history.
func (s *Session) History() *history.History { return s.history }

// Controller returns the gesture controller.
func (s *Session) Controller() *gesture.Controller { return s.controller }

// Doc returns the mounted document, or nil.
func (s *Session) Doc() *doc.Doc { return s.doc }

// Mounted reports whether a document is mounted.
func (s *Session) Mounted() bool { return s.doc != nil }

// Mounts returns how many times the session has been mounted.
func (s *Session) Mounts() int { return s.mounts }

// Clock returns the event clock.
func (s *Session) Clock() *Clock { return s.clock }

// Status returns the persistence status. An in-memory or unmounted
// session reports idle.
func (s *Session) Status() persist.Status {
	if s.bridge == nil {
		return persist.Status{State: persist.StateIdle}
	}
	return s.bridge.Status()
}

// Mount creates a document, seeds it and binds the read model.
//
// With storage the document is rebuilt from the update log; a workspace
// with no log is loaded from its tables and the loaded state becomes the
// log's first entry. Without storage, or when storage is empty, the read
// model's current snapshot is pushed into the new document.
func (s *Session) Mount(ctx context.Context) error {
	if s.doc != nil {
		return newSessionError(ErrCodeAlreadyMounted, "workspace %s is already mounted", s.workspaceID)
	}

	d := model.NewDoc(doc.WithClock(s.lastClock), doc.WithReplicaID(s.replicaID))
	seeded, migrated, err := s.seed(ctx, d)
	if err != nil {
		d.Destroy()
		return fmt.Errorf("mount %s: %w", s.workspaceID, err)
	}

	if s.storage != nil {
		s.bridge = persist.NewBridge(d, s.storage, s.workspaceID, s.userID,
			persist.WithDelay(s.saveDelay),
			persist.WithUpdateLog(s.storage),
			persist.WithNow(s.now),
		)
		s.bridge.MarkNodes(migrated...)
	}

	s.store.Bind(d)
	if !seeded {
		if err := s.store.Seed(); err != nil {
			slog.Warn("seed from snapshot failed", "workspace", s.workspaceID, "error", err)
		}
	}
	s.doc = d
	s.mounts++

	slog.Info("session mounted",
		"workspace", s.workspaceID,
		"replica", d.ReplicaID(),
		"clock", d.Clock(),
		"mounts", s.mounts,
	)
	return nil
}

// seed fills d from storage. It reports whether anything was loaded.
func (s *Session) seed(ctx context.Context, d *doc.Doc) (bool, []ir.Node, error) {
	if s.storage == nil {
		return false, nil, nil
	}
	err := s.storage.CreateWorkspace(ctx, ir.Workspace{ID: s.workspaceID, Settings: ir.DefaultSettings()})
	if err != nil {
		return false, nil, err
	}

	n, err := persist.Replay(ctx, s.storage, d, s.workspaceID)
	if err != nil {
		return false, nil, err
	}
	if n > 0 {
		return true, nil, nil
	}

	loaded, err := persist.Load(ctx, s.storage, d, s.workspaceID, s.userID)
	if err != nil {
		return false, nil, err
	}
	if len(loaded.Snapshot.Nodes) == 0 && len(loaded.Snapshot.Connections) == 0 {
		return false, nil, nil
	}
	state, err := d.EncodeState()
	if err == nil {
		err = s.storage.AppendUpdates(ctx, s.workspaceID, [][]byte{state})
	}
	if err != nil {
		slog.Warn("update log baseline not written", "workspace", s.workspaceID, "error", err)
	}
	return true, loaded.Migrated, nil
}

// Unmount cancels any gesture, flushes pending saves and destroys the
// document. The read model keeps its snapshot and the history is kept.
func (s *Session) Unmount(ctx context.Context) error {
	if s.doc == nil {
		return newSessionError(ErrCodeNotMounted, "workspace %s is not mounted", s.workspaceID)
	}
	s.controller.Cancel()

	var err error
	if s.bridge != nil {
		err = s.bridge.Close(ctx)
		s.bridge = nil
	}
	s.lastClock = s.doc.Clock()
	s.store.Unbind()
	s.doc.Destroy()
	s.doc = nil

	slog.Info("session unmounted", "workspace", s.workspaceID, "clock", s.lastClock)
	if err != nil {
		return fmt.Errorf("unmount %s: %w", s.workspaceID, err)
	}
	return nil
}

// Flush saves pending changes now.
func (s *Session) Flush(ctx context.Context) error {
	if s.bridge == nil {
		return nil
	}
	return s.bridge.Flush(ctx)
}

// Enqueue stamps ev with the next sequence number and submits it. Returns
// false once the session has been stopped.
func (s *Session) Enqueue(ev Event) bool {
	ev.Seq = s.clock.Next()
	return s.queue.Enqueue(ev)
}

// Pending returns the number of queued events.
func (s *Session) Pending() int {
	return s.queue.Len()
}

// Run processes events until ctx is cancelled or Stop is called and the
// queue is drained.
//
// A failing event is logged with its sequence number and processing
// continues with the next one.
func (s *Session) Run(ctx context.Context) error {
	slog.Info("session starting", "workspace", s.workspaceID)

	for {
		if ev, ok := s.queue.TryDequeue(); ok {
			if err := s.Process(ctx, ev); err != nil {
				logEventError(ev, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("session stopping: context cancelled", "workspace", s.workspaceID)
			s.queue.Close()
			return ctx.Err()

		case <-s.queue.Wait():
			// The signal channel is closed once the queue is closed.
			if s.queue.Closed() && s.queue.Len() == 0 {
				slog.Info("session stopping: queue closed", "workspace", s.workspaceID)
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns after processing what was queued.
func (s *Session) Stop() {
	s.queue.Close()
}

// Drain processes every queued event on the calling goroutine and returns
// the joined errors. It must not run concurrently with Run.
func (s *Session) Drain(ctx context.Context) error {
	var errs []error
	for {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		ev, ok := s.queue.TryDequeue()
		if !ok {
			return errors.Join(errs...)
		}
		if err := s.Process(ctx, ev); err != nil {
			logEventError(ev, err)
			errs = append(errs, err)
		}
	}
}

// Process applies one event.
func (s *Session) Process(ctx context.Context, ev Event) error {
	err := s.process(ctx, ev)
	var se *SessionError
	if errors.As(err, &se) && se.Seq == 0 {
		se.Seq = ev.Seq
	}
	return err
}

func (s *Session) process(ctx context.Context, ev Event) error {
	if ev.Type == EventTypeCommand && ev.Command != nil && ev.Command.Kind == CommandRemount {
		return s.remount(ctx)
	}
	if s.doc == nil {
		return newSessionError(ErrCodeNotMounted, "%s event before mount", ev.Type)
	}

	switch ev.Type {
	case EventTypeInput:
		if ev.Input == nil {
			return newSessionError(ErrCodeInvalidCommand, "input event missing input")
		}
		s.controller.Handle(ev.Input)
		return nil

	case EventTypeCommand:
		if ev.Command == nil {
			return newSessionError(ErrCodeInvalidCommand, "command event missing command")
		}
		return s.command(ctx, *ev.Command)

	case EventTypeRemote:
		u, err := doc.DecodeUpdate(ev.Update)
		if err != nil {
			return fmt.Errorf("remote update: %w", err)
		}
		if err := s.doc.ApplyUpdate(u, doc.OriginRemote); err != nil {
			return fmt.Errorf("remote update: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown event type: %d", ev.Type)
	}
}

func (s *Session) command(ctx context.Context, cmd Command) error {
	slog.Debug("processing command", "kind", cmd.Kind, "node", cmd.NodeID)

	switch cmd.Kind {
	case CommandUndo:
		if !s.history.Undo() {
			return newSessionError(ErrCodeNothingToUndo, "nothing to undo")
		}
		return nil

	case CommandRedo:
		if !s.history.Redo() {
			return newSessionError(ErrCodeNothingToUndo, "nothing to redo")
		}
		return nil

	case CommandAddNode:
		if cmd.Node == nil {
			return newSessionError(ErrCodeInvalidCommand, "add_node needs a node")
		}
		before := s.store.Snapshot()
		id, err := s.store.AddNode(*cmd.Node)
		if err != nil {
			return fmt.Errorf("add node: %w", err)
		}
		s.history.Checkpoint(cmd.historyLabel(), before)
		slog.Debug("node added", "node", id)
		return nil

	case CommandCommitContent:
		if cmd.NodeID == "" || cmd.Content == nil {
			return newSessionError(ErrCodeInvalidCommand, "commit_content needs a node and content")
		}
		before := s.store.Snapshot()
		if err := s.store.CommitContent(cmd.NodeID, *cmd.Content); err != nil {
			return fmt.Errorf("commit content %s: %w", cmd.NodeID, err)
		}
		s.store.ExitEditMode(cmd.NodeID)
		s.history.Checkpoint(cmd.historyLabel(), before)
		return nil

	case CommandDeleteSelection:
		before := s.store.Snapshot()
		if err := s.store.DeleteSelection(); err != nil {
			return fmt.Errorf("delete selection: %w", err)
		}
		s.history.Checkpoint(cmd.historyLabel(), before)
		return nil

	case CommandSetViewport:
		if cmd.Viewport == nil {
			return newSessionError(ErrCodeInvalidCommand, "set_viewport needs a viewport")
		}
		before := s.store.Snapshot()
		s.store.SetViewport(*cmd.Viewport)
		s.history.CheckpointCoalesced(cmd.historyLabel(), before)
		return nil

	case CommandSelect:
		s.store.SetSelection(cmd.IDs, false)
		return nil

	case CommandFlush:
		return s.Flush(ctx)

	default:
		return newSessionError(ErrCodeUnknownCommand, "unknown command %q", cmd.Kind)
	}
}

func (s *Session) remount(ctx context.Context) error {
	if s.doc != nil {
		if err := s.Unmount(ctx); err != nil {
			slog.Warn("unmount during remount", "workspace", s.workspaceID, "error", err)
		}
	}
	return s.Mount(ctx)
}

// logEventError logs a failed event with enough context to replay it.
func logEventError(ev Event, err error) {
	if ErrorCode(err) != "" {
		slog.Warn("event rejected", "seq", ev.Seq, "type", ev.Type, "error", err)
		return
	}
	slog.Error("event processing failed", "seq", ev.Seq, "type", ev.Type, "error", err)
}
