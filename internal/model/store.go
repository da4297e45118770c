// Package model holds the render-facing read model and the action API that
// is the only sanctioned way to change canvas state.
//
// Every action updates the local snapshot first and then mirrors the write
// into the bound replicated document. The mirror may fail because the host
// destroyed the document in between; such failures are logged and never
// roll back the local snapshot. Changes committed to the document by anyone
// are reconciled back into the snapshot by observers.
//
// A Store is not safe for concurrent use. It is owned by the goroutine that
// owns its document.
package model

import (
	"time"

	"github.com/segmentio/ksuid"

	"github.com/roach88/canvas/internal/doc"
	"github.com/roach88/canvas/internal/ir"
)

// Identity supplies the user id stamped into audit fields.
type Identity interface {
	CurrentUser() string
}

// StaticIdentity is an Identity that always returns the same user.
type StaticIdentity string

// CurrentUser implements Identity.
func (s StaticIdentity) CurrentUser() string { return string(s) }

// IDGenerator creates node and connection ids. Ids are never reused.
type IDGenerator interface {
	NewID() string
}

// KSUIDGenerator creates time-ordered KSUIDs.
type KSUIDGenerator struct{}

// NewID implements IDGenerator.
func (KSUIDGenerator) NewID() string {
	return ksuid.New().String()
}

// EventKind says which part of the snapshot an event touched.
type EventKind string

const (
	EventNodes       EventKind = "nodes"
	EventConnections EventKind = "connections"
	EventSelection   EventKind = "selection"
	EventViewport    EventKind = "viewport"
	EventEditMode    EventKind = "edit_mode"
)

// Event notifies render-side listeners that ids changed.
type Event struct {
	Kind   EventKind
	IDs    []string
	Origin doc.Origin
}

// Store is the local read model.
type Store struct {
	identity Identity
	ids      IDGenerator
	now      func() time.Time
	defaults ir.NodeDefaults

	nodes       map[string]ir.Node
	connections map[string]ir.Connection
	viewport    ir.Viewport
	selection   map[string]struct{}
	editing     map[string]struct{}

	doc     *doc.Doc
	unbinds []func()

	listeners    []listener
	nextListener int
}

type listener struct {
	id int
	fn func(Event)
}

// Option configures a Store.
type Option func(*Store)

// WithIdentity sets the audit identity.
func WithIdentity(id Identity) Option {
	return func(s *Store) { s.identity = id }
}

// WithIDGenerator sets the id generator used by AddNode and
// CreateConnection when the caller supplies no id.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// WithClock sets the wall clock used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithDefaults sets the node creation defaults.
func WithDefaults(d ir.NodeDefaults) Option {
	return func(s *Store) { s.defaults = d }
}

// NewStore creates an empty, unbound store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		identity:    StaticIdentity(""),
		ids:         KSUIDGenerator{},
		now:         time.Now,
		defaults:    ir.DefaultNodeDefaults(),
		nodes:       make(map[string]ir.Node),
		connections: make(map[string]ir.Connection),
		viewport:    ir.DefaultViewport(),
		selection:   make(map[string]struct{}),
		editing:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the node creation defaults.
func (s *Store) Defaults() ir.NodeDefaults {
	return s.defaults
}

// Subscribe registers fn for store events. The returned function
// unsubscribes.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.nextListener++
	id := s.nextListener
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	return func() {
		out := s.listeners[:0:0]
		for _, l := range s.listeners {
			if l.id != id {
				out = append(out, l)
			}
		}
		s.listeners = out
	}
}

func (s *Store) emit(kind EventKind, origin doc.Origin, ids ...string) {
	if len(s.listeners) == 0 {
		return
	}
	e := Event{Kind: kind, IDs: ids, Origin: origin}
	for _, l := range append([]listener(nil), s.listeners...) {
		l.fn(e)
	}
}

func (s *Store) user() string {
	return s.identity.CurrentUser()
}

func (s *Store) stamp(a *ir.Audit) {
	a.UpdatedBy = s.user()
	a.UpdatedAt = s.now()
}
