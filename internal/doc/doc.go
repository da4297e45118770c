// Package doc implements the replicated document: a map of named maps whose
// entries are last-writer-wins registers.
//
// All access goes through handles. A handle remembers the document
// generation it was issued at, and a transaction-scoped handle also
// remembers its transaction. Once the document is destroyed, or the
// transaction has committed, every access through the handle fails with a
// *ReleasedError. Callers are expected to meet these errors routinely (a
// host may destroy and recreate the document at any time) and classify them
// with IsReleased or Guard.
//
// A Doc is not safe for concurrent use. It is owned by a single goroutine,
// normally the session event loop.
package doc

import (
	"log/slog"
	"slices"

	"github.com/google/uuid"
)

// Origin tags who produced a transaction. Observers use it to skip their
// own writes or loads.
type Origin string

const (
	// OriginLocal is a write made by the local action API.
	OriginLocal Origin = "local"
	// OriginLoad seeds the document from durable storage.
	OriginLoad Origin = "load"
	// OriginRemote applies an update produced by another replica.
	OriginRemote Origin = "remote"
	// OriginHistory is an undo or redo.
	OriginHistory Origin = "history"
)

// Doc is a replicated document.
type Doc struct {
	replica string
	clock   uint64
	seq     uint64
	gen     uint64

	destroyed bool
	maps      map[string]*docMap
	codecs    map[string]Codec

	active *Txn

	nextObserver    int
	updateObservers []updateObserver
	queue           []commit
	dispatching     bool
}

type docMap struct {
	entries   map[string]entry
	observers []mapObserver
}

type entry struct {
	value   any
	stamp   Timestamp
	deleted bool
	seq     uint64
}

// Option configures a Doc.
type Option func(*Doc)

// WithReplicaID sets the replica id used to stamp writes. The default is a
// fresh UUIDv7.
func WithReplicaID(id string) Option {
	return func(d *Doc) {
		if id != "" {
			d.replica = id
		}
	}
}

// WithMapCodec registers the codec used to encode values of the named map
// in updates. Maps without a codec use a generic CBOR codec that decodes
// into maps and slices.
func WithMapCodec(name string, c Codec) Option {
	return func(d *Doc) {
		d.codecs[name] = c
	}
}

// WithClock starts the Lamport clock at c. A document that replaces an
// earlier one for the same workspace starts past the earlier clock so its
// writes win over everything the earlier one logged.
func WithClock(c uint64) Option {
	return func(d *Doc) { d.clock = c }
}

// New creates an empty document.
func New(opts ...Option) *Doc {
	d := &Doc{
		maps:   make(map[string]*docMap),
		codecs: make(map[string]Codec),
		gen:    1,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.replica == "" {
		d.replica = newReplicaID()
	}
	return d
}

func newReplicaID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ReplicaID returns the id this document stamps its writes with.
func (d *Doc) ReplicaID() string {
	return d.replica
}

// Clock returns the current Lamport clock.
func (d *Doc) Clock() uint64 {
	return d.clock
}

// Destroyed reports whether Destroy has been called.
func (d *Doc) Destroyed() bool {
	return d.destroyed
}

// Destroy releases every handle, ref and observer. It is idempotent. A
// transaction in progress when Destroy is called fails on commit.
func (d *Doc) Destroy() {
	if d.destroyed {
		return
	}
	d.destroyed = true
	d.gen++
	d.queue = nil
	for _, m := range d.maps {
		m.observers = nil
	}
	d.updateObservers = nil
	slog.Debug("doc destroyed", "replica", d.replica, "clock", d.clock)
}

// Map returns a document-scoped handle on the named map. The handle stays
// valid until Destroy. Writes through it outside a transaction run in their
// own local transaction.
func (d *Doc) Map(name string) *MapHandle {
	return &MapHandle{doc: d, name: name, gen: d.gen}
}

// MapNames returns the names of all maps that have ever held an entry.
func (d *Doc) MapNames() []string {
	names := make([]string, 0, len(d.maps))
	for name, m := range d.maps {
		if len(m.entries) > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func (d *Doc) mapFor(name string) *docMap {
	m, ok := d.maps[name]
	if !ok {
		m = &docMap{entries: make(map[string]entry)}
		d.maps[name] = m
	}
	return m
}

func (d *Doc) released(mapName, key, reason string) error {
	return &ReleasedError{Map: mapName, Key: key, Reason: reason}
}
