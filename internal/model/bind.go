package model

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/canvas/internal/doc"
	"github.com/roach88/canvas/internal/ir"
)

// Map names and viewport keys inside the replicated document.
const (
	MapNodes       = "nodes"
	MapConnections = "connections"
	MapViewport    = "viewport"

	KeyOffsetX = "offsetX"
	KeyOffsetY = "offsetY"
	KeyScale   = "scale"
)

// NewDoc creates a replicated document with the codecs the canvas maps
// need.
func NewDoc(opts ...doc.Option) *doc.Doc {
	base := []doc.Option{
		doc.WithMapCodec(MapNodes, doc.CBORCodec[ir.Node]()),
		doc.WithMapCodec(MapConnections, doc.CBORCodec[ir.Connection]()),
		doc.WithMapCodec(MapViewport, doc.CBORCodec[float64]()),
	}
	return doc.New(append(base, opts...)...)
}

// WriteState writes a snapshot into the document inside tx. Keys that are
// not in the snapshot are deleted; values that already match are left
// alone so observers only hear about real changes.
func WriteState(tx *doc.Txn, snap ir.Snapshot) error {
	nodes := tx.Map(MapNodes)
	if err := pruneKeys(nodes, func(id string) bool { _, ok := snap.Nodes[id]; return ok }); err != nil {
		return err
	}
	for _, n := range snap.SortedNodes() {
		if err := setIfChanged(nodes, n.ID, n, ir.DomainNode); err != nil {
			return err
		}
	}

	conns := tx.Map(MapConnections)
	if err := pruneKeys(conns, func(id string) bool { _, ok := snap.Connections[id]; return ok }); err != nil {
		return err
	}
	for _, id := range slices.Sorted(maps.Keys(snap.Connections)) {
		if err := setIfChanged(conns, id, snap.Connections[id], ir.DomainConnection); err != nil {
			return err
		}
	}

	return writeViewport(tx, snap.Viewport)
}

func writeViewport(tx *doc.Txn, v ir.Viewport) error {
	vp := tx.Map(MapViewport)
	fields := []struct {
		key string
		val float64
	}{
		{KeyOffsetX, v.OffsetX},
		{KeyOffsetY, v.OffsetY},
		{KeyScale, v.Scale},
	}
	for _, f := range fields {
		key, val := f.key, f.val
		cur, ok, err := vp.Get(key)
		if err != nil {
			return err
		}
		if ok && cur == val {
			continue
		}
		if err := vp.Set(key, val); err != nil {
			return err
		}
	}
	return nil
}

func pruneKeys(m *doc.MapHandle, keep func(string) bool) error {
	keys, err := m.Keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if keep(k) {
			continue
		}
		if err := m.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func setIfChanged(m *doc.MapHandle, key string, v any, domain string) error {
	cur, ok, err := m.Get(key)
	if err != nil {
		return err
	}
	if ok && sameValue(domain, cur, v) {
		return nil
	}
	return m.Set(key, v)
}

func sameValue(domain string, a, b any) bool {
	fa, err := ir.Fingerprint(domain, a)
	if err != nil {
		return false
	}
	fb, err := ir.Fingerprint(domain, b)
	if err != nil {
		return false
	}
	return fa == fb
}

// Bind attaches the store to a document. Any previous binding is dropped.
// If the document already holds state it is pulled into the snapshot;
// an empty document leaves the snapshot alone so Seed can push it.
func (s *Store) Bind(d *doc.Doc) {
	s.Unbind()
	s.doc = d
	s.unbinds = []func(){
		d.Observe(MapNodes, s.onNodes),
		d.Observe(MapConnections, s.onConnections),
		d.Observe(MapViewport, s.onViewport),
	}
	slog.Debug("store bound", "replica", d.ReplicaID())

	if err := doc.Guard("bind.pull", s.Pull); err != nil {
		slog.Error("initial reconcile failed", "error", err)
	}
}

// Unbind detaches observers. The snapshot is kept.
func (s *Store) Unbind() {
	for _, u := range s.unbinds {
		u()
	}
	s.unbinds = nil
	s.doc = nil
}

// Doc returns the bound document, or nil.
func (s *Store) Doc() *doc.Doc {
	return s.doc
}

// Pull replaces the snapshot with the bound document's contents. It is a
// no-op when the document is empty.
func (s *Store) Pull() error {
	if s.doc == nil {
		return nil
	}
	nodes, err := s.doc.Map(MapNodes).Entries()
	if err != nil {
		return err
	}
	conns, err := s.doc.Map(MapConnections).Entries()
	if err != nil {
		return err
	}
	vp, err := s.doc.Map(MapViewport).Entries()
	if err != nil {
		return err
	}
	if len(nodes) == 0 && len(conns) == 0 && len(vp) == 0 {
		return nil
	}

	s.nodes = make(map[string]ir.Node, len(nodes))
	for id, v := range nodes {
		n, ok := v.(ir.Node)
		if !ok {
			slog.Warn("skipping node with unexpected type", "id", id, "type", fmt.Sprintf("%T", v))
			continue
		}
		n, _ = ir.MigrateNode(n, s.defaults)
		s.nodes[id] = n
	}
	s.connections = make(map[string]ir.Connection, len(conns))
	for id, v := range conns {
		c, ok := v.(ir.Connection)
		if !ok {
			slog.Warn("skipping connection with unexpected type", "id", id, "type", fmt.Sprintf("%T", v))
			continue
		}
		s.connections[id] = c
	}
	s.viewport = viewportFrom(s.viewport, vp)
	s.pruneTransient()

	s.emit(EventNodes, doc.OriginLoad, sortedNodeIDs(s.nodes)...)
	s.emit(EventConnections, doc.OriginLoad)
	s.emit(EventViewport, doc.OriginLoad)
	return nil
}

// Seed pushes the whole snapshot into the bound document as a load. The
// session calls it after binding a fresh document on remount.
func (s *Store) Seed() error {
	if s.doc == nil {
		return nil
	}
	snap := s.Snapshot()
	return doc.Guard("seed", func() error {
		return s.doc.Transact(doc.OriginLoad, func(tx *doc.Txn) error {
			return WriteState(tx, snap)
		})
	})
}

// mirror runs fn in a local transaction on the bound document. Released
// handles are expected here and only logged at debug level.
func (s *Store) mirror(scope string, origin doc.Origin, fn func(tx *doc.Txn) error) {
	d := s.doc
	if d == nil {
		return
	}
	err := doc.Guard(scope, func() error {
		return d.Transact(origin, fn)
	})
	if err != nil {
		slog.Error("mirror write failed", "scope", scope, "error", err)
	}
}

// ReadViewport returns the viewport stored in d, or the default viewport
// for fields that were never written.
func ReadViewport(d *doc.Doc) (ir.Viewport, error) {
	fields, err := d.Map(MapViewport).Entries()
	if err != nil {
		return ir.Viewport{}, err
	}
	return viewportFrom(ir.DefaultViewport(), fields), nil
}

func viewportFrom(base ir.Viewport, fields map[string]any) ir.Viewport {
	v := base
	if f, ok := fields[KeyOffsetX].(float64); ok {
		v.OffsetX = f
	}
	if f, ok := fields[KeyOffsetY].(float64); ok {
		v.OffsetY = f
	}
	if f, ok := fields[KeyScale].(float64); ok {
		v.Scale = f
	}
	return v.Clamp()
}

// pruneTransient drops selected and editing ids that no longer name a live
// node or connection.
func (s *Store) pruneTransient() {
	for id := range s.selection {
		if !s.Alive(id) && !s.connectionAlive(id) {
			delete(s.selection, id)
		}
	}
	for id := range s.editing {
		if !s.Alive(id) {
			delete(s.editing, id)
		}
	}
}

func (s *Store) connectionAlive(id string) bool {
	c, ok := s.connections[id]
	return ok && !c.Deleted
}

func sortedNodeIDs(m map[string]ir.Node) []string {
	return slices.Sorted(maps.Keys(m))
}
