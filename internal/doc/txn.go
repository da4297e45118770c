package doc

import "slices"

// Txn is an open transaction. Writes are visible to reads inside the
// transaction immediately and to observers only after commit.
type Txn struct {
	doc    *Doc
	origin Origin
	tick   uint64
	done   bool

	touched []string
	pending map[string]*pendingMap
	undo    []undoRecord
}

type pendingMap struct {
	order  []string
	before map[string]entry
	had    map[string]bool
}

type undoRecord struct {
	mapName string
	key     string
	prev    entry
	existed bool
}

type commit struct {
	origin     Origin
	clock      uint64
	changesets []Changeset
	update     *Update
}

// Origin returns the origin the transaction was opened with.
func (tx *Txn) Origin() Origin {
	return tx.origin
}

// Map returns a handle scoped to this transaction. It is released once the
// transaction commits or rolls back.
func (tx *Txn) Map(name string) *MapHandle {
	return &MapHandle{doc: tx.doc, name: name, gen: tx.doc.gen, txn: tx}
}

// Transact runs fn with exclusive write access. If fn returns an error every
// write it made is rolled back and the error is returned. Otherwise the
// writes commit atomically and observers are notified once, after commit.
//
// A Transact call made while another transaction is open joins it: fn runs
// inside the outer transaction and nothing commits until the outer call
// returns.
func (d *Doc) Transact(origin Origin, fn func(tx *Txn) error) (err error) {
	if d.destroyed {
		return d.released("", "", reasonDestroyed)
	}
	if d.active != nil {
		return fn(d.active)
	}

	tx := &Txn{
		doc:     d,
		origin:  origin,
		tick:    d.clock + 1,
		pending: make(map[string]*pendingMap),
	}
	d.active = tx

	committed := false
	defer func() {
		if !committed {
			tx.rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if d.destroyed {
		// Destroy ran inside fn. There is nothing left to commit to.
		return d.released("", "", reasonDestroyed)
	}

	c := tx.commit()
	committed = true
	if c != nil {
		d.enqueue(*c)
	}
	return nil
}

// write records the previous entry once per key and stores e.
func (tx *Txn) write(mapName, key string, e entry) {
	m := tx.doc.mapFor(mapName)
	prev, existed := m.entries[key]

	tx.undo = append(tx.undo, undoRecord{mapName: mapName, key: key, prev: prev, existed: existed})

	pm, ok := tx.pending[mapName]
	if !ok {
		pm = &pendingMap{before: make(map[string]entry), had: make(map[string]bool)}
		tx.pending[mapName] = pm
		tx.touched = append(tx.touched, mapName)
	}
	if _, seen := pm.had[key]; !seen {
		pm.order = append(pm.order, key)
		pm.before[key] = prev
		pm.had[key] = existed
	}

	tx.doc.seq++
	e.seq = tx.doc.seq
	m.entries[key] = e
}

func (tx *Txn) set(mapName, key string, value any) {
	tx.write(mapName, key, entry{
		value: cloneValue(value),
		stamp: Timestamp{Clock: tx.tick, Replica: tx.doc.replica},
	})
}

func (tx *Txn) remove(mapName, key string) bool {
	m := tx.doc.mapFor(mapName)
	e, ok := m.entries[key]
	if !ok || e.deleted {
		return false
	}
	tx.write(mapName, key, entry{
		stamp:   Timestamp{Clock: tx.tick, Replica: tx.doc.replica},
		deleted: true,
	})
	return true
}

func (tx *Txn) rollback() {
	d := tx.doc
	for i := len(tx.undo) - 1; i >= 0; i-- {
		u := tx.undo[i]
		m := d.mapFor(u.mapName)
		if u.existed {
			m.entries[u.key] = u.prev
		} else {
			delete(m.entries, u.key)
		}
	}
	tx.done = true
	if d.active == tx {
		d.active = nil
	}
}

// commit turns the pending writes into changesets and an update. It
// returns nil when the transaction changed nothing visible.
func (tx *Txn) commit() *commit {
	d := tx.doc
	tx.done = true
	d.active = nil

	if len(tx.undo) == 0 {
		return nil
	}
	if tx.tick > d.clock {
		d.clock = tx.tick
	}

	c := &commit{origin: tx.origin, clock: d.clock}
	var upd Update
	for _, mapName := range tx.touched {
		pm := tx.pending[mapName]
		m := d.maps[mapName]
		cs := Changeset{Map: mapName, Origin: tx.origin, Clock: d.clock}

		for _, key := range pm.order {
			after := m.entries[key]
			before := pm.before[key]
			wasLive := pm.had[key] && !before.deleted
			isLive := !after.deleted

			upd.Entries = append(upd.Entries, UpdateEntry{
				Map:     mapName,
				Key:     key,
				Stamp:   after.stamp,
				Deleted: after.deleted,
				value:   after.value,
			})

			ch := Change{
				Key: key,
				Ref: Ref{doc: d, gen: d.gen, mapName: mapName, key: key, seq: after.seq},
			}
			switch {
			case !wasLive && isLive:
				ch.Action = ActionAdd
				ch.Value = cloneValue(after.value)
			case wasLive && isLive:
				ch.Action = ActionUpdate
				ch.Value = cloneValue(after.value)
				ch.Old = cloneValue(before.value)
			case wasLive && !isLive:
				ch.Action = ActionDelete
				ch.Old = cloneValue(before.value)
			default:
				continue
			}
			cs.Changes = append(cs.Changes, ch)
		}
		if len(cs.Changes) > 0 {
			c.changesets = append(c.changesets, cs)
		}
	}

	upd.Replica = d.replica
	upd.Clock = d.clock
	upd.Origin = tx.origin
	if len(upd.Entries) > 0 {
		c.update = &upd
	}
	if len(c.changesets) == 0 && c.update == nil {
		return nil
	}
	return c
}

// keys returns the live keys of a map, sorted.
func (d *Doc) keys(mapName string) []string {
	m, ok := d.maps[mapName]
	if !ok {
		return []string{}
	}
	keys := make([]string, 0, len(m.entries))
	for k, e := range m.entries {
		if !e.deleted {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

func (tx *Txn) check(mapName, key string) error {
	switch {
	case tx.doc.destroyed:
		return tx.doc.released(mapName, key, reasonDestroyed)
	case tx.done:
		return tx.doc.released(mapName, key, reasonTxnEnded)
	case tx.doc.active != tx:
		return tx.doc.released(mapName, key, reasonNotInTxn)
	}
	return nil
}
