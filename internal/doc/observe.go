package doc

import "log/slog"

type mapObserver struct {
	id int
	fn func(Changeset)
}

type updateObserver struct {
	id int
	fn func(Update)
}

// Observe registers fn to receive the changeset of every committed
// transaction that changed the named map. Observers run after commit, in
// commit order, in registration order. A transaction opened by an observer
// is dispatched after the current one finishes.
//
// The returned function unsubscribes; it is safe to call more than once.
func (d *Doc) Observe(name string, fn func(Changeset)) (unsubscribe func()) {
	if d.destroyed {
		return func() {}
	}
	d.nextObserver++
	id := d.nextObserver
	m := d.mapFor(name)
	m.observers = append(m.observers, mapObserver{id: id, fn: fn})

	return func() {
		m.observers = removeObserver(m.observers, id)
	}
}

// OnUpdate registers fn to receive the replication update of every
// committed transaction, after all map observers have run.
func (d *Doc) OnUpdate(fn func(Update)) (unsubscribe func()) {
	if d.destroyed {
		return func() {}
	}
	d.nextObserver++
	id := d.nextObserver
	d.updateObservers = append(d.updateObservers, updateObserver{id: id, fn: fn})

	return func() {
		out := d.updateObservers[:0:0]
		for _, o := range d.updateObservers {
			if o.id != id {
				out = append(out, o)
			}
		}
		d.updateObservers = out
	}
}

func removeObserver(obs []mapObserver, id int) []mapObserver {
	out := obs[:0:0]
	for _, o := range obs {
		if o.id != id {
			out = append(out, o)
		}
	}
	return out
}

// enqueue appends a commit and drains the queue unless a drain is already
// running further up the stack.
func (d *Doc) enqueue(c commit) {
	d.queue = append(d.queue, c)
	if d.dispatching {
		return
	}
	d.dispatching = true
	defer func() { d.dispatching = false }()

	for len(d.queue) > 0 && !d.destroyed {
		next := d.queue[0]
		d.queue = d.queue[1:]
		d.dispatch(next)
	}
}

func (d *Doc) dispatch(c commit) {
	for _, cs := range c.changesets {
		m := d.maps[cs.Map]
		if m == nil {
			continue
		}
		// Copy so observers may unsubscribe while we iterate.
		observers := append([]mapObserver(nil), m.observers...)
		for _, o := range observers {
			if d.destroyed {
				return
			}
			if !hasObserver(m.observers, o.id) {
				continue
			}
			o.fn(cs)
		}
	}

	if c.update == nil || len(d.updateObservers) == 0 || d.destroyed {
		return
	}
	if err := d.encodeUpdate(c.update); err != nil {
		slog.Warn("doc update not encoded", "replica", d.replica, "clock", c.clock, "error", err)
		return
	}
	observers := append([]updateObserver(nil), d.updateObservers...)
	for _, o := range observers {
		if d.destroyed {
			return
		}
		o.fn(*c.update)
	}
}

func hasObserver(obs []mapObserver, id int) bool {
	for _, o := range obs {
		if o.id == id {
			return true
		}
	}
	return false
}
