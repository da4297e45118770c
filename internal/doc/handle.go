package doc

// MapHandle gives access to one named map. Every method returns a
// *ReleasedError once the handle is no longer valid.
type MapHandle struct {
	doc  *Doc
	name string
	gen  uint64
	txn  *Txn
}

// Name returns the map name.
func (h *MapHandle) Name() string {
	return h.name
}

func (h *MapHandle) check(key string) error {
	if h.doc.destroyed || h.doc.gen != h.gen {
		return h.doc.released(h.name, key, reasonDestroyed)
	}
	if h.txn != nil {
		return h.txn.check(h.name, key)
	}
	return nil
}

// Get returns a copy of the value stored under key.
func (h *MapHandle) Get(key string) (any, bool, error) {
	if err := h.check(key); err != nil {
		return nil, false, err
	}
	m, ok := h.doc.maps[h.name]
	if !ok {
		return nil, false, nil
	}
	e, ok := m.entries[key]
	if !ok || e.deleted {
		return nil, false, nil
	}
	return cloneValue(e.value), true, nil
}

// Has reports whether key holds a live value.
func (h *MapHandle) Has(key string) (bool, error) {
	_, ok, err := h.Get(key)
	return ok, err
}

// Set stores a copy of value under key.
func (h *MapHandle) Set(key string, value any) error {
	return h.mutate(key, func(tx *Txn) error {
		tx.set(h.name, key, value)
		return nil
	})
}

// Delete tombstones key. Deleting a missing key is a no-op.
func (h *MapHandle) Delete(key string) error {
	return h.mutate(key, func(tx *Txn) error {
		tx.remove(h.name, key)
		return nil
	})
}

// Keys returns the live keys, sorted.
func (h *MapHandle) Keys() ([]string, error) {
	if err := h.check(""); err != nil {
		return nil, err
	}
	return h.doc.keys(h.name), nil
}

// Len returns the number of live keys.
func (h *MapHandle) Len() (int, error) {
	keys, err := h.Keys()
	return len(keys), err
}

// Entries returns copies of all live values keyed by id.
func (h *MapHandle) Entries() (map[string]any, error) {
	if err := h.check(""); err != nil {
		return nil, err
	}
	out := make(map[string]any)
	if m, ok := h.doc.maps[h.name]; ok {
		for k, e := range m.entries {
			if !e.deleted {
				out[k] = cloneValue(e.value)
			}
		}
	}
	return out, nil
}

func (h *MapHandle) mutate(key string, fn func(tx *Txn) error) error {
	if err := h.check(key); err != nil {
		return err
	}
	if h.txn != nil {
		return fn(h.txn)
	}
	return h.doc.Transact(OriginLocal, fn)
}
