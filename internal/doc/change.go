package doc

// Action classifies a change to one key.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change describes the net effect of one committed transaction on one key.
// Value is the committed value (nil for deletes) and Old the value before
// the transaction (nil for adds). Ref reads the key live.
type Change struct {
	Key    string
	Action Action
	Value  any
	Old    any
	Ref    Ref
}

// Changeset is the ordered list of changes one transaction made to one map.
// Keys appear in the order the transaction first touched them.
type Changeset struct {
	Map     string
	Origin  Origin
	Clock   uint64
	Changes []Change
}

// Keys returns the changed keys in order.
func (cs Changeset) Keys() []string {
	keys := make([]string, len(cs.Changes))
	for i, c := range cs.Changes {
		keys[i] = c.Key
	}
	return keys
}

// Ref is a live reference to one key, issued with a change. It is released
// when the document is destroyed, or when the key is deleted by a later
// transaction.
type Ref struct {
	doc     *Doc
	gen     uint64
	mapName string
	key     string
	seq     uint64
}

// Key returns the referenced key.
func (r Ref) Key() string {
	return r.key
}

// Load returns the current value of the key. It reports ok=false when the
// change that issued the ref was itself the deletion.
func (r Ref) Load() (value any, ok bool, err error) {
	if r.doc == nil {
		return nil, false, &ReleasedError{Map: r.mapName, Key: r.key, Reason: reasonDestroyed}
	}
	if r.doc.destroyed || r.doc.gen != r.gen {
		return nil, false, r.doc.released(r.mapName, r.key, reasonDestroyed)
	}
	m, exists := r.doc.maps[r.mapName]
	if !exists {
		return nil, false, r.doc.released(r.mapName, r.key, reasonEntryGone)
	}
	e, exists := m.entries[r.key]
	if !exists {
		return nil, false, r.doc.released(r.mapName, r.key, reasonEntryGone)
	}
	if e.deleted {
		if e.seq > r.seq {
			return nil, false, r.doc.released(r.mapName, r.key, reasonEntryGone)
		}
		return nil, false, nil
	}
	return cloneValue(e.value), true, nil
}

// Cloner is implemented by values that hold reference types. The document
// clones values on every read and write so callers never share storage
// with it.
type Cloner interface {
	CloneValue() any
}

func cloneValue(v any) any {
	if c, ok := v.(Cloner); ok {
		return c.CloneValue()
	}
	return v
}
