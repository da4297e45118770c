package doc

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Update is the replication payload of one transaction, or of the whole
// document when produced by State. Values are CBOR-encoded by the codec of
// their map.
type Update struct {
	Replica string        `cbor:"r"`
	Clock   uint64        `cbor:"c"`
	Entries []UpdateEntry `cbor:"e"`

	// Origin is the origin of the local transaction that produced the
	// update. It is not encoded.
	Origin Origin `cbor:"-"`
}

// UpdateEntry is one LWW register write.
type UpdateEntry struct {
	Map     string          `cbor:"m"`
	Key     string          `cbor:"k"`
	Stamp   Timestamp       `cbor:"s"`
	Deleted bool            `cbor:"d,omitempty"`
	Value   cbor.RawMessage `cbor:"v,omitempty"`

	value any
}

// Codec encodes the values of one map.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("doc: cbor enc mode: %v", err))
	}
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("doc: cbor dec mode: %v", err))
	}
	encMode, decMode = em, dm
}

type typedCodec[T any] struct{}

// CBORCodec returns a codec for values of type T.
func CBORCodec[T any]() Codec {
	return typedCodec[T]{}
}

func (typedCodec[T]) Encode(v any) ([]byte, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return nil, fmt.Errorf("doc: codec for %T cannot encode %T", zero, v)
	}
	return encMode.Marshal(t)
}

func (typedCodec[T]) Decode(data []byte) (any, error) {
	var t T
	if err := decMode.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return t, nil
}

type genericCodec struct{}

func (genericCodec) Encode(v any) ([]byte, error) { return encMode.Marshal(v) }

func (genericCodec) Decode(data []byte) (any, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (d *Doc) codec(mapName string) Codec {
	if c, ok := d.codecs[mapName]; ok {
		return c
	}
	return genericCodec{}
}

// encodeUpdate fills in Value for every live entry that has not been
// encoded yet.
func (d *Doc) encodeUpdate(u *Update) error {
	for i := range u.Entries {
		e := &u.Entries[i]
		if e.Deleted || e.Value != nil {
			continue
		}
		raw, err := d.codec(e.Map).Encode(e.value)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", e.Map, e.Key, err)
		}
		e.Value = raw
	}
	return nil
}

// EncodeUpdate serializes an update to CBOR.
func EncodeUpdate(u Update) ([]byte, error) {
	data, err := encMode.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("doc: encode update: %w", err)
	}
	return data, nil
}

// DecodeUpdate parses an update produced by EncodeUpdate.
func DecodeUpdate(data []byte) (Update, error) {
	var u Update
	if err := decMode.Unmarshal(data, &u); err != nil {
		return Update{}, fmt.Errorf("doc: decode update: %w", err)
	}
	return u, nil
}

// State returns every entry of the document, tombstones included, as one
// update. Applying it to an empty document reproduces this one.
func (d *Doc) State() (Update, error) {
	if d.destroyed {
		return Update{}, d.released("", "", reasonDestroyed)
	}
	u := Update{Replica: d.replica, Clock: d.clock}
	for mapName, m := range d.maps {
		for key, e := range m.entries {
			u.Entries = append(u.Entries, UpdateEntry{
				Map:     mapName,
				Key:     key,
				Stamp:   e.stamp,
				Deleted: e.deleted,
				value:   e.value,
			})
		}
	}
	slices.SortFunc(u.Entries, func(a, b UpdateEntry) int {
		if c := strings.Compare(a.Map, b.Map); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	if err := d.encodeUpdate(&u); err != nil {
		return Update{}, fmt.Errorf("doc: state: %w", err)
	}
	return u, nil
}

// EncodeState is State followed by EncodeUpdate.
func (d *Doc) EncodeState() ([]byte, error) {
	u, err := d.State()
	if err != nil {
		return nil, err
	}
	return EncodeUpdate(u)
}

// ApplyUpdate merges u into the document. For each entry the write with the
// later timestamp wins; stale entries are ignored. The merge is a single
// transaction with the given origin, and the local clock advances past
// every clock seen in u.
func (d *Doc) ApplyUpdate(u Update, origin Origin) error {
	if d.destroyed {
		return d.released("", "", reasonDestroyed)
	}

	values := make([]any, len(u.Entries))
	maxClock := u.Clock
	for i, e := range u.Entries {
		if e.Stamp.Clock > maxClock {
			maxClock = e.Stamp.Clock
		}
		if e.Deleted {
			continue
		}
		v, err := d.codec(e.Map).Decode(e.Value)
		if err != nil {
			return fmt.Errorf("doc: apply update: decode %s/%s: %w", e.Map, e.Key, err)
		}
		values[i] = v
	}

	err := d.Transact(origin, func(tx *Txn) error {
		for i, e := range u.Entries {
			m := d.mapFor(e.Map)
			if cur, ok := m.entries[e.Key]; ok && !e.Stamp.After(cur.stamp) {
				continue
			}
			tx.write(e.Map, e.Key, entry{value: values[i], stamp: e.Stamp, deleted: e.Deleted})
		}
		return nil
	})
	if err != nil {
		return err
	}
	if maxClock > d.clock {
		d.clock = maxClock
	}
	return nil
}
