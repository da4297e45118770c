package doc

import "strings"

// Timestamp orders writes to the same entry: higher Lamport clock wins and
// the replica id breaks ties.
type Timestamp struct {
	Clock   uint64 `cbor:"c" json:"clock"`
	Replica string `cbor:"r" json:"replica"`
}

// After reports whether t wins over o.
func (t Timestamp) After(o Timestamp) bool {
	if t.Clock != o.Clock {
		return t.Clock > o.Clock
	}
	return strings.Compare(t.Replica, o.Replica) > 0
}

// IsZero reports whether t was never assigned.
func (t Timestamp) IsZero() bool {
	return t.Clock == 0 && t.Replica == ""
}
