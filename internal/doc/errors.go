package doc

import (
	"errors"
	"fmt"
)

// ErrReleased matches every *ReleasedError with errors.Is.
var ErrReleased = errors.New("doc: handle released")

// ReleasedError is returned by any access through a handle or ref that
// outlived its document or transaction.
type ReleasedError struct {
	Map    string
	Key    string
	Reason string
}

// Error implements the error interface.
func (e *ReleasedError) Error() string {
	switch {
	case e.Key != "":
		return fmt.Sprintf("doc: released handle (map=%s key=%s): %s", e.Map, e.Key, e.Reason)
	case e.Map != "":
		return fmt.Sprintf("doc: released handle (map=%s): %s", e.Map, e.Reason)
	default:
		return "doc: released handle: " + e.Reason
	}
}

// Is lets errors.Is(err, ErrReleased) match.
func (e *ReleasedError) Is(target error) bool {
	return target == ErrReleased
}

// IsReleased reports whether err is or wraps a *ReleasedError.
func IsReleased(err error) bool {
	var re *ReleasedError
	return errors.As(err, &re)
}

const (
	reasonDestroyed = "document destroyed"
	reasonTxnEnded  = "transaction ended"
	reasonEntryGone = "entry deleted"
	reasonNotInTxn  = "transaction not active"
)
