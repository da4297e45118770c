package doc

import "log/slog"

// Guard runs fn and swallows released-handle errors, logging them at debug
// level under scope. Any other error is returned unchanged.
func Guard(scope string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if IsReleased(err) {
		slog.Debug("released handle ignored", "scope", scope, "error", err)
		return nil
	}
	return err
}

// GuardEach calls fn for every item and keeps going after a failure, so one
// bad item never blocks the rest. Released-handle errors are logged at
// debug level; the first other error is returned after all items ran.
func GuardEach[T any](scope string, items []T, fn func(T) error) error {
	var first error
	for _, item := range items {
		if err := Guard(scope, func() error { return fn(item) }); err != nil && first == nil {
			first = err
		}
	}
	return first
}
