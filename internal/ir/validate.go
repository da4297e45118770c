package ir

import (
	"errors"
	"fmt"
	"math"
)

// ValidationErrorCode categorizes structural errors rejected at the action
// boundary.
type ValidationErrorCode string

const (
	// ErrCodeMissingField indicates a required field was absent.
	ErrCodeMissingField ValidationErrorCode = "MISSING_FIELD"

	// ErrCodeInvalidSize indicates a non-positive or non-finite size.
	ErrCodeInvalidSize ValidationErrorCode = "INVALID_SIZE"

	// ErrCodeInvalidPosition indicates a non-finite coordinate.
	ErrCodeInvalidPosition ValidationErrorCode = "INVALID_POSITION"

	// ErrCodeInvalidKind indicates an unknown node kind tag.
	ErrCodeInvalidKind ValidationErrorCode = "INVALID_KIND"

	// ErrCodeInvalidAnchor indicates an unknown side or an offset outside [0, 1].
	ErrCodeInvalidAnchor ValidationErrorCode = "INVALID_ANCHOR"

	// ErrCodeSelfConnection indicates a connection whose source and target
	// are the same node.
	ErrCodeSelfConnection ValidationErrorCode = "SELF_CONNECTION"

	// ErrCodeUnknownNode indicates an action referenced a node that does not
	// exist or is soft-deleted.
	ErrCodeUnknownNode ValidationErrorCode = "UNKNOWN_NODE"

	// ErrCodeUnknownConnection indicates an action referenced a missing connection.
	ErrCodeUnknownConnection ValidationErrorCode = "UNKNOWN_CONNECTION"

	// ErrCodeDuplicateID indicates a create request reused an existing id.
	ErrCodeDuplicateID ValidationErrorCode = "DUPLICATE_ID"
)

// ValidationError is returned synchronously by actions that reject their
// input. The action is a no-op when it returns one.
type ValidationError struct {
	Code    ValidationErrorCode
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(code ValidationErrorCode, field, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidationCode returns the code of a wrapped ValidationError, or "".
func ValidationCode(err error) ValidationErrorCode {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

// ValidateNode checks the structural invariants of a complete node record.
func ValidateNode(n Node) error {
	if n.ID == "" {
		return NewValidationError(ErrCodeMissingField, "id", "node id is required")
	}
	if !n.Metadata.Kind.Valid() {
		return NewValidationError(ErrCodeInvalidKind, "metadata.kind", "unknown node kind %q", n.Metadata.Kind)
	}
	if !finite(n.Position.X) || !finite(n.Position.Y) {
		return NewValidationError(ErrCodeInvalidPosition, "position", "position must be finite")
	}
	if !(n.Size.Width > 0) || !(n.Size.Height > 0) || !finite(n.Size.Width) || !finite(n.Size.Height) {
		return NewValidationError(ErrCodeInvalidSize, "size",
			"width and height must be positive (got %vx%v)", n.Size.Width, n.Size.Height)
	}
	return nil
}

// ValidateAnchor checks an anchor's side and offset.
func ValidateAnchor(a Anchor) error {
	if !a.Side.Valid() {
		return NewValidationError(ErrCodeInvalidAnchor, "anchor.side", "unknown side %q", a.Side)
	}
	if !(a.Offset >= 0 && a.Offset <= 1) {
		return NewValidationError(ErrCodeInvalidAnchor, "anchor.offset",
			"offset must be within [0, 1] (got %v)", a.Offset)
	}
	return nil
}

// ValidateConnection checks a connection's structural invariants. alive
// reports whether a node id refers to an existing, non-deleted node.
func ValidateConnection(c Connection, alive func(nodeID string) bool) error {
	if c.ID == "" {
		return NewValidationError(ErrCodeMissingField, "id", "connection id is required")
	}
	if c.Source.NodeID == "" {
		return NewValidationError(ErrCodeMissingField, "source.node_id", "source node is required")
	}
	if c.Target.NodeID == "" {
		return NewValidationError(ErrCodeMissingField, "target.node_id", "target node is required")
	}
	if c.Source.NodeID == c.Target.NodeID {
		return NewValidationError(ErrCodeSelfConnection, "target.node_id",
			"connection from node %s to itself", c.Source.NodeID)
	}
	if err := ValidateAnchor(c.Source.Anchor); err != nil {
		return err
	}
	if err := ValidateAnchor(c.Target.Anchor); err != nil {
		return err
	}
	if alive != nil {
		if !alive(c.Source.NodeID) {
			return NewValidationError(ErrCodeUnknownNode, "source.node_id", "node %s not found", c.Source.NodeID)
		}
		if !alive(c.Target.NodeID) {
			return NewValidationError(ErrCodeUnknownNode, "target.node_id", "node %s not found", c.Target.NodeID)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
