package domain

import (
	"errors"
	"fmt"
)

// ErrTitleTimeout is returned when no title form is submitted within the bound.
var ErrTitleTimeout = errors.New("timed out waiting for title form")

// ErrSubscriptionClosed is returned when an event stream ends before the session does.
var ErrSubscriptionClosed = errors.New("interaction subscription closed")

// ErrAlreadyAcknowledged is returned when an Ack is used a second time.
var ErrAlreadyAcknowledged = errors.New("interaction already acknowledged")

// ErrNoResponder is returned when an Ack has nothing to respond through.
var ErrNoResponder = errors.New("interaction has no responder")

// ErrProtocolViolation marks events the controller never asked for.
var ErrProtocolViolation = errors.New("protocol violation")

// ErrDocumentNotFound is returned when a document ID cannot be found in the archive.
var ErrDocumentNotFound = errors.New("document not found")

// ProtocolViolationError describes an event that does not match the controls
// issued for the current phase. It wraps ErrProtocolViolation.
type ProtocolViolationError struct {
	Phase Phase
	Kind  string // "control", "form" or "values"
	Got   string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("protocol violation in phase %s: unexpected %s %q", e.Phase, e.Kind, e.Got)
}

func (e *ProtocolViolationError) Unwrap() error {
	return ErrProtocolViolation
}
