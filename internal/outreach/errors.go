package outreach

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRecordNotFound is returned by stores when a lookup matches nothing.
var ErrRecordNotFound = errors.New("outreach: record not found")

// Kind classifies a failed operation.
type Kind string

const (
	KindUnauthorized      Kind = "unauthorized"
	KindNotFound          Kind = "not_found"
	KindInvalidState      Kind = "invalid_state"
	KindNoSequence        Kind = "no_sequence"
	KindNoValidRecipients Kind = "no_valid_recipients"
	KindSendInProgress    Kind = "send_in_progress"
	KindInvalidInput      Kind = "invalid_input"
	KindPersistence       Kind = "persistence_failure"
	KindInternal          Kind = "internal"
)

// HTTPStatus maps the kind to the status code a handler should answer with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindNoSequence, KindNoValidRecipients, KindInvalidInput:
		return http.StatusBadRequest
	case KindSendInProgress:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is the typed failure returned by Service operations.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindInternal
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

var (
	errUnauthorized      = newError(KindUnauthorized, "Unauthorized", nil)
	errCampaignNotFound  = newError(KindNotFound, "Campaign not found", nil)
	errNotSendable       = newError(KindInvalidState, "Campaign is not in a sendable state", nil)
	errNoSequence        = newError(KindNoSequence, "No email sequence found", nil)
	errNoValidRecipients = newError(KindNoValidRecipients, "No valid emails to send", nil)
	errSendInProgress    = newError(KindSendInProgress, "A send for this campaign is already in progress", nil)
)

func persistenceError(err error) *Error {
	return newError(KindPersistence, "Emails were dispatched but recording the results failed; delivery may have partially succeeded", err)
}

func internalError(err error) *Error {
	return newError(KindInternal, "Internal Server Error", err)
}
