package draft

import (
	"errors"

	"github.com/appetiteclub/tableside/pkg/pos"
)

// DefaultSubmitMessage is shown when the server gave no reason for rejecting an order.
const DefaultSubmitMessage = "could not save the order"

var (
	ErrEmptyCart    = errors.New("add items to the order before submitting")
	ErrNoDraft      = errors.New("no order is being edited")
	ErrSubmitting   = errors.New("order submission already in progress")
	ErrNoTable      = errors.New("a table must be selected to start an order")
	ErrItemNotFound = errors.New("cart item not found")

	errWriterNotConfigured = errors.New("order writer not configured")
)

// SubmitError is a failed create or update. Message is the server's own
// explanation when it sent one.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

func newSubmitError(err error) *SubmitError {
	msg := pos.ServerMessage(err)
	if msg == "" {
		msg = DefaultSubmitMessage
	}
	return &SubmitError{Message: msg, Err: err}
}
