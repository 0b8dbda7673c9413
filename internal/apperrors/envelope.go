package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Kind of error reported to clients. The set is closed
type Kind string

const (
	KindBadRequest     Kind = "BadRequestError"
	KindUnauthorized   Kind = "UnauthorizedError"
	KindInternalServer Kind = "InternalServerError"
)

const (
	defaultUnauthorizedMessage = "User is not authenticated."
	defaultUnauthorizedAction  = "Please check if you are authenticated with an active session and try again."

	internalServerMessage = "An unexpected internal error occurred."
	internalServerAction  = "Please contact support with the 'error_id' value."
)

// Error is a failure that may be shown to a client as is
// Every error has its own ErrorID so operators may find it in logs
type Error struct {
	Kind       Kind
	StatusCode int

	// Message for single message errors, Messages for field level ones (BadRequestError)
	Message  string
	Messages []string

	Action  string
	ErrorID string

	// Underlying cause, never shown to clients
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if len(e.Messages) > 0 {
		msg = fmt.Sprintf("%v", e.Messages)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewBadRequest(messages []string) *Error {
	return &Error{
		Kind:       KindBadRequest,
		StatusCode: http.StatusBadRequest,
		Messages:   messages,
		ErrorID:    uuid.NewString(),
	}
}

// Empty message and action are replaced with defaults
func NewUnauthorized(message string, action string, cause error) *Error {
	if message == "" {
		message = defaultUnauthorizedMessage
	}
	if action == "" {
		action = defaultUnauthorizedAction
	}

	return &Error{
		Kind:       KindUnauthorized,
		StatusCode: http.StatusUnauthorized,
		Message:    message,
		Action:     action,
		ErrorID:    uuid.NewString(),
		Err:        cause,
	}
}

func NewInternalServerError(cause error) *Error {
	return &Error{
		Kind:       KindInternalServer,
		StatusCode: http.StatusInternalServerError,
		Message:    internalServerMessage,
		Action:     internalServerAction,
		ErrorID:    uuid.NewString(),
		Err:        cause,
	}
}

// From returns *Error found in err chain
// Anything else is downgraded to InternalServerError so internals never reach the client
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalServerError(err)
}
