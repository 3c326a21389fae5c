package orders

import "errors"

// Kind classifies a failure for the transport layer
type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindUnauthorized      Kind = "Unauthorized"
	KindInvalidTransition Kind = "InvalidTransition"
	KindConflict          Kind = "Conflict"
	KindValidation        Kind = "Validation"
	KindInternal          Kind = "Internal"
)

// Error is the typed failure every Service operation returns. Message is
// what clients see in the envelope's error field.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrRestaurantNotFound   = &Error{Kind: KindNotFound, Message: "Restaurant not found"}
	ErrDishNotFound         = &Error{Kind: KindNotFound, Message: "Dish Not Found"}
	ErrOrderNotFound        = &Error{Kind: KindNotFound, Message: "Order Info Not Found"}
	ErrUnauthorized         = &Error{Kind: KindUnauthorized, Message: "Invalid Approach"}
	ErrCannotEditStatus     = &Error{Kind: KindInvalidTransition, Message: "CannotEditStatus"}
	ErrOrderAlreadyAssigned = &Error{Kind: KindConflict, Message: "This Order already has a driver"}
	ErrInternal             = &Error{Kind: KindInternal, Message: "Internal server error"}
)

// Validation builds a Validation failure with msg
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// KindOf returns the Kind of err, or KindInternal for anything that is not an
// *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
