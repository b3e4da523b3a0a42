package model

import "errors"

// Kind classifies every error the ledger can surface. Handlers map kinds to
// transport status codes; anything unclassified is treated as internal.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindUnauthorized
	KindUpstream
)

type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match two domain errors by kind and message, so the
// package-level sentinels below survive wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func NewValidation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewNotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func NewConflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func NewUnauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// NewUpstream keeps the infra cause for logs but exposes only a generic
// message to callers.
func NewUpstream(msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Cause: cause}
}

var (
	ErrAmountBelowMinimum = NewValidation("minimum exchange amount is 400")
	ErrInvalidStatus      = NewValidation("unknown order status")
	ErrCurrencyNotFound   = NewNotFound("currency is not registered")
	ErrOrderNotFound      = NewNotFound("order not found for this account")
	ErrBillingExists      = NewConflict("billing already attached to this order")
	ErrOrderAlreadyOwned  = NewConflict("order already belongs to an account")
	ErrEmailTaken         = NewConflict("email is already registered")
	ErrInvalidCredentials = NewUnauthorized("invalid email or password")
)

// KindOf extracts the classification from any wrapped error chain.
// Zero means the error is not a domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
