package attendance

import "fmt"

// Kind is the machine-readable error code surfaced at the API boundary.
type Kind string

const (
	KindInvalidRequest Kind = "INVALID_REQUEST"
	KindTokenNotFound  Kind = "TOKEN_NOT_FOUND"
	KindTokenExpired   Kind = "TOKEN_EXPIRED"
	KindClassMismatch  Kind = "CLASS_MISMATCH"
	KindAlreadyMarked  Kind = "ALREADY_MARKED"
	KindInternal       Kind = "INTERNAL"
)

// Error is a registry failure with a stable kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error with the same Kind, so errors.Is(err, ErrTokenExpired)
// works for wrapped and message-bearing variants alike.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinel errors for the redeem validation sequence.
var (
	ErrTokenNotFound = &Error{Kind: KindTokenNotFound, Message: "invalid token"}
	ErrTokenExpired  = &Error{Kind: KindTokenExpired, Message: "token expired"}
	ErrClassMismatch = &Error{Kind: KindClassMismatch, Message: "token was issued for a different class"}
	ErrAlreadyMarked = &Error{Kind: KindAlreadyMarked, Message: "attendance already marked for today"}
)

func invalidRequestf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func internalf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...)}
}
