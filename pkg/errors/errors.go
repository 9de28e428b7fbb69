package errors

import "fmt"

var (
	// tokens
	ErrInvalidSigningMethod = fmt.Errorf("invalid token signing method")
	ErrInvalidToken         = fmt.Errorf("invalid token")
	ErrTokenExpired         = fmt.Errorf("token expired")

	// auth
	ErrEmptyAuthHeader    = fmt.Errorf("no token, authorization denied")
	ErrInvalidAuthHeader  = fmt.Errorf("invalid authorization header format")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrForbidden          = fmt.Errorf("access denied")
	ErrAwaitingApproval   = fmt.Errorf("your account is awaiting approval")
	ErrAccountInactive    = fmt.Errorf("account is deactivated")

	// context
	ErrUserNotFoundInContext = fmt.Errorf("user not found in request context")

	// common
	ErrNotFound        = fmt.Errorf("record not found")
	ErrBadRequest      = fmt.Errorf("bad request")
	ErrConflict        = fmt.Errorf("conflicting state")
	ErrEmailTaken      = fmt.Errorf("email is already registered")
	ErrTimeout         = fmt.Errorf("operation timed out")
	ErrTooManyAttempts = fmt.Errorf("too many attempts")
)

type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
