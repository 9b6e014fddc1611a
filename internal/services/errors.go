package services

import "errors"

// Error kinds. The HTTP layer maps each kind to a status and answers with
// Message(err).
var (
	ErrValidation            = errors.New("validation failed")
	ErrConflict              = errors.New("user already exists")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired verification token")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUnauthenticated       = errors.New("authentication failed")
	ErrNotVerified           = errors.New("email not verified")
	ErrForbidden             = errors.New("admin privileges required")
	ErrNotFound              = errors.New("not found")
)

var kindMessages = map[error]string{
	ErrValidation:            "Invalid request",
	ErrConflict:              "User already exists",
	ErrInvalidOrExpiredToken: "Invalid or expired token",
	ErrInvalidCredentials:    "Invalid credentials",
	ErrUnauthenticated:       "Authentication failed",
	ErrNotVerified:           "Please verify your email before logging in",
	ErrForbidden:             "Admin privileges required",
	ErrNotFound:              "Not found",
}

// reasonError keeps the kind for errors.Is while carrying a client message.
type reasonError struct {
	kind error
	msg  string
}

func (e *reasonError) Error() string { return e.kind.Error() + ": " + e.msg }
func (e *reasonError) Unwrap() error { return e.kind }

func withReason(kind error, msg string) error {
	return &reasonError{kind: kind, msg: msg}
}

// Message returns the text clients see for err, or "" when err is not one
// of the kinds above.
func Message(err error) string {
	var re *reasonError
	if errors.As(err, &re) {
		return re.msg
	}
	for kind, msg := range kindMessages {
		if errors.Is(err, kind) {
			return msg
		}
	}
	return ""
}
