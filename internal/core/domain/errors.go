package domain

import "errors"

// Error kinds. Every *Error carries exactly one of these so callers can branch
// on the category with errors.Is without knowing the specific failure.
var (
	ErrAuth        = errors.New("auth error")
	ErrValidation  = errors.New("validation error")
	ErrAccess      = errors.New("access error")
	ErrNotFound    = errors.New("not found")
	ErrTransientIO = errors.New("transient io error")
)

// Error is a domain-tagged failure. Message is safe to show to end users;
// Err holds the underlying cause, if any, for logging.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Session
var (
	ErrInvalidCredentials = newError(ErrAuth, "invalid email or password")
	ErrUserExists         = newError(ErrAuth, "email already in use")
	ErrUnauthenticated    = newError(ErrAuth, "authentication required")
	ErrSessionExpired     = newError(ErrAuth, "session expired")
	ErrWeakPassword       = newError(ErrValidation, PasswordPolicyMessage)
	ErrInvalidRole        = newError(ErrValidation, "role must be admin or worker")
)

// Tasks
var (
	ErrTaskNotFound    = newError(ErrNotFound, "task not found")
	ErrInvalidStatus   = newError(ErrValidation, "status must be one of: to-do, in-progress, completed")
	ErrInvalidPriority = newError(ErrValidation, "priority must be one of: low, medium, high")
	ErrMissingTitle    = newError(ErrValidation, "title is required")
	ErrMissingAssignee = newError(ErrValidation, "assignee is required")
	ErrForbidden       = newError(ErrAccess, "access forbidden")
)

// Users, messages, uploads
var (
	ErrUserNotFound   = newError(ErrNotFound, "user not found")
	ErrUploadNotFound = newError(ErrNotFound, "file not found")
	ErrEmptyMessage   = newError(ErrValidation, "message must not be empty")
)

// ErrPushTokenUnregistered is returned by push senders when the provider
// reports the device token as no longer valid.
var ErrPushTokenUnregistered = errors.New("push token unregistered")

// Invalid builds a validation error with a user-facing message.
func Invalid(msg string) error {
	return newError(ErrValidation, msg)
}

// Wrap passes domain errors through untouched and tags anything else as a
// transient IO failure carrying msg as its user-safe text.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: ErrTransientIO, Message: msg, Err: err}
}

// UserMessage returns the user-safe text of err, or fallback when err is not
// a domain error.
func UserMessage(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return fallback
}
