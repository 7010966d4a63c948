package errors

import "fmt"

// Error codes
const (
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeLoad       = "LOAD_ERROR"
	ErrCodeEmptyPool  = "EMPTY_POOL"
	ErrCodeLocked     = "TOPIC_LOCKED"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "EMPTY_POOL")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  400,
	}
}

// NewLoadError creates a LOAD_ERROR. Load failures at startup are
// fatal to the ready state; there is no retry loop.
func NewLoadError(source string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeLoad,
		Message: fmt.Sprintf("failed to load %s", source),
		Status:  502,
		Err:     err,
	}
}

// NewEmptyPoolError creates an EMPTY_POOL error. Recoverable: the quiz
// session is simply not created.
func NewEmptyPoolError(scope string) *AppError {
	return &AppError{
		Code:    ErrCodeEmptyPool,
		Message: fmt.Sprintf("no questions available for %s", scope),
		Status:  409,
	}
}

// NewLockedError creates a TOPIC_LOCKED error for battle requests
// against a topic that has not been unlocked yet.
func NewLockedError(topic string) *AppError {
	return &AppError{
		Code:    ErrCodeLocked,
		Message: fmt.Sprintf("topic %q is locked; win a battle streak to unlock it", topic),
		Status:  403,
	}
}
