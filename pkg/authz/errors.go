package authz

import (
	"errors"
	"fmt"
)

// CompilationErrorCode classifies why a fact set failed to compile
type CompilationErrorCode string

const (
	ErrCodeEmptyAction      CompilationErrorCode = "empty_action"
	ErrCodeEmptyEntity      CompilationErrorCode = "empty_entity"
	ErrCodeEmptyRole        CompilationErrorCode = "empty_role"
	ErrCodeInvalidEffect    CompilationErrorCode = "invalid_effect"
	ErrCodeInvalidKind      CompilationErrorCode = "invalid_constraint_kind"
	ErrCodeInvalidOperator  CompilationErrorCode = "invalid_operator"
	ErrCodeInvalidBound     CompilationErrorCode = "invalid_bound"
	ErrCodeInvalidWindow    CompilationErrorCode = "invalid_window"
	ErrCodeUnknownPredicate CompilationErrorCode = "unknown_predicate"
)

// CompilationError reports a malformed or contradictory rule fact. It is
// fatal to loading that fact set; a previously active index stays in force.
type CompilationError struct {
	Code      CompilationErrorCode `json:"code"`
	Message   string               `json:"message"`
	SourceRef string               `json:"source_ref,omitempty"`
	Field     string               `json:"field,omitempty"`
}

// Error implements the error interface
func (e *CompilationError) Error() string {
	if e.SourceRef != "" {
		return fmt.Sprintf("[%s] %s (fact %s)", e.Code, e.Message, e.SourceRef)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewCompilationError creates a new compilation error
func NewCompilationError(code CompilationErrorCode, message string) *CompilationError {
	return &CompilationError{
		Code:    code,
		Message: message,
	}
}

// WithSource attaches the originating fact reference
func (e *CompilationError) WithSource(sourceRef string) *CompilationError {
	e.SourceRef = sourceRef
	return e
}

// WithField names the offending fact field
func (e *CompilationError) WithField(field string) *CompilationError {
	e.Field = field
	return e
}

// IsCompilationError checks if an error is a compilation error
func IsCompilationError(err error) bool {
	var ce *CompilationError
	return errors.As(err, &ce)
}

// GetCompilationError extracts a compilation error from a generic error
func GetCompilationError(err error) (*CompilationError, bool) {
	var ce *CompilationError
	ok := errors.As(err, &ce)
	return ce, ok
}
