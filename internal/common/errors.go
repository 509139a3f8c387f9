package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Failure kinds for the document pipeline. UnsupportedFormat and Decode are
// input-shape errors: the artifact is excluded from the batch and the
// exclusion is surfaced. Extraction and Translation are external-capability
// failures handled by degradation, not exclusion.
var (
	ErrUnsupportedFormat = errors.New("unsupported artifact format")
	ErrDecode            = errors.New("artifact could not be decoded")
	ErrExtraction        = errors.New("text extraction failed")
	ErrTranslation       = errors.New("translation failed")
	ErrInvalidInput      = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
