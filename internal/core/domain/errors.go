package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrCropNotFound      = errors.New("crop not found")
	ErrCropConflict      = errors.New("crop already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTemporary         = errors.New("temporary failure")
	ErrRateLimited       = errors.New("rate limit exhausted")
	ErrEmptyModelOutput  = errors.New("model returned no usable text")
	ErrUnsupportedUpload = errors.New("unsupported file type")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
