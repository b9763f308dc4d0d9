package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cropguide/cropguide-ingest/internal/infrastructure/resilience"
)

type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant status: %s", e.message)
}

func isStatus(err error, code int, target **statusError) bool {
	return errors.As(err, target) && (*target).status == code
}

func classifyQdrantError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		retryable := statusErr.status == http.StatusTooManyRequests ||
			statusErr.status == http.StatusServiceUnavailable ||
			statusErr.status >= http.StatusInternalServerError
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: true}
	}

	// Transport-level failures (dial, reset) are worth a retry.
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
