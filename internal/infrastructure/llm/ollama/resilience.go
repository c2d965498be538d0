package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	Model      string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	if e.ModelMissing() {
		return fmt.Sprintf("ollama %s: vision model %q is not available: %s", e.Operation, e.Model, e.Body)
	}
	if e.Body == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, e.Body)
}

// ModelMissing reports a 404 from /api/generate, which Ollama returns when the
// configured model has not been pulled.
func (e *HTTPStatusError) ModelMissing() bool {
	return e != nil && e.StatusCode == http.StatusNotFound
}

var (
	retryAndRecord = resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	recordOnly     = resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	ignore         = resilience.ErrorClassification{}
)

// classifyOllamaError decides retries for one generate call. A missing model
// trips the breaker without retries; other client errors are the document's
// fault and leave the breaker alone.
func classifyOllamaError(err error) resilience.ErrorClassification {
	if class, ok := resilience.ClassifyContext(err); ok {
		return class
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case isRetryableHTTPStatus(statusErr.StatusCode):
			return retryAndRecord
		case statusErr.ModelMissing():
			return recordOnly
		default:
			return ignore
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return retryAndRecord
	}
	return recordOnly
}

// wrapModelError maps a failed generate call onto the domain error kinds the
// worker persists: retryable failures are temporary, the rest are model failures.
func wrapModelError(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrModelFailure):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case classifyOllamaError(err).Retryable:
		return domain.WrapError(domain.ErrTemporary, operation, err)
	default:
		return domain.WrapError(domain.ErrModelFailure, operation, err)
	}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
