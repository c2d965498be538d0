package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errTemp),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	attempts := 0
	errPermanent := errors.New("permanent")
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
	})

	errTemp := errors.New("temporary")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{
			Retryable:     false,
			RecordFailure: true,
		}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return errTemp
		}, classifier)
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
}

type observerFake struct {
	retries []string
	states  []string
}

func (f *observerFake) ObserveRetry(operation string) { f.retries = append(f.retries, operation) }

func (f *observerFake) ObserveBreakerState(_ string, state string) {
	f.states = append(f.states, state)
}

func TestDoReturnsValueAndReportsRetries(t *testing.T) {
	observer := &observerFake{}
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}).WithObserver(observer)

	attempts := 0
	value, err := Do(context.Background(), exec, "model.extract", func(context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if value != "ok" {
		t.Fatalf("expected ok, got %q", value)
	}
	if len(observer.retries) != 1 || observer.retries[0] != "model.extract" {
		t.Fatalf("expected one retry observation, got %v", observer.retries)
	}
}

func TestDoWithoutExecutorCallsDirectly(t *testing.T) {
	value, err := Do(context.Background(), nil, "op", func(context.Context) (int, error) {
		return 7, nil
	}, nil)
	if err != nil || value != 7 {
		t.Fatalf("expected 7, got %d (%v)", value, err)
	}
}

func TestClassifyContext(t *testing.T) {
	class, ok := ClassifyContext(context.Canceled)
	if !ok || class.Retryable || class.RecordFailure {
		t.Fatalf("unexpected classification for cancel: %+v %v", class, ok)
	}
	class, ok = ClassifyContext(gobreaker.ErrOpenState)
	if !ok || !class.Retryable {
		t.Fatalf("unexpected classification for open breaker: %+v %v", class, ok)
	}
	if _, ok := ClassifyContext(errors.New("other")); ok {
		t.Fatalf("expected unclassified error to defer to caller")
	}
}

func TestExecuteBreakerStateObserved(t *testing.T) {
	observer := &observerFake{}
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      1,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}).WithObserver(observer)

	_ = exec.Execute(context.Background(), OperationQueuePublish, func(context.Context) error {
		return errors.New("down")
	}, nil)
	if len(observer.states) != 1 || observer.states[0] != "open" {
		t.Fatalf("expected open state observation, got %v", observer.states)
	}
}

func TestExecuteAppliesAttemptOverride(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    4,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		BreakerEnabled:      false,
		AttemptOverrides:    map[string]int{OperationModelGenerate: 1},
	})
	retryAll := func(error) ErrorClassification {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}

	modelCalls := 0
	_ = exec.Execute(context.Background(), OperationModelGenerate, func(context.Context) error {
		modelCalls++
		return errors.New("model busy")
	}, retryAll)
	if modelCalls != 1 {
		t.Fatalf("expected model call not to be retried, got %d attempts", modelCalls)
	}

	publishCalls := 0
	_ = exec.Execute(context.Background(), OperationQueuePublish, func(context.Context) error {
		publishCalls++
		return errors.New("nats down")
	}, retryAll)
	if publishCalls != 4 {
		t.Fatalf("expected default attempts for publish, got %d", publishCalls)
	}
}

func TestConfigNormalizeFillsDefaults(t *testing.T) {
	got := Config{
		RetryInitialBackoff: 5 * time.Second,
		RetryMaxBackoff:     time.Second,
		RetryMultiplier:     0.5,
		BreakerFailureRatio: 1.5,
	}.normalize()
	def := DefaultConfig()

	if got.RetryMaxAttempts != def.RetryMaxAttempts {
		t.Fatalf("expected default attempts, got %d", got.RetryMaxAttempts)
	}
	if got.RetryMaxBackoff != 5*time.Second {
		t.Fatalf("expected max backoff raised to initial backoff, got %s", got.RetryMaxBackoff)
	}
	if got.RetryMultiplier != def.RetryMultiplier || got.BreakerFailureRatio != def.BreakerFailureRatio {
		t.Fatalf("expected defaults for multiplier and ratio, got %+v", got)
	}
	if got.BreakerMinRequests != def.BreakerMinRequests || got.BreakerHalfOpenMaxCalls != def.BreakerHalfOpenMaxCalls {
		t.Fatalf("expected breaker defaults, got %+v", got)
	}
}
