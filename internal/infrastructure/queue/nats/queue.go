package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/infrastructure/resilience"
)

const (
	workerQueueGroup   = "extraction-workers"
	headerExtractionID = "Kyc-Extraction-Id"
	headerPublishedAt  = "Kyc-Published-At"
)

type publishedAtKey struct{}

// PublishedAt returns when the message being handled was published, if the
// publisher stamped it.
func PublishedAt(ctx context.Context) (time.Time, bool) {
	publishedAt, ok := ctx.Value(publishedAtKey{}).(time.Time)
	return publishedAt, ok
}

func parsePublishedAt(header nats.Header) (time.Time, bool) {
	raw := header.Get(headerPublishedAt)
	if raw == "" {
		return time.Time{}, false
	}
	publishedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return publishedAt, true
}

type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	HandlerTimeout       time.Duration
	ResilienceExecutor   *resilience.Executor
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("kyc-extractor"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return NewWithConn(conn, subject, options.ResilienceExecutor), nil
}

// NewWithConn wraps an already established connection.
func NewWithConn(conn *nats.Conn, subject string, executor *resilience.Executor) *Queue {
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: executor,
	}
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// Ping reports whether the connection is usable, for readiness checks.
func (q *Queue) Ping(context.Context) error {
	if q.conn == nil || !q.conn.IsConnected() {
		return domainTemporary("nats ping", nats.ErrDisconnected)
	}
	return nil
}

// PublishExtractionRequested sends the extraction id as the message body and
// stamps the publish time in a header so workers can measure queue lag.
func (q *Queue) PublishExtractionRequested(ctx context.Context, extractionID string) error {
	id := strings.TrimSpace(extractionID)
	if id == "" {
		return domain.WrapError(domain.ErrInvalidInput, "nats publish", errors.New("empty extraction id"))
	}

	msg := nats.NewMsg(q.subject)
	msg.Data = []byte(id)
	msg.Header.Set(headerExtractionID, id)
	msg.Header.Set(headerPublishedAt, time.Now().UTC().Format(time.RFC3339Nano))

	call := func(_ context.Context) error {
		err := q.conn.PublishMsg(msg)
		if errors.Is(err, nats.ErrHeadersNotSupported) {
			err = q.conn.Publish(q.subject, msg.Data)
		}
		if err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, resilience.OperationQueuePublish, call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(err)
}

// SubscribeExtractionRequested blocks until ctx is cancelled, then drains so
// in-flight extractions finish before returning.
func (q *Queue) SubscribeExtractionRequested(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerQueueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		extractionID := strings.TrimSpace(string(msg.Data))
		if extractionID == "" {
			slog.Warn("nats_empty_message", "subject", msg.Subject)
			return
		}

		handlerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		if publishedAt, ok := parsePublishedAt(msg.Header); ok {
			handlerCtx = context.WithValue(handlerCtx, publishedAtKey{}, publishedAt)
		}
		if err := handler(handlerCtx, extractionID); err != nil {
			slog.Error("worker_handler_error", "extraction_id", extractionID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
