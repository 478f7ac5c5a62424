// Package forwarder delivers drained records to the backend import endpoint.
package forwarder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"teketeke/mpesa-sms/internal/buffer"
	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/metrics"
	"teketeke/mpesa-sms/internal/models"
	"teketeke/mpesa-sms/internal/parsererror"

	"github.com/sony/gobreaker"
)

// Defaults applied to zero Config fields.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxFailures = 5
	DefaultOpenTimeout = 30 * time.Second
)

// maxErrorBody limits how much of an error response is kept.
const maxErrorBody = 512

// Config holds the forwarder settings.
type Config struct {
	URL         string
	Token       string
	Timeout     time.Duration
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Forwarder posts records as {"items": [...]} with a bearer token. Calls go
// through a circuit breaker that opens after MaxFailures consecutive failures.
type Forwarder struct {
	cfg     Config
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	metrics metrics.Collector
	logger  logging.Logger
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Forwarder) {
		if c != nil {
			f.client = c
		}
	}
}

// WithMetrics reports attempts and circuit state to c.
func WithMetrics(c metrics.Collector) Option {
	return func(f *Forwarder) {
		if c != nil {
			f.metrics = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(f *Forwarder) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Forwarder. It returns an error when cfg.URL is empty.
func New(cfg Config, opts ...Option) (*Forwarder, error) {
	if cfg.URL == "" {
		return nil, errors.New("forward URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}

	f := &Forwarder{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		metrics: metrics.NoOpCollector{},
		logger:  logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}

	maxFailures := cfg.MaxFailures
	f.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "forwarder",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			f.logger.Warn("Circuit breaker state changed",
				logging.Field{Key: "from", Value: from.String()},
				logging.Field{Key: "to", Value: to.String()})
			f.metrics.RecordCircuitState(toCircuitState(to))
		},
	})
	return f, nil
}

func toCircuitState(s gobreaker.State) metrics.CircuitState {
	switch s {
	case gobreaker.StateOpen:
		return metrics.CircuitOpen
	case gobreaker.StateHalfOpen:
		return metrics.CircuitHalfOpen
	default:
		return metrics.CircuitClosed
	}
}

// State returns the current circuit breaker state.
func (f *Forwarder) State() metrics.CircuitState {
	return toCircuitState(f.cb.State())
}

// Write posts records to the backend. An empty batch is not sent.
func (f *Forwarder) Write(ctx context.Context, records []models.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()
	_, err := f.cb.Execute(func() (interface{}, error) {
		return nil, f.post(ctx, records)
	})
	duration := time.Since(start)
	f.metrics.RecordForward(err == nil, len(records), duration)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &parsererror.ForwardError{URL: f.cfg.URL, Items: len(records), Err: parsererror.ErrCircuitOpen}
		}
		return err
	}

	f.logger.Info("Forwarded records",
		logging.Field{Key: logging.FieldCount, Value: len(records)},
		logging.Field{Key: logging.FieldURL, Value: f.cfg.URL},
		logging.Field{Key: logging.FieldDuration, Value: duration.Milliseconds()})
	return nil
}

func (f *Forwarder) post(ctx context.Context, records []models.TransactionRecord) error {
	payload, err := json.Marshal(models.NewPullResponse(records))
	if err != nil {
		return fmt.Errorf("error encoding records: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error building forward request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if f.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.Token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return &parsererror.ForwardError{URL: f.cfg.URL, Items: len(records), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &parsererror.ForwardError{
			URL:        f.cfg.URL,
			StatusCode: resp.StatusCode,
			Items:      len(records),
			Err:        fmt.Errorf("unexpected response: %s", bytes.TrimSpace(body)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Flush drains buf and forwards the records. On failure the records are
// restored to the front of buf so nothing is lost. It returns how many records
// were delivered.
func (f *Forwarder) Flush(ctx context.Context, buf *buffer.Buffer) (int, error) {
	records := buf.Drain()
	if len(records) == 0 {
		return 0, nil
	}
	if err := f.Write(ctx, records); err != nil {
		buf.Restore(records)
		f.metrics.RecordBufferDepth(buf.Len())
		return 0, err
	}
	f.metrics.RecordBufferDepth(buf.Len())
	return len(records), nil
}

// Run flushes buf every interval until ctx is done, then makes one last
// attempt bounded by the request timeout.
func (f *Forwarder) Run(ctx context.Context, buf *buffer.Buffer, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("forward interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	f.logger.Info("Forwarder started",
		logging.Field{Key: logging.FieldURL, Value: f.cfg.URL},
		logging.Field{Key: "interval", Value: interval.String()})

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.Background(), f.cfg.Timeout)
			defer cancel()
			if _, err := f.Flush(finalCtx, buf); err != nil {
				f.logger.WithError(err).Warn("Final flush failed, records remain buffered",
					logging.Field{Key: logging.FieldCount, Value: buf.Len()})
			}
			f.logger.Info("Forwarder stopped")
			return nil
		case <-ticker.C:
			if _, err := f.Flush(ctx, buf); err != nil {
				f.logger.WithError(err).Warn("Forwarding failed, will retry",
					logging.Field{Key: logging.FieldCount, Value: buf.Len()})
			}
		}
	}
}
