// Package receiver connects message arrival to the extraction engine and the
// buffer, and exposes the control operations a host uses to drive them.
package receiver

import (
	"context"
	"fmt"

	"teketeke/mpesa-sms/internal/buffer"
	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/metrics"
	"teketeke/mpesa-sms/internal/models"
	"teketeke/mpesa-sms/internal/source"
)

// Outcome describes what happened to one arriving message.
type Outcome string

// Message outcomes.
const (
	OutcomeSkippedPermission Outcome = "skipped_permission"
	OutcomeSkippedDisabled   Outcome = "skipped_disabled"
	OutcomeRejected          Outcome = "rejected"
	OutcomeDuplicate         Outcome = "duplicate"
	OutcomeAppended          Outcome = "appended"
)

// Extractor is the extraction engine.
type Extractor interface {
	Extract(body string, timestampMillis int64) (*models.TransactionRecord, bool)
}

// PermissionChecker reports whether the permission handshake has succeeded.
type PermissionChecker interface {
	Granted() bool
}

// DuplicateFilter remembers references already buffered.
type DuplicateFilter interface {
	Seen(ref string) bool
	Forget(ref string)
}

// Receiver handles arriving messages. It is safe for concurrent use.
type Receiver struct {
	extractor  Extractor
	buffer     *buffer.Buffer
	permission PermissionChecker
	duplicates DuplicateFilter
	metrics    metrics.Collector
	logger     logging.Logger
}

// Option configures a Receiver.
type Option func(*Receiver)

// WithDuplicateFilter drops records whose reference was already buffered.
func WithDuplicateFilter(f DuplicateFilter) Option {
	return func(r *Receiver) { r.duplicates = f }
}

// WithMetrics reports outcomes to c.
func WithMetrics(c metrics.Collector) Option {
	return func(r *Receiver) {
		if c != nil {
			r.metrics = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Receiver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Receiver feeding buf. A nil permission checker means access
// is always granted.
func New(extractor Extractor, buf *buffer.Buffer, permission PermissionChecker, opts ...Option) *Receiver {
	r := &Receiver{
		extractor:  extractor,
		buffer:     buf,
		permission: permission,
		metrics:    metrics.NoOpCollector{},
		logger:     logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle runs one message through the gates, the engine and the buffer.
// Permission and the enable flag are checked before the engine is invoked.
func (r *Receiver) Handle(msg models.RawMessage) Outcome {
	outcome, rec := r.handle(msg)
	r.metrics.RecordMessage(string(outcome))

	log := r.logger.WithFields(
		logging.Field{Key: logging.FieldSender, Value: msg.Sender},
		logging.Field{Key: logging.FieldOutcome, Value: string(outcome)})
	if rec != nil {
		r.metrics.RecordRecord(string(rec.Direction), rec.Category)
		r.metrics.RecordBufferDepth(r.buffer.Len())
		log.Debug("Message buffered",
			logging.Field{Key: logging.FieldKind, Value: string(rec.Direction)},
			logging.Field{Key: logging.FieldAmount, Value: rec.Amount.String()},
			logging.Field{Key: logging.FieldReference, Value: rec.Reference})
	} else {
		log.Debug("Message not buffered")
	}
	return outcome
}

func (r *Receiver) handle(msg models.RawMessage) (Outcome, *models.TransactionRecord) {
	if r.permission != nil && !r.permission.Granted() {
		return OutcomeSkippedPermission, nil
	}
	if !r.buffer.Enabled() {
		return OutcomeSkippedDisabled, nil
	}

	rec, ok := r.extractor.Extract(msg.Body, msg.TimestampMillis)
	if !ok {
		return OutcomeRejected, nil
	}

	if r.duplicates != nil && r.duplicates.Seen(rec.Reference) {
		return OutcomeDuplicate, nil
	}
	if !r.buffer.Append(*rec) {
		// Disabled between the check and the append.
		if r.duplicates != nil {
			r.duplicates.Forget(rec.Reference)
		}
		return OutcomeSkippedDisabled, nil
	}
	return OutcomeAppended, rec
}

// Summary counts outcomes of a Consume run.
type Summary map[Outcome]int

// Total returns the number of messages handled.
func (s Summary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Consume handles every message src delivers until it is exhausted or ctx is done.
func (r *Receiver) Consume(ctx context.Context, src source.MessageSource) (Summary, error) {
	summary := make(Summary)
	err := src.Read(ctx, func(msg models.RawMessage) error {
		summary[r.Handle(msg)]++
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("error consuming messages: %w", err)
	}
	r.logger.Info("Finished consuming messages",
		logging.Field{Key: logging.FieldCount, Value: summary.Total()},
		logging.Field{Key: string(OutcomeAppended), Value: summary[OutcomeAppended]},
		logging.Field{Key: string(OutcomeRejected), Value: summary[OutcomeRejected]})
	return summary, nil
}
