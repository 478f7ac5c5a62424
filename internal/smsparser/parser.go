// Package smsparser turns the text of an M-PESA confirmation SMS into a
// models.TransactionRecord.
//
// Extraction is a fixed sequence of independent stages (relevance, direction,
// amount, rejection gate, reference, counterparty, category, timestamp). Each
// stage reads the same immutable input and returns its own result; the results
// are merged into a record only once every stage has run. The parser keeps no
// state between calls and is safe for concurrent use.
package smsparser

import (
	"sync"
	"time"

	"teketeke/mpesa-sms/internal/categorizer"
	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/models"

	"github.com/shopspring/decimal"
)

// Categorizer assigns a category name to outbound message text. It must never return "".
type Categorizer interface {
	Categorize(text string) string
}

// Parser extracts transaction records from message bodies.
type Parser struct {
	location    *time.Location
	categorizer Categorizer
	logger      logging.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLocation sets the time zone timestamps are rendered in. Nil means UTC.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.location = loc
		}
	}
}

// WithCategorizer replaces the built-in keyword rules.
func WithCategorizer(c Categorizer) Option {
	return func(p *Parser) {
		if c != nil {
			p.categorizer = c
		}
	}
}

// WithLogger sets the logger used for debug tracing of rejected messages.
func WithLogger(logger logging.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewParser creates a Parser. Without options it renders timestamps in UTC and
// uses categorizer.DefaultConfig.
func NewParser(opts ...Option) *Parser {
	p := &Parser{location: time.UTC}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.GetLogger()
	}
	if p.categorizer == nil {
		p.categorizer = categorizer.NewCategorizerWithConfig(categorizer.DefaultConfig(), p.logger)
	}
	return p
}

// Location returns the time zone timestamps are rendered in.
func (p *Parser) Location() *time.Location {
	return p.location
}

// stageResults holds the output of every stage before they are merged.
type stageResults struct {
	direction    models.Direction
	amount       decimal.Decimal
	reference    string
	counterparty string
	category     string
	occurredAt   string
}

// Extract runs the pipeline over body. It returns false when the body is not an
// M-PESA message or carries no positive amount. It never panics and never errors.
func (p *Parser) Extract(body string, timestampMillis int64) (*models.TransactionRecord, bool) {
	m := newMessage(body, timestampMillis)

	if !isRelevant(m) {
		p.logger.Debug("Message skipped", logging.Field{Key: logging.FieldStage, Value: "relevance"})
		return nil, false
	}

	var r stageResults
	r.direction = classifyDirection(m)

	amount := extractAmount(m)
	if !acceptAmount(amount) {
		p.logger.Debug("Message skipped", logging.Field{Key: logging.FieldStage, Value: "amount"})
		return nil, false
	}
	r.amount = amount

	r.reference, _ = extractReference(m)
	r.counterparty, _ = extractCounterparty(m)
	if r.direction == models.Outbound {
		r.category = p.categorizer.Categorize(m.text)
	}
	r.occurredAt = normalizeTimestamp(m, p.location)

	return &models.TransactionRecord{
		Direction:    r.direction,
		Amount:       r.amount,
		Category:     r.category,
		Counterparty: r.counterparty,
		Reference:    r.reference,
		Description:  m.text,
		OccurredAt:   r.occurredAt,
	}, true
}

var (
	defaultOnce   sync.Once
	defaultParser *Parser
)

// Extract runs the default parser: UTC timestamps and the built-in category rules.
func Extract(body string, timestampMillis int64) (*models.TransactionRecord, bool) {
	defaultOnce.Do(func() {
		defaultParser = NewParser()
	})
	return defaultParser.Extract(body, timestampMillis)
}
