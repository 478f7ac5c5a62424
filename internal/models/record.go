// Package models provides the data structures used throughout the application.
package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Direction tells whether funds were received or sent.
type Direction string

// IsValid reports whether d is one of the known directions.
func (d Direction) IsValid() bool {
	return d == Inbound || d == Outbound
}

// TransactionRecord is the structured result of extracting an M-PESA message.
//
// Optional fields use the empty string for "absent"; they are omitted entirely
// from every serialized form rather than emitted as null or "".
type TransactionRecord struct {
	Direction    Direction
	Amount       decimal.Decimal
	Category     string // only set for outbound records
	Counterparty string
	Reference    string
	Description  string
	OccurredAt   string
}

// IsInbound returns true if the record represents money received
func (r TransactionRecord) IsInbound() bool {
	return r.Direction == Inbound
}

// IsOutbound returns true if the record represents money sent or paid
func (r TransactionRecord) IsOutbound() bool {
	return r.Direction == Outbound
}

// Validate checks the invariants every produced record must satisfy.
func (r TransactionRecord) Validate() error {
	if !r.Direction.IsValid() {
		return fmt.Errorf("invalid direction %q", r.Direction)
	}
	if !r.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", r.Amount.String())
	}
	if r.IsInbound() && r.Category != "" {
		return fmt.Errorf("inbound record cannot carry category %q", r.Category)
	}
	if r.Reference != "" && len(r.Reference) < 8 {
		return fmt.Errorf("reference %q shorter than 8 characters", r.Reference)
	}
	return nil
}

// wireRecord is the flat key-value shape consumers of drained records expect.
type wireRecord struct {
	Kind         Direction   `json:"kind"`
	Amount       json.Number `json:"amount"`
	Category     string      `json:"category,omitempty"`
	Counterparty string      `json:"counterparty,omitempty"`
	Reference    string      `json:"mpesa_ref,omitempty"`
	Description  string      `json:"description"`
	OccurredAt   string      `json:"occurred_at"`
}

// MarshalJSON encodes the record with the wire field names. The amount is a JSON number.
func (r TransactionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRecord{
		Kind:         r.Direction,
		Amount:       json.Number(r.Amount.String()),
		Category:     r.Category,
		Counterparty: r.Counterparty,
		Reference:    r.Reference,
		Description:  r.Description,
		OccurredAt:   r.OccurredAt,
	})
}

// UnmarshalJSON decodes a record from its wire form.
func (r *TransactionRecord) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(w.Amount.String())
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", w.Amount, err)
	}
	*r = TransactionRecord{
		Direction:    w.Kind,
		Amount:       amount,
		Category:     w.Category,
		Counterparty: w.Counterparty,
		Reference:    w.Reference,
		Description:  w.Description,
		OccurredAt:   w.OccurredAt,
	}
	return nil
}

// ToMap flattens the record into the key-value structure handed to consumers.
// Absent optional fields have no key at all.
func (r TransactionRecord) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		FieldKind:        string(r.Direction),
		FieldAmount:      r.Amount.InexactFloat64(),
		FieldDescription: r.Description,
		FieldOccurredAt:  r.OccurredAt,
	}
	if r.Category != "" {
		m[FieldCategory] = r.Category
	}
	if r.Counterparty != "" {
		m[FieldCounterparty] = r.Counterparty
	}
	if r.Reference != "" {
		m[FieldReference] = r.Reference
	}
	return m
}

// PullResponse is the envelope returned when the buffer is drained.
type PullResponse struct {
	Items []TransactionRecord `json:"items"`
}

// NewPullResponse wraps drained records, never producing a null item list.
func NewPullResponse(records []TransactionRecord) PullResponse {
	if records == nil {
		records = []TransactionRecord{}
	}
	return PullResponse{Items: records}
}
