// Package buffer holds extracted records until a consumer drains them.
package buffer

import (
	"sync"

	"teketeke/mpesa-sms/internal/models"
)

// Buffer is a queue of records guarded by a single mutex together with its
// enable flag, so that the flag check and the append happen atomically.
// The zero value is a disabled, empty buffer.
type Buffer struct {
	mu      sync.Mutex
	enabled bool
	items   []models.TransactionRecord
}

// New returns an empty buffer with the given initial enable state.
func New(enabled bool) *Buffer {
	return &Buffer{enabled: enabled}
}

// Append adds rec when the buffer is enabled and reports whether it did.
func (b *Buffer) Append(rec models.TransactionRecord) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.enabled {
		return false
	}
	b.items = append(b.items, rec)
	return true
}

// SetEnabled turns processing on or off. Records already buffered are kept.
func (b *Buffer) SetEnabled(enabled bool) {
	b.mu.Lock()
	b.enabled = enabled
	b.mu.Unlock()
}

// Enabled reports the current state of the enable flag.
func (b *Buffer) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// Drain removes and returns every buffered record in insertion order.
// It never returns nil.
func (b *Buffer) Drain() []models.TransactionRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = nil
	if out == nil {
		out = []models.TransactionRecord{}
	}
	return out
}

// Restore puts records back at the front of the queue, ahead of anything
// appended since they were drained. It ignores the enable flag.
func (b *Buffer) Restore(records []models.TransactionRecord) {
	if len(records) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	merged := make([]models.TransactionRecord, 0, len(records)+len(b.items))
	merged = append(merged, records...)
	merged = append(merged, b.items...)
	b.items = merged
}

// Len returns the number of buffered records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
