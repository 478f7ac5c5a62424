// Package dedupe drops records whose M-PESA reference has already been seen.
package dedupe

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Defaults used when the configured values are out of range.
const (
	DefaultCapacity          uint    = 10000
	DefaultFalsePositiveRate float64 = 0.01
)

// Filter remembers references. A bloom filter answers the common "never seen"
// case; positives are confirmed against an exact set so no record is dropped
// by a false positive.
type Filter struct {
	mu       sync.Mutex
	capacity uint
	fpRate   float64
	bloom    *bloom.BloomFilter
	seen     map[string]struct{}

	prefilterRejected uint64
	falsePositives    uint64
}

// Stats summarises how the filter has been used.
type Stats struct {
	Tracked           int
	PrefilterRejected uint64
	FalsePositives    uint64
}

// NewFilter creates a Filter sized for expectedItems references.
func NewFilter(expectedItems uint, falsePositiveRate float64) *Filter {
	if expectedItems == 0 {
		expectedItems = DefaultCapacity
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = DefaultFalsePositiveRate
	}
	return &Filter{
		capacity: expectedItems,
		fpRate:   falsePositiveRate,
		bloom:    bloom.NewWithEstimates(expectedItems, falsePositiveRate),
		seen:     make(map[string]struct{}),
	}
}

// Seen records ref and reports whether it had been recorded before.
// The empty reference is never a duplicate.
func (f *Filter) Seen(ref string) bool {
	if ref == "" {
		return false
	}
	key := []byte(ref)

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.bloom.Test(key) {
		f.prefilterRejected++
		f.bloom.Add(key)
		f.seen[ref] = struct{}{}
		return false
	}
	if _, ok := f.seen[ref]; ok {
		return true
	}
	f.falsePositives++
	f.seen[ref] = struct{}{}
	return false
}

// Forget removes ref so that it is accepted again. Bloom filters cannot delete,
// so later lookups of ref fall through to the exact set.
func (f *Filter) Forget(ref string) {
	f.mu.Lock()
	delete(f.seen, ref)
	f.mu.Unlock()
}

// Reset clears every remembered reference.
func (f *Filter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bloom = bloom.NewWithEstimates(f.capacity, f.fpRate)
	f.seen = make(map[string]struct{})
	f.prefilterRejected = 0
	f.falsePositives = 0
}

// Stats returns a snapshot of the filter counters.
func (f *Filter) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		Tracked:           len(f.seen),
		PrefilterRejected: f.prefilterRejected,
		FalsePositives:    f.falsePositives,
	}
}
