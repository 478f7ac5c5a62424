// Package memory provides an in-memory metrics.Collector for tests and the CLI.
package memory

import (
	"sync"
	"time"

	"teketeke/mpesa-sms/internal/metrics"
)

// Collector keeps every recorded value in memory.
type Collector struct {
	mu sync.RWMutex

	messages       map[string]int64
	records        map[string]int64
	bufferDepth    int
	forwards       int64
	forwardErrors  int64
	forwardedItems int64
	latencies      []time.Duration
	circuitState   metrics.CircuitState
}

// NewCollector creates an empty in-memory collector.
func NewCollector() *Collector {
	return &Collector{
		messages: make(map[string]int64),
		records:  make(map[string]int64),
	}
}

// RecordMessage counts one handled message by outcome.
func (c *Collector) RecordMessage(outcome string) {
	c.mu.Lock()
	c.messages[outcome]++
	c.mu.Unlock()
}

// RecordRecord counts one buffered record by kind and category.
func (c *Collector) RecordRecord(kind, category string) {
	c.mu.Lock()
	c.records[kind+"/"+category]++
	c.mu.Unlock()
}

// RecordBufferDepth stores the latest buffer depth.
func (c *Collector) RecordBufferDepth(depth int) {
	c.mu.Lock()
	c.bufferDepth = depth
	c.mu.Unlock()
}

// RecordForward counts one forward attempt.
func (c *Collector) RecordForward(success bool, items int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forwards++
	if success {
		c.forwardedItems += int64(items)
	} else {
		c.forwardErrors++
	}
	c.latencies = append(c.latencies, duration)
}

// RecordCircuitState stores the latest circuit state.
func (c *Collector) RecordCircuitState(state metrics.CircuitState) {
	c.mu.Lock()
	c.circuitState = state
	c.mu.Unlock()
}

// Messages returns how many messages ended with outcome.
func (c *Collector) Messages(outcome string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messages[outcome]
}

// Records returns how many records of kind and category were buffered.
func (c *Collector) Records(kind, category string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records[kind+"/"+category]
}

// BufferDepth returns the last reported buffer depth.
func (c *Collector) BufferDepth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bufferDepth
}

// Forwards returns the number of attempts, failed attempts and delivered items.
func (c *Collector) Forwards() (attempts, failures, items int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.forwards, c.forwardErrors, c.forwardedItems
}

// CircuitState returns the last reported circuit state.
func (c *Collector) CircuitState() metrics.CircuitState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.circuitState
}
