// Package metrics defines the collector interface the receiver and forwarder
// report to. Implementations export to Prometheus or keep values in memory.
package metrics

import "time"

// Collector defines the interface for collecting pipeline metrics.
type Collector interface {
	// Receiver
	RecordMessage(outcome string)
	RecordRecord(kind, category string)
	RecordBufferDepth(depth int)

	// Forwarder
	RecordForward(success bool, items int, duration time.Duration)
	RecordCircuitState(state CircuitState)
}

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed means the circuit breaker is allowing requests through.
	CircuitClosed CircuitState = iota
	// CircuitOpen means the circuit breaker is blocking requests.
	CircuitOpen
	// CircuitHalfOpen means the circuit breaker is testing if the backend has recovered.
	CircuitHalfOpen
)

// String returns the string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NoOpCollector is a no-op implementation of Collector.
type NoOpCollector struct{}

// RecordMessage does nothing.
func (NoOpCollector) RecordMessage(outcome string) {}

// RecordRecord does nothing.
func (NoOpCollector) RecordRecord(kind, category string) {}

// RecordBufferDepth does nothing.
func (NoOpCollector) RecordBufferDepth(depth int) {}

// RecordForward does nothing.
func (NoOpCollector) RecordForward(success bool, items int, duration time.Duration) {}

// RecordCircuitState does nothing.
func (NoOpCollector) RecordCircuitState(state CircuitState) {}
