// Package prometheus exports pipeline metrics through client_golang.
package prometheus

import (
	"time"

	"teketeke/mpesa-sms/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements metrics.Collector for Prometheus.
type Collector struct {
	namespace string

	messages       *prometheus.CounterVec
	records        *prometheus.CounterVec
	bufferDepth    prometheus.Gauge
	forwards       *prometheus.CounterVec
	forwardedItems prometheus.Counter
	forwardLatency *prometheus.HistogramVec
	circuitState   prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector(namespace string) *Collector {
	return &Collector{
		namespace: namespace,
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_total",
				Help:      "Total number of handled messages per outcome",
			},
			[]string{"outcome"},
		),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Total number of buffered records per kind and category",
			},
			[]string{"kind", "category"},
		),
		bufferDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "buffer_depth",
				Help:      "Number of records waiting to be drained",
			},
		),
		forwards: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forwards_total",
				Help:      "Total number of forward attempts per result",
			},
			[]string{"result"},
		),
		forwardedItems: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forwarded_items_total",
				Help:      "Total number of records delivered to the backend",
			},
		),
		forwardLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "forward_duration_seconds",
				Help:      "Forward request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		circuitState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "forward_circuit_state",
				Help:      "Forwarder circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
		),
	}
}

// Register registers all metrics with the given Prometheus registry.
func (c *Collector) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		c.messages,
		c.records,
		c.bufferDepth,
		c.forwards,
		c.forwardedItems,
		c.forwardLatency,
		c.circuitState,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// RecordMessage counts one handled message.
func (c *Collector) RecordMessage(outcome string) {
	c.messages.WithLabelValues(outcome).Inc()
}

// RecordRecord counts one buffered record.
func (c *Collector) RecordRecord(kind, category string) {
	c.records.WithLabelValues(kind, category).Inc()
}

// RecordBufferDepth sets the buffer depth gauge.
func (c *Collector) RecordBufferDepth(depth int) {
	c.bufferDepth.Set(float64(depth))
}

// RecordForward records one forward attempt.
func (c *Collector) RecordForward(success bool, items int, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	} else {
		c.forwardedItems.Add(float64(items))
	}
	c.forwards.WithLabelValues(result).Inc()
	c.forwardLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordCircuitState sets the circuit state gauge.
func (c *Collector) RecordCircuitState(state metrics.CircuitState) {
	c.circuitState.Set(float64(state))
}
