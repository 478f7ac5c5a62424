// Package container provides dependency injection for the mpesa-sms application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"fmt"

	"teketeke/mpesa-sms/internal/api"
	"teketeke/mpesa-sms/internal/buffer"
	"teketeke/mpesa-sms/internal/categorizer"
	"teketeke/mpesa-sms/internal/config"
	"teketeke/mpesa-sms/internal/dedupe"
	"teketeke/mpesa-sms/internal/forwarder"
	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/metrics"
	promcollector "teketeke/mpesa-sms/internal/metrics/prometheus"
	"teketeke/mpesa-sms/internal/permission"
	"teketeke/mpesa-sms/internal/receiver"
	"teketeke/mpesa-sms/internal/smsparser"
	"teketeke/mpesa-sms/internal/store"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "mpesa_sms"

// Container holds all application dependencies and provides methods to access them.
// Container is immutable after creation.
type Container struct {
	logger      logging.Logger
	config      *config.Config
	store       *store.CategoryStore
	categorizer *categorizer.Categorizer
	parser      *smsparser.Parser
	buffer      *buffer.Buffer
	dedupe      *dedupe.Filter
	gate        *permission.Gate
	registry    *prometheus.Registry
	metrics     metrics.Collector
	receiver    *receiver.Receiver
	service     *receiver.Service
	forwarder   *forwarder.Forwarder
}

// Option adjusts how the container is built.
type Option func(*options)

type options struct {
	logger logging.Logger
}

// WithLogger uses logger instead of one built from the configuration.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewContainer creates and wires all application dependencies.
func NewContainer(cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// Create logger first as it's needed by other components
	logger := o.logger
	if logger == nil {
		logger = config.ConfigureLoggingFromConfig(cfg)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	categoryStore := store.NewCategoryStore(cfg.Parser.CategoriesFile, logger)
	cat := categorizer.NewCategorizer(categoryStore, logger)

	parser := smsparser.NewParser(
		smsparser.WithLocation(loc),
		smsparser.WithCategorizer(cat),
		smsparser.WithLogger(logger),
	)

	registry := prometheus.NewRegistry()
	collector := promcollector.NewCollector(MetricsNamespace)
	if err := collector.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	grant, err := permission.ParseStatus(cfg.Permission.Grant)
	if err != nil {
		return nil, err
	}
	gate := permission.NewGate(permission.Static{Grant: grant == permission.StatusGranted}, logger)

	buf := buffer.New(cfg.Receiver.Enabled)

	receiverOpts := []receiver.Option{receiver.WithMetrics(collector), receiver.WithLogger(logger)}
	var filter *dedupe.Filter
	if cfg.Receiver.Dedupe {
		filter = dedupe.NewFilter(cfg.Receiver.DedupeCapacity, cfg.Receiver.DedupeFalsePositiveRate)
		receiverOpts = append(receiverOpts, receiver.WithDuplicateFilter(filter))
	}
	recv := receiver.New(parser, buf, gate, receiverOpts...)
	svc := receiver.NewService(gate, buf, collector, logger)

	var fwd *forwarder.Forwarder
	if cfg.Forward.URL != "" {
		fwd, err = forwarder.New(forwarder.Config{
			URL:         cfg.Forward.URL,
			Token:       cfg.Forward.Token,
			Timeout:     config.Seconds(cfg.Forward.TimeoutSeconds),
			MaxFailures: uint32(cfg.Forward.MaxFailures), // #nosec G115 -- validated to be positive
			OpenTimeout: config.Seconds(cfg.Forward.OpenTimeoutSeconds),
		}, forwarder.WithMetrics(collector), forwarder.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create forwarder: %w", err)
		}
	}

	logger.Debug("Container initialized successfully",
		logging.Field{Key: "dedupe", Value: cfg.Receiver.Dedupe},
		logging.Field{Key: "forward", Value: fwd != nil},
		logging.Field{Key: logging.FieldEnabled, Value: cfg.Receiver.Enabled})

	return &Container{
		logger:      logger,
		config:      cfg,
		store:       categoryStore,
		categorizer: cat,
		parser:      parser,
		buffer:      buf,
		dedupe:      filter,
		gate:        gate,
		registry:    registry,
		metrics:     collector,
		receiver:    recv,
		service:     svc,
		forwarder:   fwd,
	}, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the container's category store instance.
func (c *Container) GetStore() *store.CategoryStore {
	return c.store
}

// GetCategorizer returns the container's categorizer instance.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// GetParser returns the extraction engine.
func (c *Container) GetParser() *smsparser.Parser {
	return c.parser
}

// GetBuffer returns the shared record buffer.
func (c *Container) GetBuffer() *buffer.Buffer {
	return c.buffer
}

// GetDedupe returns the duplicate filter, or nil when deduplication is off.
func (c *Container) GetDedupe() *dedupe.Filter {
	return c.dedupe
}

// GetPermissionGate returns the permission gate.
func (c *Container) GetPermissionGate() *permission.Gate {
	return c.gate
}

// GetRegistry returns the Prometheus registry metrics are exported from.
func (c *Container) GetRegistry() *prometheus.Registry {
	return c.registry
}

// GetMetrics returns the metrics collector.
func (c *Container) GetMetrics() metrics.Collector {
	return c.metrics
}

// GetReceiver returns the message receiver.
func (c *Container) GetReceiver() *receiver.Receiver {
	return c.receiver
}

// GetService returns the control service.
func (c *Container) GetService() *receiver.Service {
	return c.service
}

// GetForwarder returns the forwarder, or nil when no forward URL is configured.
func (c *Container) GetForwarder() *forwarder.Forwarder {
	return c.forwarder
}

// NewServer builds the HTTP bridge over the container's components.
func (c *Container) NewServer() *api.Server {
	return api.NewServer(api.Config{
		Address:        c.config.Server.Address,
		ReadTimeout:    config.Seconds(c.config.Server.ReadTimeoutSeconds),
		WriteTimeout:   config.Seconds(c.config.Server.WriteTimeoutSeconds),
		MaxConnections: c.config.Server.MaxConnections,
	}, api.Deps{
		Service:   c.service,
		Receiver:  c.receiver,
		Extractor: c.parser,
		Gatherer:  c.registry,
		Logger:    c.logger,
	})
}

// Close performs cleanup of container resources.
func (c *Container) Close() error {
	if n := c.buffer.Len(); n > 0 {
		c.logger.Warn("Container closed with undelivered records", logging.Field{Key: logging.FieldCount, Value: n})
	}
	return nil
}
