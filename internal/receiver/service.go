package receiver

import (
	"context"

	"teketeke/mpesa-sms/internal/buffer"
	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/metrics"
	"teketeke/mpesa-sms/internal/models"
	"teketeke/mpesa-sms/internal/permission"
)

// PermissionRequester runs the permission handshake.
type PermissionRequester interface {
	Request(ctx context.Context) (bool, error)
	Status() permission.Status
}

// Service is the control surface a host drives: the permission handshake,
// the enable toggle and draining the buffer.
type Service struct {
	gate    PermissionRequester
	buffer  *buffer.Buffer
	metrics metrics.Collector
	logger  logging.Logger
}

// NewService creates a Service.
func NewService(gate PermissionRequester, buf *buffer.Buffer, collector metrics.Collector, logger logging.Logger) *Service {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Service{gate: gate, buffer: buf, metrics: collector, logger: logger}
}

// RequestPermission runs the handshake and returns whether access was granted.
func (s *Service) RequestPermission(ctx context.Context) (bool, error) {
	return s.gate.Request(ctx)
}

// PermissionStatus returns the current handshake state.
func (s *Service) PermissionStatus() permission.Status {
	return s.gate.Status()
}

// SetEnabled turns message processing on or off.
func (s *Service) SetEnabled(enabled bool) {
	s.buffer.SetEnabled(enabled)
	s.logger.Info("Message processing toggled", logging.Field{Key: logging.FieldEnabled, Value: enabled})
}

// Enabled reports whether message processing is on.
func (s *Service) Enabled() bool {
	return s.buffer.Enabled()
}

// Pending returns how many records are waiting to be pulled.
func (s *Service) Pending() int {
	return s.buffer.Len()
}

// PullNewMessages drains the buffer. Each record is returned exactly once.
func (s *Service) PullNewMessages() models.PullResponse {
	items := s.buffer.Drain()
	s.metrics.RecordBufferDepth(s.buffer.Len())
	s.logger.Debug("Buffer drained", logging.Field{Key: logging.FieldCount, Value: len(items)})
	return models.NewPullResponse(items)
}
