// Package permission implements the request/grant handshake that decides whether
// incoming messages are handed to the extraction engine at all.
package permission

import (
	"context"
	"fmt"
	"sync"

	"teketeke/mpesa-sms/internal/logging"
)

// Status is the state of the permission handshake.
type Status string

// Handshake states.
const (
	StatusPrompt  Status = "prompt"
	StatusGranted Status = "granted"
	StatusDenied  Status = "denied"
)

// ParseStatus converts a configuration value into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPrompt, StatusGranted, StatusDenied:
		return Status(s), nil
	case "":
		return StatusPrompt, nil
	}
	return "", fmt.Errorf("unknown permission status %q", s)
}

// Requester asks whatever owns the message feed for access.
type Requester interface {
	RequestAccess(ctx context.Context) (bool, error)
}

// Static answers every request with a fixed decision.
type Static struct {
	Grant bool
}

// RequestAccess returns the configured decision.
func (s Static) RequestAccess(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.Grant, nil
}

// Gate records the outcome of the handshake. It is safe for concurrent use.
type Gate struct {
	mu        sync.Mutex
	status    Status
	requester Requester
	logger    logging.Logger
}

// NewGate creates a Gate in the prompt state.
func NewGate(requester Requester, logger logging.Logger) *Gate {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Gate{status: StatusPrompt, requester: requester, logger: logger}
}

// Request runs the handshake. Once granted, later calls return immediately
// without asking again. A denial can be retried.
func (g *Gate) Request(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status == StatusGranted {
		return true, nil
	}
	if g.requester == nil {
		return false, fmt.Errorf("no permission requester configured")
	}

	granted, err := g.requester.RequestAccess(ctx)
	if err != nil {
		return false, fmt.Errorf("permission request failed: %w", err)
	}
	if granted {
		g.status = StatusGranted
	} else {
		g.status = StatusDenied
	}
	g.logger.Info("Permission handshake completed",
		logging.Field{Key: logging.FieldStatus, Value: string(g.status)})
	return granted, nil
}

// Granted reports whether the handshake has succeeded.
func (g *Gate) Granted() bool {
	return g.Status() == StatusGranted
}

// Status returns the current handshake state.
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}
