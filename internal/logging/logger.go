// Package logging provides the structured logging abstraction used by every
// component, so that packages depend on an interface rather than on logrus.
package logging

import "sync"

// Logger defines the interface for structured logging throughout the application.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithError returns a new logger with an error field attached
	WithError(err error) Logger

	// WithField returns a new logger with a single field attached
	WithField(key string, value interface{}) Logger

	// WithFields returns a new logger with multiple fields attached
	WithFields(fields ...Field) Logger
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = NewLogrusAdapter("info", "text")
)

// GetLogger returns the process-wide default logger.
// Components built through the container receive their logger explicitly instead.
func GetLogger() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetLogger replaces the process-wide default logger. A nil logger is ignored.
func SetLogger(logger Logger) {
	if logger == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}
