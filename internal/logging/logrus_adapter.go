package logging

import (
	"io"
	"os"
	"strings"

	"teketeke/mpesa-sms/internal/dateutils"

	"github.com/sirupsen/logrus"
)

// LogrusAdapter is the Logger backed by sirupsen/logrus.
type LogrusAdapter struct {
	logger *logrus.Logger
	entry  *logrus.Entry
}

// NewLogrusAdapter builds a logger writing to stderr, leaving stdout to command
// results. level is any logrus level name in any case; unknown names mean info.
// format "json" selects one JSON object per line, anything else is text.
// Timestamps use the same layout as record timestamps.
func NewLogrusAdapter(level, format string) Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(newFormatter(format))

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
		logger.WithField("requested", level).Warn("Unknown log level, using info")
	}
	logger.SetLevel(lvl)

	return NewLogrusAdapterFromLogger(logger)
}

func newFormatter(format string) logrus.Formatter {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return &logrus.JSONFormatter{
			TimestampFormat: dateutils.TimestampLayoutISO,
			FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "message"},
		}
	}
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: dateutils.TimestampLayoutISO,
	}
}

// NewLogrusAdapterFromLogger wraps an existing logrus.Logger. Nil gets a fresh one.
func NewLogrusAdapterFromLogger(logger *logrus.Logger) Logger {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogrusAdapter{logger: logger, entry: logrus.NewEntry(logger)}
}

// SetOutput redirects every logger derived from this one.
func (l *LogrusAdapter) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

func (l *LogrusAdapter) emit(level logrus.Level, msg string, fields []Field) {
	if !l.logger.IsLevelEnabled(level) {
		return
	}
	l.entry.WithFields(convertFields(fields)).Log(level, msg)
}

func (l *LogrusAdapter) derive(entry *logrus.Entry) Logger {
	return &LogrusAdapter{logger: l.logger, entry: entry}
}

// Debug logs at debug level.
func (l *LogrusAdapter) Debug(msg string, fields ...Field) { l.emit(logrus.DebugLevel, msg, fields) }

// Info logs at info level.
func (l *LogrusAdapter) Info(msg string, fields ...Field) { l.emit(logrus.InfoLevel, msg, fields) }

// Warn logs at warning level.
func (l *LogrusAdapter) Warn(msg string, fields ...Field) { l.emit(logrus.WarnLevel, msg, fields) }

// Error logs at error level.
func (l *LogrusAdapter) Error(msg string, fields ...Field) { l.emit(logrus.ErrorLevel, msg, fields) }

// WithError attaches err under logrus' "error" key.
func (l *LogrusAdapter) WithError(err error) Logger {
	return l.derive(l.entry.WithError(err))
}

// WithField attaches one field to every later entry.
func (l *LogrusAdapter) WithField(key string, value interface{}) Logger {
	return l.derive(l.entry.WithFields(convertFields([]Field{{Key: key, Value: value}})))
}

// WithFields attaches fields to every later entry.
func (l *LogrusAdapter) WithFields(fields ...Field) Logger {
	return l.derive(l.entry.WithFields(convertFields(fields)))
}

// convertFields drops fields without a key and renders error values as their
// message, since the JSON formatter would otherwise encode most errors as {}.
func convertFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		if f.Key == "" {
			continue
		}
		if err, ok := f.Value.(error); ok && err != nil {
			out[f.Key] = err.Error()
			continue
		}
		out[f.Key] = f.Value
	}
	return out
}
