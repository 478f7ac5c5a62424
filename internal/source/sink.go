package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"teketeke/mpesa-sms/internal/common"
	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/models"
	"teketeke/mpesa-sms/internal/parsererror"
)

// ResultSink receives drained records.
type ResultSink interface {
	Write(ctx context.Context, records []models.TransactionRecord) error
}

// JSONSink writes records as a single {"items": [...]} document.
type JSONSink struct {
	w      io.Writer
	indent bool
}

// NewJSONSink creates a JSONSink. indent pretty-prints the output.
func NewJSONSink(w io.Writer, indent bool) *JSONSink {
	return &JSONSink{w: w, indent: indent}
}

// Write encodes records to the underlying writer.
func (s *JSONSink) Write(ctx context.Context, records []models.TransactionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	enc := json.NewEncoder(s.w)
	if s.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(models.NewPullResponse(records)); err != nil {
		return fmt.Errorf("error encoding records: %w", err)
	}
	return nil
}

// CSVSink writes records as CSV with a header row.
type CSVSink struct {
	w         io.Writer
	delimiter rune
}

// NewCSVSink creates a CSVSink.
func NewCSVSink(w io.Writer, delimiter rune) *CSVSink {
	return &CSVSink{w: w, delimiter: delimiter}
}

// Write encodes records to the underlying writer.
func (s *CSVSink) Write(ctx context.Context, records []models.TransactionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return common.WriteRecordsCSV(s.w, records, s.delimiter)
}

// FileSink writes records to Path, choosing CSV or JSON by extension.
type FileSink struct {
	Path      string
	Delimiter rune
	logger    logging.Logger
}

// Write creates or truncates the file and writes every record to it.
func (s *FileSink) Write(ctx context.Context, records []models.TransactionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if isCSV(s.Path) {
		return common.WriteRecordsToCSVFile(records, s.Path, s.Delimiter, s.logger)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	file, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, models.PermissionReportFile) // #nosec G304 -- output path comes from the command line
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close file")
		}
	}()

	s.logger.Info("Writing records to JSON file",
		logging.Field{Key: logging.FieldOutputFile, Value: s.Path},
		logging.Field{Key: logging.FieldCount, Value: len(records)})
	return NewJSONSink(file, true).Write(ctx, records)
}

// OpenSink returns the ResultSink for path: ".csv" is CSV, ".json" is JSON and
// "-" is JSON on standard output.
func OpenSink(path string, delimiter rune, logger logging.Logger) (ResultSink, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if path == StdioPath || path == "" {
		return NewJSONSink(os.Stdout, true), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".json":
		return &FileSink{Path: path, Delimiter: delimiter, logger: logger}, nil
	}
	return nil, &parsererror.InvalidFormatError{
		FilePath:       path,
		ExpectedFormat: ".csv or .json",
		Msg:            "unsupported output extension",
	}
}
