// Package source abstracts where raw messages come from and where extracted
// records go, so the receiver works the same over files, stdin or HTTP.
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"teketeke/mpesa-sms/internal/common"
	"teketeke/mpesa-sms/internal/models"
	"teketeke/mpesa-sms/internal/parsererror"
)

// StdioPath selects standard input or output instead of a file.
const StdioPath = "-"

// maxLineSize bounds a single JSON line; SMS bodies are far smaller.
const maxLineSize = 1024 * 1024

// MessageSource delivers raw messages to fn in order. Read stops at the first
// error returned by fn or when ctx is cancelled.
type MessageSource interface {
	Read(ctx context.Context, fn func(models.RawMessage) error) error
}

// messageRow is the CSV layout of an input message.
type messageRow struct {
	Sender    string `csv:"sender"`
	Body      string `csv:"body"`
	Timestamp string `csv:"timestamp"`
}

// CSVSource reads messages from CSV with a sender,body,timestamp header.
type CSVSource struct {
	r         io.Reader
	name      string
	delimiter rune
}

// NewCSVSource creates a CSVSource. name is used in error messages.
func NewCSVSource(r io.Reader, name string, delimiter rune) *CSVSource {
	return &CSVSource{r: r, name: name, delimiter: delimiter}
}

// Read decodes every row and passes it to fn.
func (s *CSVSource) Read(ctx context.Context, fn func(models.RawMessage) error) error {
	rows, err := common.ReadCSV[messageRow](s.r, s.delimiter)
	if err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		ts, err := parseTimestamp(row.Timestamp)
		if err != nil {
			return &parsererror.ParseError{
				Source: s.name,
				Line:   i + 2, // header is line 1
				Field:  "timestamp",
				Value:  row.Timestamp,
				Err:    err,
			}
		}
		if err := fn(models.RawMessage{Sender: row.Sender, Body: row.Body, TimestampMillis: ts}); err != nil {
			return err
		}
	}
	return nil
}

// parseTimestamp reads epoch milliseconds. A blank cell or a missing column
// means the message is stamped with the time it is read.
func parseTimestamp(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().UnixMilli(), nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// JSONLinesSource reads one JSON-encoded models.RawMessage per line. Blank lines
// are skipped and a missing timestamp is stamped with the time the line is read.
type JSONLinesSource struct {
	r    io.Reader
	name string
}

// NewJSONLinesSource creates a JSONLinesSource. name is used in error messages.
func NewJSONLinesSource(r io.Reader, name string) *JSONLinesSource {
	return &JSONLinesSource{r: r, name: name}
}

// Read decodes every line and passes it to fn.
func (s *JSONLinesSource) Read(ctx context.Context, fn func(models.RawMessage) error) error {
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var msg models.RawMessage
		if err := json.Unmarshal([]byte(text), &msg); err != nil {
			return &parsererror.ParseError{
				Source: s.name,
				Line:   line,
				Field:  "message",
				Value:  truncate(text, 40),
				Err:    err,
			}
		}
		if msg.TimestampMillis == 0 {
			msg.TimestampMillis = time.Now().UnixMilli()
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: error reading input: %w", s.name, err)
	}
	return nil
}

// SliceSource serves messages from memory.
type SliceSource []models.RawMessage

// Read passes every message to fn.
func (s SliceSource) Read(ctx context.Context, fn func(models.RawMessage) error) error {
	for _, msg := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
	return nil
}

// FileSource opens Path on every Read and decodes it according to its extension.
type FileSource struct {
	Path      string
	Delimiter rune
}

// Read opens the file and delegates to the matching decoder.
func (s *FileSource) Read(ctx context.Context, fn func(models.RawMessage) error) error {
	file, err := os.Open(s.Path) // #nosec G304 -- path comes from the command line
	if err != nil {
		return fmt.Errorf("error opening input file: %w", err)
	}
	defer func() { _ = file.Close() }()

	name := filepath.Base(s.Path)
	if isCSV(s.Path) {
		return NewCSVSource(file, name, s.Delimiter).Read(ctx, fn)
	}
	return NewJSONLinesSource(file, name).Read(ctx, fn)
}

// Open returns the MessageSource for path: ".csv" files are CSV, ".jsonl" and
// ".ndjson" files are JSON lines, and "-" is JSON lines on standard input.
func Open(path string, delimiter rune) (MessageSource, error) {
	if path == StdioPath {
		return NewJSONLinesSource(os.Stdin, "stdin"), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".jsonl", ".ndjson":
		return &FileSource{Path: path, Delimiter: delimiter}, nil
	}
	return nil, &parsererror.InvalidFormatError{
		FilePath:       path,
		ExpectedFormat: ".csv, .jsonl or .ndjson",
		Msg:            "unsupported input extension",
	}
}

func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
