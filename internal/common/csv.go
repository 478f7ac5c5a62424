// Package common provides the CSV plumbing shared by message sources and record sinks.
package common

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/models"

	"github.com/gocarina/gocsv"
)

// DefaultDelimiter is used when no delimiter is configured.
const DefaultDelimiter = ','

// RecordRow is the CSV shape of a models.TransactionRecord. Absent optional
// fields are written as empty cells.
type RecordRow struct {
	Kind         string `csv:"kind"`
	Amount       string `csv:"amount"`
	Category     string `csv:"category"`
	Counterparty string `csv:"counterparty"`
	Reference    string `csv:"mpesa_ref"`
	Description  string `csv:"description"`
	OccurredAt   string `csv:"occurred_at"`
}

// NewRecordRows converts records into CSV rows, keeping their order.
func NewRecordRows(records []models.TransactionRecord) []RecordRow {
	rows := make([]RecordRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, RecordRow{
			Kind:         string(r.Direction),
			Amount:       r.Amount.String(),
			Category:     r.Category,
			Counterparty: r.Counterparty,
			Reference:    r.Reference,
			Description:  r.Description,
			OccurredAt:   r.OccurredAt,
		})
	}
	return rows
}

// ReadCSV decodes CSV data with a header row into a slice of structs using gocsv.
// TCSVRow is the struct type that maps to the CSV columns.
func ReadCSV[TCSVRow any](r io.Reader, delimiter rune) ([]TCSVRow, error) {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows []TCSVRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV data: %w", err)
	}
	return rows, nil
}

// ReadCSVFile reads a CSV file into a slice of structs.
func ReadCSVFile[TCSVRow any](filePath string, delimiter rune, logger logging.Logger) ([]TCSVRow, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}
	logger.Debug("Reading CSV file", logging.Field{Key: logging.FieldInputFile, Value: filePath})

	file, err := os.Open(filePath) // #nosec G304 -- path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	rows, err := ReadCSV[TCSVRow](file, delimiter)
	if err != nil {
		return nil, err
	}
	logger.Debug("Successfully read CSV data", logging.Field{Key: logging.FieldCount, Value: len(rows)})
	return rows, nil
}

// WriteRecordsCSV writes records with a header row to w.
func WriteRecordsCSV(w io.Writer, records []models.TransactionRecord, delimiter rune) error {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter

	if err := gocsv.MarshalCSV(NewRecordRows(records), gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteRecordsToCSVFile writes records to csvFile, creating parent directories as needed.
func WriteRecordsToCSVFile(records []models.TransactionRecord, csvFile string, delimiter rune, logger logging.Logger) error {
	if logger == nil {
		logger = logging.GetLogger()
	}
	logger.Info("Writing records to CSV file",
		logging.Field{Key: logging.FieldOutputFile, Value: csvFile},
		logging.Field{Key: logging.FieldCount, Value: len(records)})

	if err := os.MkdirAll(filepath.Dir(csvFile), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	file, err := os.OpenFile(csvFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, models.PermissionReportFile) // #nosec G304 -- output path comes from the command line
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	return WriteRecordsCSV(file, records, delimiter)
}
