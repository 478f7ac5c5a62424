package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/models"
	"teketeke/mpesa-sms/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records() []models.TransactionRecord {
	return []models.TransactionRecord{{
		Direction:   models.Inbound,
		Amount:      decimal.NewFromInt(500),
		Description: "You have received Ksh 500 M-PESA",
		OccurredAt:  "2024-03-01T10:15:30.250+0000",
	}}
}

func TestJSONSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONSink(&buf, false).Write(context.Background(), records()))
	assert.JSONEq(t,
		`{"items":[{"kind":"IN","amount":500,"description":"You have received Ksh 500 M-PESA","occurred_at":"2024-03-01T10:15:30.250+0000"}]}`,
		buf.String())

	buf.Reset()
	require.NoError(t, NewJSONSink(&buf, false).Write(context.Background(), nil))
	assert.JSONEq(t, `{"items":[]}`, buf.String())
}

func TestCSVSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVSink(&buf, ';').Write(context.Background(), records()))
	assert.True(t, strings.HasPrefix(buf.String(), "kind;amount;category"))
	assert.Contains(t, buf.String(), "IN;500;;;;")
}

func TestSink_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewJSONSink(&bytes.Buffer{}, false).Write(ctx, records()), context.Canceled)
	assert.ErrorIs(t, NewCSVSink(&bytes.Buffer{}, ',').Write(ctx, records()), context.Canceled)
}

func TestOpenSink(t *testing.T) {
	dir := t.TempDir()
	logger := logging.NewMockLogger()

	jsonPath := filepath.Join(dir, "out", "records.json")
	sink, err := OpenSink(jsonPath, ',', logger)
	require.NoError(t, err)
	require.NoError(t, sink.Write(context.Background(), records()))

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var resp models.PullResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, models.Inbound, resp.Items[0].Direction)

	csvPath := filepath.Join(dir, "records.csv")
	sink, err = OpenSink(csvPath, ',', logger)
	require.NoError(t, err)
	require.NoError(t, sink.Write(context.Background(), records()))
	data, err = os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "IN,500,")

	_, err = OpenSink(filepath.Join(dir, "records.txt"), ',', logger)
	var formatErr *parsererror.InvalidFormatError
	assert.True(t, errors.As(err, &formatErr))

	sink, err = OpenSink(StdioPath, ',', logger)
	require.NoError(t, err)
	assert.IsType(t, &JSONSink{}, sink)
}
