package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"teketeke/mpesa-sms/internal/config"
	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/models"
	"teketeke/mpesa-sms/internal/receiver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.Log.Level = "info"
	c.Log.Format = "text"
	c.Parser.Timezone = "UTC"
	c.Receiver.Enabled = true
	c.Receiver.DedupeCapacity = 100
	c.Receiver.DedupeFalsePositiveRate = 0.01
	c.Permission.Grant = "granted"
	c.CSV.Delimiter = ","
	c.Server.Address = "127.0.0.1:0"
	c.Forward.IntervalSeconds = 60
	c.Forward.TimeoutSeconds = 10
	c.Forward.MaxFailures = 5
	c.Forward.OpenTimeoutSeconds = 30
	return c
}

func TestNewContainer(t *testing.T) {
	tests := []struct {
		name        string
		config      func() *config.Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "nil config",
			config:      func() *config.Config { return nil },
			expectError: true,
			errorMsg:    "configuration cannot be nil",
		},
		{
			name:   "minimal config",
			config: testConfig,
		},
		{
			name: "bad timezone",
			config: func() *config.Config {
				c := testConfig()
				c.Parser.Timezone = "Nowhere/Special"
				return c
			},
			expectError: true,
			errorMsg:    "invalid timezone",
		},
		{
			name: "bad permission",
			config: func() *config.Config {
				c := testConfig()
				c.Permission.Grant = "sometimes"
				return c
			},
			expectError: true,
			errorMsg:    "unknown permission status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewContainer(tt.config(), WithLogger(logging.NewMockLogger()))
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c.GetLogger())
			assert.NotNil(t, c.GetConfig())
			assert.NotNil(t, c.GetStore())
			assert.NotNil(t, c.GetCategorizer())
			assert.NotNil(t, c.GetParser())
			assert.NotNil(t, c.GetBuffer())
			assert.NotNil(t, c.GetPermissionGate())
			assert.NotNil(t, c.GetRegistry())
			assert.NotNil(t, c.GetMetrics())
			assert.NotNil(t, c.GetReceiver())
			assert.NotNil(t, c.GetService())
			assert.Nil(t, c.GetDedupe())
			assert.Nil(t, c.GetForwarder())
			assert.NoError(t, c.Close())
		})
	}
}

func TestNewContainer_OptionalComponents(t *testing.T) {
	cfg := testConfig()
	cfg.Receiver.Dedupe = true
	cfg.Forward.URL = "http://localhost:9/import"

	c, err := NewContainer(cfg, WithLogger(logging.NewMockLogger()))
	require.NoError(t, err)
	assert.NotNil(t, c.GetDedupe())
	assert.NotNil(t, c.GetForwarder())
}

func TestContainer_EndToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.Receiver.Dedupe = true
	cfg.Parser.Timezone = "Africa/Nairobi"

	c, err := NewContainer(cfg, WithLogger(logging.NewMockLogger()))
	require.NoError(t, err)

	granted, err := c.GetService().RequestPermission(context.Background())
	require.NoError(t, err)
	require.True(t, granted)

	msg := models.RawMessage{
		Sender:          "MPESA",
		Body:            "QAB1CD2EF3 Confirmed. Ksh1,250.00 paid to SHELL WESTLANDS. on 1/3/24 M-PESA",
		TimestampMillis: 1709288130250,
	}
	assert.Equal(t, receiver.OutcomeAppended, c.GetReceiver().Handle(msg))
	assert.Equal(t, receiver.OutcomeDuplicate, c.GetReceiver().Handle(msg))

	items := c.GetService().PullNewMessages().Items
	require.Len(t, items, 1)
	assert.Equal(t, "2024-03-01T13:15:30.250+0300", items[0].OccurredAt)
	assert.Equal(t, models.CategoryFuel, items[0].Category)

	rec := httptest.NewRecorder()
	c.NewServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mpesa_sms_messages_total")
}

func TestContainer_CategoriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	rules := "categories:\n  - name: Transport\n    keywords: [matatu]\nfallback: Misc\n"
	require.NoError(t, os.WriteFile(path, []byte(rules), 0600))

	cfg := testConfig()
	cfg.Parser.CategoriesFile = path
	c, err := NewContainer(cfg, WithLogger(logging.NewMockLogger()))
	require.NoError(t, err)

	rec, ok := c.GetParser().Extract("Ksh70 paid to MATATU SACCO M-PESA", 0)
	require.True(t, ok)
	assert.Equal(t, "Transport", rec.Category)
	assert.True(t, strings.HasPrefix(rec.OccurredAt, "1970-01-01T00:00:00.000"))
}

func TestContainer_PermissionDeniedByConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Permission.Grant = "denied"
	c, err := NewContainer(cfg, WithLogger(logging.NewMockLogger()))
	require.NoError(t, err)

	granted, err := c.GetService().RequestPermission(context.Background())
	require.NoError(t, err)
	assert.False(t, granted)
}
