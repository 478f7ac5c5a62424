package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"teketeke/mpesa-sms/internal/config"
	"teketeke/mpesa-sms/internal/container"
	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContainer(t *testing.T, mutate func(*config.Config)) *container.Container {
	t.Helper()
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Parser.Timezone = "UTC"
	cfg.Receiver.Enabled = true
	cfg.Receiver.DedupeCapacity = 100
	cfg.Receiver.DedupeFalsePositiveRate = 0.01
	cfg.Permission.Grant = "granted"
	cfg.CSV.Delimiter = ","
	cfg.Server.Address = "127.0.0.1:0"
	cfg.Server.ReadTimeoutSeconds = 5
	cfg.Server.WriteTimeoutSeconds = 5
	cfg.Forward.IntervalSeconds = 1
	cfg.Forward.TimeoutSeconds = 5
	cfg.Forward.MaxFailures = 3
	cfg.Forward.OpenTimeoutSeconds = 30
	if mutate != nil {
		mutate(cfg)
	}
	c, err := container.NewContainer(cfg, container.WithLogger(logging.NewMockLogger()))
	require.NoError(t, err)
	return c
}

func TestServeCommand_Flags(t *testing.T) {
	addr := Cmd.Flags().Lookup("address")
	require.NotNil(t, addr)
	assert.Equal(t, "a", addr.Shorthand)

	perm := Cmd.Flags().Lookup("request-permission")
	require.NotNil(t, perm)
	assert.Equal(t, "false", perm.DefValue)
}

func TestRun_StopsOnCancel(t *testing.T) {
	c := testContainer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, c, true) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, c.GetPermissionGate().Granted())
}

func TestRun_ListenError(t *testing.T) {
	c := testContainer(t, func(cfg *config.Config) { cfg.Server.Address = "not-an-address" })
	err := Run(context.Background(), c, false)
	assert.Error(t, err)
}

func TestRun_ForwardsOnShutdown(t *testing.T) {
	var (
		mu  sync.Mutex
		got []models.TransactionRecord
	)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var resp models.PullResponse
		if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		got = append(got, resp.Items...)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	c := testContainer(t, func(cfg *config.Config) {
		cfg.Forward.URL = backend.URL
		cfg.Forward.IntervalSeconds = 3600
	})
	_, err := c.GetService().RequestPermission(context.Background())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		body := fmt.Sprintf("QAB1CD2EF%d Confirmed. Ksh%d.00 paid to SHELL. M-PESA", i, 100+i)
		rec, ok := c.GetParser().Extract(body, 0)
		require.True(t, ok)
		require.True(t, c.GetBuffer().Append(*rec))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, c, false) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 3)
	assert.True(t, strings.HasPrefix(got[0].Reference, "QAB1CD2EF"))
	assert.Equal(t, 0, c.GetBuffer().Len())
}
