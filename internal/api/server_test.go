package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"teketeke/mpesa-sms/internal/buffer"
	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/models"
	"teketeke/mpesa-sms/internal/permission"
	"teketeke/mpesa-sms/internal/receiver"
	"teketeke/mpesa-sms/internal/smsparser"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fuelMessage = "QAB1CD2EF3 Confirmed. Ksh1,250.00 paid to SHELL WESTLANDS. on 1/3/24 M-PESA"

type fixture struct {
	server *Server
	buffer *buffer.Buffer
	logger *logging.MockLogger
}

func newFixture(t *testing.T, grant bool) *fixture {
	t.Helper()
	logger := logging.NewMockLogger()
	parser := smsparser.NewParser(smsparser.WithLogger(logger))
	buf := buffer.New(true)
	gate := permission.NewGate(permission.Static{Grant: grant}, logger)

	registry := promclient.NewRegistry()
	registry.MustRegister(promclient.NewCounter(promclient.CounterOpts{Name: "mpesa_test_total", Help: "test"}))

	srv := NewServer(Config{Address: "127.0.0.1:0", MaxConnections: 4}, Deps{
		Service:   receiver.NewService(gate, buf, nil, logger),
		Receiver:  receiver.New(parser, buf, gate, receiver.WithLogger(logger)),
		Extractor: parser,
		Gatherer:  registry,
		Logger:    logger,
	})
	return &fixture{server: srv, buffer: buf, logger: logger}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	f := newFixture(t, true)
	rec, body := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "prompt", body["permission"])
	assert.Equal(t, true, body["enabled"])
	assert.Equal(t, 0.0, body["pending"])
}

func TestPermissionHandshake(t *testing.T) {
	f := newFixture(t, true)

	rec, body := f.do(t, http.MethodPost, "/v1/messages", `{"sender":"MPESA","body":"`+fuelMessage+`","timestamp":1}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "skipped_permission", body["outcome"])

	rec, body = f.do(t, http.MethodPost, "/v1/permission", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["granted"])
	assert.Equal(t, "granted", body["status"])

	_, body = f.do(t, http.MethodPost, "/v1/messages", `{"sender":"MPESA","body":"`+fuelMessage+`","timestamp":1}`)
	assert.Equal(t, "appended", body["outcome"])
}

func TestPermissionDenied(t *testing.T) {
	f := newFixture(t, false)
	_, body := f.do(t, http.MethodPost, "/v1/permission", "")
	assert.Equal(t, false, body["granted"])
	assert.Equal(t, "denied", body["status"])
}

func TestEnabledToggle(t *testing.T) {
	f := newFixture(t, true)

	_, body := f.do(t, http.MethodGet, "/v1/enabled", "")
	assert.Equal(t, true, body["enabled"])

	rec, body := f.do(t, http.MethodPut, "/v1/enabled", `{"enabled":false}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["enabled"])
	assert.False(t, f.buffer.Enabled())

	rec, _ = f.do(t, http.MethodPut, "/v1/enabled", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = f.do(t, http.MethodPut, "/v1/enabled", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "invalid JSON body")
}

func TestMessagesAndPull(t *testing.T) {
	f := newFixture(t, true)
	f.do(t, http.MethodPost, "/v1/permission", "")

	_, body := f.do(t, http.MethodPost, "/v1/messages", `{"body":"`+fuelMessage+`","timestamp":1709288130250}`)
	assert.Equal(t, "appended", body["outcome"])
	_, body = f.do(t, http.MethodPost, "/v1/messages", `{"body":"hello there"}`)
	assert.Equal(t, "rejected", body["outcome"])

	rec, _ := f.do(t, http.MethodPost, "/v1/messages/pull", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pulled models.PullResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pulled))
	require.Len(t, pulled.Items, 1)
	assert.Equal(t, "QAB1CD2EF3", pulled.Items[0].Reference)
	assert.Equal(t, "2024-03-01T10:15:30.250+0000", pulled.Items[0].OccurredAt)

	rec, _ = f.do(t, http.MethodPost, "/v1/messages/pull", "")
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestMessageWithoutTimestampUsesNow(t *testing.T) {
	f := newFixture(t, true)
	f.do(t, http.MethodPost, "/v1/permission", "")

	before := time.Now().Add(-time.Second)
	f.do(t, http.MethodPost, "/v1/messages", `{"body":"`+fuelMessage+`"}`)
	items := f.buffer.Drain()
	require.Len(t, items, 1)

	occurred, err := time.Parse("2006-01-02T15:04:05.000-0700", items[0].OccurredAt)
	require.NoError(t, err)
	assert.True(t, occurred.After(before))
}

func TestExtract(t *testing.T) {
	f := newFixture(t, false)

	rec, body := f.do(t, http.MethodPost, "/v1/extract", `{"body":"You have received Ksh 500 m-pesa","timestamp":1709288130250}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "IN", body["kind"])
	assert.Equal(t, 500.0, body["amount"])
	assert.NotContains(t, body, "category")
	assert.Equal(t, 0, f.buffer.Len(), "extract does not buffer")

	_, body = f.do(t, http.MethodPost, "/v1/extract", `{"body":"hello","timestamp":1}`)
	assert.Equal(t, map[string]interface{}{"match": false}, body)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, true)
	rec, _ := f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mpesa_test_total")
}

func TestMetricsEndpointDisabled(t *testing.T) {
	srv := NewServer(Config{}, Deps{Logger: logging.NewMockLogger()})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, true)
	rec, _ := f.do(t, http.MethodGet, "/v1/messages/pull", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	f := newFixture(t, true)

	rec, _ := f.do(t, http.MethodGet, "/health", "")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	out := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(out, req)
	assert.Equal(t, "abc-123", out.Header().Get(RequestIDHeader))

	id, ok := f.logger.FieldValue("HTTP request", logging.FieldRequestID)
	require.True(t, ok)
	assert.NotEmpty(t, id)
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := logging.NewMockLogger()
	srv := NewServer(Config{}, Deps{Logger: logger})
	srv.router.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, logger.HasEntry("ERROR", "Recovered from panic in handler"))

	status, ok := logger.FieldValue("HTTP request", logging.FieldStatus)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestServer_ListenServeStop(t *testing.T) {
	f := newFixture(t, true)
	assert.Nil(t, f.server.Addr())
	assert.Error(t, f.server.Serve(), "serve before listen")

	require.NoError(t, f.server.Listen())
	addr := f.server.Addr()
	require.NotNil(t, addr)

	done := make(chan error, 1)
	go func() { done <- f.server.Serve() }()

	resp, err := http.Get("http://" + addr.String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.server.Stop(ctx))
	assert.NoError(t, <-done)
}
