package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"teketeke/mpesa-sms/internal/logging"
	"teketeke/mpesa-sms/internal/models"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type handlers struct {
	deps   Deps
	logger logging.Logger
}

type permissionResponse struct {
	Granted bool   `json:"granted"`
	Status  string `json:"status"`
}

type enabledBody struct {
	Enabled *bool `json:"enabled"`
}

type enabledResponse struct {
	Enabled bool `json:"enabled"`
}

type outcomeResponse struct {
	Outcome string `json:"outcome"`
}

type noMatchResponse struct {
	Match bool `json:"match"`
}

type healthResponse struct {
	Status     string `json:"status"`
	Enabled    bool   `json:"enabled"`
	Permission string `json:"permission"`
	Pending    int    `json:"pending"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	svc := h.deps.Service
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Enabled:    svc.Enabled(),
		Permission: string(svc.PermissionStatus()),
		Pending:    svc.Pending(),
	})
}

func (h *handlers) requestPermission(w http.ResponseWriter, r *http.Request) {
	granted, err := h.deps.Service.RequestPermission(r.Context())
	if err != nil {
		h.logger.WithError(err).Warn("Permission request failed",
			logging.Field{Key: logging.FieldRequestID, Value: RequestID(r.Context())})
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, permissionResponse{
		Granted: granted,
		Status:  string(h.deps.Service.PermissionStatus()),
	})
}

func (h *handlers) getEnabled(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, enabledResponse{Enabled: h.deps.Service.Enabled()})
}

func (h *handlers) setEnabled(w http.ResponseWriter, r *http.Request) {
	var body enabledBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Enabled == nil {
		writeError(w, http.StatusBadRequest, "field 'enabled' is required")
		return
	}
	h.deps.Service.SetEnabled(*body.Enabled)
	writeJSON(w, http.StatusOK, enabledResponse{Enabled: h.deps.Service.Enabled()})
}

// receiveMessage is the arrival event. A missing timestamp means "now".
func (h *handlers) receiveMessage(w http.ResponseWriter, r *http.Request) {
	var msg models.RawMessage
	if err := decodeBody(w, r, &msg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg.TimestampMillis == 0 {
		msg.TimestampMillis = time.Now().UnixMilli()
	}
	outcome := h.deps.Receiver.Handle(msg)
	writeJSON(w, http.StatusOK, outcomeResponse{Outcome: string(outcome)})
}

func (h *handlers) pullMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Service.PullNewMessages())
}

// extract runs the engine alone, bypassing permission, the enable flag and the buffer.
func (h *handlers) extract(w http.ResponseWriter, r *http.Request) {
	var msg models.RawMessage
	if err := decodeBody(w, r, &msg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, ok := h.deps.Extractor.Extract(msg.Body, msg.TimestampMillis)
	if !ok {
		writeJSON(w, http.StatusOK, noMatchResponse{Match: false})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
