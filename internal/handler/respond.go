package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/shoplist/internal/auth"
	"github.com/dukerupert/shoplist/internal/scan"
	"github.com/dukerupert/shoplist/internal/store"
	ws "github.com/dukerupert/shoplist/internal/websocket"
)

// Broadcaster pushes change notifications to connected devices.
type Broadcaster interface {
	Broadcast(ws.Message)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeFailure maps service errors onto status codes. action names the
// operation in log lines and 500 bodies, e.g. "delete list".
func writeFailure(w http.ResponseWriter, logger *slog.Logger, err error, action string) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, scan.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "scan session not found"})
	default:
		logger.Error("failed to "+action, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to " + action})
	}
}

// notify stamps msg with the calling device before broadcasting it.
func notify(b Broadcaster, r *http.Request, msg ws.Message) {
	msg.Origin = auth.DeviceID(r.Context())
	b.Broadcast(msg)
}
