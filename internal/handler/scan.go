package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/shoplist/internal/scan"
	"github.com/dukerupert/shoplist/internal/service"
)

// maxScanWait bounds how long POST .../barcode?wait=1 blocks.
const maxScanWait = 15 * time.Second

type ScanHandler struct {
	scans  *scan.Manager
	lists  *service.ListService
	logger *slog.Logger
}

func NewScanHandler(sm *scan.Manager, ls *service.ListService, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{scans: sm, lists: ls, logger: logger}
}

type barcodeRequest struct {
	Barcode string `json:"barcode"`
}

type deliverResponse struct {
	Accepted bool         `json:"accepted"`
	Session  scan.Session `json:"session"`
}

// Start opens a scan session for the list in the path.
func (h *ScanHandler) Start(w http.ResponseWriter, r *http.Request) {
	l, err := h.lists.GetList(r.PathValue("id"))
	if err != nil {
		writeFailure(w, h.logger, err, "get list")
		return
	}
	writeJSON(w, http.StatusCreated, h.scans.Start(l.ID))
}

func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.scans.Get(r.PathValue("id"))
	if err != nil {
		writeFailure(w, h.logger, err, "get scan session")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Deliver hands a decoded barcode to the session. With ?wait=1 the response
// is held until the session finishes or the request ends.
func (h *ScanHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	var req barcodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	id := r.PathValue("id")
	s, accepted, err := h.scans.Deliver(id, req.Barcode)
	if err != nil {
		writeFailure(w, h.logger, err, "deliver barcode")
		return
	}

	if accepted && r.URL.Query().Get("wait") != "" {
		s = h.wait(r, id, s)
	}

	status := http.StatusAccepted
	if s.State != scan.StateScanning && s.State != scan.StateResolving {
		status = http.StatusOK
	}
	writeJSON(w, status, deliverResponse{Accepted: accepted, Session: s})
}

func (h *ScanHandler) wait(r *http.Request, id string, s scan.Session) scan.Session {
	done, err := h.scans.Done(id)
	if err != nil {
		return s
	}
	timer := time.NewTimer(maxScanWait)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
	case <-r.Context().Done():
	}
	if latest, err := h.scans.Get(id); err == nil {
		return latest
	}
	return s
}

func (h *ScanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	s, err := h.scans.Cancel(r.PathValue("id"))
	if err != nil {
		writeFailure(w, h.logger, err, "cancel scan session")
		return
	}
	writeJSON(w, http.StatusOK, s)
}
