package status

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/drblury/readywait/internal/idgen"
	"github.com/drblury/readywait/jsonutil"
)

const (
	jsonContentType    = "application/json"
	problemContentType = "application/problem+json"
	statusDocBaseURL   = "https://httpstatuses.io"
)

// ProblemDetails aligns error responses with RFC 9457 problem documents.
type ProblemDetails struct {
	Type      string   `json:"type,omitempty"`
	Title     string   `json:"title"`
	Status    int      `json:"status"`
	Detail    string   `json:"detail,omitempty"`
	Instance  string   `json:"instance,omitempty"`
	TraceID   string   `json:"traceId,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Pending   []string `json:"pending,omitempty"`
}

func (h *Handler) problem(w http.ResponseWriter, r *http.Request, status int, err error, pending []string) {
	p := ProblemDetails{
		Type:      fmt.Sprintf("%s/%d", statusDocBaseURL, status),
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    err.Error(),
		Instance:  r.URL.RequestURI(),
		TraceID:   idgen.New(),
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Pending:   pending,
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		level = slog.LevelError
	}
	h.log.Log(r.Context(), level, p.Title, "error", err, "traceId", p.TraceID, "status", status)

	h.write(w, status, problemContentType, p)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	h.write(w, status, jsonContentType, payload)
}

func (h *Handler) write(w http.ResponseWriter, status int, contentType string, payload any) {
	body, err := jsonutil.Marshal(payload)
	if err != nil {
		h.log.Error("failed to encode response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if len(body) == 0 || body[len(body)-1] != '\n' {
		body = append(body, '\n')
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.log.Error("failed to write response", "error", err)
	}
}
