package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/drblury/readywait/probe"
)

const defaultCheckTimeout = 2 * time.Second

// VersionProvider returns the payload served by the version endpoint.
type VersionProvider func() any

// Option configures a Handler.
type Option func(*Handler)

// Handler serves the board over HTTP.
type Handler struct {
	board          *Board
	log            *slog.Logger
	version        VersionProvider
	livenessChecks []probe.Func
	checkTimeout   time.Duration
	now            func() time.Time
}

// NewHandler returns a handler reporting on board.
func NewHandler(board *Board, opts ...Option) *Handler {
	if board == nil {
		board = NewBoard()
	}
	h := &Handler{
		board:        board,
		log:          slog.Default(),
		version:      func() any { return map[string]string{} },
		checkTimeout: defaultCheckTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// WithLogger sets the logger used for error responses.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.log = logger
		}
	}
}

// WithVersion sets the payload of GET /version.
func WithVersion(provider VersionProvider) Option {
	return func(h *Handler) {
		if provider != nil {
			h.version = provider
		}
	}
}

// WithLivenessChecks adds checks run by GET /healthz.
func WithLivenessChecks(checks ...probe.Func) Option {
	return func(h *Handler) {
		for _, c := range checks {
			if c != nil {
				h.livenessChecks = append(h.livenessChecks, c)
			}
		}
	}
}

// WithCheckTimeout bounds the liveness checks of one request.
func WithCheckTimeout(timeout time.Duration) Option {
	return func(h *Handler) {
		if timeout > 0 {
			h.checkTimeout = timeout
		}
	}
}

// Routes returns a mux serving the status API.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", h.GetStatus)
	mux.HandleFunc("GET /status/{name}", h.GetTarget)
	mux.HandleFunc("GET /readyz", h.GetReadyz)
	mux.HandleFunc("GET /healthz", h.GetHealthz)
	mux.HandleFunc("GET /version", h.GetVersion)
	mux.HandleFunc("GET /openapi.json", h.GetOpenAPIJSON)
	return mux
}

type statusPayload struct {
	Ready   bool           `json:"ready"`
	Targets []TargetStatus `json:"targets"`
}

type probePayload struct {
	Status string `json:"status"`
}

// GetStatus lists every target.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	targets := h.board.Snapshot()
	ready := true
	for _, ts := range targets {
		ready = ready && ts.State == StateReady
	}
	h.respondJSON(w, http.StatusOK, statusPayload{Ready: ready, Targets: targets})
}

// GetTarget reports one target by name.
func (h *Handler) GetTarget(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ts, ok := h.board.Get(name)
	if !ok {
		h.problem(w, r, http.StatusNotFound, fmt.Errorf("unknown target %q", name), nil)
		return
	}
	h.respondJSON(w, http.StatusOK, ts)
}

// GetReadyz answers 200 once every target is ready and 503 before.
func (h *Handler) GetReadyz(w http.ResponseWriter, r *http.Request) {
	if pending := h.board.NotReady(); len(pending) > 0 {
		err := fmt.Errorf("waiting for %s", strings.Join(pending, ", "))
		h.problem(w, r, http.StatusServiceUnavailable, err, pending)
		return
	}
	h.respondJSON(w, http.StatusOK, probePayload{Status: "ready"})
}

// GetHealthz reports whether the process itself is alive.
func (h *Handler) GetHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.runChecks(r.Context()); err != nil {
		h.problem(w, r, http.StatusServiceUnavailable, err, nil)
		return
	}
	h.respondJSON(w, http.StatusOK, probePayload{Status: "ok"})
}

// GetVersion returns the configured version payload.
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	payload := h.version()
	if payload == nil {
		payload = map[string]string{}
	}
	h.respondJSON(w, http.StatusOK, payload)
}

// GetOpenAPIJSON serves the status API document as JSON.
func (h *Handler) GetOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := OpenAPI()
	if err != nil {
		h.problem(w, r, http.StatusInternalServerError, err, nil)
		return
	}
	h.respondJSON(w, http.StatusOK, doc)
}

func (h *Handler) runChecks(ctx context.Context) error {
	if len(h.livenessChecks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.checkTimeout)
	defer cancel()

	for idx, check := range h.livenessChecks {
		if err := check(ctx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("check %d timed out after %s", idx+1, h.checkTimeout)
			}
			return fmt.Errorf("check %d failed: %w", idx+1, err)
		}
	}
	return nil
}
