// SPDX-License-Identifier: Apache-2.0

// Package httpapi serves the solve pipeline over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mathkitproj/mathsolver-mcp/internal/format"
	"github.com/mathkitproj/mathsolver-mcp/internal/history"
	"github.com/mathkitproj/mathsolver-mcp/internal/service"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

type Options struct {
	MaxBodyBytes int64
	Logger       *slog.Logger
}

type handler struct {
	svc     *service.Service
	maxBody int64
	logger  *slog.Logger
}

// New returns the router for svc.
func New(svc *service.Service, opts Options) http.Handler {
	h := &handler{svc: svc, maxBody: opts.MaxBodyBytes, logger: opts.Logger}
	if h.maxBody <= 0 {
		h.maxBody = DefaultMaxBodyBytes
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
	r.Get("/solvers", h.handleSolvers)
	r.Get("/stats", h.handleStats)
	r.Post("/solve", h.handleSolve)
	r.Post("/explain", h.handleExplain)
	r.Post("/solve/batch", h.handleBatch)
	return r
}

func (h *handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "Math Solver Microservice",
		"version": service.Version,
		"status":  "running",
		"health":  "/health",
		"endpoints": []string{
			"GET /health", "GET /solvers", "GET /stats",
			"POST /solve", "POST /explain", "POST /solve/batch",
		},
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Health())
}

func (h *handler) handleSolvers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Solvers())
}

// handleStats reports history statistics.
// GET /stats?recent=N
func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("recent"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, format.ErrorResponse("validation: recent must be a non-negative integer"))
			return
		}
		limit = n
	}

	st, err := h.svc.Stats(r.Context())
	if errors.Is(err, service.ErrHistoryDisabled) {
		writeJSON(w, http.StatusServiceUnavailable, format.ErrorResponse(err.Error()))
		return
	}
	if err != nil {
		h.logger.Error("stats failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, format.ErrorResponse(err.Error()))
		return
	}

	recent := []history.Entry{}
	if limit > 0 {
		if recent, err = h.svc.Recent(r.Context(), limit); err != nil {
			h.logger.Error("recent history failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, format.ErrorResponse(err.Error()))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   st,
		"recent":  recent,
	})
}

func (h *handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req service.SolveRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.writeResult(w, h.svc.Solve(r.Context(), req))
}

type explainRequest struct {
	service.SolveRequest
	IncludeExplanation *bool `json:"include_explanation,omitempty"`
}

func (h *handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if !h.decode(w, r, &req) {
		return
	}
	sr := req.SolveRequest
	sr.IncludeExplanation = req.IncludeExplanation == nil || *req.IncludeExplanation
	h.writeResult(w, h.svc.Solve(r.Context(), sr))
}

func (h *handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req service.BatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.Batch(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, format.ErrorResponse("validation: "+err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeResult maps a failed solve to 400 for validation problems and 422
// otherwise. The body is always the full result.
func (h *handler) writeResult(w http.ResponseWriter, res service.SolveResult) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
		if format.ErrorType(res.Error) == format.ValidationError {
			status = http.StatusBadRequest
		}
	}
	writeJSON(w, status, res)
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, format.ErrorResponse(fmt.Sprintf("validation: invalid request body: %v", err)))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
