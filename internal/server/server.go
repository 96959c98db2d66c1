// Package server exposes the engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rustyeddy/sliprisk/copula"
	"github.com/rustyeddy/sliprisk/corr"
	"github.com/rustyeddy/sliprisk/engine"
	"github.com/rustyeddy/sliprisk/odds"
	"github.com/rustyeddy/sliprisk/risk"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	eng      *engine.Engine
	log      *zap.Logger
	gatherer prometheus.Gatherer
}

// NewHandler creates a new handler. gatherer may be nil, in which case
// /metrics serves the default registry.
func NewHandler(eng *engine.Engine, log *zap.Logger, gatherer prometheus.Gatherer) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{eng: eng, log: log, gatherer: gatherer}
}

// Router wires routes and middleware.
func (h *Handler) Router(origins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/joint", h.Joint)
		r.Post("/stake", h.Stake)
		r.Post("/stress", h.Stress)
	})
	return r
}

// Request is the body shared by every engine endpoint.
type Request struct {
	Legs         []odds.Leg         `json:"legs"`
	Slips        []risk.Slip        `json:"slips,omitempty"`
	Correlations map[string]float64 `json:"correlations,omitempty"`
	Tier         string             `json:"tier,omitempty"`
	Template     string             `json:"template,omitempty"`

	// Size stakes the slips before stressing them.
	Size bool `json:"size,omitempty"`
}

// PlanResponse is returned by /stress when Size is set.
type PlanResponse struct {
	Stakes *engine.StakeReport  `json:"stakes"`
	Stress *engine.StressReport `json:"stress"`
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "sliprisk",
	})
}

func (h *Handler) Joint(w http.ResponseWriter, r *http.Request) {
	req, eng, ok := h.decode(w, r)
	if !ok {
		return
	}
	res, err := eng.JointProbability(r.Context(), req.Legs)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) Stake(w http.ResponseWriter, r *http.Request) {
	req, eng, ok := h.decode(w, r)
	if !ok {
		return
	}
	rep, err := eng.StakeSlips(r.Context(), req.Legs, req.Slips, engine.StakeOptions{Tier: req.Tier, Template: req.Template})
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (h *Handler) Stress(w http.ResponseWriter, r *http.Request) {
	req, eng, ok := h.decode(w, r)
	if !ok {
		return
	}
	if req.Size {
		staked, stressed, err := eng.Plan(r.Context(), req.Legs, req.Slips, engine.StakeOptions{Tier: req.Tier, Template: req.Template})
		if err != nil {
			h.fail(w, err)
			return
		}
		respondJSON(w, http.StatusOK, PlanResponse{Stakes: staked, Stress: stressed})
		return
	}
	rep, err := eng.Stress(r.Context(), req.Legs, req.Slips)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

// decode parses the request and returns an engine bound to its
// correlations, if any were sent.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Request, *engine.Engine, bool) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return req, nil, false
	}
	for i := range req.Legs {
		if err := req.Legs[i].Normalize(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return req, nil, false
		}
	}

	eng := h.eng
	if len(req.Correlations) > 0 {
		tbl, bad := corr.FromMap(req.Correlations)
		if len(bad) > 0 {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid correlation keys: %v", bad))
			return req, nil, false
		}
		eng = eng.Using(tbl)
	}
	return req, eng, true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, copula.ErrInsufficientSamples):
		h.log.Warn("run aborted", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, engine.ErrNoLegs), errors.Is(err, engine.ErrNoSlips), isLegError(err):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("run failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// isLegError reports input errors raised by leg validation.
func isLegError(err error) bool {
	var le *engine.LegError
	return errors.As(err, &le)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
