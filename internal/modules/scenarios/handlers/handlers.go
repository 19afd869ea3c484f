// Package handlers provides HTTP handlers for scenario permalinks.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hindsightlab/hindsight/internal/modules/backtest"
	"github.com/hindsightlab/hindsight/internal/modules/scenarios"
)

// Handler handles scenario HTTP requests
type Handler struct {
	repo *scenarios.Repository
	log  zerolog.Logger
}

// NewHandler creates a new scenario handler
func NewHandler(repo *scenarios.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "scenarios").Logger(),
	}
}

// HandleSaveScenario handles POST /api/scenarios
func (h *Handler) HandleSaveScenario(w http.ResponseWriter, r *http.Request) {
	var req backtest.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	scenario, err := h.repo.Save(req)
	if err != nil {
		if errors.Is(err, backtest.ErrInvalidRequest) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to save scenario")
		h.writeError(w, http.StatusInternalServerError, "failed to save scenario")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": scenario,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetScenario handles GET /api/scenarios/{hash}
func (h *Handler) HandleGetScenario(w http.ResponseWriter, r *http.Request, hash string) {
	scenario, err := h.repo.GetByHash(hash)
	if err != nil {
		if errors.Is(err, scenarios.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "scenario not found")
			return
		}
		h.log.Error().Err(err).Str("hash", hash).Msg("Failed to load scenario")
		h.writeError(w, http.StatusInternalServerError, "failed to load scenario")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": scenario,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}
