// Package handlers provides HTTP handlers for backtest operations.
package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/hindsightlab/hindsight/internal/dates"
	"github.com/hindsightlab/hindsight/internal/modules/backtest"
	"github.com/hindsightlab/hindsight/internal/modules/series"
)

// Runner executes backtests. Satisfied by *backtest.Service.
type Runner interface {
	Run(ctx context.Context, req backtest.Request) (*backtest.Result, error)
}

// Handler handles backtest HTTP requests
type Handler struct {
	runner Runner
	log    zerolog.Logger
}

// NewHandler creates a new backtest handler
func NewHandler(runner Runner, log zerolog.Logger) *Handler {
	return &Handler{
		runner: runner,
		log:    log.With().Str("handler", "backtest").Logger(),
	}
}

// HandleRunBacktest handles POST /api/backtest
func (h *Handler) HandleRunBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtest.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.runner.Run(r.Context(), req)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleExportCSV handles GET /api/backtest/export — the resolved series as CSV.
func (h *Handler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := backtest.Request{
		Ticker:    q.Get("ticker"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Cadence:   backtest.Cadence(q.Get("cadence")),
	}
	req.Amount = 1 // export only needs the series; amount is irrelevant
	if v := q.Get("amount"); v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid amount")
			return
		}
		req.Amount = amount
	}
	if v := q.Get("fee_bps"); v != "" {
		feeBps, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid fee_bps")
			return
		}
		req.FeeBps = feeBps
	}

	result, err := h.runner.Run(r.Context(), req)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	filename := fmt.Sprintf("%s_%s_%s.csv",
		result.Assumptions.Source,
		result.Assumptions.EffectiveStartDate,
		result.Assumptions.EffectiveEndDate,
	)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"date", "adj_close"})
	for _, p := range result.Series {
		_ = cw.Write([]string{
			dates.FormatDay(p.Date),
			strconv.FormatFloat(p.AdjClose, 'f', -1, 64),
		})
	}
	cw.Flush()
}

// respondDomainError maps the closed set of domain error kinds onto distinct
// HTTP statuses: caller errors, data insufficiency and upstream failure stay
// distinguishable. Upstream diagnostics are logged, not echoed to the caller.
func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backtest.ErrInvalidRequest), errors.Is(err, series.ErrInvalidDate):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, series.ErrNoData), errors.Is(err, series.ErrInsufficientData):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, series.ErrProviderUnavailable):
		h.log.Warn().Err(err).Msg("Upstream provider failure")
		h.writeError(w, http.StatusBadGateway, "price provider unavailable, try again later")
	default:
		h.log.Error().Err(err).Msg("Backtest failed")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
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
