package backtest

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hindsightlab/hindsight/internal/dates"
	"github.com/hindsightlab/hindsight/internal/modules/series"
)

// SeriesSource resolves a ticker and date window into an aligned price series.
type SeriesSource interface {
	GetAdjustedSeries(ctx context.Context, ticker, startDate, endDate string) (series.Series, error)
	Source() string
}

// Service orchestrates a backtest: validate the request, resolve the series,
// compute metrics, and package the result with its transparency record.
type Service struct {
	provider SeriesSource
	log      zerolog.Logger
}

// NewService creates a backtest service.
func NewService(provider SeriesSource, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		log:      log.With().Str("service", "backtest").Logger(),
	}
}

// Run executes a single backtest. Series resolution failures propagate
// unchanged so the transport layer can map each error kind to its own status.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resolved, err := s.provider.GetAdjustedSeries(ctx, req.Ticker, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	metrics := ComputeLumpSum(
		req.Amount,
		req.FeeBps,
		resolved.StartPrice(),
		resolved.EndPrice(),
		resolved.EffectiveStart(),
		resolved.EffectiveEnd(),
	)

	s.log.Info().
		Str("ticker", req.Ticker).
		Float64("amount", req.Amount).
		Int("fee_bps", req.FeeBps).
		Float64("final_value", metrics.FinalValue).
		Float64("cagr", metrics.CAGR).
		Int("elapsed_days", metrics.ElapsedDays).
		Msg("Backtest computed")

	return &Result{
		Series:         resolved.Points,
		Shares:         metrics.Shares,
		FinalValue:     metrics.FinalValue,
		TotalReturnPct: metrics.TotalReturnPct,
		CAGR:           metrics.CAGR,
		Stats:          ComputeSeriesStats(resolved.Points),
		Assumptions: Assumptions{
			AdjustedPrices:      true,
			DividendsReinvested: true,
			FeesBps:             req.FeeBps,
			SnapPolicy:          SnapPolicy,
			EffectiveStartDate:  dates.FormatDay(resolved.EffectiveStart()),
			EffectiveEndDate:    dates.FormatDay(resolved.EffectiveEnd()),
			Source:              s.provider.Source(),
		},
	}, nil
}
