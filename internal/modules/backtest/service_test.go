package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlab/hindsight/internal/dates"
	"github.com/hindsightlab/hindsight/internal/modules/series"
)

// stubSource returns a fixed series or error.
type stubSource struct {
	series series.Series
	err    error
	calls  int
}

func (s *stubSource) GetAdjustedSeries(_ context.Context, _, _, _ string) (series.Series, error) {
	s.calls++
	if s.err != nil {
		return series.Series{}, s.err
	}
	return s.series, nil
}

func (s *stubSource) Source() string { return "stub" }

func stubTwoPointSeries(t *testing.T) series.Series {
	t.Helper()
	start, err := dates.ParseDay("2016-01-04")
	require.NoError(t, err)
	end, err := dates.ParseDay("2016-12-30")
	require.NoError(t, err)
	return series.Series{
		Ticker: "TSLA",
		Points: []series.PricePoint{
			{Date: start, AdjClose: 10},
			{Date: end, AdjClose: 15},
		},
	}
}

func TestService_Run(t *testing.T) {
	source := &stubSource{series: stubTwoPointSeries(t)}
	svc := NewService(source, zerolog.Nop())

	result, err := svc.Run(context.Background(), Request{
		Ticker:    "tsla",
		Amount:    100,
		StartDate: "2016-01-04",
		EndDate:   "2016-12-30",
		Cadence:   CadenceLumpSum,
	})
	require.NoError(t, err)

	assert.Equal(t, 10.0, result.Shares)
	assert.Equal(t, 150.0, result.FinalValue)
	assert.Equal(t, 0.5, result.TotalReturnPct)
	assert.Len(t, result.Series, 2)

	assert.True(t, result.Assumptions.AdjustedPrices)
	assert.True(t, result.Assumptions.DividendsReinvested)
	assert.Equal(t, 0, result.Assumptions.FeesBps)
	assert.Equal(t, SnapPolicy, result.Assumptions.SnapPolicy)
	assert.Equal(t, "2016-01-04", result.Assumptions.EffectiveStartDate)
	assert.Equal(t, "2016-12-30", result.Assumptions.EffectiveEndDate)
	assert.Equal(t, "stub", result.Assumptions.Source)
}

func TestService_Run_FeeRecordedInAssumptions(t *testing.T) {
	source := &stubSource{series: stubTwoPointSeries(t)}
	svc := NewService(source, zerolog.Nop())

	result, err := svc.Run(context.Background(), Request{
		Ticker:    "TSLA",
		Amount:    100,
		StartDate: "2016-01-04",
		EndDate:   "2016-12-30",
		FeeBps:    50,
	})
	require.NoError(t, err)

	assert.InDelta(t, 9.95, result.Shares, 1e-12)
	assert.InDelta(t, 149.25, result.FinalValue, 1e-12)
	assert.Equal(t, 50, result.Assumptions.FeesBps)
}

func TestService_Run_ValidationRejectsBeforeProviderCall(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{name: "empty ticker", req: Request{Amount: 100, StartDate: "2016-01-04", EndDate: "2016-12-30"}},
		{name: "zero amount", req: Request{Ticker: "TSLA", StartDate: "2016-01-04", EndDate: "2016-12-30"}},
		{name: "negative amount", req: Request{Ticker: "TSLA", Amount: -5, StartDate: "2016-01-04", EndDate: "2016-12-30"}},
		{name: "inverted window", req: Request{Ticker: "TSLA", Amount: 100, StartDate: "2016-12-30", EndDate: "2016-01-04"}},
		{name: "unsupported cadence", req: Request{Ticker: "TSLA", Amount: 100, StartDate: "2016-01-04", EndDate: "2016-12-30", Cadence: "dca"}},
		{name: "fee over ceiling", req: Request{Ticker: "TSLA", Amount: 100, StartDate: "2016-01-04", EndDate: "2016-12-30", FeeBps: 10001}},
		{name: "negative fee", req: Request{Ticker: "TSLA", Amount: 100, StartDate: "2016-01-04", EndDate: "2016-12-30", FeeBps: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &stubSource{series: stubTwoPointSeries(t)}
			svc := NewService(source, zerolog.Nop())

			_, err := svc.Run(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrInvalidRequest)
			assert.Equal(t, 0, source.calls, "validation failures must not reach the provider")
		})
	}
}

func TestService_Run_ProviderErrorsPropagateUnchanged(t *testing.T) {
	kinds := []error{
		series.ErrInvalidDate,
		series.ErrProviderUnavailable,
		series.ErrNoData,
		series.ErrInsufficientData,
	}

	for _, kind := range kinds {
		source := &stubSource{err: kind}
		svc := NewService(source, zerolog.Nop())

		_, err := svc.Run(context.Background(), Request{
			Ticker:    "TSLA",
			Amount:    100,
			StartDate: "2016-01-04",
			EndDate:   "2016-12-30",
		})
		require.ErrorIs(t, err, kind, "error kind must survive the service layer")
	}
}

func TestService_Run_DefaultsCadence(t *testing.T) {
	source := &stubSource{series: stubTwoPointSeries(t)}
	svc := NewService(source, zerolog.Nop())

	_, err := svc.Run(context.Background(), Request{
		Ticker:    "TSLA",
		Amount:    100,
		StartDate: "2016-01-04",
		EndDate:   "2016-12-30",
	})
	assert.NoError(t, err, "empty cadence defaults to lump_sum")
}

func TestService_Run_StatsCoverRealizedWindow(t *testing.T) {
	start, err := dates.ParseDay("2016-01-04")
	require.NoError(t, err)
	points := []series.PricePoint{
		{Date: start, AdjClose: 10},
		{Date: start.Add(24 * time.Hour), AdjClose: 12},
		{Date: start.Add(48 * time.Hour), AdjClose: 9},
		{Date: start.Add(72 * time.Hour), AdjClose: 11},
	}
	source := &stubSource{series: series.Series{Ticker: "TSLA", Points: points}}
	svc := NewService(source, zerolog.Nop())

	result, err := svc.Run(context.Background(), Request{
		Ticker:    "TSLA",
		Amount:    100,
		StartDate: "2016-01-04",
		EndDate:   "2016-01-07",
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.25, result.Stats.MaxDrawdown, 1e-12)
	assert.Greater(t, result.Stats.AnnualizedVolatility, 0.0)
}
