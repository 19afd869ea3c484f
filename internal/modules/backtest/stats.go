package backtest

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/hindsightlab/hindsight/internal/modules/series"
)

// tradingDaysPerYear is the standard annualization factor for daily returns.
const tradingDaysPerYear = 252

// SeriesStats are descriptive statistics over the realized series. They
// describe what happened inside the window; nothing here is predictive.
type SeriesStats struct {
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	MaxDrawdown          float64 `json:"max_drawdown"`
}

// ComputeSeriesStats derives volatility and max drawdown from the daily
// adjusted closes of a resolved series.
func ComputeSeriesStats(points []series.PricePoint) SeriesStats {
	return SeriesStats{
		AnnualizedVolatility: annualizedVolatility(points),
		MaxDrawdown:          maxDrawdown(points),
	}
}

// annualizedVolatility is the sample standard deviation of daily log returns,
// scaled by sqrt(252). Returns 0 for series too short to have two returns.
func annualizedVolatility(points []series.PricePoint) float64 {
	if len(points) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		returns = append(returns, math.Log(points[i].AdjClose/points[i-1].AdjClose))
	}

	return stat.StdDev(returns, nil) * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown is the largest peak-to-trough decline over the series,
// expressed as a non-negative fraction (0.25 = a 25% decline).
func maxDrawdown(points []series.PricePoint) float64 {
	if len(points) < 2 {
		return 0
	}

	peak := points[0].AdjClose
	worst := 0.0
	for _, p := range points[1:] {
		if p.AdjClose > peak {
			peak = p.AdjClose
			continue
		}
		if dd := (peak - p.AdjClose) / peak; dd > worst {
			worst = dd
		}
	}
	return worst
}
