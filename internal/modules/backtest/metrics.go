package backtest

import (
	"math"
	"time"

	"github.com/hindsightlab/hindsight/internal/dates"
)

// Day-count convention and annualization floor. Fixed constants, not tunables:
// changing either changes every historical output.
const (
	daysPerYear = 365.25
	cagrEpsilon = 1e-9
)

// Metrics are the deterministic outputs of a lump-sum computation.
type Metrics struct {
	Shares         float64 `json:"shares"`
	FinalValue     float64 `json:"final_value"`
	TotalReturnPct float64 `json:"total_return_pct"`
	CAGR           float64 `json:"cagr"`
	ElapsedDays    int     `json:"elapsed_days"`
}

// ComputeLumpSum computes realized performance for a single purchase made
// entirely at the effective start. The full amount buys shares at the start
// price after the fee haircut; the position is valued at the end price.
//
// Pure arithmetic: no I/O, no errors. Non-positive amounts or prices are
// rejected by request validation upstream, never here. A degenerate same-day
// window floors elapsed days at 1 so CAGR stays finite.
func ComputeLumpSum(amount float64, feeBps int, startPrice, endPrice float64, start, end time.Time) Metrics {
	feeMultiplier := 1 - float64(feeBps)/10000

	shares := (amount / startPrice) * feeMultiplier
	finalValue := shares * endPrice
	totalReturnPct := (finalValue - amount) / amount

	elapsedDays := dates.DaysBetween(start, end)
	if elapsedDays < 1 {
		elapsedDays = 1
	}
	years := float64(elapsedDays) / daysPerYear

	cagr := math.Pow(finalValue/amount, 1/math.Max(years, cagrEpsilon)) - 1

	return Metrics{
		Shares:         shares,
		FinalValue:     finalValue,
		TotalReturnPct: totalReturnPct,
		CAGR:           cagr,
		ElapsedDays:    elapsedDays,
	}
}
