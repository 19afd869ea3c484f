// Package backtest computes deterministic lump-sum investment backtests from
// trading-day-aligned price series.
package backtest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hindsightlab/hindsight/internal/modules/series"
)

// Cadence enumerates supported purchase schedules. Only lump sum is
// implemented; the enum exists so recurring cadences can be added without a
// wire format change.
type Cadence string

// CadenceLumpSum is a single purchase made entirely on the effective start date.
const CadenceLumpSum Cadence = "lump_sum"

// ErrInvalidRequest marks a request that fails field validation.
var ErrInvalidRequest = errors.New("invalid backtest request")

// Request describes one backtest: what to buy, when, and at what fee.
type Request struct {
	Ticker    string  `json:"ticker" msgpack:"ticker"`
	Amount    float64 `json:"amount" msgpack:"amount"`
	StartDate string  `json:"start_date" msgpack:"start_date"`
	EndDate   string  `json:"end_date" msgpack:"end_date"`
	Cadence   Cadence `json:"cadence" msgpack:"cadence"`
	FeeBps    int     `json:"fee_bps" msgpack:"fee_bps"`
}

// Normalize applies defaults and canonicalizes fields that do not affect
// meaning. Called before validation and before hashing for permalinks.
func (r *Request) Normalize() {
	r.Ticker = strings.ToUpper(strings.TrimSpace(r.Ticker))
	if r.Cadence == "" {
		r.Cadence = CadenceLumpSum
	}
}

// Validate checks request fields. Date strings are only shape-checked here;
// strict calendar parsing happens in the series provider.
func (r Request) Validate() error {
	if r.Ticker == "" {
		return fmt.Errorf("%w: ticker is required", ErrInvalidRequest)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %v", ErrInvalidRequest, r.Amount)
	}
	if r.StartDate == "" || r.EndDate == "" {
		return fmt.Errorf("%w: start_date and end_date are required", ErrInvalidRequest)
	}
	if r.StartDate > r.EndDate {
		return fmt.Errorf("%w: start_date %s is after end_date %s", ErrInvalidRequest, r.StartDate, r.EndDate)
	}
	if r.Cadence != CadenceLumpSum {
		return fmt.Errorf("%w: unsupported cadence %q", ErrInvalidRequest, r.Cadence)
	}
	if r.FeeBps < 0 || r.FeeBps > 10000 {
		return fmt.Errorf("%w: fee_bps must be in [0, 10000], got %d", ErrInvalidRequest, r.FeeBps)
	}
	return nil
}

// Assumptions is the transparency record attached to every result so callers
// can see exactly what the numbers mean.
type Assumptions struct {
	AdjustedPrices      bool   `json:"adjusted_prices"`
	DividendsReinvested bool   `json:"dividends_reinvested"`
	FeesBps             int    `json:"fees_bps"`
	SnapPolicy          string `json:"snap_policy"`
	EffectiveStartDate  string `json:"effective_start_date"`
	EffectiveEndDate    string `json:"effective_end_date"`
	Source              string `json:"source"`
}

// SnapPolicy documents how requested calendar dates map to trading days.
const SnapPolicy = "start=next, end=previous"

// Result is the full outcome of a backtest. Constructed fresh per request,
// never mutated.
type Result struct {
	Series         []series.PricePoint `json:"series"`
	Shares         float64             `json:"shares"`
	FinalValue     float64             `json:"final_value"`
	TotalReturnPct float64             `json:"total_return_pct"`
	CAGR           float64             `json:"cagr"`
	Stats          SeriesStats         `json:"stats"`
	Assumptions    Assumptions         `json:"assumptions"`
}
