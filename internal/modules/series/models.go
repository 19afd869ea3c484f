// Package series resolves a ticker and requested date window into an ordered,
// trading-day-aligned sequence of adjusted-close price points.
package series

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hindsightlab/hindsight/internal/dates"
)

// PricePoint is one trading day's split/dividend-adjusted closing price.
// Immutable once produced.
type PricePoint struct {
	Date     time.Time
	AdjClose float64
}

// MarshalJSON renders the date with day precision, matching the API contract.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date     string  `json:"date"`
		AdjClose float64 `json:"adj_close"`
	}{
		Date:     dates.FormatDay(p.Date),
		AdjClose: p.AdjClose,
	})
}

// UnmarshalJSON parses the day-precision wire form back into a PricePoint.
func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date     string  `json:"date"`
		AdjClose float64 `json:"adj_close"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d, err := dates.ParseDay(raw.Date)
	if err != nil {
		return err
	}
	p.Date = d
	p.AdjClose = raw.AdjClose
	return nil
}

// Series is an ordered sequence of price points covering the closed interval
// [EffectiveStart, EffectiveEnd], where both endpoints are actual trading days.
// A successfully built series always has at least two points with strictly
// ascending dates.
type Series struct {
	Ticker string       `json:"ticker"`
	Points []PricePoint `json:"points"`
}

// EffectiveStart returns the first trading day covered by the series.
func (s Series) EffectiveStart() time.Time {
	return s.Points[0].Date
}

// EffectiveEnd returns the last trading day covered by the series.
func (s Series) EffectiveEnd() time.Time {
	return s.Points[len(s.Points)-1].Date
}

// StartPrice returns the adjusted close on the effective start date.
func (s Series) StartPrice() float64 {
	return s.Points[0].AdjClose
}

// EndPrice returns the adjusted close on the effective end date.
func (s Series) EndPrice() float64 {
	return s.Points[len(s.Points)-1].AdjClose
}

// Quote is a raw upstream row before normalization. AdjClose may be zero or
// negative for rows the upstream could not price; those rows are dropped.
type Quote struct {
	Date     time.Time
	AdjClose float64
}

// HistoryClient fetches raw daily price history from the upstream data source.
// Implementations are expected to be unreliable: they may rate-limit, error,
// or omit adjusted closes, and the provider wraps them accordingly.
type HistoryClient interface {
	DailyAdjusted(ctx context.Context, ticker string, from, to time.Time) ([]Quote, error)
	Source() string
}
