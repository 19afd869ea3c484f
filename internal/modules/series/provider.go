package series

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/hindsightlab/hindsight/internal/dates"
)

// Buffer applied to the upstream fetch window. If the requested start or end
// falls on a non-trading day there is still real trading data nearby to snap to.
const (
	bufferBeforeDays = 10
	bufferAfterDays  = 2
)

// Provider resolves requested calendar windows into trading-day-aligned
// adjusted-close series. It owns the series cache and collapses concurrent
// fetches for the same window into a single upstream call.
type Provider struct {
	client HistoryClient
	cache  *Cache
	group  singleflight.Group
	log    zerolog.Logger
}

// NewProvider creates a series provider backed by the given upstream client
// and cache.
func NewProvider(client HistoryClient, cache *Cache, log zerolog.Logger) *Provider {
	return &Provider{
		client: client,
		cache:  cache,
		log:    log.With().Str("service", "series_provider").Logger(),
	}
}

// Source names the upstream data source, for transparency metadata.
func (p *Provider) Source() string {
	return p.client.Source()
}

// GetAdjustedSeries returns the trading-day-aligned series for the requested
// window. Requested dates that fall on non-trading days are snapped: the start
// forward to the next trading day, the end backward to the previous one.
//
// Fails with ErrInvalidDate, ErrProviderUnavailable, ErrNoData or
// ErrInsufficientData. All failures are terminal; nothing is retried.
func (p *Provider) GetAdjustedSeries(ctx context.Context, ticker, startDate, endDate string) (Series, error) {
	start, err := dates.ParseDay(startDate)
	if err != nil {
		return Series{}, fmt.Errorf("%w: start %q", ErrInvalidDate, startDate)
	}
	end, err := dates.ParseDay(endDate)
	if err != nil {
		return Series{}, fmt.Errorf("%w: end %q", ErrInvalidDate, endDate)
	}

	key := CacheKey(ticker, start, end)
	if cached, ok := p.cache.Get(key); ok {
		p.log.Debug().Str("ticker", ticker).Str("key", key).Msg("Series cache hit")
		return cached, nil
	}

	// Collapse concurrent requests for the same window into one fetch. The
	// resolved series is an immutable snapshot, so sharing it is safe.
	result, err, _ := p.group.Do(key, func() (interface{}, error) {
		return p.resolve(ctx, ticker, start, end, key)
	})
	if err != nil {
		return Series{}, err
	}
	return result.(Series), nil
}

func (p *Provider) resolve(ctx context.Context, ticker string, start, end time.Time, key string) (Series, error) {
	from := start.AddDate(0, 0, -bufferBeforeDays)
	to := end.AddDate(0, 0, bufferAfterDays)

	raw, err := p.client.DailyAdjusted(ctx, ticker, from, to)
	if err != nil {
		p.log.Warn().Err(err).Str("ticker", ticker).Msg("Upstream price fetch failed")
		return Series{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	points := normalize(raw)
	if len(points) == 0 {
		return Series{}, fmt.Errorf("%w: ticker %q between %s and %s",
			ErrNoData, ticker, dates.FormatDay(from), dates.FormatDay(to))
	}

	startIdx, endIdx := snap(points, start, end)
	if startIdx < 0 || endIdx < 0 || endIdx <= startIdx {
		return Series{}, fmt.Errorf("%w: ticker %q, requested %s to %s",
			ErrInsufficientData, ticker, dates.FormatDay(start), dates.FormatDay(end))
	}

	s := Series{
		Ticker: ticker,
		Points: points[startIdx : endIdx+1],
	}

	p.cache.Set(key, s)

	p.log.Info().
		Str("ticker", ticker).
		Str("effective_start", dates.FormatDay(s.EffectiveStart())).
		Str("effective_end", dates.FormatDay(s.EffectiveEnd())).
		Int("points", len(s.Points)).
		Msg("Resolved price series")

	return s, nil
}

// normalize turns raw upstream rows into domain price points: rows lacking a
// date or a usable adjusted close are dropped, dates are canonicalized to
// midday UTC, duplicates collapse to the last row seen, and the result is
// sorted ascending. Partial upstream noise is common and never a request-level
// failure.
func normalize(raw []Quote) []PricePoint {
	byDay := make(map[string]PricePoint, len(raw))
	for _, q := range raw {
		if q.Date.IsZero() || q.AdjClose <= 0 {
			continue
		}
		day := dates.Midday(q.Date)
		byDay[dates.FormatDay(day)] = PricePoint{Date: day, AdjClose: q.AdjClose}
	}

	points := make([]PricePoint, 0, len(byDay))
	for _, p := range byDay {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

// snap maps the requested window onto actual trading days: the effective start
// is the first point on or after the requested start, the effective end the
// last point on or before the requested end. Returns -1 for a side that has no
// snap target.
func snap(points []PricePoint, start, end time.Time) (startIdx, endIdx int) {
	startIdx = sort.Search(len(points), func(i int) bool {
		return !points[i].Date.Before(start)
	})
	if startIdx == len(points) {
		startIdx = -1
	}

	endIdx = sort.Search(len(points), func(i int) bool {
		return points[i].Date.After(end)
	})
	endIdx-- // last point <= end
	if endIdx < 0 {
		endIdx = -1
	}
	return startIdx, endIdx
}
