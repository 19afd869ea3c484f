// Package yahoo is a Yahoo Finance chart API client used as the upstream
// historical price source.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/hindsightlab/hindsight/internal/modules/series"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client is a Yahoo Finance API client.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client.
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// NewClientWithBaseURL creates a client against a custom endpoint, used in tests.
func NewClientWithBaseURL(baseURL string, log zerolog.Logger) *Client {
	c := NewClient(log)
	c.baseURL = baseURL
	return c
}

// Source names this provider for transparency metadata.
func (c *Client) Source() string {
	return "yahoo-finance"
}

// chartResponse is the shape of the v8 chart API response. Yahoo sometimes
// returns null rows inside the arrays; decoding into float64 slices keeps the
// zeros, which the caller treats as missing.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// DailyAdjusted fetches daily price history for the closed window [from, to].
// Rows carry the adjusted close where Yahoo provides one, falling back to the
// raw close. Rows Yahoo could not price come back with a zero AdjClose and are
// dropped by the series provider's normalization.
func (c *Client) DailyAdjusted(ctx context.Context, ticker string, from, to time.Time) ([]series.Quote, error) {
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(ticker))

	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("period1", fmt.Sprintf("%d", from.Unix()))
	// period2 is exclusive upstream; push it past the end of the last day.
	params.Add("period2", fmt.Sprintf("%d", to.Add(24*time.Hour).Unix()))
	params.Add("events", "div,splits")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.Chart.Error)
	}

	if len(result.Chart.Result) == 0 {
		c.log.Warn().Str("ticker", ticker).Msg("No historical data returned")
		return []series.Quote{}, nil
	}

	chartData := result.Chart.Result[0]
	timestamps := chartData.Timestamp
	if len(chartData.Indicators.Quote) == 0 {
		c.log.Warn().Str("ticker", ticker).Msg("No quote data in response")
		return []series.Quote{}, nil
	}

	closes := chartData.Indicators.Quote[0].Close

	var adjCloses []float64
	if len(chartData.Indicators.AdjClose) > 0 {
		adjCloses = chartData.Indicators.AdjClose[0].AdjClose
	}

	quotes := make([]series.Quote, 0, len(timestamps))
	for i := range timestamps {
		adjClose := 0.0
		if i < len(adjCloses) && adjCloses[i] != 0 {
			adjClose = adjCloses[i]
		} else if i < len(closes) {
			adjClose = closes[i]
		}

		quotes = append(quotes, series.Quote{
			Date:     time.Unix(timestamps[i], 0).UTC(),
			AdjClose: adjClose,
		})
	}

	c.log.Debug().
		Str("ticker", ticker).
		Int("count", len(quotes)).
		Msg("Fetched historical prices")

	return quotes, nil
}
