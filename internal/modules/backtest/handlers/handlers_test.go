package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsightlab/hindsight/internal/dates"
	"github.com/hindsightlab/hindsight/internal/modules/backtest"
	"github.com/hindsightlab/hindsight/internal/modules/series"
)

// stubRunner returns a canned result or error.
type stubRunner struct {
	result *backtest.Result
	err    error
}

func (s *stubRunner) Run(_ context.Context, req backtest.Request) (*backtest.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func sampleResult(t *testing.T) *backtest.Result {
	t.Helper()
	start, err := dates.ParseDay("2016-01-04")
	require.NoError(t, err)
	end, err := dates.ParseDay("2016-12-30")
	require.NoError(t, err)

	return &backtest.Result{
		Series: []series.PricePoint{
			{Date: start, AdjClose: 10},
			{Date: end, AdjClose: 15},
		},
		Shares:         10,
		FinalValue:     150,
		TotalReturnPct: 0.5,
		CAGR:           0.507,
		Assumptions: backtest.Assumptions{
			AdjustedPrices:      true,
			DividendsReinvested: true,
			SnapPolicy:          backtest.SnapPolicy,
			EffectiveStartDate:  "2016-01-04",
			EffectiveEndDate:    "2016-12-30",
			Source:              "stub",
		},
	}
}

func newTestRouter(runner Runner) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		NewHandler(runner, zerolog.Nop()).RegisterRoutes(r)
	})
	return r
}

func TestHandleRunBacktest(t *testing.T) {
	router := newTestRouter(&stubRunner{result: sampleResult(t)})

	body := `{"ticker":"TSLA","amount":100,"start_date":"2016-01-04","end_date":"2016-12-30","cadence":"lump_sum"}`
	req := httptest.NewRequest(http.MethodPost, "/api/backtest/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data struct {
			Shares         float64 `json:"shares"`
			FinalValue     float64 `json:"final_value"`
			TotalReturnPct float64 `json:"total_return_pct"`
			Series         []struct {
				Date     string  `json:"date"`
				AdjClose float64 `json:"adj_close"`
			} `json:"series"`
			Assumptions struct {
				SnapPolicy         string `json:"snap_policy"`
				EffectiveStartDate string `json:"effective_start_date"`
			} `json:"assumptions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	assert.Equal(t, 10.0, payload.Data.Shares)
	assert.Equal(t, 150.0, payload.Data.FinalValue)
	require.Len(t, payload.Data.Series, 2)
	assert.Equal(t, "2016-01-04", payload.Data.Series[0].Date)
	assert.Equal(t, "start=next, end=previous", payload.Data.Assumptions.SnapPolicy)
}

func TestHandleRunBacktest_MalformedBody(t *testing.T) {
	router := newTestRouter(&stubRunner{result: sampleResult(t)})

	req := httptest.NewRequest(http.MethodPost, "/api/backtest/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRunBacktest_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "invalid request", err: backtest.ErrInvalidRequest, wantStatus: http.StatusBadRequest},
		{name: "invalid date", err: series.ErrInvalidDate, wantStatus: http.StatusBadRequest},
		{name: "no data", err: series.ErrNoData, wantStatus: http.StatusUnprocessableEntity},
		{name: "insufficient data", err: series.ErrInsufficientData, wantStatus: http.StatusUnprocessableEntity},
		{name: "upstream down", err: series.ErrProviderUnavailable, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubRunner{err: tt.err})

			body := `{"ticker":"TSLA","amount":100,"start_date":"2016-01-04","end_date":"2016-12-30"}`
			req := httptest.NewRequest(http.MethodPost, "/api/backtest/", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleExportCSV(t *testing.T) {
	router := newTestRouter(&stubRunner{result: sampleResult(t)})

	req := httptest.NewRequest(http.MethodGet,
		"/api/backtest/export?ticker=TSLA&start_date=2016-01-04&end_date=2016-12-30", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,adj_close", lines[0])
	assert.Equal(t, "2016-01-04,10", lines[1])
	assert.Equal(t, "2016-12-30,15", lines[2])
}

func TestHandleExportCSV_BadQuery(t *testing.T) {
	router := newTestRouter(&stubRunner{result: sampleResult(t)})

	req := httptest.NewRequest(http.MethodGet,
		"/api/backtest/export?ticker=TSLA&start_date=2016-01-04&end_date=2016-12-30&fee_bps=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
