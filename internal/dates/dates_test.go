package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid date", input: "2016-01-04", wantErr: false},
		{name: "valid leap day", input: "2020-02-29", wantErr: false},
		{name: "month out of range", input: "2016-13-01", wantErr: true},
		{name: "day out of range", input: "2016-01-32", wantErr: true},
		{name: "single digit month", input: "2016-1-04", wantErr: true},
		{name: "slashes", input: "2016/01/04", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "datetime", input: "2016-01-04T00:00:00Z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 12, got.Hour(), "dates must be anchored at midday UTC")
			assert.Equal(t, time.UTC, got.Location())
			assert.Equal(t, tt.input, FormatDay(got))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	start, err := ParseDay("2016-01-04")
	require.NoError(t, err)
	end, err := ParseDay("2016-12-30")
	require.NoError(t, err)

	assert.Equal(t, 361, DaysBetween(start, end))
	assert.Equal(t, -361, DaysBetween(end, start))
	assert.Equal(t, 0, DaysBetween(start, start))
}

func TestMidday(t *testing.T) {
	// A late-evening local timestamp must not shift the calendar day.
	loc := time.FixedZone("UTC+2", 2*60*60)
	late := time.Date(2024, 3, 31, 23, 45, 0, 0, loc) // DST transition day in Europe
	got := Midday(late)

	assert.Equal(t, "2024-03-31", FormatDay(got))
}
