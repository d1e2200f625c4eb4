package dates

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var amsterdamWinter = time.FixedZone("CET", 60*60)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(amsterdamWinter, zap.NewNop())
}

func TestNormalize_ISODate(t *testing.T) {
	n := newTestNormalizer()

	for _, input := range []string{"2026-02-26", "2024-02-29", "2026-12-31"} {
		got, err := n.Normalize(input)
		require.NoError(t, err)
		assert.Equal(t, input, got)
	}
}

func TestNormalize_ISODateWithSurroundingWhitespace(t *testing.T) {
	n := newTestNormalizer()

	got, err := n.Normalize("2026-02-26  \n")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-26", got)

	got, err = n.Normalize("\t2026-02-26")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-26", got)
}

func TestNormalize_DayMonthYear(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		input string
		want  string
	}{
		{"26/02/2026", "2026-02-26"},
		{"1/2/2026", "2026-02-01"},
		{"01/02/2026", "2026-02-01"},
		{"29/02/2024", "2024-02-29"},
		{"26-02-2026", "2026-02-26"},
		{"31/12/2026", "2026-12-31"},
		{"05/02/2026", "2026-02-05"},
		{"5.2.2026", "2026-02-05"},
		{"26.02.2026", "2026-02-26"},
		{"05/02/26", "2026-02-05"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := n.Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Timestamps(t *testing.T) {
	tests := []struct {
		name  string
		loc   *time.Location
		input string
		want  string
	}{
		{
			name:  "utc midnight-adjacent instant lands on next local day",
			loc:   amsterdamWinter,
			input: "2026-02-25T23:00:00.000Z",
			want:  "2026-02-26",
		},
		{
			name:  "same instant read in utc",
			loc:   time.UTC,
			input: "2026-02-25T23:00:00.000Z",
			want:  "2026-02-25",
		},
		{
			name:  "offset timestamp converted into location",
			loc:   time.UTC,
			input: "2026-02-26T00:30:00+01:00",
			want:  "2026-02-25",
		},
		{
			name:  "wall clock without zone stays on its day",
			loc:   amsterdamWinter,
			input: "2026-02-26 23:59:59",
			want:  "2026-02-26",
		},
		{
			name:  "offset without colon converted into location",
			loc:   time.UTC,
			input: "2026-02-26T00:30:00+0100",
			want:  "2026-02-25",
		},
		{
			name:  "offset without colon and seconds",
			loc:   amsterdamWinter,
			input: "2026-02-26T10:00-0500",
			want:  "2026-02-26",
		},
		{
			name:  "wall clock with T separator and minutes only",
			loc:   amsterdamWinter,
			input: "2026-02-26T18:30",
			want:  "2026-02-26",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(tt.loc, zap.NewNop())

			got, err := n.Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_DayMonthYearWithTime(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		input string
		want  string
	}{
		{"05/02/2026 10:00", "2026-02-05"},
		{"05/02/2026 10:00:00", "2026-02-05"},
		{"26/02/2026 10:00:00", "2026-02-26"},
		{"26/02/2026 23:59", "2026-02-26"},
		{"26-02-2026 0:15", "2026-02-26"},
		{"26.02.2026 18:30", "2026-02-26"},
		{"26/02/2026, 18:30", "2026-02-26"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := n.Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_SameDaySameKeyWithOrWithoutTime(t *testing.T) {
	n := newTestNormalizer()

	for _, day := range []string{"05/02/2026", "12/01/2026", "01/12/2026"} {
		withoutTime, err := n.Normalize(day)
		require.NoError(t, err)

		withTime, err := n.Normalize(day + " 10:00")
		require.NoError(t, err)

		assert.Equal(t, withoutTime, withTime, day)
	}
}

func TestNormalize_NativeTimeUsesOwnCalendarDay(t *testing.T) {
	n := NewNormalizer(time.UTC, zap.NewNop())
	newYork := time.FixedZone("EST", -5*60*60)

	// 23:30 in New York is already the 27th in UTC; the value's own day wins.
	value := time.Date(2026, time.February, 26, 23, 30, 0, 0, newYork)

	got, err := n.Normalize(value)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-26", got)

	got, err = n.Normalize(&value)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-26", got)
}

func TestNormalize_SpreadsheetSerials(t *testing.T) {
	n := newTestNormalizer()

	for _, input := range []any{46079, 46079.0, 46079.75, int64(46079), json.Number("46079")} {
		got, err := n.Normalize(input)
		require.NoError(t, err)
		assert.Equal(t, "2026-02-26", got)
	}
}

func TestNormalize_GenericFallbackLogsAndCounts(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	hits := 0
	n := NewNormalizer(amsterdamWinter, zap.New(core), WithFallbackHook(func() { hits++ }))

	got, err := n.Normalize("2026/02/26")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-26", got)

	got, err = n.Normalize("February 26, 2026")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-26", got)

	assert.Equal(t, 2, hits)
	assert.Equal(t, 2, logs.FilterMessage("date normalized through generic parser").Len())
}

func TestNormalize_StrictPathsDoNotLog(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	hits := 0
	n := NewNormalizer(amsterdamWinter, zap.New(core), WithFallbackHook(func() { hits++ }))

	for _, input := range []string{"2026-02-26", "26/02/2026", "2026-02-26T10:00:00Z", "26/02/2026 10:00", "5.2.2026"} {
		_, err := n.Normalize(input)
		require.NoError(t, err)
	}

	assert.Equal(t, 0, hits)
	assert.Equal(t, 0, logs.Len())
}

func TestNormalize_Failures(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name  string
		input any
	}{
		{name: "empty string", input: ""},
		{name: "blank string", input: "   "},
		{name: "month and day out of range", input: "2026-13-40"},
		{name: "iso day past end of month", input: "2026-02-30"},
		{name: "european thirteenth month", input: "13/13/2026"},
		{name: "no leap day in 2025", input: "29/02/2025"},
		{name: "broken timestamp", input: "2026-02-26T25:61:00"},
		{name: "free text", input: "not-a-date"},
		{name: "short word", input: "foo"},
		{name: "bare year", input: "2026"},
		{name: "bare number", input: "1234"},
		{name: "month and year only", input: "February 2026"},
		{name: "year and month only", input: "2026/02"},
		{name: "european date with impossible hour", input: "26/02/2026 24:00"},
		{name: "european date with impossible day and time", input: "30/02/2026 10:00"},
		{name: "nil", input: nil},
		{name: "nil time pointer", input: (*time.Time)(nil)},
		{name: "zero time", input: time.Time{}},
		{name: "negative serial", input: -3.0},
		{name: "zero serial", input: 0},
		{name: "unsupported type", input: struct{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.input)
			assert.Error(t, err)
			assert.Empty(t, got)

			var ne *NormalizationError
			assert.True(t, errors.As(err, &ne))
		})
	}
}

func TestNormalize_ErrorKeepsRawInput(t *testing.T) {
	n := newTestNormalizer()

	_, err := n.Normalize(" 13/13/2026 ")
	require.Error(t, err)

	var ne *NormalizationError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, " 13/13/2026 ", ne.Raw)
	assert.Contains(t, err.Error(), "13/13/2026")
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newTestNormalizer()

	inputs := []any{
		"2026-02-26",
		"26/02/2026",
		"1/2/2026",
		"2026-02-25T23:00:00.000Z",
		"2026/02/26",
		46079,
		time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
	}

	for _, input := range inputs {
		once, err := n.Normalize(input)
		require.NoError(t, err)

		twice, err := n.Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestNormalize_EuropeanAndISOAgree(t *testing.T) {
	n := newTestNormalizer()

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Year() < 2025; d = d.AddDate(0, 0, 1) {
		iso, err := n.Normalize(d.Format("2006-01-02"))
		require.NoError(t, err)

		european, err := n.Normalize(d.Format("2/1/2006"))
		require.NoError(t, err)

		assert.Equal(t, iso, european)
	}
}

func TestNewNormalizer_DefaultsToLocal(t *testing.T) {
	n := NewNormalizer(nil, nil)

	assert.Equal(t, time.Local, n.Location())
}
