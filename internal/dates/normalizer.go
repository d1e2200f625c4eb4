// Package dates turns the date shapes found in the reservation backends
// (ISO days, timestamps, European day/month/year, spreadsheet serials and
// native time values) into one canonical YYYY-MM-DD key.
package dates

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"

	"photobooth/internal/domain"
)

var (
	isoDatePattern      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	isoTimestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}`)
	// Day/month/year with a four or two digit year and an optional wall-clock time.
	dayMonthYearPattern = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4}|\d{2})(?:(?:[T ]|,\s*)(\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)
	digitRunPattern     = regexp.MustCompile(`\d+`)
	monthNamePattern    = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b`)
)

// Layouts that carry their own offset. The instant is moved into the
// normalizer's location before the day is taken.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04-0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05 -0700 MST",
	"2006-01-02 15:04:05 -0700",
}

// Layouts without an offset are read as wall-clock time in the normalizer's location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Day zero of Google Sheets / Excel serial dates.
var spreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Serial of 9999-12-31, the last day a four digit year can hold.
const maxSpreadsheetSerial = 2958465

type Option func(*Normalizer)

// WithFallbackHook registers fn to be called every time the generic parser
// had to be used.
func WithFallbackHook(fn func()) Option {
	return func(n *Normalizer) {
		n.onFallback = fn
	}
}

type Normalizer struct {
	location   *time.Location
	logger     *zap.Logger
	onFallback func()
}

// NewNormalizer builds a Normalizer that truncates timestamps to the calendar
// day in loc. A nil loc means the process local zone.
func NewNormalizer(loc *time.Location, logger *zap.Logger, opts ...Option) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Normalizer{
		location: loc,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Normalizer) Location() *time.Location {
	return n.location
}

// Normalize returns the YYYY-MM-DD key for input or a *NormalizationError.
func (n *Normalizer) Normalize(input any) (string, error) {
	switch v := input.(type) {
	case nil:
		return "", newNormalizationError("", "missing value")
	case string:
		return n.normalizeString(v)
	case []byte:
		return n.normalizeString(string(v))
	case time.Time:
		return normalizeTime(v)
	case *time.Time:
		if v == nil {
			return "", newNormalizationError("", "missing value")
		}
		return normalizeTime(*v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return "", newNormalizationError(v.String(), "not a number")
		}
		return normalizeSerial(v.String(), f)
	case float64:
		return normalizeSerial(strconv.FormatFloat(v, 'f', -1, 64), v)
	case float32:
		return normalizeSerial(strconv.FormatFloat(float64(v), 'f', -1, 32), float64(v))
	case int:
		return normalizeSerial(strconv.Itoa(v), float64(v))
	case int32:
		return normalizeSerial(strconv.FormatInt(int64(v), 10), float64(v))
	case int64:
		return normalizeSerial(strconv.FormatInt(v, 10), float64(v))
	default:
		return "", newNormalizationError(fmt.Sprint(v), fmt.Sprintf("unsupported type %T", v))
	}
}

func (n *Normalizer) normalizeString(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", newNormalizationError(raw, "empty string")
	}

	if isoDatePattern.MatchString(s) {
		if _, err := time.Parse(domain.DateFormat, s); err != nil {
			return "", newNormalizationError(raw, "not a calendar date")
		}
		return s, nil
	}

	if isoTimestampPattern.MatchString(s) {
		t, ok := n.parseTimestamp(s)
		if !ok {
			return "", newNormalizationError(raw, "malformed timestamp")
		}
		return t.Format(domain.DateFormat), nil
	}

	if m := dayMonthYearPattern.FindStringSubmatch(s); m != nil {
		return dayMonthYear(raw, m)
	}

	return n.fallback(raw, s)
}

// dayMonthYear assembles the key from a dayMonthYearPattern match. Numeric
// dates are always day first. Two digit years are in the
// 2000s. A time, when present, only has to be a valid wall-clock time.
func dayMonthYear(raw string, m []string) (string, error) {
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", newNormalizationError(raw, "not a calendar date")
	}

	if m[4] != "" {
		hour, _ := strconv.Atoi(m[4])
		minute, _ := strconv.Atoi(m[5])
		second := 0
		if m[6] != "" {
			second, _ = strconv.Atoi(m[6])
		}
		if hour > 23 || minute > 59 || second > 59 {
			return "", newNormalizationError(raw, "malformed timestamp")
		}
	}

	return t.Format(domain.DateFormat), nil
}

// carriesFullDate reports whether s names a full calendar date: three
// numeric groups, or a month name with day and year digits.
func carriesFullDate(s string) bool {
	groups := len(digitRunPattern.FindAllString(s, -1))
	if groups >= 3 {
		return true
	}
	return groups >= 2 && monthNamePattern.MatchString(s)
}

func (n *Normalizer) parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(n.location), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, n.location); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// fallback runs the generic parser. The produced key has to survive the
// strict ISO check, otherwise the input is rejected.
func (n *Normalizer) fallback(raw, s string) (string, error) {
	if !carriesFullDate(s) {
		return "", newNormalizationError(raw, "unrecognized date format")
	}

	t, err := dateparse.ParseIn(s, n.location, dateparse.PreferMonthFirst(false))
	if err != nil {
		return "", newNormalizationError(raw, "unrecognized date format")
	}

	key := t.In(n.location).Format(domain.DateFormat)
	if !isoDatePattern.MatchString(key) {
		return "", newNormalizationError(raw, "unrecognized date format")
	}
	if _, err := time.Parse(domain.DateFormat, key); err != nil {
		return "", newNormalizationError(raw, "unrecognized date format")
	}

	n.logger.Warn("date normalized through generic parser",
		zap.String("raw", raw),
		zap.String("date", key),
	)
	if n.onFallback != nil {
		n.onFallback()
	}
	return key, nil
}

func normalizeTime(t time.Time) (string, error) {
	if t.IsZero() {
		return "", newNormalizationError(t.String(), "zero time")
	}
	key := t.Format(domain.DateFormat)
	if !isoDatePattern.MatchString(key) {
		return "", newNormalizationError(t.String(), "year out of range")
	}
	return key, nil
}

func normalizeSerial(raw string, serial float64) (string, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return "", newNormalizationError(raw, "not a number")
	}
	days := math.Floor(serial)
	if days < 1 || days > maxSpreadsheetSerial {
		return "", newNormalizationError(raw, "spreadsheet serial out of range")
	}
	return spreadsheetEpoch.AddDate(0, 0, int(days)).Format(domain.DateFormat), nil
}
