package service

import (
	"fmt"
	"time"

	"photobooth/internal/domain"
	apperrors "photobooth/internal/errors"
)

// maxSkippedValues bounds the raw values echoed in admin diagnostics.
const maxSkippedValues = 20

type DateNormalizer interface {
	Normalize(input any) (string, error)
}

type Config struct {
	TotalCapacity int
	MaxRangeDays  int
}

type CapacityCalculator struct {
	cfg        Config
	normalizer DateNormalizer
}

func NewCapacityCalculator(cfg Config, normalizer DateNormalizer) *CapacityCalculator {
	if cfg.TotalCapacity <= 0 {
		cfg.TotalCapacity = domain.DefaultTotalCapacity
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 62
	}
	return &CapacityCalculator{
		cfg:        cfg,
		normalizer: normalizer,
	}
}

func (c *CapacityCalculator) TotalCapacity() int {
	return c.cfg.TotalCapacity
}

// NormalizeQueryDate validates a caller supplied date.
func (c *CapacityCalculator) NormalizeQueryDate(raw string) (string, error) {
	key, err := c.normalizer.Normalize(raw)
	if err != nil {
		return "", apperrors.NewInvalidDateError(raw, err)
	}
	return key, nil
}

// Compute counts the records that fall on queryDate. Records whose date
// cannot be normalized are tallied in Skipped and otherwise ignored.
func (c *CapacityCalculator) Compute(queryDate string, records []domain.Reservation) (*domain.CapacityResult, error) {
	day, err := c.NormalizeQueryDate(queryDate)
	if err != nil {
		return nil, err
	}

	tally := c.tally(records)
	result := tally.resultFor(day, c.cfg.TotalCapacity)
	return &result, nil
}

// ComputeRange returns one result per day between from and to, inclusive,
// after a single pass over records.
func (c *CapacityCalculator) ComputeRange(from, to string, records []domain.Reservation) ([]domain.CapacityResult, error) {
	fromDay, err := c.NormalizeQueryDate(from)
	if err != nil {
		return nil, err
	}
	toDay, err := c.NormalizeQueryDate(to)
	if err != nil {
		return nil, err
	}

	start, _ := time.Parse(domain.DateFormat, fromDay)
	end, _ := time.Parse(domain.DateFormat, toDay)
	if end.Before(start) {
		return nil, apperrors.NewValidationError("invalid range", apperrors.ValidationDetail{
			Field:   "to",
			Message: "to must not be before from",
		})
	}
	span := int(end.Sub(start).Hours()/24) + 1
	if span > c.cfg.MaxRangeDays {
		return nil, apperrors.NewValidationError("invalid range", apperrors.ValidationDetail{
			Field:   "to",
			Message: fmt.Sprintf("range must not exceed %d days", c.cfg.MaxRangeDays),
		})
	}

	tally := c.tally(records)
	results := make([]domain.CapacityResult, 0, span)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		results = append(results, tally.resultFor(d.Format(domain.DateFormat), c.cfg.TotalCapacity))
	}
	return results, nil
}

type dayTally struct {
	byDay         map[string][]string
	skipped       int
	skippedValues []string
}

func (c *CapacityCalculator) tally(records []domain.Reservation) *dayTally {
	t := &dayTally{
		byDay:         make(map[string][]string),
		skippedValues: []string{},
	}
	for _, record := range records {
		day, err := c.normalizer.Normalize(record.ReservationDate)
		if err != nil {
			t.skipped++
			if len(t.skippedValues) < maxSkippedValues {
				t.skippedValues = append(t.skippedValues, fmt.Sprint(record.ReservationDate))
			}
			continue
		}
		t.byDay[day] = append(t.byDay[day], record.ID)
	}
	return t
}

func (t *dayTally) resultFor(day string, totalCapacity int) domain.CapacityResult {
	ids := t.byDay[day]
	result := domain.NewCapacityResult(day, totalCapacity, len(ids))
	if len(ids) > 0 {
		result.MatchedIDs = append(result.MatchedIDs, ids...)
	}
	result.Skipped = t.skipped
	result.SkippedValues = append(result.SkippedValues, t.skippedValues...)
	return result
}
