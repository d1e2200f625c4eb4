package domain

// DateFormat is the canonical calendar-day key.
const DateFormat = "2006-01-02"

// DefaultTotalCapacity is the number of mirror booths that can go out on one day.
const DefaultTotalCapacity = 4

type CapacityResult struct {
	Date          string
	TotalCapacity int
	Reserved      int
	Remaining     int
	Available     bool
	MatchedIDs    []string
	Skipped       int
	SkippedValues []string
}

// NewCapacityResult derives remaining capacity and availability from the
// reserved count. Remaining never drops below zero.
func NewCapacityResult(date string, totalCapacity, reserved int) CapacityResult {
	remaining := totalCapacity - reserved
	if remaining < 0 {
		remaining = 0
	}
	return CapacityResult{
		Date:          date,
		TotalCapacity: totalCapacity,
		Reserved:      reserved,
		Remaining:     remaining,
		Available:     remaining > 0,
		MatchedIDs:    []string{},
		SkippedValues: []string{},
	}
}

func (r CapacityResult) FullyBooked() bool {
	return !r.Available
}
