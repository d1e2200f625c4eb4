package dto

import (
	"photobooth/internal/domain"
	apperrors "photobooth/internal/errors"
)

type AvailabilityResponse struct {
	Date          string `json:"date"`
	TotalCapacity int    `json:"total_capacity"`
	Reserved      int    `json:"reserved"`
	Remaining     int    `json:"remaining"`
	Available     bool   `json:"available"`
}

type AdminAvailabilityResponse struct {
	TraceID string `json:"trace_id"`
	AdminDay
}

type AdminDay struct {
	AvailabilityResponse
	MatchedIDs    []string `json:"matched_ids"`
	Skipped       int      `json:"skipped"`
	SkippedValues []string `json:"skipped_values"`
}

type AvailabilityRangeResponse struct {
	TraceID string     `json:"trace_id"`
	From    string     `json:"from"`
	To      string     `json:"to"`
	Days    []AdminDay `json:"days"`
}

type InvalidDateResponse struct {
	Error string `json:"error"`
	Raw   string `json:"raw"`
}

type ErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message,omitempty"`
	TraceID string                       `json:"trace_id,omitempty"`
	Details []apperrors.ValidationDetail `json:"details,omitempty"`
}

// NewAvailabilityResponse drops the admin diagnostics from result.
func NewAvailabilityResponse(result domain.CapacityResult) AvailabilityResponse {
	return AvailabilityResponse{
		Date:          result.Date,
		TotalCapacity: result.TotalCapacity,
		Reserved:      result.Reserved,
		Remaining:     result.Remaining,
		Available:     result.Available,
	}
}

func NewAdminDay(result domain.CapacityResult) AdminDay {
	matched := result.MatchedIDs
	if matched == nil {
		matched = []string{}
	}
	skippedValues := result.SkippedValues
	if skippedValues == nil {
		skippedValues = []string{}
	}
	return AdminDay{
		AvailabilityResponse: NewAvailabilityResponse(result),
		MatchedIDs:           matched,
		Skipped:              result.Skipped,
		SkippedValues:        skippedValues,
	}
}
