package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"photobooth/internal/domain"
	"photobooth/internal/dto"
	apperrors "photobooth/internal/errors"
)

type CheckAvailabilityUseCase interface {
	CheckDate(ctx context.Context, rawDate string) (*domain.CapacityResult, error)
	CheckRange(ctx context.Context, rawFrom, rawTo string) ([]domain.CapacityResult, error)
}

type AvailabilityController struct {
	useCase CheckAvailabilityUseCase
	logger  *zap.Logger
}

func NewAvailabilityController(useCase CheckAvailabilityUseCase, logger *zap.Logger) *AvailabilityController {
	return &AvailabilityController{
		useCase: useCase,
		logger:  logger,
	}
}

// GetAvailability handles GET /availability?date=...
func (c *AvailabilityController) GetAvailability(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	rawDate := r.URL.Query().Get("date")
	if rawDate == "" {
		logger.Warn("missing date query parameter")
		c.writeJSON(w, http.StatusBadRequest, dto.InvalidDateResponse{Error: "invalid_date", Raw: rawDate})
		return
	}

	result, err := c.useCase.CheckDate(r.Context(), rawDate)
	if err != nil {
		c.handleUseCaseError(w, "", err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.NewAvailabilityResponse(*result))
}

// GetAdminAvailability handles GET /admin/availability?date=... and adds
// the matched booking identifiers and skipped-row diagnostics.
func (c *AvailabilityController) GetAdminAvailability(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	rawDate := r.URL.Query().Get("date")
	if rawDate == "" {
		logger.Warn("missing date query parameter")
		c.writeJSON(w, http.StatusBadRequest, dto.InvalidDateResponse{Error: "invalid_date", Raw: rawDate})
		return
	}

	result, err := c.useCase.CheckDate(r.Context(), rawDate)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.AdminAvailabilityResponse{
		TraceID:  traceID,
		AdminDay: dto.NewAdminDay(*result),
	})
}

// GetAdminAvailabilityRange handles GET /admin/availability/range?from=...&to=...
func (c *AvailabilityController) GetAdminAvailabilityRange(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	query := r.URL.Query()
	from, to := query.Get("from"), query.Get("to")

	var details []apperrors.ValidationDetail
	if from == "" {
		details = append(details, apperrors.ValidationDetail{Field: "from", Message: "from is required"})
	}
	if to == "" {
		details = append(details, apperrors.ValidationDetail{Field: "to", Message: "to is required"})
	}
	if len(details) > 0 {
		logger.Warn("missing range query parameters")
		c.writeValidationError(w, traceID, "validation failed", details...)
		return
	}

	results, err := c.useCase.CheckRange(r.Context(), from, to)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	days := make([]dto.AdminDay, len(results))
	for i, result := range results {
		days[i] = dto.NewAdminDay(result)
	}

	response := dto.AvailabilityRangeResponse{
		TraceID: traceID,
		From:    from,
		To:      to,
		Days:    days,
	}
	if len(results) > 0 {
		response.From = results[0].Date
		response.To = results[len(results)-1].Date
	}

	c.writeJSON(w, http.StatusOK, response)
}

func (c *AvailabilityController) handleUseCaseError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ide, ok := apperrors.IsInvalidDateError(err); ok {
		logger.Warn("invalid date", zap.String("raw", ide.Raw), zap.Error(err))
		c.writeJSON(w, http.StatusBadRequest, dto.InvalidDateResponse{Error: "invalid_date", Raw: ide.Raw})
		return
	}

	if ve, ok := apperrors.IsValidationError(err); ok {
		logger.Warn("invalid range", zap.Error(err))
		c.writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_range",
			Message: ve.Message,
			TraceID: traceID,
			Details: ve.Details,
		})
		return
	}

	if _, ok := apperrors.IsSourceUnavailableError(err); ok {
		logger.Warn("reservation source unavailable", zap.Error(err))
		c.writeJSON(w, http.StatusBadGateway, dto.ErrorResponse{Error: "source_unavailable", TraceID: traceID})
		return
	}

	if _, ok := apperrors.IsSchemaMismatchError(err); ok {
		logger.Error("reservation source schema mismatch", zap.Error(err))
		c.writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "schema_mismatch", TraceID: traceID})
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error", TraceID: traceID})
}

func (c *AvailabilityController) writeValidationError(w http.ResponseWriter, traceID string, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
		Error:   "validation_error",
		Message: message,
		TraceID: traceID,
		Details: details,
	})
}

func (c *AvailabilityController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
