package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"photobooth/internal/domain"
	"photobooth/internal/dto"
	apperrors "photobooth/internal/errors"
)

const (
	fieldAvailable = "photobooth_available"
	fieldRemaining = "photobooth_remaining"
	fieldDate      = "photobooth_date"

	msgAvailable   = "Goed nieuws! Op %s zijn er nog %d van de %d spiegels vrij. Wil je reserveren?"
	msgLastOne     = "Op %s is er nog precies 1 spiegel vrij. Wees er snel bij!"
	msgFullyBooked = "Helaas, op %s zijn alle spiegels al gereserveerd. Kies gerust een andere datum."
	msgInvalidDate = "Die datum kon ik niet lezen. Stuur de datum als DD/MM/JJJJ, bijvoorbeeld 26/02/2026."
	msgUnavailable = "Ik kan de agenda nu even niet bekijken. Probeer het over een paar minuten opnieuw."
)

// ManyChatController answers the dynamic block of the Instagram/Messenger
// flow. ManyChat treats every non-200 answer as a broken block, so failures
// are reported as chat messages with status 200.
type ManyChatController struct {
	useCase CheckAvailabilityUseCase
	logger  *zap.Logger
	writer  *AvailabilityController
}

func NewManyChatController(useCase CheckAvailabilityUseCase, logger *zap.Logger) *ManyChatController {
	return &ManyChatController{
		useCase: useCase,
		logger:  logger,
		writer:  NewAvailabilityController(useCase, logger),
	}
}

// GetAvailability handles GET /manychat/availability?date=...
func (c *ManyChatController) GetAvailability(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID), zap.String("channel", "manychat"))

	rawDate := r.URL.Query().Get("date")
	if rawDate == "" {
		logger.Warn("missing date query parameter")
		c.writer.writeJSON(w, http.StatusOK, dto.NewManyChatText(msgInvalidDate))
		return
	}

	result, err := c.useCase.CheckDate(r.Context(), rawDate)
	if err != nil {
		if _, ok := apperrors.IsInvalidDateError(err); ok {
			logger.Warn("invalid date", zap.String("raw", rawDate))
			c.writer.writeJSON(w, http.StatusOK, dto.NewManyChatText(msgInvalidDate))
			return
		}
		if _, ok := apperrors.IsSchemaMismatchError(err); ok {
			logger.Error("reservation source schema mismatch", zap.Error(err))
		} else {
			logger.Warn("availability lookup failed", zap.Error(err))
		}
		c.writer.writeJSON(w, http.StatusOK, dto.NewManyChatText(msgUnavailable))
		return
	}

	c.writer.writeJSON(w, http.StatusOK, dto.NewManyChatText(
		manyChatMessage(*result),
		dto.SetField(fieldAvailable, result.Available),
		dto.SetField(fieldRemaining, result.Remaining),
		dto.SetField(fieldDate, result.Date),
	))
}

func manyChatMessage(result domain.CapacityResult) string {
	day := humanDate(result.Date)
	switch {
	case !result.Available:
		return fmt.Sprintf(msgFullyBooked, day)
	case result.Remaining == 1:
		return fmt.Sprintf(msgLastOne, day)
	default:
		return fmt.Sprintf(msgAvailable, day, result.Remaining, result.TotalCapacity)
	}
}

func humanDate(isoDay string) string {
	t, err := time.Parse(domain.DateFormat, isoDay)
	if err != nil {
		return isoDay
	}
	return t.Format("02-01-2006")
}
