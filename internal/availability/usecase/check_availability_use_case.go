package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"photobooth/internal/domain"
	apperrors "photobooth/internal/errors"
)

type ReservationSource interface {
	Name() string
	ListReservations(ctx context.Context) ([]domain.Reservation, error)
}

type CapacityCalculator interface {
	NormalizeQueryDate(raw string) (string, error)
	Compute(queryDate string, records []domain.Reservation) (*domain.CapacityResult, error)
	ComputeRange(from, to string, records []domain.Reservation) ([]domain.CapacityResult, error)
}

// Recorder receives source read timings and skipped-record counts.
type Recorder interface {
	ObserveSourceRead(source string, err error, elapsed time.Duration)
	RecordSkipped(source string, skipped int)
}

type noopRecorder struct{}

func (noopRecorder) ObserveSourceRead(string, error, time.Duration) {}
func (noopRecorder) RecordSkipped(string, int)                      {}

type Option func(*CheckAvailabilityUseCase)

func WithRecorder(recorder Recorder) Option {
	return func(uc *CheckAvailabilityUseCase) {
		if recorder != nil {
			uc.recorder = recorder
		}
	}
}

type CheckAvailabilityUseCase struct {
	source     ReservationSource
	calculator CapacityCalculator
	logger     *zap.Logger
	recorder   Recorder
}

func NewCheckAvailabilityUseCase(
	source ReservationSource,
	calculator CapacityCalculator,
	logger *zap.Logger,
	opts ...Option,
) *CheckAvailabilityUseCase {
	uc := &CheckAvailabilityUseCase{
		source:     source,
		calculator: calculator,
		logger:     logger,
		recorder:   noopRecorder{},
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// CheckDate validates rawDate before touching the source, so an invalid
// date never costs a backend read.
func (uc *CheckAvailabilityUseCase) CheckDate(ctx context.Context, rawDate string) (*domain.CapacityResult, error) {
	// Bloque 1: Validar fecha (antes de leer la fuente)
	day, err := uc.calculator.NormalizeQueryDate(rawDate)
	if err != nil {
		return nil, err
	}

	// Bloque 2: Leer reservas
	records, err := uc.listReservations(ctx)
	if err != nil {
		return nil, err
	}

	// Bloque 3: Contar y loguear
	result, err := uc.calculator.Compute(day, records)
	if err != nil {
		return nil, err
	}

	uc.logResult(result, len(records))
	return result, nil
}

func (uc *CheckAvailabilityUseCase) CheckRange(ctx context.Context, rawFrom, rawTo string) ([]domain.CapacityResult, error) {
	from, err := uc.calculator.NormalizeQueryDate(rawFrom)
	if err != nil {
		return nil, err
	}
	to, err := uc.calculator.NormalizeQueryDate(rawTo)
	if err != nil {
		return nil, err
	}

	records, err := uc.listReservations(ctx)
	if err != nil {
		return nil, err
	}

	results, err := uc.calculator.ComputeRange(from, to, records)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("availability range computed",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("days", len(results)),
		zap.Int("recordCount", len(records)),
	)
	return results, nil
}

// listReservations keeps SchemaMismatch distinct and classifies every
// other failure as SourceUnavailable.
func (uc *CheckAvailabilityUseCase) listReservations(ctx context.Context) ([]domain.Reservation, error) {
	started := time.Now()
	records, err := uc.source.ListReservations(ctx)
	uc.recorder.ObserveSourceRead(uc.source.Name(), err, time.Since(started))
	if err == nil {
		return records, nil
	}

	if sme, ok := apperrors.IsSchemaMismatchError(err); ok {
		uc.logger.Error("reservation source schema mismatch",
			zap.String("source", sme.Source),
			zap.String("column", sme.Column),
			zap.Error(err),
		)
		return nil, err
	}

	if _, ok := apperrors.IsSourceUnavailableError(err); ok {
		uc.logger.Warn("reservation source unavailable", zap.String("source", uc.source.Name()), zap.Error(err))
		return nil, err
	}

	uc.logger.Warn("reservation source read failed", zap.String("source", uc.source.Name()), zap.Error(err))
	return nil, apperrors.NewSourceUnavailableError(uc.source.Name(), err)
}

func (uc *CheckAvailabilityUseCase) logResult(result *domain.CapacityResult, recordCount int) {
	fields := []zap.Field{
		zap.String("date", result.Date),
		zap.Int("reserved", result.Reserved),
		zap.Int("remaining", result.Remaining),
		zap.Int("recordCount", recordCount),
	}
	if result.Skipped > 0 {
		uc.recorder.RecordSkipped(uc.source.Name(), result.Skipped)
		uc.logger.Warn("availability computed with unreadable reservation dates",
			append(fields, zap.Int("skipped", result.Skipped), zap.Strings("skippedValues", result.SkippedValues))...)
		return
	}
	uc.logger.Info("availability computed", fields...)
}
