package availability

import (
	"go.uber.org/zap"

	"photobooth/internal/availability/controller"
	"photobooth/internal/availability/service"
	"photobooth/internal/availability/usecase"
	"photobooth/internal/config"
	"photobooth/internal/dates"
	"photobooth/internal/infrastructure/metrics"
)

type Module struct {
	Availability *controller.AvailabilityController
	ManyChat     *controller.ManyChatController
}

func NewModule(source usecase.ReservationSource, cfg config.AvailabilityConfig, m *metrics.Metrics, logger *zap.Logger) (*Module, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var normalizerOpts []dates.Option
	var useCaseOpts []usecase.Option
	if m != nil {
		normalizerOpts = append(normalizerOpts, dates.WithFallbackHook(m.DateFallback))
		useCaseOpts = append(useCaseOpts, usecase.WithRecorder(m))
	}

	normalizer := dates.NewNormalizer(loc, logger, normalizerOpts...)
	calculator := service.NewCapacityCalculator(service.Config{
		TotalCapacity: cfg.TotalCapacity,
		MaxRangeDays:  cfg.MaxRangeDays,
	}, normalizer)
	uc := usecase.NewCheckAvailabilityUseCase(source, calculator, logger, useCaseOpts...)

	return &Module{
		Availability: controller.NewAvailabilityController(uc, logger),
		ManyChat:     controller.NewManyChatController(uc, logger),
	}, nil
}
