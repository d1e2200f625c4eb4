package reservation

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"photobooth/internal/config"
	"photobooth/internal/domain"
	"photobooth/internal/infrastructure/database"
	"photobooth/internal/reservation/repository"
	"photobooth/internal/reservation/sheets"
)

type Source interface {
	Name() string
	ListReservations(ctx context.Context) ([]domain.Reservation, error)
}

// NewModule builds the reservation source selected by cfg.Kind. The returned
// cleanup func releases the database pool, if any.
func NewModule(cfg config.SourceConfig, logger *zap.Logger) (Source, func(), error) {
	switch cfg.Kind {
	case config.SourceSheets:
		source := sheets.NewSource(sheets.Config{
			URL:        cfg.Sheets.URL,
			Token:      cfg.Sheets.Token,
			Sheet:      cfg.Sheets.Sheet,
			IDColumn:   cfg.Sheets.IDColumn,
			DateColumn: cfg.Sheets.DateColumn,
			Timeout:    cfg.Sheets.Timeout,
		}, &http.Client{}, logger)
		return source, func() {}, nil

	case config.SourceMySQL, config.SourcePostgres:
		db, err := database.NewConnection(cfg.Kind, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to %s: %w", cfg.Kind, err)
		}
		repo, err := repository.NewSQLReservationRepository(db, repository.Config{
			Dialect:          cfg.Kind,
			Table:            cfg.Database.Table,
			IDColumn:         cfg.Database.IDColumn,
			DateColumn:       cfg.Database.DateColumn,
			StatusColumn:     cfg.Database.StatusColumn,
			ExcludedStatuses: cfg.Database.ExcludedStatuses,
			QueryTimeout:     cfg.Database.QueryTimeout,
		}, logger)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		cleanup := func() {
			if err := db.Close(); err != nil {
				logger.Warn("closing database", zap.Error(err))
			}
		}
		return repo, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
