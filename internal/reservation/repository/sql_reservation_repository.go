package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"photobooth/internal/domain"
	apperrors "photobooth/internal/errors"
)

const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

// MySQL server error numbers and Postgres SQLSTATE codes for a missing
// column or table.
const (
	mysqlBadFieldError  = 1054
	mysqlNoSuchTable    = 1146
	pgUndefinedColumn   = "42703"
	pgUndefinedTable    = "42P01"
	defaultQueryTimeout = 5 * time.Second
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type Config struct {
	Dialect          string
	Table            string
	IDColumn         string
	DateColumn       string
	StatusColumn     string
	ExcludedStatuses []string
	QueryTimeout     time.Duration
}

type SQLReservationRepository struct {
	db     *sql.DB
	cfg    Config
	query  string
	args   []interface{}
	logger *zap.Logger
}

// NewSQLReservationRepository validates the configured identifiers and
// prepares the listing query once.
func NewSQLReservationRepository(db *sql.DB, cfg Config, logger *zap.Logger) (*SQLReservationRepository, error) {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaultQueryTimeout
	}

	query, args, err := buildListQuery(cfg)
	if err != nil {
		return nil, err
	}

	return &SQLReservationRepository{
		db:     db,
		cfg:    cfg,
		query:  query,
		args:   args,
		logger: logger,
	}, nil
}

func (r *SQLReservationRepository) Name() string {
	return r.cfg.Dialect
}

func (r *SQLReservationRepository) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, r.query, r.args...)
	if err != nil {
		return nil, r.classify(fmt.Errorf("querying reservations: %w", err))
	}
	defer rows.Close()

	var records []domain.Reservation
	for rows.Next() {
		var (
			id   sql.NullString
			date interface{}
		)
		if err := rows.Scan(&id, &date); err != nil {
			return nil, r.classify(fmt.Errorf("scanning reservation: %w", err))
		}
		if b, ok := date.([]byte); ok {
			date = string(b)
		}
		records = append(records, domain.Reservation{
			ID:              id.String,
			ReservationDate: date,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, r.classify(fmt.Errorf("iterating reservations: %w", err))
	}

	r.logger.Debug("reservations loaded",
		zap.String("table", r.cfg.Table),
		zap.Int("count", len(records)),
	)
	return records, nil
}

func (r *SQLReservationRepository) classify(err error) error {
	if column, ok := missingSchemaObject(err); ok {
		if column == "" {
			column = r.cfg.Table
		}
		return apperrors.NewSchemaMismatchError(r.cfg.Dialect, column, err)
	}
	return apperrors.NewSourceUnavailableError(r.cfg.Dialect, err)
}

// missingSchemaObject reports whether err is a driver error for an unknown
// column or table. The returned name is the column when the driver exposes
// it, empty otherwise.
func missingSchemaObject(err error) (string, bool) {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlBadFieldError:
			return quotedName(myErr.Message), true
		case mysqlNoSuchTable:
			return "", true
		}
		return "", false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedColumn:
			if pgErr.ColumnName != "" {
				return pgErr.ColumnName, true
			}
			return quotedName(pgErr.Message), true
		case pgUndefinedTable:
			return "", true
		}
	}
	return "", false
}

// quotedName extracts the first quoted identifier from a driver message such
// as `Unknown column 'event_date' in 'field list'` or
// `column "event_date" does not exist`.
func quotedName(message string) string {
	for _, quote := range []string{"'", `"`} {
		start := strings.Index(message, quote)
		if start < 0 {
			continue
		}
		end := strings.Index(message[start+1:], quote)
		if end < 0 {
			continue
		}
		return message[start+1 : start+1+end]
	}
	return ""
}

func buildListQuery(cfg Config) (string, []interface{}, error) {
	var placeholder sq.PlaceholderFormat
	switch cfg.Dialect {
	case DialectMySQL:
		placeholder = sq.Question
	case DialectPostgres:
		placeholder = sq.Dollar
	default:
		return "", nil, fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}

	for name, value := range map[string]string{
		"table":       cfg.Table,
		"id column":   cfg.IDColumn,
		"date column": cfg.DateColumn,
	} {
		if !identifierPattern.MatchString(value) {
			return "", nil, fmt.Errorf("invalid %s identifier %q", name, value)
		}
	}

	builder := sq.Select(cfg.IDColumn, cfg.DateColumn).
		From(cfg.Table).
		PlaceholderFormat(placeholder)

	if cfg.StatusColumn != "" && len(cfg.ExcludedStatuses) > 0 {
		if !identifierPattern.MatchString(cfg.StatusColumn) {
			return "", nil, fmt.Errorf("invalid status column identifier %q", cfg.StatusColumn)
		}
		builder = builder.Where(sq.Or{
			sq.Eq{cfg.StatusColumn: nil},
			sq.NotEq{cfg.StatusColumn: cfg.ExcludedStatuses},
		})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("building reservations query: %w", err)
	}
	return query, args, nil
}
