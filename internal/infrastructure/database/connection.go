package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"photobooth/internal/config"
)

const pingTimeout = 5 * time.Second

// NewConnection opens a pool for the given source kind ("mysql" or
// "postgres") and verifies it with a ping.
func NewConnection(kind string, cfg config.DatabaseConfig) (*sql.DB, error) {
	driver, dsn, err := dataSource(kind, cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func dataSource(kind string, cfg config.DatabaseConfig) (driver, dsn string, err error) {
	switch kind {
	case config.SourceMySQL:
		return "mysql", mysqlDSN(cfg), nil
	case config.SourcePostgres:
		return "pgx", postgresDSN(cfg), nil
	default:
		return "", "", fmt.Errorf("unsupported database kind %q", kind)
	}
}

func mysqlDSN(cfg config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Name
	mc.ParseTime = true
	return mc.FormatDSN()
}

// postgresDSN builds a URL DSN understood by pgx. Supabase requires TLS, so
// an empty ssl mode falls back to "require".
func postgresDSN(cfg config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}
