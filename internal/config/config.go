package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

const (
	SourceSheets   = "sheets"
	SourcePostgres = "postgres"
	SourceMySQL    = "mysql"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	Availability AvailabilityConfig `yaml:"availability"`
	Source       SourceConfig       `yaml:"source"`
	Auth         AuthConfig         `yaml:"auth"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AvailabilityConfig struct {
	TotalCapacity int `yaml:"total_capacity"`
	// Timezone is the IANA zone timestamps are truncated in. Empty or
	// "Local" means the process zone.
	Timezone     string `yaml:"timezone"`
	MaxRangeDays int    `yaml:"max_range_days"`
}

type SourceConfig struct {
	Kind     string         `yaml:"kind"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Database DatabaseConfig `yaml:"database"`
}

type SheetsConfig struct {
	URL        string        `yaml:"url"`
	Token      string        `yaml:"-"`
	Sheet      string        `yaml:"sheet"`
	IDColumn   string        `yaml:"id_column"`
	DateColumn string        `yaml:"date_column"`
	Timeout    time.Duration `yaml:"timeout"`
}

type DatabaseConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"-"`
	Name             string        `yaml:"name"`
	SSLMode          string        `yaml:"ssl_mode"`
	Table            string        `yaml:"table"`
	IDColumn         string        `yaml:"id_column"`
	DateColumn       string        `yaml:"date_column"`
	StatusColumn     string        `yaml:"status_column"`
	ExcludedStatuses []string      `yaml:"excluded_statuses"`
	MaxOpenConns     int           `yaml:"max_open_conns"`
	MaxIdleConns     int           `yaml:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `yaml:"conn_max_lifetime"`
	QueryTimeout     time.Duration `yaml:"query_timeout"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"-"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Availability: AvailabilityConfig{
			TotalCapacity: 4,
			Timezone:      "Local",
			MaxRangeDays:  62,
		},
		Source: SourceConfig{
			Kind: SourceSheets,
			Sheets: SheetsConfig{
				Sheet:      "Boekingen",
				IDColumn:   "Boekingsnummer",
				DateColumn: "Datum",
				Timeout:    8 * time.Second,
			},
			Database: DatabaseConfig{
				Port:            5432,
				SSLMode:         "require",
				Table:           "bookings",
				IDColumn:        "id",
				DateColumn:      "event_date",
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
				QueryTimeout:    5 * time.Second,
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies a
// sibling .env file and environment variable overrides. Secrets are only
// read from the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}

		envPath := filepath.Join(filepath.Dir(path), ".env")
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading .env file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", cfg.Server.Port)
	v.SetDefault("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	v.SetDefault("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	v.SetDefault("SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	v.SetDefault("LOG_LEVEL", cfg.Log.Level)
	v.SetDefault("LOG_FORMAT", cfg.Log.Format)
	v.SetDefault("AVAILABILITY_TOTAL_CAPACITY", cfg.Availability.TotalCapacity)
	v.SetDefault("AVAILABILITY_TIMEZONE", cfg.Availability.Timezone)
	v.SetDefault("AVAILABILITY_MAX_RANGE_DAYS", cfg.Availability.MaxRangeDays)
	v.SetDefault("SOURCE_KIND", cfg.Source.Kind)
	v.SetDefault("SHEETS_URL", cfg.Source.Sheets.URL)
	v.SetDefault("SHEETS_TOKEN", cfg.Source.Sheets.Token)
	v.SetDefault("SHEETS_SHEET", cfg.Source.Sheets.Sheet)
	v.SetDefault("SHEETS_ID_COLUMN", cfg.Source.Sheets.IDColumn)
	v.SetDefault("SHEETS_DATE_COLUMN", cfg.Source.Sheets.DateColumn)
	v.SetDefault("SHEETS_TIMEOUT", cfg.Source.Sheets.Timeout)
	v.SetDefault("DB_HOST", cfg.Source.Database.Host)
	v.SetDefault("DB_PORT", cfg.Source.Database.Port)
	v.SetDefault("DB_USER", cfg.Source.Database.User)
	v.SetDefault("DB_PASSWORD", cfg.Source.Database.Password)
	v.SetDefault("DB_NAME", cfg.Source.Database.Name)
	v.SetDefault("DB_SSL_MODE", cfg.Source.Database.SSLMode)
	v.SetDefault("DB_TABLE", cfg.Source.Database.Table)
	v.SetDefault("DB_ID_COLUMN", cfg.Source.Database.IDColumn)
	v.SetDefault("DB_DATE_COLUMN", cfg.Source.Database.DateColumn)
	v.SetDefault("DB_STATUS_COLUMN", cfg.Source.Database.StatusColumn)
	v.SetDefault("DB_EXCLUDED_STATUSES", strings.Join(cfg.Source.Database.ExcludedStatuses, ","))
	v.SetDefault("DB_MAX_OPEN_CONNS", cfg.Source.Database.MaxOpenConns)
	v.SetDefault("DB_MAX_IDLE_CONNS", cfg.Source.Database.MaxIdleConns)
	v.SetDefault("DB_CONN_MAX_LIFETIME", cfg.Source.Database.ConnMaxLifetime)
	v.SetDefault("DB_QUERY_TIMEOUT", cfg.Source.Database.QueryTimeout)
	v.SetDefault("JWT_SECRET", cfg.Auth.JWTSecret)
	v.SetDefault("METRICS_ENABLED", cfg.Metrics.Enabled)
	v.SetDefault("METRICS_PATH", cfg.Metrics.Path)

	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.IdleTimeout = v.GetDuration("SERVER_IDLE_TIMEOUT")
	cfg.Server.ShutdownTimeout = v.GetDuration("SERVER_SHUTDOWN_TIMEOUT")
	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.Format = v.GetString("LOG_FORMAT")
	cfg.Availability.TotalCapacity = v.GetInt("AVAILABILITY_TOTAL_CAPACITY")
	cfg.Availability.Timezone = v.GetString("AVAILABILITY_TIMEZONE")
	cfg.Availability.MaxRangeDays = v.GetInt("AVAILABILITY_MAX_RANGE_DAYS")
	cfg.Source.Kind = strings.ToLower(strings.TrimSpace(v.GetString("SOURCE_KIND")))
	cfg.Source.Sheets.URL = v.GetString("SHEETS_URL")
	cfg.Source.Sheets.Token = v.GetString("SHEETS_TOKEN")
	cfg.Source.Sheets.Sheet = v.GetString("SHEETS_SHEET")
	cfg.Source.Sheets.IDColumn = v.GetString("SHEETS_ID_COLUMN")
	cfg.Source.Sheets.DateColumn = v.GetString("SHEETS_DATE_COLUMN")
	cfg.Source.Sheets.Timeout = v.GetDuration("SHEETS_TIMEOUT")
	cfg.Source.Database.Host = v.GetString("DB_HOST")
	cfg.Source.Database.Port = v.GetInt("DB_PORT")
	cfg.Source.Database.User = v.GetString("DB_USER")
	cfg.Source.Database.Password = v.GetString("DB_PASSWORD")
	cfg.Source.Database.Name = v.GetString("DB_NAME")
	cfg.Source.Database.SSLMode = v.GetString("DB_SSL_MODE")
	cfg.Source.Database.Table = v.GetString("DB_TABLE")
	cfg.Source.Database.IDColumn = v.GetString("DB_ID_COLUMN")
	cfg.Source.Database.DateColumn = v.GetString("DB_DATE_COLUMN")
	cfg.Source.Database.StatusColumn = v.GetString("DB_STATUS_COLUMN")
	cfg.Source.Database.ExcludedStatuses = splitList(v.GetString("DB_EXCLUDED_STATUSES"))
	cfg.Source.Database.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	cfg.Source.Database.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	cfg.Source.Database.ConnMaxLifetime = v.GetDuration("DB_CONN_MAX_LIFETIME")
	cfg.Source.Database.QueryTimeout = v.GetDuration("DB_QUERY_TIMEOUT")
	cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	cfg.Metrics.Enabled = v.GetBool("METRICS_ENABLED")
	cfg.Metrics.Path = v.GetString("METRICS_PATH")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive")
	}
	if c.Availability.TotalCapacity <= 0 {
		return fmt.Errorf("availability total_capacity must be positive")
	}
	if c.Availability.MaxRangeDays <= 0 {
		return fmt.Errorf("availability max_range_days must be positive")
	}
	if _, err := c.Availability.Location(); err != nil {
		return err
	}

	switch c.Source.Kind {
	case SourceSheets:
		if c.Source.Sheets.URL == "" {
			return fmt.Errorf("sheets url is required for source kind %q", SourceSheets)
		}
		if c.Source.Sheets.IDColumn == "" || c.Source.Sheets.DateColumn == "" {
			return fmt.Errorf("sheets id_column and date_column are required")
		}
	case SourcePostgres, SourceMySQL:
		db := c.Source.Database
		if db.Host == "" || db.Name == "" || db.User == "" {
			return fmt.Errorf("database host, name and user are required for source kind %q", c.Source.Kind)
		}
		if db.Table == "" || db.IDColumn == "" || db.DateColumn == "" {
			return fmt.Errorf("database table, id_column and date_column are required")
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}

	return nil
}

func (a AvailabilityConfig) Location() (*time.Location, error) {
	if a.Timezone == "" || strings.EqualFold(a.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("availability timezone %q: %w", a.Timezone, err)
	}
	return loc, nil
}
