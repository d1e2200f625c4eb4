// Package sheets reads reservations from the bookings spreadsheet through
// the Google Apps Script web app that fronts it.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"photobooth/internal/domain"
	apperrors "photobooth/internal/errors"
)

const (
	sourceName      = "sheets"
	maxPayloadBytes = 10 << 20
	defaultTimeout  = 8 * time.Second
)

type Config struct {
	URL        string
	Token      string
	Sheet      string
	IDColumn   string
	DateColumn string
	Timeout    time.Duration
}

// readResponse is the JSON shape returned by the Apps Script doGet handler
// for action=read: the sheet's data range, header row first.
type readResponse struct {
	Values [][]any `json:"values"`
	Error  string  `json:"error"`
}

type Source struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
	group  singleflight.Group
}

func NewSource(cfg Config, client *http.Client, logger *zap.Logger) *Source {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Source{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

func (s *Source) Name() string {
	return sourceName
}

// ListReservations returns every booking row of the sheet. Concurrent calls
// share one in-flight request; the shared request is detached from any
// single caller's cancellation and bounded by the configured timeout.
func (s *Source) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	ch := s.group.DoChan(s.cfg.Sheet, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
		defer cancel()
		return s.fetch(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.NewSourceUnavailableError(sourceName, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		records := res.Val.([]domain.Reservation)
		if res.Shared {
			// Callers must not share the backing array.
			records = append([]domain.Reservation(nil), records...)
		}
		return records, nil
	}
}

func (s *Source) fetch(ctx context.Context) ([]domain.Reservation, error) {
	endpoint, err := s.readURL()
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(sourceName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(sourceName, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	res, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(sourceName, fmt.Errorf("requesting sheet: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, apperrors.NewSourceUnavailableError(sourceName, fmt.Errorf("unexpected status %d", res.StatusCode))
	}

	var payload readResponse
	decoder := json.NewDecoder(io.LimitReader(res.Body, maxPayloadBytes))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, apperrors.NewSourceUnavailableError(sourceName, fmt.Errorf("decoding sheet payload: %w", err))
	}
	if payload.Error != "" {
		return nil, apperrors.NewSourceUnavailableError(sourceName, fmt.Errorf("apps script: %s", payload.Error))
	}

	records, err := s.project(payload.Values)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("sheet read",
		zap.String("sheet", s.cfg.Sheet),
		zap.Int("rows", len(payload.Values)),
		zap.Int("reservations", len(records)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return records, nil
}

func (s *Source) readURL() (string, error) {
	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parsing sheets url: %w", err)
	}
	q := u.Query()
	q.Set("action", "read")
	if s.cfg.Sheet != "" {
		q.Set("sheet", s.cfg.Sheet)
	}
	if s.cfg.Token != "" {
		q.Set("token", s.cfg.Token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// project locates the identifier and date columns by header name, since
// column order in the sheet is edited by hand and not stable.
func (s *Source) project(values [][]any) ([]domain.Reservation, error) {
	if len(values) == 0 {
		return nil, apperrors.NewSchemaMismatchError(sourceName, s.cfg.IDColumn, fmt.Errorf("sheet %q has no header row", s.cfg.Sheet))
	}

	header := values[0]
	idIdx := columnIndex(header, s.cfg.IDColumn)
	if idIdx < 0 {
		return nil, apperrors.NewSchemaMismatchError(sourceName, s.cfg.IDColumn, nil)
	}
	dateIdx := columnIndex(header, s.cfg.DateColumn)
	if dateIdx < 0 {
		return nil, apperrors.NewSchemaMismatchError(sourceName, s.cfg.DateColumn, nil)
	}

	records := make([]domain.Reservation, 0, len(values)-1)
	for _, row := range values[1:] {
		id := cellString(cell(row, idIdx))
		date := cell(row, dateIdx)
		if id == "" && isBlank(date) {
			continue
		}
		records = append(records, domain.Reservation{
			ID:              id,
			ReservationDate: date,
		})
	}
	return records, nil
}

func columnIndex(header []any, name string) int {
	want := headerKey(name)
	for i, h := range header {
		if headerKey(cellString(h)) == want {
			return i
		}
	}
	return -1
}

func headerKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func cell(row []any, idx int) any {
	if idx >= len(row) {
		return nil
	}
	return row[idx]
}

func cellString(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

func isBlank(v any) bool {
	return cellString(v) == ""
}
