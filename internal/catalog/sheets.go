package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"avgrunnen/internal/domain"
	"avgrunnen/internal/ports"
)

const (
	// DefaultSheetID is the published Avgrunnen card spreadsheet.
	DefaultSheetID = "1CS9CjOEJlG0etC8JI117DTY-FRU9Pstm20De_iuxtK4"
	// DefaultEventGID and DefaultSceneGID select the tabs of DefaultSheetID.
	DefaultEventGID = "0"
	DefaultSceneGID = "1815867176"

	defaultBaseURL = "https://docs.google.com"
)

// SheetsSource loads pools from the CSV export of a Google spreadsheet.
type SheetsSource struct {
	client     *http.Client
	baseURL    string
	sheetID    string
	gids       map[domain.Pool]string
	onRowError func(domain.Pool, RowError)
}

// SheetsOption configures a SheetsSource.
type SheetsOption func(*SheetsSource)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) SheetsOption {
	return func(s *SheetsSource) { s.client = c }
}

// WithBaseURL points the source at another host, for tests.
func WithBaseURL(u string) SheetsOption {
	return func(s *SheetsSource) { s.baseURL = u }
}

// WithRowErrorHandler receives every rejected row.
func WithRowErrorHandler(fn func(domain.Pool, RowError)) SheetsOption {
	return func(s *SheetsSource) { s.onRowError = fn }
}

// NewSheetsSource returns a source reading the event and scene tabs of sheetID.
func NewSheetsSource(sheetID, eventGID, sceneGID string, opts ...SheetsOption) *SheetsSource {
	s := &SheetsSource{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: defaultBaseURL,
		sheetID: sheetID,
		gids: map[domain.Pool]string{
			domain.PoolEvent: eventGID,
			domain.PoolScene: sceneGID,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the CSV export address of pool.
func (s *SheetsSource) URL(pool domain.Pool) string {
	q := url.Values{"format": {"csv"}, "gid": {s.gids[pool]}}
	return fmt.Sprintf("%s/spreadsheets/d/%s/export?%s", s.baseURL, url.PathEscape(s.sheetID), q.Encode())
}

// Load implements ports.CatalogSource.
func (s *SheetsSource) Load(ctx context.Context, pool domain.Pool) ([]domain.Card, error) {
	if _, ok := s.gids[pool]; !ok {
		return nil, fmt.Errorf("unknown pool %q", pool)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(pool), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s sheet returned %s", ErrUnavailable, pool, resp.Status)
	}

	cards, rowErrs, err := ParseCards(resp.Body)
	if s.onRowError != nil {
		for _, re := range rowErrs {
			s.onRowError(pool, re)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s sheet: %w", pool, err)
	}
	if err := ValidatePool(pool, cards); err != nil {
		return nil, fmt.Errorf("%s sheet: %w", pool, err)
	}
	return cards, nil
}

var _ ports.CatalogSource = (*SheetsSource)(nil)
