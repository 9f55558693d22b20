// Package catalog loads card pools and director guidance from spreadsheets
// and local files.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"avgrunnen/internal/domain"
)

var (
	// ErrUnavailable reports that the catalog source could not be reached.
	ErrUnavailable = errors.New("catalog unavailable")
	// ErrEmptyCatalog reports a source that yielded no valid cards.
	ErrEmptyCatalog = errors.New("catalog has no valid cards")
	// ErrMissingColumn reports a sheet without a required column.
	ErrMissingColumn = errors.New("catalog is missing a required column")
	// ErrEmptyAct reports a scene pool with no cards for some act.
	ErrEmptyAct = errors.New("scene catalog has no cards for an act")
)

var requiredColumns = []string{"id", "title", "text"}

// RowError describes a rejected catalog row. Line is 1-based and counts
// the header.
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParseCards reads a card sheet in CSV form. Headers are matched after
// NormalizeColumn, so "Act 1" and "act1" name the same column. Invalid
// rows are skipped and reported; a sheet with no valid rows is
// ErrEmptyCatalog.
func ParseCards(r io.Reader) ([]domain.Card, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptyCatalog
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	acts := make(map[int]int)
	for i, h := range header {
		name := domain.NormalizeColumn(h)
		if _, dup := cols[name]; dup {
			continue
		}
		cols[name] = i
		if act, ok := domain.ActFromColumn(name); ok {
			acts[act] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var (
		cards   []domain.Card
		rowErrs []RowError
		seen    = make(map[string]int)
		line    = 1
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, rowErrs, fmt.Errorf("read line %d: %w", line, err)
		}
		if blank(rec) {
			continue
		}
		card := domain.Card{
			ID:       field(rec, "id"),
			Title:    field(rec, "title"),
			Text:     field(rec, "text"),
			Type:     field(rec, "type"),
			Image:    field(rec, "image"),
			PlayerID: field(rec, "playerid"),
		}
		switch {
		case card.ID == "":
			rowErrs = append(rowErrs, RowError{Line: line, Reason: "missing id"})
			continue
		case card.Title == "":
			rowErrs = append(rowErrs, RowError{Line: line, Reason: fmt.Sprintf("card %s has no title", card.ID)})
			continue
		}
		if first, dup := seen[card.ID]; dup {
			rowErrs = append(rowErrs, RowError{Line: line, Reason: fmt.Sprintf("duplicate id %s (first on line %d)", card.ID, first)})
			continue
		}
		seen[card.ID] = line
		for act := domain.FirstAct; act <= domain.FinalAct; act++ {
			if i, ok := acts[act]; ok && i < len(rec) && domain.ParseFlag(rec[i]) {
				card.Acts = append(card.Acts, act)
			}
		}
		cards = append(cards, card)
	}
	if len(cards) == 0 {
		return nil, rowErrs, ErrEmptyCatalog
	}
	return cards, rowErrs, nil
}

// ValidatePool checks the pool-level rules: cards must exist, and every act
// needs at least one scene card.
func ValidatePool(pool domain.Pool, cards []domain.Card) error {
	if len(cards) == 0 {
		return ErrEmptyCatalog
	}
	if pool != domain.PoolScene {
		return nil
	}
	for act := domain.FirstAct; act <= domain.FinalAct; act++ {
		if len(domain.ActiveCardIDs(cards, act)) == 0 {
			return fmt.Errorf("%w: act %d", ErrEmptyAct, act)
		}
	}
	return nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
