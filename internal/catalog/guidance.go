package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"avgrunnen/internal/domain"
)

// obstacleAct is the act cell that marks a line valid in every act.
const obstacleAct = "i veien for endringen"

// ParseGuidance reads a guidance sheet with columns type, act and text.
// The act cell is 1-3, or "I veien for Endringen" for obstacle lines.
func ParseGuidance(r io.Reader) ([]domain.Guidance, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[domain.NormalizeColumn(h)] = i
	}
	for _, name := range []string{"type", "act", "text"} {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var (
		out     []domain.Guidance
		rowErrs []RowError
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
		get := func(name string) string {
			if i := cols[name]; i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		g := domain.Guidance{Type: get("type"), Text: get("text")}
		if g.Type == "" || g.Text == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Reason: "type and text are required"})
			continue
		}
		act, ok := parseGuidanceAct(get("act"))
		if !ok {
			rowErrs = append(rowErrs, RowError{Line: line, Reason: fmt.Sprintf("unknown act %q", get("act"))})
			continue
		}
		g.Act = act
		out = append(out, g)
	}
	return out, rowErrs, nil
}

func parseGuidanceAct(v string) (int, bool) {
	if domain.FoldKey(v) == obstacleAct {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < domain.FirstAct || n > domain.FinalAct {
		return 0, false
	}
	return n, true
}

// LoadGuidanceFile reads guidance from a CSV sheet or from the guidance
// section of a YAML catalog, chosen by extension.
func LoadGuidanceFile(path string) ([]domain.Guidance, []RowError, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		g, err := NewFileSource(path).Guidance()
		return g, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open guidance: %w", err)
	}
	defer f.Close()
	return ParseGuidance(f)
}
