package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// FoldKey returns the comparison form of a name. cases.Caser is stateful, so
// a fresh one is built per call.
func FoldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// SameName reports whether two names are equal under Unicode case folding.
func SameName(a, b string) bool {
	return FoldKey(a) == FoldKey(b)
}

// NormalizeColumn folds a catalog column header and strips all whitespace,
// so "Act 1", "act1" and "ACT 1" all become "act1".
func NormalizeColumn(h string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, FoldKey(h))
}

// ActColumn returns the canonical column name for an act flag.
func ActColumn(act int) string {
	return fmt.Sprintf("act%d", act)
}

// ActFromColumn parses a normalized column name of the form "actN".
func ActFromColumn(col string) (int, bool) {
	rest, ok := strings.CutPrefix(col, "act")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < FirstAct || n > FinalAct {
		return 0, false
	}
	return n, true
}

// ParseFlag reads a spreadsheet boolean cell.
func ParseFlag(v string) bool {
	switch FoldKey(v) {
	case "true", "1", "yes", "x":
		return true
	}
	return false
}

// InAct reports whether the card is eligible in the given act.
func (c Card) InAct(act int) bool {
	return slices.Contains(c.Acts, act)
}

// UnmarshalJSON accepts the legacy layout where act eligibility was stored
// as loose "act 1" / "act1" flag fields next to the card fields.
func (c *Card) UnmarshalJSON(data []byte) error {
	type plain Card
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if len(p.Acts) == 0 {
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		for k, v := range raw {
			act, ok := ActFromColumn(NormalizeColumn(k))
			if !ok || !flagValue(v) {
				continue
			}
			p.Acts = append(p.Acts, act)
		}
		slices.Sort(p.Acts)
	}
	*c = Card(p)
	return nil
}

func flagValue(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return ParseFlag(t)
	case float64:
		return t == 1
	}
	return false
}

// CardIndex finds a card by id.
func CardIndex(cards []Card, id string) int {
	return slices.IndexFunc(cards, func(c Card) bool { return c.ID == id })
}

// ActiveCardIDs returns the ids of the cards eligible in act, in pool order.
func ActiveCardIDs(cards []Card, act int) []string {
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		if c.InAct(act) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
