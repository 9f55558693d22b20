package domain

// Guidance is a prompt line offered to the director for a scene card type.
type Guidance struct {
	Type string `json:"type" yaml:"type"`
	// Act is 1-3; zero marks an obstacle line that applies in every act.
	Act  int    `json:"act" yaml:"act"`
	Text string `json:"text" yaml:"text"`
}

// Obstacle reports whether the line applies regardless of act.
func (g Guidance) Obstacle() bool {
	return g.Act == 0
}

// PromptsFor returns the lines for cardType in act, act-specific lines first.
func PromptsFor(lines []Guidance, cardType string, act int) []string {
	if cardType == "" {
		return nil
	}
	key := FoldKey(cardType)
	var specific, obstacles []string
	for _, g := range lines {
		if FoldKey(g.Type) != key {
			continue
		}
		switch {
		case g.Act == act:
			specific = append(specific, g.Text)
		case g.Obstacle():
			obstacles = append(obstacles, g.Text)
		}
	}
	return append(specific, obstacles...)
}
