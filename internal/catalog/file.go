package catalog

import (
	"context"
	"fmt"
	"os"

	"avgrunnen/internal/domain"
	"avgrunnen/internal/ports"

	"gopkg.in/yaml.v3"
)

// fileCard is the YAML shape of a card.
type fileCard struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Text     string `yaml:"text"`
	Type     string `yaml:"type"`
	Image    string `yaml:"image"`
	PlayerID string `yaml:"playerId"`
	Acts     []int  `yaml:"acts"`
}

// fileCatalog is the YAML document read by FileSource.
type fileCatalog struct {
	Events   []fileCard        `yaml:"events"`
	Scenes   []fileCard        `yaml:"scenes"`
	Guidance []domain.Guidance `yaml:"guidance"`
}

// FileSource loads pools from a YAML file. The file is reread on every
// Load so an admin reset picks up edits.
type FileSource struct {
	path string
}

// NewFileSource returns a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) read() (fileCatalog, error) {
	var doc fileCatalog
	data, err := os.ReadFile(f.path)
	if err != nil {
		return doc, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return doc, nil
}

// Load implements ports.CatalogSource.
func (f *FileSource) Load(_ context.Context, pool domain.Pool) ([]domain.Card, error) {
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	var raw []fileCard
	switch pool {
	case domain.PoolEvent:
		raw = doc.Events
	case domain.PoolScene:
		raw = doc.Scenes
	default:
		return nil, fmt.Errorf("unknown pool %q", pool)
	}

	seen := make(map[string]bool, len(raw))
	cards := make([]domain.Card, 0, len(raw))
	for i, c := range raw {
		if c.ID == "" || c.Title == "" {
			return nil, fmt.Errorf("%s card %d: id and title are required", pool, i+1)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("%s card %d: duplicate id %s", pool, i+1, c.ID)
		}
		seen[c.ID] = true
		for _, act := range c.Acts {
			if act < domain.FirstAct || act > domain.FinalAct {
				return nil, fmt.Errorf("%s card %s: act %d out of range", pool, c.ID, act)
			}
		}
		cards = append(cards, domain.Card(c))
	}
	if err := ValidatePool(pool, cards); err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return cards, nil
}

// Guidance returns the guidance lines embedded in the file, if any.
func (f *FileSource) Guidance() ([]domain.Guidance, error) {
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	return doc.Guidance, nil
}

var _ ports.CatalogSource = (*FileSource)(nil)
