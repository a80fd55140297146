// Package catalog loads heist variants and narrative template ids.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/ilyakaznacheev/cleanenv"
)

type file struct {
	Crimes    []domain.CrimeDefinition `yaml:"crimes"`
	Templates map[string][]string      `yaml:"templates"`
}

// Catalog is immutable after construction and safe for concurrent reads.
type Catalog struct {
	crimes    []domain.CrimeDefinition
	byID      map[string]int
	templates map[domain.TemplateKind][]string
}

// Load reads a YAML catalog. An empty path returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find catalog file: %w", err)
	}

	var f file
	if err := cleanenv.ReadConfig(path, &f); err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	templates := make(map[domain.TemplateKind][]string, len(f.Templates))
	for kind, ids := range f.Templates {
		templates[domain.TemplateKind(kind)] = ids
	}
	return New(f.Crimes, templates)
}

// New validates the crimes and builds a catalog. Template kinds missing from
// templates fall back to the built-in ids.
func New(crimes []domain.CrimeDefinition, templates map[domain.TemplateKind][]string) (*Catalog, error) {
	if len(crimes) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	c := &Catalog{
		crimes:    make([]domain.CrimeDefinition, 0, len(crimes)),
		byID:      make(map[string]int, len(crimes)),
		templates: make(map[domain.TemplateKind][]string),
	}
	for _, crime := range crimes {
		crime.ID = strings.ToLower(strings.TrimSpace(crime.ID))
		if err := validate(crime); err != nil {
			return nil, err
		}
		if _, dup := c.byID[crime.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", domain.ErrInvalidCrime, crime.ID)
		}
		c.byID[crime.ID] = len(c.crimes)
		c.crimes = append(c.crimes, crime)
	}

	for kind, ids := range defaultTemplates {
		c.templates[kind] = ids
	}
	for kind, ids := range templates {
		if len(ids) > 0 {
			c.templates[kind] = append([]string(nil), ids...)
		}
	}
	return c, nil
}

// MaxPayoutCeiling keeps haul*bps and pool*weight inside int64 for any
// trust bonus cap the config accepts.
const MaxPayoutCeiling int64 = 1_000_000_000_000

func validate(crime domain.CrimeDefinition) error {
	switch {
	case crime.ID == "":
		return fmt.Errorf("%w: empty id", domain.ErrInvalidCrime)
	case crime.MinPayout < 0 || crime.MaxPayout < crime.MinPayout:
		return fmt.Errorf("%w: %s payout range [%d, %d]", domain.ErrInvalidCrime, crime.ID, crime.MinPayout, crime.MaxPayout)
	case crime.MaxPayout > MaxPayoutCeiling:
		return fmt.Errorf("%w: %s max payout %d above %d", domain.ErrInvalidCrime, crime.ID, crime.MaxPayout, MaxPayoutCeiling)
	case crime.SuccessRate < 0 || crime.SuccessRate > 1:
		return fmt.Errorf("%w: %s success rate %v", domain.ErrInvalidCrime, crime.ID, crime.SuccessRate)
	}
	return nil
}

func (c *Catalog) All() []domain.CrimeDefinition {
	return append([]domain.CrimeDefinition(nil), c.crimes...)
}

func (c *Catalog) Get(id string) (domain.CrimeDefinition, bool) {
	i, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return domain.CrimeDefinition{}, false
	}
	return c.crimes[i], true
}

func (c *Catalog) Templates(kind domain.TemplateKind) []string {
	return c.templates[kind]
}

var _ domain.CrimeCatalog = (*Catalog)(nil)
