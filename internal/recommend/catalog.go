package recommend

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/Dan9191/cashflow-service/internal/models"
)

// Situational buckets selected by runway.
const (
	BucketCrisis   = "crisis"
	BucketCautious = "cautious"
	BucketGrowth   = "growth"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog holds the plan templates for each bucket.
type Catalog struct {
	Crisis   []models.Plan `yaml:"crisis"`
	Cautious []models.Plan `yaml:"cautious"`
	Growth   []models.Plan `yaml:"growth"`
}

// defaultCatalog is parsed once at init; a malformed embedded file is a build defect.
var defaultCatalog = mustLoadCatalog(catalogYAML)

// LoadCatalog parses a YAML plan catalog. Every bucket must hold three templates.
func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog: %w", err)
	}
	for name, plans := range map[string][]models.Plan{
		BucketCrisis:   c.Crisis,
		BucketCautious: c.Cautious,
		BucketGrowth:   c.Growth,
	} {
		if len(plans) != 3 {
			return nil, fmt.Errorf("bucket %s has %d plans, want 3", name, len(plans))
		}
		for _, p := range plans {
			if p.ID == "" {
				return nil, fmt.Errorf("bucket %s has a plan without id", name)
			}
		}
	}
	return &c, nil
}

func mustLoadCatalog(data []byte) *Catalog {
	c, err := LoadCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Bucket returns copies of the templates for the named bucket.
func (c *Catalog) Bucket(name string) []models.Plan {
	var src []models.Plan
	switch name {
	case BucketCrisis:
		src = c.Crisis
	case BucketCautious:
		src = c.Cautious
	default:
		src = c.Growth
	}
	out := make([]models.Plan, len(src))
	for i, p := range src {
		p.Actions = append([]string(nil), p.Actions...)
		p.KPIs = append([]string(nil), p.KPIs...)
		out[i] = p
	}
	return out
}
