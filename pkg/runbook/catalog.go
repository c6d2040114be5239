package runbook

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/helmcode/ml-reasoning-assistant/pkg/model"
)

// Catalog maps scenario slugs to runbook URLs. It is loaded once at startup
// and never modified afterwards.
type Catalog struct {
	links map[string]string
}

type file struct {
	Runbooks []struct {
		Slug string `yaml:"slug"`
		URL  string `yaml:"url"`
	} `yaml:"runbooks"`
}

// Load reads a catalog from a YAML file:
//
//	runbooks:
//	  - slug: feature-nulls
//	    url: https://runbooks.example.com/feature-nulls
//
// An empty path yields an empty catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return New(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read runbook catalog: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse runbook catalog %s: %w", path, err)
	}

	links := make(map[string]string, len(f.Runbooks))
	for _, rb := range f.Runbooks {
		if rb.Slug == "" || rb.URL == "" {
			return nil, fmt.Errorf("runbook catalog %s: entries need both slug and url", path)
		}
		links[rb.Slug] = rb.URL
	}
	return New(links), nil
}

func New(links map[string]string) *Catalog {
	return &Catalog{links: lo.Assign(links)}
}

// URL returns the runbook for slug, or "".
func (c *Catalog) URL(slug string) string {
	if c == nil {
		return ""
	}
	return c.links[slug]
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.links)
}

// Annotate returns copies of scenarios with RunbookURL filled from the catalog.
func (c *Catalog) Annotate(scenarios []model.Scenario) []model.Scenario {
	return lo.Map(scenarios, func(s model.Scenario, _ int) model.Scenario {
		if url := c.URL(s.Slug); url != "" {
			s.RunbookURL = url
		}
		return s
	})
}
