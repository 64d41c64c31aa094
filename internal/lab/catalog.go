package lab

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/skillforge/labtel/internal/skills"
)

// LoadCatalog reads the static skill catalog from YAML:
//
//	skills:
//	  - id: fs-navigation
//	    name: Filesystem navigation
//	    description: Moving around and inspecting the filesystem.
//
// A missing file yields an empty catalog; queries then fall back to
// skill IDs for display names.
func LoadCatalog(path string) (skills.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return skills.Catalog{}, nil
		}
		return nil, fmt.Errorf("read skill catalog: %w", err)
	}

	var doc struct {
		Skills []skills.Skill `yaml:"skills"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode skill catalog: %w", err)
	}

	catalog := make(skills.Catalog, len(doc.Skills))
	for _, s := range doc.Skills {
		if s.ID == "" {
			return nil, fmt.Errorf("skill catalog: entry %q has no id", s.Name)
		}
		catalog[s.ID] = s
	}
	return catalog, nil
}
