// Package catalog holds the static content shown by the bot: location
// and project cards. Content is immutable after Load.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var embeddedContent []byte

// Kind selects one of the two parallel catalogs.
type Kind string

const (
	// Locations is the catalog of districts and cottage villages.
	Locations Kind = "locations"
	// Projects is the catalog of house projects with prices.
	Projects Kind = "projects"
)

// Entry is a single location or project card.
type Entry struct {
	Name    string `yaml:"name"`
	Caption string `yaml:"caption"`
	// Image is an optional photo URL shown with the card.
	Image string `yaml:"image"`
	// Presentation is an optional PDF link exposed as a URL button.
	Presentation string `yaml:"presentation"`
}

// Catalog is the full static content set, loaded once at process start.
type Catalog struct {
	locations []Entry
	projects  []Entry
}

type contentFile struct {
	Locations []Entry `yaml:"locations"`
	Projects  []Entry `yaml:"projects"`
}

// Load reads catalog content from path, or falls back to the embedded
// defaults when path is empty.
func Load(path string) (*Catalog, error) {
	data := embeddedContent
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", path, err)
		}
		data = fileData
	}
	return Parse(data)
}

// Parse decodes YAML catalog content and validates entry names.
func Parse(data []byte) (*Catalog, error) {
	var cf contentFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if err := validate(cf.Locations); err != nil {
		return nil, fmt.Errorf("catalog: locations: %w", err)
	}
	if err := validate(cf.Projects); err != nil {
		return nil, fmt.Errorf("catalog: projects: %w", err)
	}
	return &Catalog{locations: cf.Locations, projects: cf.Projects}, nil
}

func validate(entries []Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return fmt.Errorf("entry %d has empty name", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate entry name %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Entries returns the entries of the given kind in declaration order.
// The slice must not be mutated by callers.
func (c *Catalog) Entries(kind Kind) []Entry {
	switch kind {
	case Projects:
		return c.projects
	default:
		return c.locations
	}
}

// Lookup finds an entry by display name. A miss is a normal result: the
// caller presents a "раздел скоро появится" fallback instead of an error.
func (c *Catalog) Lookup(kind Kind, name string) (Entry, bool) {
	name = strings.TrimSpace(name)
	for _, e := range c.Entries(kind) {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Has reports whether any entry of the kind carries the given name.
func (c *Catalog) Has(kind Kind, name string) bool {
	_, ok := c.Lookup(kind, name)
	return ok
}
