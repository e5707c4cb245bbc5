package shared

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const DefaultLocation = "San Francisco"

var defaultCategories = []string{
	"coffee", "pizza", "burger", "vegan", "bakery",
	"brunch", "sushi", "thai", "chinese", "indian",
	"mexican", "korean", "italian", "mediterranean", "seafood",
	"sandwiches", "ice cream", "bars", "bbq", "ramen",
}

// Catalog is the set of categories refreshed for one location.
type Catalog struct {
	Location   string   `toml:"location"`
	Categories []string `toml:"categories"`
}

// DefaultCatalog returns a fresh copy of the built-in catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Location:   DefaultLocation,
		Categories: append([]string(nil), defaultCategories...),
	}
}

// LoadCatalog reads a TOML catalog from path. Fields missing from the file
// fall back to the built-in defaults; an empty path returns the defaults.
func LoadCatalog(path string) (Catalog, error) {
	c := DefaultCatalog()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read catalog: %w", err)
	}
	var loaded Catalog
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return c, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if loc := strings.TrimSpace(loaded.Location); loc != "" {
		c.Location = loc
	}
	if len(loaded.Categories) > 0 {
		c.Categories = dedupe(loaded.Categories)
	}
	if len(c.Categories) == 0 {
		return c, fmt.Errorf("catalog %s lists no categories", path)
	}
	return c, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
