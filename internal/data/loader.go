package data

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/oops"
	"github.com/suderio/dreamland/internal/engine"
	"gopkg.in/yaml.v3"
)

//go:embed catalog/*.yaml
var embedded embed.FS

// Sections names the catalog files, without extension, in load order.
var Sections = []string{"player", "creatures", "skills", "items", "recipes", "structures", "quests", "spawns"}

// Embedded returns the built-in yaml of a section.
func Embedded(section string) ([]byte, error) {
	b, err := embedded.ReadFile("catalog/" + section + ".yaml")
	if err != nil {
		return nil, oops.Wrapf(err, "read embedded %s", section)
	}
	return b, nil
}

// Loader reads content catalogs through a directory fallback hierarchy.
// The first directory holding a file wins; the embedded catalog is the last
// resort.
type Loader struct {
	dataDirs []string
}

// NewLoader initializes a loader with the given data directory hierarchy.
func NewLoader(dataDirs []string) *Loader {
	return &Loader{
		dataDirs: dataDirs,
	}
}

// Load assembles and validates a full catalog.
func (l *Loader) Load() (*Catalog, error) {
	c := &Catalog{}
	sections := []struct {
		file   string
		target any
	}{
		{"player.yaml", &c.Player},
		{"creatures.yaml", &c.Creatures},
		{"skills.yaml", &c.Skills},
		{"items.yaml", &c.Items},
		{"recipes.yaml", &c.Recipes},
		{"structures.yaml", &c.Structures},
		{"quests.yaml", &c.Quests},
		{"spawns.yaml", &c.Spawns},
	}
	for _, s := range sections {
		if err := l.load(s.file, s.target); err != nil {
			return nil, err
		}
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return NewLoader(nil).Load()
}

func (l *Loader) load(ref string, target any) error {
	for _, dir := range l.dataDirs {
		path := filepath.Join(dir, ref)
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		defer f.Close()
		return decode(f, ref, path, target)
	}

	f, err := embedded.Open("catalog/" + ref)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return oops.Wrapf(err, "open embedded %s", ref)
	}
	defer f.Close()
	return decode(f, ref, "embedded", target)
}

func decode(r io.Reader, ref, origin string, target any) error {
	if err := yaml.NewDecoder(r).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return oops.With("origin", origin).Wrapf(err, "decode %s", ref)
	}
	return nil
}

func (c *Catalog) normalize() {
	if c.Creatures == nil {
		c.Creatures = make(map[string]engine.ActorState)
	}
	if c.Skills == nil {
		c.Skills = make(map[string]Skill)
	}
	if c.Items == nil {
		c.Items = make(map[string]Item)
	}
	if c.Recipes == nil {
		c.Recipes = make(map[string]Recipe)
	}
	if c.Structures == nil {
		c.Structures = make(map[string]Structure)
	}
	c.Player.Normalize()
	for id, tpl := range c.Creatures {
		tpl.Normalize()
		c.Creatures[id] = tpl
	}
}

// Validate checks cross references between tables.
func (c *Catalog) Validate() error {
	var errs []error
	for _, id := range sortedKeys(c.Creatures) {
		tpl := c.Creatures[id]
		if ParseSize(string(tpl.Size)) == "" {
			errs = append(errs, fmt.Errorf("creature %s: unknown size %q", id, tpl.Size))
		}
		if ParseBehavior(string(tpl.Behavior)) == "" {
			errs = append(errs, fmt.Errorf("creature %s: unknown behavior %q", id, tpl.Behavior))
		}
	}
	for _, id := range sortedKeys(c.Recipes) {
		r := c.Recipes[id]
		if r.Output == "" {
			errs = append(errs, fmt.Errorf("recipe %s: no output", id))
		}
		if len(r.Ingredients) == 0 {
			errs = append(errs, fmt.Errorf("recipe %s: no ingredients", id))
		}
	}
	for _, id := range sortedKeys(c.Structures) {
		if len(c.Structures[id].Materials) == 0 {
			errs = append(errs, fmt.Errorf("structure %s: no materials", id))
		}
	}
	seen := make(map[string]bool)
	for _, s := range c.Spawns {
		if _, ok := c.Creatures[s.Template]; !ok {
			errs = append(errs, fmt.Errorf("spawn %s: unknown template %q", s.ID, s.Template))
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("spawn %s: duplicate id", s.ID))
		}
		seen[s.ID] = true
	}
	for _, q := range c.Quests {
		if q.ID == "" || q.Condition == "" {
			errs = append(errs, fmt.Errorf("quest %q: id and condition are required", q.ID))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return oops.Wrapf(err, "invalid catalog")
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
