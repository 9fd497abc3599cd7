// Package monster loads monster templates and populates maps with monster
// entities, both at startup and on respawn.
package monster

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/ecs"
)

// Template is a monster archetype loaded from one file in the assets
// directory. Type is the file's base name.
type Template struct {
	Type      string             `yaml:"-"`
	Display   ecs.DisplayDetails `yaml:"display_details"`
	Stats     ecs.Stats          `yaml:"stats"`
	Inventory ecs.Inventory      `yaml:"inventory"`
	// RespawnDelay is a duration string ("30s", "5m"). Empty means the
	// configured server default applies.
	RespawnDelay string `yaml:"respawn_delay"`
}

// Validate checks that the template satisfies basic invariants.
//
// Postcondition: Returns nil iff Type is non-empty, MaxHP > 0, Level >= 1,
// the weapon damage (if any) parses and RespawnDelay (if any) parses.
func (t *Template) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("monster template: type must not be empty")
	}
	if t.Stats.MaxHP <= 0 {
		return fmt.Errorf("monster template %q: stats.max_hp must be > 0", t.Type)
	}
	if t.Stats.Level < 1 {
		return fmt.Errorf("monster template %q: stats.level must be >= 1", t.Type)
	}
	if t.Inventory.Weapon.Damage != "" {
		if _, err := dice.Parse(t.Inventory.Weapon.Damage); err != nil {
			return fmt.Errorf("monster template %q: inventory.weapon.damage: %w", t.Type, err)
		}
	}
	if t.RespawnDelay != "" {
		if _, err := time.ParseDuration(t.RespawnDelay); err != nil {
			return fmt.Errorf("monster template %q: respawn_delay %q is not a valid duration: %w", t.Type, t.RespawnDelay, err)
		}
	}
	return nil
}

// Respawn returns the parsed RespawnDelay, or (0, false) when unset.
func (t *Template) Respawn() (time.Duration, bool) {
	if t.RespawnDelay == "" {
		return 0, false
	}
	d, err := time.ParseDuration(t.RespawnDelay)
	if err != nil {
		return 0, false
	}
	return d, true
}

// Bundle clones the template into a new monster placed at c on mapName.
//
// Postcondition: SpawnPosition == Position, velocity is zero, and the
// returned bundle shares no state with t.
func (t *Template) Bundle(id uuid.UUID, mapName string, c Coord) ecs.MonsterBundle {
	pos := ecs.Position{
		X:          c.X,
		Y:          c.Y,
		CurrentMap: mapName,
	}
	return ecs.MonsterBundle{
		Details: ecs.MonsterDetails{
			ID:            id,
			MonsterType:   t.Type,
			SpawnPosition: pos,
		},
		Display:   t.Display,
		Position:  pos,
		Stats:     t.Stats,
		Inventory: t.Inventory,
	}
}

// LoadTemplateFromBytes parses a template named monsterType from YAML (or
// JSON) bytes.
//
// Postcondition: Returns a validated *Template whose CurrentHP defaults to MaxHP.
func LoadTemplateFromBytes(monsterType string, data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing monster template %q: %w", monsterType, err)
	}
	tmpl.Type = monsterType
	if tmpl.Stats.CurrentHP == 0 {
		tmpl.Stats.CurrentHP = tmpl.Stats.MaxHP
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// Catalog maps monster type to its template. It is read-only after loading.
type Catalog map[string]*Template

// Get returns the template for monsterType.
func (c Catalog) Get(monsterType string) (*Template, bool) {
	t, ok := c[monsterType]
	return t, ok
}

// Types returns the catalogued monster types in sorted order.
func (c Catalog) Types() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var templateExts = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// LoadCatalog reads every template file in dir. The key of each template is
// the file name up to its first dot, so "giant_rat.yaml" defines "giant_rat".
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns the full catalog, or an error naming the first file
// that could not be read or parsed; on error nothing is returned.
func LoadCatalog(dir string) (Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading monster dir %q: %w", dir, err)
	}

	catalog := make(Catalog)
	for _, entry := range entries {
		if entry.IsDir() || !templateExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		monsterType, _, _ := strings.Cut(entry.Name(), ".")

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		tmpl, err := LoadTemplateFromBytes(monsterType, data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := catalog[monsterType]; dup {
			return nil, fmt.Errorf("loading %q: duplicate monster type %q", path, monsterType)
		}
		catalog[monsterType] = tmpl
	}
	return catalog, nil
}
