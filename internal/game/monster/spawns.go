package monster

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Coord is a spawn coordinate on a map.
type Coord struct {
	X uint32 `yaml:"x"`
	Y uint32 `yaml:"y"`
}

// SpawnGroup lists where one monster type spawns on a map.
type SpawnGroup struct {
	MonsterType    string  `yaml:"monster_type"`
	SpawnPositions []Coord `yaml:"spawn_positions"`
}

// MapSpawns holds the spawn groups of one map.
type MapSpawns struct {
	Monsters []SpawnGroup `yaml:"monsters"`
}

// SpawnTable maps a map name to its population rules.
type SpawnTable map[string]MapSpawns

// Maps returns the map names in sorted order.
func (t SpawnTable) Maps() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PositionsFor returns every coordinate configured for monsterType on
// mapName, across all of that map's groups.
//
// Postcondition: ok is false iff mapName has no entry.
func (t SpawnTable) PositionsFor(mapName, monsterType string) (coords []Coord, ok bool) {
	spawns, ok := t[mapName]
	if !ok {
		return nil, false
	}
	for _, g := range spawns.Monsters {
		if g.MonsterType == monsterType {
			coords = append(coords, g.SpawnPositions...)
		}
	}
	return coords, true
}

// Validate checks that every group names a type present in catalog.
//
// Postcondition: Returns nil, or an error naming the first missing type.
func (t SpawnTable) Validate(catalog Catalog) error {
	for _, mapName := range t.Maps() {
		for _, g := range t[mapName].Monsters {
			if _, ok := catalog[g.MonsterType]; !ok {
				return fmt.Errorf("map %q: monster %q missing from monster catalog", mapName, g.MonsterType)
			}
		}
	}
	return nil
}

// LoadSpawnTableFromBytes parses a spawn table from YAML bytes.
func LoadSpawnTableFromBytes(data []byte) (SpawnTable, error) {
	var table SpawnTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing spawn table: %w", err)
	}
	if table == nil {
		table = make(SpawnTable)
	}
	return table, nil
}

// LoadSpawnTable reads the spawn table file at path.
//
// Postcondition: Returns a non-nil SpawnTable or an error.
func LoadSpawnTable(path string) (SpawnTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spawn table %q: %w", path, err)
	}
	table, err := LoadSpawnTableFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return table, nil
}
