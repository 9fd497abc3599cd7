// Package mapstate indexes which entity occupies which tile of each map.
// An Index is built once per tick from the positions at tick start and is
// read-only afterwards.
package mapstate

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/ecs"
)

// Tile is a map coordinate.
type Tile struct {
	X uint32
	Y uint32
}

// MapState is the occupancy of a single map.
type MapState struct {
	name     string
	occupied map[Tile]ecs.Identity
}

// NewMapState returns an empty MapState for the named map.
func NewMapState(name string) *MapState {
	return &MapState{name: name, occupied: make(map[Tile]ecs.Identity)}
}

// Name returns the map name.
func (m *MapState) Name() string { return m.name }

// Occupy records id as the occupant of (x, y), replacing any previous one.
func (m *MapState) Occupy(x, y uint32, id ecs.Identity) {
	m.occupied[Tile{X: x, Y: y}] = id
}

// Len returns the number of occupied tiles.
func (m *MapState) Len() int { return len(m.occupied) }

// IsCollidingWithEntity reports whether an entity occupies (x, y) and, if so,
// which one.
//
// Postcondition: Returns (false, Identity{}) for an empty tile.
func (m *MapState) IsCollidingWithEntity(x, y uint32) (bool, ecs.Identity) {
	id, ok := m.occupied[Tile{X: x, Y: y}]
	return ok, id
}

// Index maps map names to their MapState.
type Index struct {
	defaultMap string
	maps       map[string]*MapState
}

// NewIndex returns an Index containing an empty state for defaultMap.
//
// Precondition: defaultMap must be non-empty.
func NewIndex(defaultMap string) *Index {
	idx := &Index{defaultMap: defaultMap, maps: make(map[string]*MapState)}
	idx.maps[defaultMap] = NewMapState(defaultMap)
	return idx
}

// DefaultMap returns the fallback map name.
func (idx *Index) DefaultMap() string { return idx.defaultMap }

// Ensure returns the state for name, creating it when absent.
func (idx *Index) Ensure(name string) *MapState {
	m, ok := idx.maps[name]
	if !ok {
		m = NewMapState(name)
		idx.maps[name] = m
	}
	return m
}

// Get returns the state for name.
//
// Postcondition: Returns (state, true) if name is indexed, or (nil, false).
func (idx *Index) Get(name string) (*MapState, bool) {
	m, ok := idx.maps[name]
	return m, ok
}

// GetOrDefault returns the state for name, falling back to the default map
// when name is unknown. The fallback signals inconsistent data and is logged,
// but never halts the caller.
//
// Postcondition: Returns a non-nil MapState.
func (idx *Index) GetOrDefault(name string, logger *zap.Logger) *MapState {
	if m, ok := idx.maps[name]; ok {
		return m
	}
	logger.Error("entity is located on a map that does not exist", zap.String("map", name))
	logger.Warn("falling back to the default map", zap.String("default_map", idx.defaultMap))
	return idx.maps[idx.defaultMap]
}

// Len returns the number of indexed maps.
func (idx *Index) Len() int { return len(idx.maps) }

// Build indexes every living player or monster in w by its current position.
// Dead entities and offline players never block a tile, so neither can be
// attacked.
//
// Precondition: no system may be mutating positions in w.
// Postcondition: the default map is always present in the returned Index.
func Build(w donburi.World, defaultMap string) *Index {
	idx := NewIndex(defaultMap)
	query := donburi.NewQuery(filter.And(
		filter.Contains(ecs.PositionComponent),
		ecs.PlayerOrMonster(),
	))
	query.Each(w, func(entry *donburi.Entry) {
		if entry.HasComponent(ecs.StatsComponent) && ecs.StatsComponent.Get(entry).IsDead() {
			return
		}
		if entry.HasComponent(ecs.PlayerComponent) && !ecs.PlayerComponent.Get(entry).CurrentlyOnline {
			return
		}
		id, ok := ecs.IdentityOf(entry)
		if !ok {
			return
		}
		pos := ecs.PositionComponent.Get(entry)
		idx.Ensure(pos.CurrentMap).Occupy(pos.X, pos.Y, id)
	})
	return idx
}
