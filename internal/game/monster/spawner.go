package monster

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/ecs"
)

// Sink receives monsters whose creation must wait until the world is not
// being iterated. *ecs.CommandBuffer implements it.
type Sink interface {
	Push(b ecs.MonsterBundle)
}

// Spawner instantiates monster entities from the catalog.
type Spawner struct {
	src    dice.Source
	logger *zap.Logger
	newID  func() uuid.UUID
}

// NewSpawner creates a Spawner that picks respawn coordinates with src.
//
// Precondition: src and logger must be non-nil.
func NewSpawner(src dice.Source, logger *zap.Logger) *Spawner {
	return &Spawner{src: src, logger: logger, newID: uuid.New}
}

// SpawnInitial creates one monster for every (map, monster type, spawn
// coordinate) in table. All bundles are built before any entity is created,
// so a catalog mismatch leaves w untouched.
//
// Precondition: w must not be mid-iteration.
// Postcondition: Returns the number of monsters created, or an error naming
// the first monster type missing from catalog.
func (s *Spawner) SpawnInitial(w donburi.World, catalog Catalog, table SpawnTable) (int, error) {
	s.logger.Info("spawning initial monsters", zap.Int("maps", len(table)))

	var bundles []ecs.MonsterBundle
	for _, mapName := range table.Maps() {
		for _, group := range table[mapName].Monsters {
			tmpl, ok := catalog.Get(group.MonsterType)
			if !ok {
				return 0, fmt.Errorf("map %q: monster %q missing from monster catalog", mapName, group.MonsterType)
			}
			for _, c := range group.SpawnPositions {
				b := tmpl.Bundle(s.newID(), mapName, c)
				s.logger.Debug("spawned monster",
					zap.String("monster_type", tmpl.Type),
					zap.String("id", b.Details.ID.String()),
					zap.String("map", mapName),
					zap.Uint32("x", c.X),
					zap.Uint32("y", c.Y),
				)
				bundles = append(bundles, b)
			}
		}
	}

	for _, b := range bundles {
		ecs.CreateMonster(w, b)
	}
	s.logger.Info("initial monster population complete", zap.Int("count", len(bundles)))
	return len(bundles), nil
}

// SpawnSingle queues one monster of monsterType on mapName at a coordinate
// chosen uniformly among every coordinate configured for that type there.
// A map without spawn rules, a type missing from the catalog, or a type
// without coordinates is a configuration error and is logged at Fatal.
//
// Postcondition: exactly one bundle is pushed to sink.
func (s *Spawner) SpawnSingle(catalog Catalog, table SpawnTable, mapName, monsterType string, sink Sink) uuid.UUID {
	tmpl, ok := catalog.Get(monsterType)
	if !ok {
		s.logger.Fatal("monster missing from monster catalog", zap.String("monster_type", monsterType))
		return uuid.Nil
	}
	coords, ok := table.PositionsFor(mapName, monsterType)
	if !ok {
		s.logger.Fatal("map has no spawn rules", zap.String("map", mapName), zap.String("monster_type", monsterType))
		return uuid.Nil
	}
	if len(coords) == 0 {
		s.logger.Fatal("monster has no spawn positions on map", zap.String("map", mapName), zap.String("monster_type", monsterType))
		return uuid.Nil
	}

	c := dice.Pick(s.src, coords)
	b := tmpl.Bundle(s.newID(), mapName, c)
	sink.Push(b)
	s.logger.Info("spawned monster",
		zap.String("monster_type", monsterType),
		zap.String("id", b.Details.ID.String()),
		zap.String("map", mapName),
		zap.Uint32("x", c.X),
		zap.Uint32("y", c.Y),
	)
	return b.Details.ID
}
