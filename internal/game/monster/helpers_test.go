package monster_test

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/dungeon/internal/game/ecs"
	"github.com/cory-johannsen/dungeon/internal/game/monster"
)

// newFatalPanicLogger returns a logger whose Fatal panics instead of exiting,
// plus the observed entries.
func newFatalPanicLogger(t testing.TB) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core, zap.WithFatalHook(zapcore.WriteThenPanic)), logs
}

func makeTemplate(monsterType string, level uint32, hp float32, gold uint32) *monster.Template {
	return &monster.Template{
		Type:      monsterType,
		Display:   ecs.DisplayDetails{Icon: "r", Visible: true, Collidable: true},
		Stats:     ecs.Stats{CurrentHP: hp, MaxHP: hp, Level: level, Str: 2, Dex: 2, Con: 2},
		Inventory: ecs.Inventory{Gold: gold, Weapon: ecs.Weapon{Name: "teeth", Damage: "1d2"}},
	}
}

func ratCatalog() monster.Catalog {
	return monster.Catalog{"rat": makeTemplate("rat", 1, 4, 2)}
}

func townTable(coords ...monster.Coord) monster.SpawnTable {
	return monster.SpawnTable{
		"town": {Monsters: []monster.SpawnGroup{{MonsterType: "rat", SpawnPositions: coords}}},
	}
}
