package gameserver_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/ecs"
	"github.com/cory-johannsen/dungeon/internal/game/monster"
	"github.com/cory-johannsen/dungeon/internal/gameserver"
	"github.com/cory-johannsen/dungeon/internal/transport"
)

type fixture struct {
	engine   *gameserver.Engine
	world    donburi.World
	out      chan transport.Envelope
	progress chan combat.Progress
}

func newFixture(t *testing.T, damage float32, logger *zap.Logger) *fixture {
	t.Helper()
	rat := &monster.Template{
		Type:         "rat",
		Stats:        ecs.Stats{CurrentHP: 10, MaxHP: 10, Level: 4},
		Inventory:    ecs.Inventory{Gold: 20},
		RespawnDelay: "30s",
	}
	catalog := monster.Catalog{"rat": rat}
	spawns := monster.SpawnTable{
		"town": {Monsters: []monster.SpawnGroup{{MonsterType: "rat", SpawnPositions: []monster.Coord{{X: 2, Y: 1}}}}},
	}
	w := donburi.NewWorld()
	spawner := monster.NewSpawner(dice.NewSeededSource(1), logger)
	_, err := spawner.SpawnInitial(w, catalog, spawns)
	require.NoError(t, err)

	out := make(chan transport.Envelope, 16)
	progress := make(chan combat.Progress, 16)
	e := gameserver.NewEngine(gameserver.EngineConfig{
		ServerName:   "test",
		World:        w,
		DefaultMap:   "Home",
		Catalog:      catalog,
		Spawns:       spawns,
		Spawner:      spawner,
		Formula:      combat.FormulaFunc(func(_, _ combat.Snapshot) float32 { return damage }),
		Notifier:     combat.NewNotifier(out, logger),
		RespawnDelay: time.Minute,
		Progress:     progress,
	}, logger)
	return &fixture{engine: e, world: w, out: out, progress: progress}
}

func (f *fixture) addPlayer(vx int32) uuid.UUID {
	id := uuid.New()
	f.engine.Do(func(w donburi.World) {
		ecs.CreatePlayer(w, ecs.PlayerBundle{
			Details:  ecs.PlayerDetails{ID: id, PlayerName: "alice", ClientAddr: "10.0.0.2:4000", CurrentlyOnline: true},
			Position: ecs.Position{X: 1, Y: 1, CurrentMap: "town", VelocityX: vx},
			Stats:    ecs.Stats{CurrentHP: 20, MaxHP: 20, Level: 1},
		})
	})
	return id
}

func (f *fixture) monsters() int {
	n := 0
	f.engine.Do(func(w donburi.World) {
		n = donburi.NewQuery(filter.Contains(ecs.MonsterComponent)).Count(w)
	})
	return n
}

func TestEngine_KillRewardsPersistsAndRespawns(t *testing.T) {
	f := newFixture(t, 11, zap.NewNop())
	aliceID := f.addPlayer(1)
	start := time.Now()

	res := f.engine.Tick(start)
	assert.Equal(t, 1, res.Pairings)
	assert.Equal(t, 1, res.Progress)
	assert.Equal(t, 1, res.Reaped)
	assert.Zero(t, f.monsters(), "dead rat is removed in the same tick")
	assert.Equal(t, 1, f.engine.PendingRespawns())

	require.Len(t, f.progress, 1)
	p := <-f.progress
	assert.Equal(t, combat.Progress{PlayerID: aliceID, PlayerName: "alice", Exp: 4 * combat.MonsterExpMultiplicationFactor, Gold: 20}, p)

	require.Len(t, f.out, 1)
	env := <-f.out
	assert.Equal(t, []string{"10.0.0.2:4000"}, env.Recipients)

	// Before the template's delay nothing respawns.
	res = f.engine.Tick(start.Add(10 * time.Second))
	assert.Zero(t, res.Respawned)
	assert.Zero(t, f.monsters())

	// Due respawns are queued, then created at the start of the next tick.
	res = f.engine.Tick(start.Add(30 * time.Second))
	assert.Equal(t, 1, res.Respawned)
	assert.Zero(t, f.monsters())
	res = f.engine.Tick(start.Add(31 * time.Second))
	assert.Equal(t, 1, res.Spawned)
	assert.Equal(t, 1, f.monsters())
}

func TestEngine_NoMovementNoCombat(t *testing.T) {
	f := newFixture(t, 11, zap.NewNop())
	f.addPlayer(0)

	res := f.engine.Tick(time.Now())
	assert.Zero(t, res.Pairings)
	assert.Empty(t, f.out)
	assert.Equal(t, 1, f.monsters())
}

func TestEngine_AttackStopsMovementAndNextTickIsQuiet(t *testing.T) {
	f := newFixture(t, 3, zap.NewNop())
	f.addPlayer(1)

	res := f.engine.Tick(time.Now())
	assert.Equal(t, 1, res.Pairings)
	assert.Zero(t, res.Reaped)

	res = f.engine.Tick(time.Now())
	assert.Zero(t, res.Pairings, "velocity was zeroed by the attack")
	assert.Len(t, f.out, 1)
}

func TestEngine_SpawnSingleCreatesOnNextTick(t *testing.T) {
	f := newFixture(t, 0, zap.NewNop())
	id := f.engine.SpawnSingle("town", "rat")
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, 1, f.monsters())

	res := f.engine.Tick(time.Now())
	assert.Equal(t, 1, res.Spawned)
	assert.Equal(t, 2, f.monsters())
}

func TestEngine_SpawnSingleUnknownMapIsFatal(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := newFixture(t, 0, zap.New(core, zap.WithFatalHook(zapcore.WriteThenPanic)))

	assert.Panics(t, func() { f.engine.SpawnSingle("atlantis", "rat") })
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.FatalLevel).Len())
}

func TestEngine_FullProgressChannelWarns(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := newFixture(t, 11, zap.New(core))
	for i := 0; i < cap(f.progress); i++ {
		f.progress <- combat.Progress{PlayerID: uuid.New()}
	}
	f.addPlayer(1)

	f.engine.Tick(time.Now())
	assert.Equal(t, 1, logs.FilterMessage("progress channel full, dropping record").Len())
}
