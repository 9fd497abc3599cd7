package monster_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/dungeon/internal/game/ecs"
	"github.com/cory-johannsen/dungeon/internal/game/monster"
)

func TestReaper_RemovesDeadAndSchedulesRespawn(t *testing.T) {
	w := donburi.NewWorld()
	tmpl := ratCatalog()["rat"]

	alive := tmpl.Bundle(uuid.New(), "town", monster.Coord{X: 1, Y: 1})
	dead := tmpl.Bundle(uuid.New(), "town", monster.Coord{X: 1, Y: 1})
	dead.Stats.CurrentHP = -1
	ecs.CreateMonster(w, alive)
	ecs.CreateMonster(w, dead)

	r := newScheduler(ratCatalog(), 10*time.Second)
	reaper := monster.NewReaper(r, zap.NewNop())
	now := time.Now()

	assert.Equal(t, 1, reaper.Reap(w, now))
	remaining := monsterEntries(w)
	require.Len(t, remaining, 1)
	assert.Equal(t, alive.Details.ID, ecs.MonsterComponent.Get(remaining[0]).ID)
	assert.Equal(t, 1, r.Pending())

	buf := ecs.NewCommandBuffer()
	assert.Equal(t, 1, r.Tick(now.Add(10*time.Second), buf))
	assert.Equal(t, 1, buf.Len())
}

func TestReaper_SkipsRespawnWithoutSpawnRule(t *testing.T) {
	w := donburi.NewWorld()
	b := ratCatalog()["rat"].Bundle(uuid.New(), "crypt", monster.Coord{X: 4, Y: 4})
	b.Stats.CurrentHP = 0
	ecs.CreateMonster(w, b)

	core, logs := observer.New(zap.DebugLevel)
	r := newScheduler(ratCatalog(), 10*time.Second)
	reaper := monster.NewReaper(r, zap.New(core))

	assert.Equal(t, 1, reaper.Reap(w, time.Now()))
	assert.Zero(t, w.Len())
	assert.Zero(t, r.Pending())
	assert.Equal(t, 1, logs.FilterMessage("dead monster has no spawn rule, not respawning").Len())
}

func TestReaper_IgnoresPlayers(t *testing.T) {
	w := donburi.NewWorld()
	ecs.CreatePlayer(w, ecs.PlayerBundle{
		Details: ecs.PlayerDetails{ID: uuid.New(), PlayerName: "ghost"},
		Stats:   ecs.Stats{CurrentHP: 0, MaxHP: 10, Level: 1},
	})
	reaper := monster.NewReaper(newScheduler(ratCatalog(), time.Second), zap.NewNop())
	assert.Zero(t, reaper.Reap(w, time.Now()))
	assert.Equal(t, 1, w.Len())
}
