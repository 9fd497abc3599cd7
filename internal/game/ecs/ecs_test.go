package ecs_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"

	"github.com/cory-johannsen/dungeon/internal/game/ecs"
)

func TestIdentityOf_Player(t *testing.T) {
	w := donburi.NewWorld()
	id := uuid.New()
	e := ecs.CreatePlayer(w, ecs.PlayerBundle{
		Details: ecs.PlayerDetails{ID: id, PlayerName: "alice", ClientAddr: "10.0.0.1:5000", CurrentlyOnline: true},
	})

	ident, ok := ecs.IdentityOf(w.Entry(e))
	require.True(t, ok)
	assert.Equal(t, ecs.KindPlayer, ident.Kind)
	assert.Equal(t, id, ident.ID)
	assert.Equal(t, "alice", ident.Name)
	assert.Equal(t, "10.0.0.1:5000", ident.ClientAddr)
	assert.True(t, ident.Online)
}

func TestIdentityOf_Monster(t *testing.T) {
	w := donburi.NewWorld()
	id := uuid.New()
	e := ecs.CreateMonster(w, ecs.MonsterBundle{Details: ecs.MonsterDetails{ID: id, MonsterType: "rat"}})

	ident, ok := ecs.IdentityOf(w.Entry(e))
	require.True(t, ok)
	assert.Equal(t, ecs.KindMonster, ident.Kind)
	assert.Equal(t, "rat", ident.Name)
	assert.Empty(t, ident.ClientAddr)
	assert.True(t, ident.Online)
}

func TestIdentityOf_Neither(t *testing.T) {
	w := donburi.NewWorld()
	e := w.Create(ecs.StatsComponent)
	_, ok := ecs.IdentityOf(w.Entry(e))
	assert.False(t, ok)
}

func TestCombatantFilter_ExcludesBareEntities(t *testing.T) {
	w := donburi.NewWorld()
	ecs.CreateMonster(w, ecs.MonsterBundle{Details: ecs.MonsterDetails{ID: uuid.New()}})
	ecs.CreatePlayer(w, ecs.PlayerBundle{Details: ecs.PlayerDetails{ID: uuid.New()}})
	w.Create(ecs.StatsComponent, ecs.InventoryComponent)

	q := donburi.NewQuery(ecs.CombatantFilter())
	assert.Equal(t, 2, q.Count(w))
}

func TestCreateMonster_StoresComponents(t *testing.T) {
	w := donburi.NewWorld()
	e := ecs.CreateMonster(w, ecs.MonsterBundle{
		Details:   ecs.MonsterDetails{ID: uuid.New(), MonsterType: "rat"},
		Position:  ecs.Position{X: 3, Y: 4, CurrentMap: "town"},
		Stats:     ecs.Stats{CurrentHP: 10, MaxHP: 10, Level: 2},
		Inventory: ecs.Inventory{Gold: 7},
	})
	entry := w.Entry(e)
	assert.Equal(t, uint32(3), ecs.PositionComponent.Get(entry).X)
	assert.Equal(t, float32(10), ecs.StatsComponent.Get(entry).CurrentHP)
	assert.Equal(t, uint32(7), ecs.InventoryComponent.Get(entry).Gold)
}

func TestCommandBuffer_FlushCreatesAndEmpties(t *testing.T) {
	w := donburi.NewWorld()
	buf := ecs.NewCommandBuffer()
	buf.Push(ecs.MonsterBundle{Details: ecs.MonsterDetails{ID: uuid.New(), MonsterType: "rat"}})
	buf.Push(ecs.MonsterBundle{Details: ecs.MonsterDetails{ID: uuid.New(), MonsterType: "bat"}})
	require.Equal(t, 2, buf.Len())
	assert.Equal(t, 0, w.Len())

	created := buf.Flush(w)
	assert.Len(t, created, 2)
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, buf.Flush(w))
}

func TestPosition_StopClearsVelocity(t *testing.T) {
	p := ecs.Position{VelocityX: 1, VelocityY: -1}
	require.True(t, p.HasVelocity())
	p.Stop()
	assert.False(t, p.HasVelocity())
}

func TestInventory_CopyIsIndependent(t *testing.T) {
	inv := ecs.Inventory{Gold: 5, Weapon: ecs.Weapon{Name: "club", Damage: "1d4"}}
	cp := inv
	cp.Gold += 10
	cp.Weapon.Name = "sword"
	assert.Equal(t, uint32(5), inv.Gold)
	assert.Equal(t, "club", inv.Weapon.Name)
}
