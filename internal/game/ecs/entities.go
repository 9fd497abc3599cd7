package ecs

import (
	"sync"

	"github.com/yohamta/donburi"
)

// MonsterBundle is the full component set of a monster entity.
type MonsterBundle struct {
	Details   MonsterDetails
	Display   DisplayDetails
	Position  Position
	Stats     Stats
	Inventory Inventory
}

// PlayerBundle is the full component set of a player entity.
type PlayerBundle struct {
	Details   PlayerDetails
	Display   DisplayDetails
	Position  Position
	Stats     Stats
	Inventory Inventory
}

// CreateMonster inserts a monster entity into w.
//
// Precondition: w must not be mid-iteration.
func CreateMonster(w donburi.World, b MonsterBundle) donburi.Entity {
	entity := w.Create(MonsterComponent, DisplayComponent, PositionComponent, StatsComponent, InventoryComponent)
	entry := w.Entry(entity)
	MonsterComponent.SetValue(entry, b.Details)
	DisplayComponent.SetValue(entry, b.Display)
	PositionComponent.SetValue(entry, b.Position)
	StatsComponent.SetValue(entry, b.Stats)
	InventoryComponent.SetValue(entry, b.Inventory)
	return entity
}

// CreatePlayer inserts a player entity into w.
//
// Precondition: w must not be mid-iteration.
func CreatePlayer(w donburi.World, b PlayerBundle) donburi.Entity {
	entity := w.Create(PlayerComponent, DisplayComponent, PositionComponent, StatsComponent, InventoryComponent)
	entry := w.Entry(entity)
	PlayerComponent.SetValue(entry, b.Details)
	DisplayComponent.SetValue(entry, b.Display)
	PositionComponent.SetValue(entry, b.Position)
	StatsComponent.SetValue(entry, b.Stats)
	InventoryComponent.SetValue(entry, b.Inventory)
	return entity
}

// CommandBuffer queues monster creations until the world is safe to mutate.
// Push is safe for concurrent use; Flush must run between ticks.
type CommandBuffer struct {
	mu      sync.Mutex
	pending []MonsterBundle
}

// NewCommandBuffer returns an empty CommandBuffer.
func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{}
}

// Push queues b for creation on the next Flush.
func (c *CommandBuffer) Push(b MonsterBundle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, b)
}

// Len returns the number of queued creations.
func (c *CommandBuffer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Flush creates every queued monster in w in push order and empties the buffer.
//
// Postcondition: Len() == 0.
func (c *CommandBuffer) Flush(w donburi.World) []donburi.Entity {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	created := make([]donburi.Entity, 0, len(pending))
	for _, b := range pending {
		created = append(created, CreateMonster(w, b))
	}
	return created
}
