// Package ecs binds the game's components to the donburi entity-component
// store and provides the identity and deferred-creation helpers shared by
// the tick systems.
package ecs

import (
	"github.com/google/uuid"
	"github.com/yohamta/donburi"
)

// Position locates an entity on a map and carries the move it is attempting
// this tick.
type Position struct {
	// UpdateAvailable marks the position dirty for network sync.
	UpdateAvailable bool
	X               uint32
	Y               uint32
	CurrentMap      string
	VelocityX       int32
	VelocityY       int32
}

// HasVelocity reports whether the entity is attempting a move.
func (p Position) HasVelocity() bool {
	return p.VelocityX != 0 || p.VelocityY != 0
}

// Stop cancels the attempted move.
func (p *Position) Stop() {
	p.VelocityX = 0
	p.VelocityY = 0
}

// Stats holds the combat-relevant attributes of an entity.
//
// Invariant: an entity with CurrentHP <= 0 is dead.
type Stats struct {
	UpdateAvailable bool    `yaml:"-"`
	CurrentHP       float32 `yaml:"current_hp"`
	MaxHP           float32 `yaml:"max_hp"`
	Str             float32 `yaml:"str"`
	Dex             float32 `yaml:"dex"`
	Con             float32 `yaml:"con"`
	Level           uint32  `yaml:"level"`
	Exp             uint32  `yaml:"exp"`
	ExpNext         uint32  `yaml:"exp_next"`
}

// IsDead reports whether the entity has zero or fewer hit points.
func (s Stats) IsDead() bool {
	return s.CurrentHP <= 0
}

// Weapon is the equipped weapon. Damage is a dice expression such as "1d6+1".
type Weapon struct {
	Name   string `yaml:"name"`
	Damage string `yaml:"damage"`
}

// Armour is the equipped armour.
type Armour struct {
	Name    string  `yaml:"name"`
	Defence float32 `yaml:"defence"`
}

// Inventory holds gold and equipment. All fields are values so that a copy
// of an Inventory shares nothing with the original.
type Inventory struct {
	UpdateAvailable bool   `yaml:"-"`
	Gold            uint32 `yaml:"gold"`
	Weapon          Weapon `yaml:"weapon"`
	Armour          Armour `yaml:"armour"`
}

// PlayerDetails identifies a client-controlled entity.
type PlayerDetails struct {
	ID              uuid.UUID
	PlayerName      string
	ClientAddr      string
	CurrentlyOnline bool
}

// MonsterDetails identifies a server-controlled entity.
type MonsterDetails struct {
	ID          uuid.UUID `yaml:"-"`
	MonsterType string    `yaml:"monster_type"`
	// SpawnPosition is where the monster was placed, kept for respawns.
	SpawnPosition Position `yaml:"-"`
}

// DisplayDetails is presentation metadata forwarded to clients untouched.
type DisplayDetails struct {
	Icon       string `yaml:"icon"`
	Colour     string `yaml:"colour"`
	Visible    bool   `yaml:"visible"`
	Collidable bool   `yaml:"collidable"`
}

var (
	PositionComponent  = donburi.NewComponentType[Position]()
	StatsComponent     = donburi.NewComponentType[Stats]()
	InventoryComponent = donburi.NewComponentType[Inventory]()
	PlayerComponent    = donburi.NewComponentType[PlayerDetails]()
	MonsterComponent   = donburi.NewComponentType[MonsterDetails]()
	DisplayComponent   = donburi.NewComponentType[DisplayDetails]()
)
