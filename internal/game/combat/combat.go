// Package combat implements the per-tick combat pipeline: Detection pairs
// attackers with the defenders they moved into, Resolution applies damage
// and computes kill rewards, and Gain Application writes rewards back onto
// the attacking players.
//
// Each phase hands its per-tick context to the next one. A Detection is
// consumed by Resolve, and the Gains it returns are consumed by ApplyGains;
// neither outlives the tick.
package combat

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/dungeon/internal/game/ecs"
)

// MonsterExpMultiplicationFactor scales a killed monster's level into the
// experience awarded to its killer.
const MonsterExpMultiplicationFactor uint32 = 10

// Attacker is the entity that moved into an occupied tile this tick.
type Attacker ecs.Identity

// Defender is the occupant of the tile an attacker moved into. Two
// defenders are the same iff their IDs are equal.
type Defender ecs.Identity

// Party is one detected pairing.
type Party struct {
	Defender Defender
	Attacker Attacker
}

// Parties maps a defender ID to the pairing that targets it. At most one
// attacker per defender is kept; the last one detected wins.
type Parties map[uuid.UUID]Party

// Snapshot is a value copy of an entity's Stats and Inventory.
type Snapshot struct {
	Stats     ecs.Stats
	Inventory ecs.Inventory
}

// Snapshots maps an attacker ID to the state captured when its attack was
// detected.
type Snapshots map[uuid.UUID]Snapshot

// Detection is the output of one Detect pass.
type Detection struct {
	Parties   Parties
	Snapshots Snapshots
}

// NewDetection returns an empty Detection.
func NewDetection() *Detection {
	return &Detection{Parties: make(Parties), Snapshots: make(Snapshots)}
}

// Gains carries attacker snapshots, updated with kill rewards, from
// Resolution to Gain Application.
type Gains struct {
	Snapshots Snapshots
}

// Progress is the persisted outcome of gain application for one player.
type Progress struct {
	PlayerID   uuid.UUID
	PlayerName string
	Exp        uint32
	Gold       uint32
}
