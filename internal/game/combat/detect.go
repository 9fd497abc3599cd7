package combat

import (
	"math"

	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/ecs"
	"github.com/cory-johannsen/dungeon/internal/game/mapstate"
)

// Detector turns attempted moves into occupied tiles into combat pairings.
type Detector struct {
	query  *donburi.Query
	logger *zap.Logger
}

// NewDetector creates a Detector.
//
// Precondition: logger must be non-nil.
func NewDetector(logger *zap.Logger) *Detector {
	return &Detector{
		query:  donburi.NewQuery(ecs.MovingCombatantFilter()),
		logger: logger,
	}
}

// Detect scans every moving combatant in w. When the destination tile is
// occupied according to idx, the occupant becomes the defender, the mover
// becomes the attacker, a snapshot of the attacker's Stats and Inventory is
// taken, and the mover's velocity is zeroed.
//
// Precondition: idx reflects positions at the start of the tick and is not
// mutated here.
// Postcondition: Returns a new Detection owned by the caller.
func (d *Detector) Detect(w donburi.World, idx *mapstate.Index) *Detection {
	det := NewDetection()
	d.query.Each(w, func(entry *donburi.Entry) {
		pos := ecs.PositionComponent.Get(entry)
		if !pos.HasVelocity() {
			return
		}

		id, ok := ecs.IdentityOf(entry)
		if !ok {
			d.logger.Fatal("combatant is neither a player nor a monster", zap.Any("entity", entry.Entity()))
			return
		}

		x, y := Destination(*pos)
		state := idx.GetOrDefault(pos.CurrentMap, d.logger)
		colliding, occupant := state.IsCollidingWithEntity(x, y)
		if !colliding || occupant.ID == id.ID {
			return
		}

		attacker := Attacker(id)
		defender := Defender(occupant)
		if prev, ok := det.Parties[defender.ID]; ok {
			d.logger.Debug("defender already targeted this tick, last attacker wins",
				zap.String("defender", defender.ID.String()),
				zap.String("previous_attacker", prev.Attacker.ID.String()),
				zap.String("attacker", attacker.ID.String()),
			)
		}
		det.Parties[defender.ID] = Party{Defender: defender, Attacker: attacker}
		det.Snapshots[attacker.ID] = Snapshot{
			Stats:     *ecs.StatsComponent.Get(entry),
			Inventory: *ecs.InventoryComponent.Get(entry),
		}
		pos.Stop()

		d.logger.Debug("combat detected",
			zap.String("attacker", attacker.Name),
			zap.String("attacker_id", attacker.ID.String()),
			zap.String("defender", defender.Name),
			zap.String("defender_id", defender.ID.String()),
			zap.String("map", state.Name()),
			zap.Uint32("x", x),
			zap.Uint32("y", y),
		)
	})
	return det
}

// Destination returns the tile p is attempting to move to. Coordinates are
// clamped to the unsigned tile range.
func Destination(p ecs.Position) (x, y uint32) {
	return step(p.X, p.VelocityX), step(p.Y, p.VelocityY)
}

func step(c uint32, v int32) uint32 {
	n := int64(c) + int64(v)
	switch {
	case n < 0:
		return 0
	case n > math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(n)
	}
}
