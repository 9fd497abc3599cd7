package combat

import (
	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/ecs"
	"github.com/cory-johannsen/dungeon/internal/transport"
)

// Resolver applies the damage of each detected pairing.
type Resolver struct {
	query    *donburi.Query
	formula  Formula
	notifier *Notifier
	logger   *zap.Logger
}

// NewResolver creates a Resolver. notifier may be nil.
//
// Precondition: formula and logger must be non-nil.
func NewResolver(formula Formula, notifier *Notifier, logger *zap.Logger) *Resolver {
	return &Resolver{
		query:    donburi.NewQuery(ecs.CombatantFilter()),
		formula:  formula,
		notifier: notifier,
		logger:   logger,
	}
}

// Resolve consumes det. Every living combatant in w that is a defender in
// det.Parties takes one hit from its attacker, unless the attacker's
// snapshot is already dead. Snapshots are taken before any damage this tick,
// so an attacker killed earlier in the same pass still strikes. Killing a
// monster credits the attacker's snapshot with level ×
// MonsterExpMultiplicationFactor experience and the monster's gold.
//
// Precondition: det was produced by Detect for this tick.
// Postcondition: det.Parties is empty and det.Snapshots is nil; the returned
// Gains owns the attacker snapshots.
func (r *Resolver) Resolve(w donburi.World, det *Detection) *Gains {
	r.query.Each(w, func(entry *donburi.Entry) {
		stats := ecs.StatsComponent.Get(entry)
		if stats.IsDead() {
			return
		}
		id, ok := ecs.IdentityOf(entry)
		if !ok {
			r.logger.Fatal("combatant is neither a player nor a monster", zap.Any("entity", entry.Entity()))
			return
		}
		party, ok := det.Parties[id.ID]
		if !ok {
			return
		}
		delete(det.Parties, id.ID)

		attacker, ok := det.Snapshots[party.Attacker.ID]
		if !ok {
			r.logger.Error("no snapshot for attacker, skipping pairing",
				zap.String("attacker_id", party.Attacker.ID.String()),
				zap.String("defender_id", id.ID.String()),
			)
			return
		}
		if attacker.Stats.IsDead() {
			return
		}

		inv := ecs.InventoryComponent.Get(entry)
		damage := RoundDamage(r.formula.Damage(attacker, Snapshot{Stats: *stats, Inventory: *inv}))
		stats.CurrentHP -= damage

		var exp, gold uint32
		switch {
		case id.IsMonster() && stats.IsDead():
			exp = stats.Level * MonsterExpMultiplicationFactor
			gold = inv.Gold
			attacker.Stats.Exp += exp
			attacker.Inventory.Gold += gold
			attacker.Stats.UpdateAvailable = true
			det.Snapshots[party.Attacker.ID] = attacker
		case id.IsPlayer():
			stats.UpdateAvailable = true
		}

		r.logger.Info("combat resolved",
			zap.String("attacker", party.Attacker.Name),
			zap.String("defender", id.Name),
			zap.Float32("damage", damage),
			zap.Float32("defender_hp", stats.CurrentHP),
			zap.Uint32("exp", exp),
			zap.Uint32("gold", gold),
		)
		r.notifier.Notify(party, transport.CombatUpdate{
			DefenderID:   id.ID,
			DefenderName: id.Name,
			AttackerID:   party.Attacker.ID,
			AttackerName: party.Attacker.Name,
			Damage:       damage,
			DefenderHP:   stats.CurrentHP,
			Exp:          exp,
			Gold:         gold,
		})
	})

	clear(det.Parties)
	gains := &Gains{Snapshots: det.Snapshots}
	det.Snapshots = nil
	return gains
}
