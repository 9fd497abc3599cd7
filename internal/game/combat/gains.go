package combat

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/ecs"
)

// GainApplier copies rewarded attacker snapshots onto live player components.
type GainApplier struct {
	query  *donburi.Query
	logger *zap.Logger
}

// NewGainApplier creates a GainApplier.
//
// Precondition: logger must be non-nil.
func NewGainApplier(logger *zap.Logger) *GainApplier {
	return &GainApplier{
		query:  donburi.NewQuery(filter.Contains(ecs.PlayerComponent, ecs.StatsComponent, ecs.InventoryComponent)),
		logger: logger,
	}
}

// ApplyGains consumes gains. For every player whose snapshot was credited
// during resolution, the snapshot's experience and gold replace the live
// values and both components are marked for network sync.
//
// Postcondition: gains.Snapshots is empty; one Progress is returned per
// updated player.
func (g *GainApplier) ApplyGains(w donburi.World, gains *Gains) []Progress {
	var progress []Progress
	if len(gains.Snapshots) > 0 {
		g.query.Each(w, func(entry *donburi.Entry) {
			details := ecs.PlayerComponent.Get(entry)
			snap, ok := gains.Snapshots[details.ID]
			if !ok || !snap.Stats.UpdateAvailable {
				return
			}
			stats := ecs.StatsComponent.Get(entry)
			inv := ecs.InventoryComponent.Get(entry)
			stats.Exp = snap.Stats.Exp
			stats.UpdateAvailable = true
			inv.Gold = snap.Inventory.Gold
			inv.UpdateAvailable = true

			progress = append(progress, Progress{
				PlayerID:   details.ID,
				PlayerName: details.PlayerName,
				Exp:        stats.Exp,
				Gold:       inv.Gold,
			})
			g.logger.Info("gains applied",
				zap.String("player", details.PlayerName),
				zap.String("id", details.ID.String()),
				zap.Uint32("exp", stats.Exp),
				zap.Uint32("gold", inv.Gold),
			)
		})
	}
	clear(gains.Snapshots)
	return progress
}
