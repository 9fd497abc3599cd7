package monster

import (
	"time"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/ecs"
)

// Reaper removes dead monsters from the world after combat has been resolved
// and schedules their respawn on the map they were spawned on.
type Reaper struct {
	query     *donburi.Query
	scheduler *RespawnScheduler
	logger    *zap.Logger
}

// NewReaper creates a Reaper feeding scheduler.
//
// Precondition: scheduler and logger must be non-nil.
func NewReaper(scheduler *RespawnScheduler, logger *zap.Logger) *Reaper {
	return &Reaper{
		query:     donburi.NewQuery(filter.Contains(ecs.MonsterComponent, ecs.StatsComponent)),
		scheduler: scheduler,
		logger:    logger,
	}
}

// Reap removes every monster with CurrentHP <= 0 from w.
//
// Precondition: must run after Gain Application for the tick.
// Postcondition: no dead monster remains in w; returns how many were removed.
func (r *Reaper) Reap(w donburi.World, now time.Time) int {
	type corpse struct {
		entity  donburi.Entity
		details ecs.MonsterDetails
	}
	var dead []corpse
	r.query.Each(w, func(entry *donburi.Entry) {
		if ecs.StatsComponent.Get(entry).IsDead() {
			dead = append(dead, corpse{entity: entry.Entity(), details: *ecs.MonsterComponent.Get(entry)})
		}
	})

	for _, c := range dead {
		w.Remove(c.entity)
		mapName := c.details.SpawnPosition.CurrentMap
		if !r.scheduler.CanRespawn(mapName, c.details.MonsterType) {
			r.logger.Warn("dead monster has no spawn rule, not respawning",
				zap.String("id", c.details.ID.String()),
				zap.String("monster_type", c.details.MonsterType),
				zap.String("map", mapName),
			)
			continue
		}
		delay := r.scheduler.ResolvedDelay(c.details.MonsterType)
		r.scheduler.Schedule(mapName, c.details.MonsterType, now, delay)
		r.logger.Debug("removed dead monster",
			zap.String("id", c.details.ID.String()),
			zap.String("monster_type", c.details.MonsterType),
			zap.String("map", mapName),
			zap.Duration("respawn_in", delay),
		)
	}
	return len(dead)
}
