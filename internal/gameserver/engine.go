// Package gameserver drives the simulation: it owns the world and runs the
// per-tick pipeline of spawning, combat and reaping on a fixed interval.
package gameserver

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/ecs"
	"github.com/cory-johannsen/dungeon/internal/game/mapstate"
	"github.com/cory-johannsen/dungeon/internal/game/monster"
	"github.com/cory-johannsen/dungeon/internal/observability"
)

// EngineConfig holds the collaborators of an Engine.
type EngineConfig struct {
	// ServerName tags every system logger.
	ServerName string
	World      donburi.World
	DefaultMap string
	Catalog    monster.Catalog
	Spawns     monster.SpawnTable
	Spawner    *monster.Spawner
	Formula    combat.Formula
	// Notifier may be nil, in which case combat results are not broadcast.
	Notifier *combat.Notifier
	// RespawnDelay applies to templates without their own delay.
	RespawnDelay time.Duration
	// Progress receives one record per player whose gains were applied. May be nil.
	Progress chan<- combat.Progress
}

// TickResult summarises one Tick.
type TickResult struct {
	Spawned   int
	Pairings  int
	Progress  int
	Reaped    int
	Respawned int
}

// Engine owns the world and runs the tick pipeline. World access from
// outside the tick goes through Do.
type Engine struct {
	mu         sync.Mutex
	world      donburi.World
	defaultMap string
	catalog    monster.Catalog
	spawns     monster.SpawnTable
	spawner    *monster.Spawner
	respawns   *monster.RespawnScheduler
	reaper     *monster.Reaper
	detector   *combat.Detector
	resolver   *combat.Resolver
	applier    *combat.GainApplier
	pending    *ecs.CommandBuffer
	progress   chan<- combat.Progress
	logger     *zap.Logger
}

// NewEngine wires the tick systems around cfg.World.
//
// Precondition: cfg.World, cfg.Spawner and cfg.Formula must be non-nil;
// cfg.DefaultMap must be non-empty; logger must be non-nil.
func NewEngine(cfg EngineConfig, logger *zap.Logger) *Engine {
	sys := func(name string) *zap.Logger {
		return observability.SystemLogger(logger, cfg.ServerName, name)
	}
	respawns := monster.NewRespawnScheduler(cfg.Spawner, cfg.Catalog, cfg.Spawns, cfg.RespawnDelay)
	return &Engine{
		world:      cfg.World,
		defaultMap: cfg.DefaultMap,
		catalog:    cfg.Catalog,
		spawns:     cfg.Spawns,
		spawner:    cfg.Spawner,
		respawns:   respawns,
		reaper:     monster.NewReaper(respawns, sys("reaper")),
		detector:   combat.NewDetector(sys("combat.detect")),
		resolver:   combat.NewResolver(cfg.Formula, cfg.Notifier, sys("combat.resolve")),
		applier:    combat.NewGainApplier(sys("combat.gains")),
		pending:    ecs.NewCommandBuffer(),
		progress:   cfg.Progress,
		logger:     sys("engine"),
	}
}

// Tick runs one simulation step, strictly in this order: create queued
// spawns, index positions, detect combat, resolve combat, apply gains, reap
// dead monsters, queue due respawns for the next tick.
//
// Precondition: Tick is not called concurrently with itself.
// Postcondition: no per-tick combat state survives the call.
func (e *Engine) Tick(now time.Time) TickResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res TickResult
	res.Spawned = len(e.pending.Flush(e.world))

	idx := mapstate.Build(e.world, e.defaultMap)
	det := e.detector.Detect(e.world, idx)
	res.Pairings = len(det.Parties)
	gains := e.resolver.Resolve(e.world, det)
	progress := e.applier.ApplyGains(e.world, gains)
	res.Progress = len(progress)
	e.publish(progress)

	res.Reaped = e.reaper.Reap(e.world, now)
	res.Respawned = e.respawns.Tick(now, e.pending)

	if res.Pairings > 0 || res.Spawned > 0 || res.Reaped > 0 {
		e.logger.Debug("tick",
			zap.Int("spawned", res.Spawned),
			zap.Int("pairings", res.Pairings),
			zap.Int("progress", res.Progress),
			zap.Int("reaped", res.Reaped),
			zap.Int("respawns_queued", res.Respawned),
		)
	}
	return res
}

func (e *Engine) publish(progress []combat.Progress) {
	if e.progress == nil {
		return
	}
	for _, p := range progress {
		select {
		case e.progress <- p:
		default:
			e.logger.Warn("progress channel full, dropping record",
				zap.String("player_id", p.PlayerID.String()),
				zap.Uint32("exp", p.Exp),
				zap.Uint32("gold", p.Gold),
			)
		}
	}
}

// SpawnSingle queues one monster of monsterType on mapName. The entity is
// created at the start of the next tick. An unknown map or type is logged at
// Fatal.
//
// Postcondition: Returns the id the new monster will carry.
func (e *Engine) SpawnSingle(mapName, monsterType string) uuid.UUID {
	return e.spawner.SpawnSingle(e.catalog, e.spawns, mapName, monsterType, e.pending)
}

// Do runs fn with exclusive access to the world, between ticks.
//
// Precondition: fn must not retain w.
func (e *Engine) Do(fn func(w donburi.World)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.world)
}

// PendingRespawns returns the number of respawns waiting for their delay.
func (e *Engine) PendingRespawns() int {
	return e.respawns.Pending()
}
