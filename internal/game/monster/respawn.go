package monster

import (
	"sync"
	"time"
)

// respawnEntry is a single pending respawn.
type respawnEntry struct {
	mapName     string
	monsterType string
	readyAt     time.Time
}

// RespawnScheduler queues respawns of killed monsters and spawns them once
// their delay has elapsed.
//
// Concurrency: Schedule may be called from any goroutine. Tick must only be
// called from the tick loop.
type RespawnScheduler struct {
	mu           sync.Mutex
	pending      []respawnEntry
	spawner      *Spawner
	catalog      Catalog
	table        SpawnTable
	defaultDelay time.Duration
}

// NewRespawnScheduler creates a scheduler that respawns through spawner.
// defaultDelay applies to templates without a respawn_delay; zero disables
// their respawn.
//
// Precondition: spawner, catalog and table must be non-nil.
func NewRespawnScheduler(spawner *Spawner, catalog Catalog, table SpawnTable, defaultDelay time.Duration) *RespawnScheduler {
	return &RespawnScheduler{
		spawner:      spawner,
		catalog:      catalog,
		table:        table,
		defaultDelay: defaultDelay,
	}
}

// ResolvedDelay returns the template's respawn delay when set, otherwise the
// scheduler default.
//
// Postcondition: Returns >= 0.
func (r *RespawnScheduler) ResolvedDelay(monsterType string) time.Duration {
	if tmpl, ok := r.catalog.Get(monsterType); ok {
		if d, ok := tmpl.Respawn(); ok {
			return d
		}
	}
	return r.defaultDelay
}

// CanRespawn reports whether the spawn table has coordinates for
// monsterType on mapName.
func (r *RespawnScheduler) CanRespawn(mapName, monsterType string) bool {
	coords, ok := r.table.PositionsFor(mapName, monsterType)
	return ok && len(coords) > 0
}

// Schedule enqueues a respawn of monsterType on mapName at now+delay.
// No-op when delay <= 0.
func (r *RespawnScheduler) Schedule(mapName, monsterType string, now time.Time, delay time.Duration) {
	if delay <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, respawnEntry{
		mapName:     mapName,
		monsterType: monsterType,
		readyAt:     now.Add(delay),
	})
}

// Pending returns the number of queued respawns.
func (r *RespawnScheduler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Tick spawns every entry whose readyAt <= now into sink.
//
// Postcondition: due entries are consumed; returns how many were spawned.
func (r *RespawnScheduler) Tick(now time.Time, sink Sink) int {
	r.mu.Lock()
	var ready, future []respawnEntry
	for _, e := range r.pending {
		if !e.readyAt.After(now) {
			ready = append(ready, e)
		} else {
			future = append(future, e)
		}
	}
	r.pending = future
	r.mu.Unlock()

	for _, e := range ready {
		r.spawner.SpawnSingle(r.catalog, r.table, e.mapName, e.monsterType, sink)
	}
	return len(ready)
}
