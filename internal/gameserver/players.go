package gameserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/ecs"
	"github.com/cory-johannsen/dungeon/internal/storage/postgres"
)

// ProgressLoader reads stored player progress. *postgres.PlayerRepository
// implements it.
type ProgressLoader interface {
	LoadProgress(ctx context.Context, id uuid.UUID) (combat.Progress, error)
}

// PlayerJoin describes a client taking control of a player.
type PlayerJoin struct {
	ID         uuid.UUID
	Name       string
	ClientAddr string
}

// NewPlayerStats are the stats of a player entering the world for the first
// time this process. Exp is overwritten by stored progress.
var NewPlayerStats = ecs.Stats{CurrentHP: 20, MaxHP: 20, Str: 10, Dex: 10, Con: 10, Level: 1, ExpNext: 100}

// Join brings a player online at j.ClientAddr. A player already in the world
// is reattached to the new address; otherwise it is created on the default
// map at (0, 0) with its stored exp and gold.
//
// Precondition: j.ID must not be uuid.Nil.
// Postcondition: exactly one online entity carries j.ID.
func (e *Engine) Join(ctx context.Context, loader ProgressLoader, j PlayerJoin) error {
	if j.ID == uuid.Nil {
		return errors.New("joining: player id must not be nil")
	}
	stored, err := loader.LoadProgress(ctx, j.ID)
	switch {
	case errors.Is(err, postgres.ErrPlayerNotFound):
		stored = combat.Progress{PlayerID: j.ID, PlayerName: j.Name}
	case err != nil:
		return fmt.Errorf("loading progress for %s: %w", j.ID, err)
	}

	rejoined := false
	e.Do(func(w donburi.World) {
		if rejoined = reattach(w, j); rejoined {
			return
		}
		stats := NewPlayerStats
		stats.Exp = stored.Exp
		ecs.CreatePlayer(w, ecs.PlayerBundle{
			Details:   ecs.PlayerDetails{ID: j.ID, PlayerName: j.Name, ClientAddr: j.ClientAddr, CurrentlyOnline: true},
			Display:   ecs.DisplayDetails{Icon: "@", Visible: true, Collidable: true},
			Position:  ecs.Position{CurrentMap: e.defaultMap},
			Stats:     stats,
			Inventory: ecs.Inventory{Gold: stored.Gold},
		})
	})
	if rejoined {
		e.logger.Info("player rejoined", zap.String("player", j.Name), zap.String("addr", j.ClientAddr))
		return nil
	}
	e.logger.Info("player joined",
		zap.String("player", j.Name),
		zap.String("addr", j.ClientAddr),
		zap.Uint32("exp", stored.Exp),
		zap.Uint32("gold", stored.Gold),
	)
	return nil
}

// Leave marks the player connected from addr offline. Offline players stay
// in the world but are neither indexed nor notified.
//
// Postcondition: reports whether a player was connected from addr.
func (e *Engine) Leave(addr string) bool {
	found := false
	e.Do(func(w donburi.World) {
		donburi.NewQuery(filter.Contains(ecs.PlayerComponent)).Each(w, func(entry *donburi.Entry) {
			details := ecs.PlayerComponent.Get(entry)
			if details.ClientAddr == addr && details.CurrentlyOnline {
				details.CurrentlyOnline = false
				found = true
			}
		})
	})
	if found {
		e.logger.Info("player left", zap.String("addr", addr))
	}
	return found
}

// reattach points an existing player entity at j.ClientAddr and marks it
// online. World state takes precedence over stored progress.
func reattach(w donburi.World, j PlayerJoin) bool {
	found := false
	donburi.NewQuery(filter.Contains(ecs.PlayerComponent)).Each(w, func(entry *donburi.Entry) {
		details := ecs.PlayerComponent.Get(entry)
		if details.ID == j.ID {
			details.ClientAddr = j.ClientAddr
			details.CurrentlyOnline = true
			found = true
		}
	})
	return found
}
