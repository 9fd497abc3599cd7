package combat_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/ecs"
	"github.com/cory-johannsen/dungeon/internal/game/mapstate"
	"github.com/cory-johannsen/dungeon/internal/transport"
)

const defaultMap = "Home"

func fixed(d float32) combat.Formula {
	return combat.FormulaFunc(func(_, _ combat.Snapshot) float32 { return d })
}

func addPlayer(w donburi.World, name string, x, y uint32, vx, vy int32) (uuid.UUID, donburi.Entity) {
	id := uuid.New()
	e := ecs.CreatePlayer(w, ecs.PlayerBundle{
		Details:   ecs.PlayerDetails{ID: id, PlayerName: name, ClientAddr: name + ":5000", CurrentlyOnline: true},
		Position:  ecs.Position{X: x, Y: y, CurrentMap: "town", VelocityX: vx, VelocityY: vy},
		Stats:     ecs.Stats{CurrentHP: 20, MaxHP: 20, Level: 1, Exp: 7, Str: 3, Dex: 2},
		Inventory: ecs.Inventory{Gold: 3, Weapon: ecs.Weapon{Name: "club", Damage: "1d6"}},
	})
	return id, e
}

func addMonster(w donburi.World, x, y uint32, level uint32, hp float32, gold uint32) (uuid.UUID, donburi.Entity) {
	id := uuid.New()
	pos := ecs.Position{X: x, Y: y, CurrentMap: "town"}
	e := ecs.CreateMonster(w, ecs.MonsterBundle{
		Details:   ecs.MonsterDetails{ID: id, MonsterType: "rat", SpawnPosition: pos},
		Position:  pos,
		Stats:     ecs.Stats{CurrentHP: hp, MaxHP: hp, Level: level},
		Inventory: ecs.Inventory{Gold: gold},
	})
	return id, e
}

// pipeline wires the three systems the way the tick engine does.
type pipeline struct {
	detector *combat.Detector
	resolver *combat.Resolver
	applier  *combat.GainApplier
	out      chan transport.Envelope
}

func newPipeline(formula combat.Formula, buffer int, logger *zap.Logger) *pipeline {
	out := make(chan transport.Envelope, buffer)
	return &pipeline{
		detector: combat.NewDetector(logger),
		resolver: combat.NewResolver(formula, combat.NewNotifier(out, logger), logger),
		applier:  combat.NewGainApplier(logger),
		out:      out,
	}
}

func (p *pipeline) tick(w donburi.World) (*combat.Detection, *combat.Gains, []combat.Progress) {
	det := p.detector.Detect(w, mapstate.Build(w, defaultMap))
	gains := p.resolver.Resolve(w, det)
	progress := p.applier.ApplyGains(w, gains)
	return det, gains, progress
}

func drain(t *testing.T, out chan transport.Envelope) []transport.CombatUpdate {
	t.Helper()
	var updates []transport.CombatUpdate
	for {
		select {
		case env := <-out:
			require.Equal(t, transport.KindCombatUpdate, env.Kind)
			u, err := transport.DecodeCombatUpdate(env.Payload)
			require.NoError(t, err)
			updates = append(updates, u)
		default:
			return updates
		}
	}
}
