package scripting

import (
	"context"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
)

// damageHook is the Lua global a damage script must define:
//
//	function damage(attacker, defender) return <number> end
const damageHook = "damage"

// Formula is a combat.Formula implemented by a Lua script. Script errors and
// non-numeric results are logged at Warn and the fallback result is used.
//
// Formula is safe for concurrent use; calls are serialised on one LState.
type Formula struct {
	mu       sync.Mutex
	L        *lua.LState
	cancel   context.CancelFunc
	limit    int
	fallback combat.Formula
	logger   *zap.Logger
}

// LoadFormula executes the script at path in a fresh sandbox.
//
// Precondition: fallback, src and logger must be non-nil.
// Postcondition: Returns a Formula whose script defines damage(), or an error.
func LoadFormula(path string, instLimit int, src dice.Source, fallback combat.Formula, logger *zap.Logger) (*Formula, error) {
	return load(instLimit, src, fallback, logger, func(L *lua.LState) error { return L.DoFile(path) }, path)
}

// LoadFormulaString is LoadFormula for an in-memory script.
func LoadFormulaString(script string, instLimit int, src dice.Source, fallback combat.Formula, logger *zap.Logger) (*Formula, error) {
	return load(instLimit, src, fallback, logger, func(L *lua.LState) error { return L.DoString(script) }, "<string>")
}

func load(instLimit int, src dice.Source, fallback combat.Formula, logger *zap.Logger, run func(*lua.LState) error, name string) (*Formula, error) {
	L, cancel := NewSandboxedState(instLimit)
	RegisterModules(L, src)
	if err := run(L); err != nil {
		cancel()
		L.Close()
		return nil, fmt.Errorf("scripting: loading damage script %q: %w", name, err)
	}
	if fn, ok := L.GetGlobal(damageHook).(*lua.LFunction); !ok || fn == nil {
		cancel()
		L.Close()
		return nil, fmt.Errorf("scripting: damage script %q does not define %s()", name, damageHook)
	}
	return &Formula{
		L:        L,
		cancel:   cancel,
		limit:    instLimit,
		fallback: fallback,
		logger:   logger,
	}, nil
}

// Damage implements combat.Formula.
//
// Postcondition: Returns >= 0.
func (f *Formula) Damage(attacker, defender combat.Snapshot) float32 {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancel()
	f.cancel = ResetBudget(f.L, f.limit)

	err := f.L.CallByParam(lua.P{
		Fn:      f.L.GetGlobal(damageHook),
		NRet:    1,
		Protect: true,
	}, snapshotTable(f.L, attacker), snapshotTable(f.L, defender))
	if err != nil {
		f.logger.Warn("scripting: Lua runtime error, using fallback formula",
			zap.String("hook", damageHook),
			zap.Error(err),
		)
		return f.fallback.Damage(attacker, defender)
	}

	ret := f.L.Get(-1)
	f.L.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		f.logger.Warn("scripting: damage hook returned a non-number, using fallback formula",
			zap.String("type", ret.Type().String()),
		)
		return f.fallback.Damage(attacker, defender)
	}
	if n < 0 {
		return 0
	}
	return float32(n)
}

// Close releases the Lua state.
func (f *Formula) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancel()
	f.L.Close()
}

func snapshotTable(L *lua.LState, s combat.Snapshot) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "hp", lua.LNumber(s.Stats.CurrentHP))
	L.SetField(t, "max_hp", lua.LNumber(s.Stats.MaxHP))
	L.SetField(t, "level", lua.LNumber(s.Stats.Level))
	L.SetField(t, "str", lua.LNumber(s.Stats.Str))
	L.SetField(t, "dex", lua.LNumber(s.Stats.Dex))
	L.SetField(t, "con", lua.LNumber(s.Stats.Con))
	L.SetField(t, "exp", lua.LNumber(s.Stats.Exp))
	L.SetField(t, "gold", lua.LNumber(s.Inventory.Gold))
	L.SetField(t, "weapon", lua.LString(s.Inventory.Weapon.Damage))
	L.SetField(t, "defence", lua.LNumber(s.Inventory.Armour.Defence))
	return t
}
