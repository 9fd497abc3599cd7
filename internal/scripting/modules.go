package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
)

// RegisterModules registers the engine.* Lua table into L.
//
//	engine.roll(expr) -> int   rolls a dice expression such as "2d6+1"
//
// Precondition: L must be from NewSandboxedState; src must be non-nil.
// Postcondition: engine global is defined in L.
func RegisterModules(L *lua.LState, src dice.Source) {
	engine := L.NewTable()
	L.SetField(engine, "roll", L.NewFunction(func(L *lua.LState) int {
		expr, err := dice.Parse(L.CheckString(1))
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(lua.LNumber(expr.Roll(src)))
		return 1
	}))
	L.SetGlobal("engine", engine)
}
