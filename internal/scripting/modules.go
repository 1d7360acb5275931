package scripting

import lua "github.com/yuin/gopher-lua"

// RegisterModules registers all engine.* Lua tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine.dice is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetGlobal("engine", engine)

	diceMod := L.NewTable()
	L.SetField(diceMod, "roll", L.NewFunction(m.luaRoll))
	L.SetField(diceMod, "roll_expr", L.NewFunction(m.luaRollExpr))
	L.SetField(engine, "dice", diceMod)
}

// luaRoll implements engine.dice.roll(sides).
func (m *Manager) luaRoll(L *lua.LState) int {
	sides := L.CheckInt(1)
	if sides < 1 {
		L.ArgError(1, "sides must be >= 1")
		return 0
	}
	L.Push(lua.LNumber(m.roller.D(sides)))
	return 1
}

// luaRollExpr implements engine.dice.roll_expr(notation).
func (m *Manager) luaRollExpr(L *lua.LState) int {
	notation := L.CheckString(1)
	L.Push(lua.LNumber(m.roller.RollExpr(notation).Total()))
	return 1
}
