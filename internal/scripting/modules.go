package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.log.{debug,info,warn,error}(msg)
//	engine.dice.roll(expr) -> total
//	engine.combat.query_combatant(id) -> table or nil
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "combat", m.combatModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	levelFn := func(log func(string, ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			log(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}
	}
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"debug": levelFn(m.logger.Debug),
		"info":  levelFn(m.logger.Info),
		"warn":  levelFn(m.logger.Warn),
		"error": levelFn(m.logger.Error),
	})
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"roll": func(L *lua.LState) int {
			res, err := m.roller.RollExpr(L.CheckString(1))
			if err != nil {
				L.RaiseError("engine.dice.roll: %v", err)
				return 0
			}
			L.Push(lua.LNumber(res.Total()))
			return 1
		},
	})
}

func (m *Manager) combatModule(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"query_combatant": func(L *lua.LState) int {
			id := L.CheckString(1)
			if m.GetCombatant == nil {
				L.Push(lua.LNil)
				return 1
			}
			info := m.GetCombatant(id)
			if info == nil {
				L.Push(lua.LNil)
				return 1
			}
			t := L.NewTable()
			L.SetField(t, "id", lua.LString(info.ID))
			L.SetField(t, "name_id", lua.LString(info.NameID))
			L.SetField(t, "name", lua.LString(info.Name))
			L.SetField(t, "team", lua.LString(info.Team))
			L.SetField(t, "hp", lua.LNumber(info.HP))
			L.SetField(t, "max_hp", lua.LNumber(info.MaxHP))
			L.SetField(t, "state", lua.LString(info.State))
			L.Push(t)
			return 1
		},
	})
}
