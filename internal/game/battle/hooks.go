package battle

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/candlelight/internal/game/monster"
	"github.com/cory-johannsen/candlelight/internal/scripting"
)

// Lua hook names.
const (
	HookDamage    = "on_damage"
	HookDying     = "on_dying"
	HookDestroyed = "on_destroyed"
	HookTurn      = "on_turn"
)

// ScriptHooks forwards combat events and resolved turns to Lua hooks:
//
//	on_damage(id, amount, hp, max_hp, effect)
//	on_dying(id)
//	on_destroyed(id)
//	on_turn(round, actor_id, attack, target_id, damage)
//
// Hook return values are ignored and hook errors never reach the battle.
type ScriptHooks struct {
	mgr *scripting.Manager
}

// NewScriptHooks binds mgr to b: Lua's engine.combat.query_combatant reads
// b's participants.
//
// Precondition: mgr and b must be non-nil; mgr must not be shared with
// another battle.
func NewScriptHooks(mgr *scripting.Manager, b *Battle) *ScriptHooks {
	mgr.GetCombatant = func(id string) *scripting.CombatantInfo {
		snap, ok := b.Snapshot(id)
		if !ok {
			return nil
		}
		return &scripting.CombatantInfo{
			ID:     snap.ID,
			NameID: snap.NameID,
			Name:   snap.Name,
			Team:   snap.Team,
			HP:     snap.HP,
			MaxHP:  snap.MaxHP,
			State:  snap.State.String(),
		}
	}
	return &ScriptHooks{mgr: mgr}
}

// Notify implements monster.Listener.
func (h *ScriptHooks) Notify(e monster.Event) {
	id := lua.LString(e.CombatantID)
	switch e.Type {
	case monster.EventDamaged:
		h.call(HookDamage, id, lua.LNumber(e.Amount), lua.LNumber(e.HP), lua.LNumber(e.MaxHP), lua.LString(e.Effect))
	case monster.EventDying:
		h.call(HookDying, id)
	case monster.EventDestroyed:
		h.call(HookDestroyed, id)
	}
}

// Turn implements TurnHook.
func (h *ScriptHooks) Turn(ev TurnEvent) {
	h.call(HookTurn,
		lua.LNumber(ev.Round),
		lua.LString(ev.ActorID),
		lua.LString(ev.AttackName),
		lua.LString(ev.TargetID),
		lua.LNumber(ev.Damage),
	)
}

func (h *ScriptHooks) call(hook string, args ...lua.LValue) {
	// CallHook logs Lua failures itself and always returns a nil error.
	_, _ = h.mgr.CallHook(hook, args...)
}
