package monster

import (
	"fmt"

	"go.uber.org/zap"
)

// Act selects this turn's attack and plays its animation.
//
// Transitions: Idle → SelectingAttack → PlayingAttackAnimation → Idle.
// On ErrNoAvailableAttack the combatant returns to Idle and the error is
// reported. A presentation failure still returns the chosen attack together
// with a *PresentationError so the caller can resolve the attack.
func (c *Combatant) Act() (AttackChoice, error) {
	c.mu.Lock()
	if err := c.claimLocked("act"); err != nil {
		c.mu.Unlock()
		return AttackChoice{}, err
	}
	c.setStateLocked(StateSelectingAttack)
	idx, err := c.selector.Select(c.roster, c.src)
	if err != nil {
		c.setStateLocked(StateIdle)
		c.mu.Unlock()
		return AttackChoice{}, fmt.Errorf("combatant %s: selecting attack: %w", c.id, err)
	}
	c.selected = idx
	choice := AttackChoice{Index: idx, Attack: c.roster[idx]}
	c.setStateLocked(StatePlayingAttackAnimation)
	c.mu.Unlock()

	perr := c.play(SuspendAttack, choice.Attack.Animation)

	c.mu.Lock()
	c.selected = -1
	c.setStateLocked(StateIdle)
	c.mu.Unlock()

	return choice, perr
}

// ReceiveDamage applies amount to this combatant and plays the hit effect.
//
// Precondition: amount >= 0, otherwise ErrInvalidArgument with no state change.
// Transitions: Idle → ReceivingDamage → Idle, or → Dying when health reaches zero.
// Damage and the death check are committed before the effect animation is
// requested, so a *PresentationError never leaves health or the Dying
// transition unapplied. Returns the new current HP.
func (c *Combatant) ReceiveDamage(amount int, effectTrigger string) (int, error) {
	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		return 0, fmt.Errorf("combatant %s: receive damage before ready: %w", c.id, ErrInvalidState)
	}
	if amount < 0 {
		hp := c.stats.CurrentHP()
		c.mu.Unlock()
		return hp, fmt.Errorf("combatant %s: damage amount %d: %w", c.id, amount, ErrInvalidArgument)
	}
	if err := c.claimLocked("receive damage"); err != nil {
		hp := c.stats.CurrentHP()
		c.mu.Unlock()
		return hp, err
	}
	c.setStateLocked(StateReceivingDamage)
	hp, _ := c.stats.ApplyDamage(amount)
	maxHP := c.stats.MaxHP()
	dead := c.stats.IsDead()
	c.mu.Unlock()

	c.listener.Notify(Event{Type: EventDamaged, CombatantID: c.id, Amount: amount, HP: hp, MaxHP: maxHP, Effect: effectTrigger})

	perr := c.play(SuspendHit, effectTrigger)

	c.listener.Notify(Event{Type: EventHealthChanged, CombatantID: c.id, HP: hp, MaxHP: maxHP})

	c.mu.Lock()
	if dead {
		c.setStateLocked(StateDying)
	} else {
		c.setStateLocked(StateIdle)
	}
	c.mu.Unlock()

	if dead {
		c.listener.Notify(Event{Type: EventDying, CombatantID: c.id, MaxHP: maxHP})
	}
	return hp, perr
}

// Destroy plays the death animation and retires the combatant.
//
// Precondition: State() == StateDying and no other Destroy is in flight;
// otherwise ErrInvalidState. Calling Destroy on a destroyed combatant is an error.
// Postcondition: State() == StateDestroyed, including when the death
// animation could not be resolved.
func (c *Combatant) Destroy() error {
	c.mu.Lock()
	if c.state != StateDying || c.busy {
		s := c.state
		c.mu.Unlock()
		return fmt.Errorf("combatant %s: %w", c.id, stateError("destroy", s))
	}
	c.busy = true
	c.mu.Unlock()

	perr := c.play(SuspendDeath, TriggerDeath)

	c.mu.Lock()
	c.busy = false
	c.setStateLocked(StateDestroyed)
	c.mu.Unlock()

	c.listener.Notify(Event{Type: EventDestroyed, CombatantID: c.id})
	return perr
}

// claimLocked admits a new sequence only from Idle on a ready combatant.
// Caller must hold c.mu.
func (c *Combatant) claimLocked(op string) error {
	if !c.ready {
		return fmt.Errorf("combatant %s: %s before ready: %w", c.id, op, ErrInvalidState)
	}
	if c.state != StateIdle {
		return fmt.Errorf("combatant %s: %w", c.id, stateError(op, c.state))
	}
	return nil
}

// setStateLocked records a transition. Caller must hold c.mu.
func (c *Combatant) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.logger.Debug("state transition",
		zap.Stringer("from", c.state),
		zap.Stringer("to", s),
	)
	c.state = s
}

// play resolves trigger and suspends for its duration. Must be called
// without c.mu held.
func (c *Combatant) play(point SuspendPoint, trigger string) error {
	d, err := c.animator.ResolveTrigger(trigger)
	if err != nil {
		c.logger.Warn("animation trigger unresolved",
			zap.Stringer("point", point),
			zap.String("trigger", trigger),
			zap.Error(err),
		)
		return &PresentationError{Trigger: trigger, Point: point, Err: err}
	}
	c.logger.Debug("suspending for animation",
		zap.Stringer("point", point),
		zap.String("trigger", trigger),
		zap.Duration("duration", d),
	)
	c.suspender.Suspend(point, d)
	return nil
}
