package engine

import (
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

// Effect is a set of stat deltas. ActiveBuffs stores the deltas that were actually
// applied after clamping, so removing an effect is an exact inverse.
type Effect struct {
	Health      int `json:"health,omitempty"`
	MaxHealth   int `json:"maxHealth,omitempty"`
	Speed       int `json:"speed,omitempty"`
	MaxSpeed    int `json:"maxSpeed,omitempty"`
	AttackBuff  int `json:"attackBuff,omitempty"`
	DefenseBuff int `json:"defenseBuff,omitempty"`
}

// clampedFor shrinks negative deltas so no stat drops below zero.
func (e Effect) clampedFor(p *Player) Effect {
	floor := func(cur, delta int) int {
		if cur+delta < 0 {
			return -cur
		}
		return delta
	}
	e.MaxHealth = floor(p.MaxHealthPower, e.MaxHealth)
	e.Health = floor(p.HealthPower, e.Health)
	e.MaxSpeed = floor(p.MaxSpeed, e.MaxSpeed)
	e.Speed = floor(p.Speed, e.Speed)
	return e
}

func (e Effect) addTo(p *Player, sign int) {
	p.HealthPower += sign * e.Health
	p.MaxHealthPower += sign * e.MaxHealth
	p.Speed += sign * e.Speed
	p.MaxSpeed += sign * e.MaxSpeed
	p.Buffs.AttackBuff += sign * e.AttackBuff
	p.Buffs.DefenseBuff += sign * e.DefenseBuff
}

// applyEffect is a no-op when kind is already active.
func applyEffect(p *Player, kind items.Kind, e Effect) bool {
	if p.HasActive(kind) {
		return false
	}
	applied := e.clampedFor(p)
	applied.addTo(p, 1)
	p.ActiveBuffs[kind] = applied
	return true
}

// removeEffect is a no-op when kind is not active.
func removeEffect(p *Player, kind items.Kind) bool {
	applied, ok := p.ActiveBuffs[kind]
	if !ok {
		return false
	}
	applied.addTo(p, -1)
	delete(p.ActiveBuffs, kind)
	p.clampStats()
	return true
}

// PassiveEffect applies on pickup and is removed on drop.
type PassiveEffect interface {
	ApplyPassive(p *Player) bool
	RemovePassive(p *Player) bool
}

// CombatEffect applies while the holder is in combat, subject to its own condition.
type CombatEffect interface {
	ApplyCombat(p *Player) bool
	RemoveCombat(p *Player) bool
}

// CombatOutcome is what a combat-end effect sees about the holder.
type CombatOutcome struct {
	Holder   *Player
	Opponent *Player
	// Lost is true when the holder was eliminated; both false on escape.
	Lost bool
	Won  bool
}

// CombatEndEffect fires once when a combat involving the holder resolves.
type CombatEndEffect interface {
	ApplyCombatEnd(g *Game, o CombatOutcome) []Event
}

type statEffect struct {
	kind   items.Kind
	effect Effect
}

func (s statEffect) ApplyPassive(p *Player) bool  { return applyEffect(p, s.kind, s.effect) }
func (s statEffect) RemovePassive(p *Player) bool { return removeEffect(p, s.kind) }

type flagBehavior struct{}

func (flagBehavior) ApplyPassive(p *Player) bool {
	if !applyEffect(p, items.Flag, Effect{}) {
		return false
	}
	p.HasFlag = true
	return true
}

func (flagBehavior) RemovePassive(p *Player) bool {
	if !removeEffect(p, items.Flag) {
		return false
	}
	p.HasFlag = false
	return true
}

type shieldBehavior struct {
	threshold int
	bonus     int
}

func (s shieldBehavior) ApplyCombat(p *Player) bool {
	if p.HealthPower > s.threshold {
		return false
	}
	return applyEffect(p, items.Shield, Effect{DefenseBuff: s.bonus})
}

func (shieldBehavior) RemoveCombat(p *Player) bool { return removeEffect(p, items.Shield) }

type gladiatorHelmBehavior struct{}

func (gladiatorHelmBehavior) ApplyCombatEnd(_ *Game, o CombatOutcome) []Event {
	if o.Lost {
		return nil
	}
	o.Holder.ActionPoints = o.Holder.MaxActionPoints
	return nil
}

type bombBehavior struct{}

// ApplyCombatEnd sends the opponent back to the free tile closest to their own spawn.
func (bombBehavior) ApplyCombatEnd(g *Game, o CombatOutcome) []Event {
	if !o.Lost || o.Opponent == nil {
		return nil
	}
	dest, ok := g.closestFreeTile(o.Opponent.SpawnPointPosition, o.Opponent.ID)
	if !ok {
		return nil
	}
	from := o.Opponent.Position
	g.TeleportPlayer(o.Opponent.ID, dest)
	return []Event{{Type: EvtPlayerMoved, PlayerID: o.Opponent.ID, Path: pathOf(from, dest), Teleport: true}}
}

type behavior struct {
	passive   PassiveEffect
	combat    CombatEffect
	combatEnd CombatEndEffect
}

var behaviors = map[items.Kind]behavior{
	items.Armor: {passive: statEffect{kind: items.Armor, effect: Effect{DefenseBuff: 2, Speed: -1, MaxSpeed: -1}}},
	items.SwiftnessBoots: {passive: statEffect{kind: items.SwiftnessBoots, effect: Effect{
		Speed: 2, MaxSpeed: 2, Health: -1, MaxHealth: -1,
	}}},
	items.Pickaxe:       {passive: statEffect{kind: items.Pickaxe}},
	items.Flag:          {passive: flagBehavior{}},
	items.Shield:        {combat: shieldBehavior{threshold: ShieldHealthThreshold, bonus: 2}},
	items.GladiatorHelm: {combatEnd: gladiatorHelmBehavior{}},
	items.Bomb:          {combatEnd: bombBehavior{}},
}

// ApplyPassiveItemEffect applies kind's passive effect once.
func ApplyPassiveItemEffect(p *Player, kind items.Kind) bool {
	b := behaviors[kind]
	if b.passive == nil {
		return false
	}
	return b.passive.ApplyPassive(p)
}

func RemovePassiveItemEffect(p *Player, kind items.Kind) bool {
	b := behaviors[kind]
	if b.passive == nil {
		return false
	}
	return b.passive.RemovePassive(p)
}

// ApplyCombatItemEffects (re)evaluates every combat effect the player holds.
func ApplyCombatItemEffects(p *Player) {
	for _, k := range p.Items {
		if b := behaviors[k]; b.combat != nil {
			b.combat.ApplyCombat(p)
		}
	}
}

func RemoveCombatItemEffects(p *Player) {
	for _, k := range p.Items {
		if b := behaviors[k]; b.combat != nil {
			b.combat.RemoveCombat(p)
		}
	}
}

func (g *Game) applyCombatEndEffects(o CombatOutcome) []Event {
	var events []Event
	for _, k := range o.Holder.Items {
		if b := behaviors[k]; b.combatEnd != nil {
			events = append(events, b.combatEnd.ApplyCombatEnd(g, o)...)
		}
	}
	return events
}
