package engine

import (
	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

func (g *Game) startCombat(p *Player, targetID string) ([]Event, error) {
	target := g.PlayerByID(targetID)
	if target == nil || target == p || !grid.Adjacent(p.Position, target.Position) {
		return nil, ErrIllegalTarget
	}
	if g.IsAlly(p, target) {
		return nil, ErrIllegalTarget
	}
	if target.IsInCombat {
		return nil, ErrInCombat
	}
	if p.ActionPoints <= 0 {
		return nil, ErrNoActionPoints
	}

	p.ActionPoints--
	g.combat = &combatSession{attackerID: p.ID, defenderID: target.ID}
	for _, f := range []*Player{p, target} {
		f.IsInCombat = true
		f.IsCombatTurn = false
		f.EscapesAttempts = 0
		ApplyCombatItemEffects(f)
	}
	// the faster fighter opens, the initiator on ties
	if target.MaxSpeed > p.MaxSpeed {
		target.IsCombatTurn = true
	} else {
		p.IsCombatTurn = true
	}

	events := []Event{{Type: EvtCombatStarted, PlayerID: p.ID, TargetID: target.ID}}
	if p.IsBot {
		events = append(events, Event{Type: EvtBotStartCombat, PlayerID: p.ID, TargetID: target.ID})
	}
	return append(events, Event{Type: EvtPlayersUpdated}), nil
}

func (g *Game) opponentOf(p *Player) *Player {
	if g.combat == nil {
		return nil
	}
	if g.combat.attackerID == p.ID {
		return g.PlayerByID(g.combat.defenderID)
	}
	return g.PlayerByID(g.combat.attackerID)
}

func (g *Game) roll(faces int) int {
	return g.rng.Intn(faces) + 1
}

func (g *Game) icePenalty(p *Player) int {
	if t := g.Grid.At(p.Position); t != nil && t.Material == grid.MaterialIce {
		return IcePenalty
	}
	return 0
}

func (g *Game) swapCombatTurn(p, opponent *Player) {
	p.IsCombatTurn = false
	opponent.IsCombatTurn = true
}

// attack resolves one exchange: the attacker hits when its total beats the defense.
func (g *Game) attack(p *Player) []Event {
	o := g.opponentOf(p)
	attackRoll, defenseRoll := g.roll(p.AttackDice), g.roll(o.DefenseDice)
	if g.IsDebugModeActive {
		attackRoll, defenseRoll = p.AttackDice, 1
	}
	res := &AttackResult{
		AttackerID:   p.ID,
		DefenderID:   o.ID,
		AttackRoll:   attackRoll,
		DefenseRoll:  defenseRoll,
		AttackTotal:  p.AttackPower + p.Buffs.AttackBuff + attackRoll - g.icePenalty(p),
		DefenseTotal: o.DefensePower + o.Buffs.DefenseBuff + defenseRoll - g.icePenalty(o),
	}
	if res.AttackTotal > res.DefenseTotal {
		res.Damage = 1
		o.HealthPower = max(o.HealthPower-res.Damage, 0)
	}
	events := []Event{{Type: EvtCombatUpdate, PlayerID: p.ID, TargetID: o.ID, Attack: res}}

	if o.HealthPower <= 0 {
		return append(events, g.endCombat(p, o)...)
	}
	ApplyCombatItemEffects(o)
	g.swapCombatTurn(p, o)
	return append(events, Event{Type: EvtPlayersUpdated})
}

func (g *Game) escape(p *Player) ([]Event, error) {
	if p.EscapesAttempts >= MaxEscapesAttempts {
		return nil, ErrNoEscapesLeft
	}
	p.EscapesAttempts++
	o := g.opponentOf(p)
	success := g.rng.Float64() < EscapeChance
	events := []Event{{Type: EvtEscapeAttempt, PlayerID: p.ID, TargetID: o.ID, Success: success}}
	if success {
		return append(events, g.endCombat(nil, nil)...), nil
	}
	g.swapCombatTurn(p, o)
	return append(events, Event{Type: EvtPlayersUpdated}), nil
}

func (g *Game) forfeit(p *Player) []Event {
	return g.endCombat(g.opponentOf(p), p)
}

func (g *Game) fighters() []*Player {
	if g.combat == nil {
		return nil
	}
	var out []*Player
	for _, id := range []string{g.combat.attackerID, g.combat.defenderID} {
		if f := g.PlayerByID(id); f != nil {
			out = append(out, f)
		}
	}
	return out
}

func (g *Game) resetFighter(f *Player) {
	RemoveCombatItemEffects(f)
	f.IsInCombat = false
	f.IsCombatTurn = false
	f.EscapesAttempts = 0
}

// endCombat closes the session. winner and loser are nil when someone escaped.
func (g *Game) endCombat(winner, loser *Player) []Event {
	fighters := g.fighters()
	g.combat = nil
	for _, f := range fighters {
		g.resetFighter(f)
	}

	var events []Event
	if winner == nil {
		for _, f := range fighters {
			events = append(events, g.applyCombatEndEffects(CombatOutcome{Holder: f, Opponent: other(fighters, f)})...)
			f.HealthPower = f.MaxHealthPower
		}
		events = append(events, Event{Type: EvtCombatEnded}, Event{Type: EvtPlayersUpdated})
		if p := g.CurrentPlayer(); p != nil {
			events = append(events, g.afterAction(p)...)
		}
		return events
	}

	winner.NbFightsWon++
	events = append(events, g.applyCombatEndEffects(CombatOutcome{Holder: winner, Opponent: loser, Won: true})...)
	events = append(events, g.applyCombatEndEffects(CombatOutcome{Holder: loser, Opponent: winner, Lost: true})...)
	winner.HealthPower = winner.MaxHealthPower
	loser.HealthPower = loser.MaxHealthPower

	if spawn, ok := g.closestFreeTile(loser.SpawnPointPosition, loser.ID); ok && spawn != loser.Position {
		from := loser.Position
		g.TeleportPlayer(loser.ID, spawn)
		events = append(events, Event{Type: EvtPlayerMoved, PlayerID: loser.ID, Path: pathOf(from, spawn), Teleport: true})
	}
	if g.dropAll(loser, loser.SpawnPointPosition) {
		events = append(events, Event{Type: EvtItemsUpdated})
	}
	events = append(events, Event{Type: EvtCombatEnded, PlayerID: winner.ID, TargetID: loser.ID}, Event{Type: EvtPlayersUpdated})

	if g.Mode != items.ModeCaptureTheFlag && winner.NbFightsWon >= WinningFightsCount {
		return append(events, g.endGame(winner.ID, TeamNone)...)
	}
	if g.CurrentPlayer() == loser {
		return append(events, g.endTurn()...)
	}
	return append(events, g.afterAction(winner)...)
}

// abandonCombat ends the fight of a player leaving the game; the opponent stays put.
func (g *Game) abandonCombat(leaver *Player) []Event {
	opponent := g.opponentOf(leaver)
	for _, f := range g.fighters() {
		g.resetFighter(f)
	}
	g.combat = nil
	if opponent == nil {
		return nil
	}
	events := g.applyCombatEndEffects(CombatOutcome{Holder: opponent, Opponent: leaver, Won: true})
	opponent.HealthPower = opponent.MaxHealthPower
	return append(events, Event{Type: EvtCombatEnded, PlayerID: opponent.ID, TargetID: leaver.ID})
}

func other(pair []*Player, p *Player) *Player {
	for _, f := range pair {
		if f != p {
			return f
		}
	}
	return nil
}
