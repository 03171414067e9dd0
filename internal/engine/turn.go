package engine

import (
	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

func (g *Game) startTurn() []Event {
	for _, p := range g.Players {
		p.IsTurn = false
	}
	p := g.CurrentPlayer()
	if p == nil {
		return nil
	}
	p.IsTurn = true
	p.Speed = p.MaxSpeed
	p.ActionPoints = p.MaxActionPoints
	return []Event{{Type: EvtTurnChanged, PlayerID: p.ID}, {Type: EvtPlayersUpdated}}
}

// endTurn passes the turn to the next player in the fixed order.
func (g *Game) endTurn() []Event {
	if p := g.CurrentPlayer(); p != nil {
		p.IsTurn = false
	}
	g.CurrentTurnHolder = nextTurnIndex(g.CurrentTurnHolder, len(g.Players))
	return g.startTurn()
}

// turnTimeout ends the turn. A pending item choice is resolved by leaving the new item
// on the ground.
func (g *Game) turnTimeout(p *Player) []Event {
	var events []Event
	if g.pending != nil && g.pending.playerID == p.ID {
		dropped, err := g.dropItem(p, g.pending.kind)
		if err == nil {
			events = append(events, dropped...)
		}
	}
	if g.CurrentPlayer() == p {
		events = append(events, g.endTurn()...)
	}
	return events
}

// canStillAct reports whether the turn holder has any legal move or action left.
func (g *Game) canStillAct(p *Player) bool {
	if g.pending != nil {
		return true
	}
	for c := range g.Grid.Reachable(p.Position, p.Speed, func(c grid.Coordinate) bool { return g.Occupied(c, p.ID) }) {
		if c != p.Position {
			return true
		}
	}
	if p.ActionPoints <= 0 {
		return false
	}
	for _, n := range g.Grid.Neighbors(p.Position) {
		if other := g.PlayerAt(n); other != nil {
			if !g.IsAlly(p, other) {
				return true
			}
			continue
		}
		if g.Grid.At(n).IsDoor && g.ItemAt(n) < 0 {
			return true
		}
		if g.Grid.IsWall(n) && (p.HasActive(items.Pickaxe) || g.IsDebugModeActive) {
			return true
		}
	}
	return false
}

// afterAction ends the turn automatically once the turn holder is stuck.
func (g *Game) afterAction(p *Player) []Event {
	if g.over || g.combat != nil || g.CurrentPlayer() != p {
		return nil
	}
	if g.canStillAct(p) {
		return nil
	}
	return append([]Event{{Type: EvtEndTurnRequired, PlayerID: p.ID}}, g.endTurn()...)
}

// leave removes p from the game, handing its turn, fight and items over as needed.
func (g *Game) leave(p *Player) []Event {
	var events []Event
	if g.combat != nil && p.IsInCombat {
		events = append(events, g.abandonCombat(p)...)
	}
	if g.pending != nil && g.pending.playerID == p.ID {
		p.Items = append(p.Items, g.pending.kind)
		g.pending = nil
	}

	idx := -1
	for i, other := range g.Players {
		if other == p {
			idx = i
		}
	}
	wasTurn := idx == g.CurrentTurnHolder
	g.RemovePlayer(p.ID)
	events = append(events, Event{Type: EvtPlayerLeft, PlayerID: p.ID})

	if dropped := g.dropAll(p, p.Position); dropped {
		events = append(events, Event{Type: EvtItemsUpdated})
	}
	if p.IsLeader && g.IsDebugModeActive {
		g.DeactivateDebug()
		events = append(events, Event{Type: EvtDebugToggled, Success: false})
	}

	if len(g.Players) < 2 || g.HumanCount() == 0 {
		winner := ""
		if len(g.Players) == 1 {
			winner = g.Players[0].ID
		}
		return append(events, g.endGame(winner, TeamNone)...)
	}

	if idx < g.CurrentTurnHolder {
		g.CurrentTurnHolder--
	}
	if g.CurrentTurnHolder >= len(g.Players) {
		g.CurrentTurnHolder = 0
	}
	if wasTurn {
		return append(events, g.startTurn()...)
	}
	return append(events, Event{Type: EvtPlayersUpdated})
}
