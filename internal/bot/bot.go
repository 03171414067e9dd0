package bot

import (
	"sort"

	"github.com/DoyleJ11/grid-tactics-backend/internal/engine"
	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

// keepValue ranks items when a bot has to give one up. Higher is kept.
var keepValue = map[items.Kind]int{
	items.Flag:           10,
	items.Armor:          5,
	items.SwiftnessBoots: 5,
	items.Shield:         4,
	items.GladiatorHelm:  4,
	items.Bomb:           3,
	items.Pickaxe:        1,
}

// Decide returns the next command for the bot, or false when the bot has nothing to do
// right now (not its turn, or waiting for the opponent in combat). The command goes
// through Game.Apply like any human intent.
func Decide(g *engine.Game, botID string) (engine.Command, bool) {
	b := g.PlayerByID(botID)
	if b == nil || !b.IsBot || g.IsOver() {
		return engine.Command{}, false
	}
	if g.InCombat() {
		if !b.IsInCombat || !b.IsCombatTurn {
			return engine.Command{}, false
		}
		return combatMove(b), true
	}
	if g.CurrentPlayer() != b {
		return engine.Command{}, false
	}
	if id, pending, ok := g.PendingDrop(); ok && id == b.ID {
		return engine.Command{Type: engine.CmdDropItem, PlayerID: b.ID, Item: leastValuable(b, pending)}, true
	}

	if enemy := adjacentEnemy(g, b); enemy != nil {
		if b.ActionPoints > 0 {
			return engine.Command{Type: engine.CmdStartCombat, PlayerID: b.ID, TargetID: enemy.ID}, true
		}
		return endTurn(b), true
	}

	for _, goal := range goals(g, b) {
		path, ok := g.Grid.ShortestPath(b.Position, goal, grid.PathOptions{
			Blocked:          func(c grid.Coordinate) bool { return g.Occupied(c, b.ID) },
			AllowBlockedGoal: true,
			DoorsPassable:    true,
		})
		if !ok {
			continue
		}
		if cmd, ok := advance(g, b, path.Tiles); ok {
			return cmd, true
		}
	}
	return endTurn(b), true
}

func endTurn(b *engine.Player) engine.Command {
	return engine.Command{Type: engine.CmdNextTurn, PlayerID: b.ID}
}

// combatMove attacks, except that a defensive bot below half health tries to run.
func combatMove(b *engine.Player) engine.Command {
	if b.Profile == engine.ProfileDefensive &&
		b.HealthPower*2 <= b.MaxHealthPower &&
		b.EscapesAttempts < engine.MaxEscapesAttempts {
		return engine.Command{Type: engine.CmdEscape, PlayerID: b.ID}
	}
	return engine.Command{Type: engine.CmdAttack, PlayerID: b.ID}
}

func leastValuable(b *engine.Player, pending items.Kind) items.Kind {
	drop := pending
	for _, k := range b.Items {
		if keepValue[k] < keepValue[drop] {
			drop = k
		}
	}
	return drop
}

func enemies(g *engine.Game, b *engine.Player) []*engine.Player {
	var out []*engine.Player
	for _, p := range g.Players {
		if p != b && !g.IsAlly(b, p) {
			out = append(out, p)
		}
	}
	return out
}

func adjacentEnemy(g *engine.Game, b *engine.Player) *engine.Player {
	for _, p := range enemies(g, b) {
		if grid.Adjacent(b.Position, p.Position) {
			return p
		}
	}
	return nil
}

// goals lists candidate destinations, best first. Aggressive bots chase enemies before
// items, defensive bots the other way round; in CTF the flag comes first.
func goals(g *engine.Game, b *engine.Player) []grid.Coordinate {
	if g.Mode == items.ModeCaptureTheFlag {
		if b.HasFlag {
			return []grid.Coordinate{b.SpawnPointPosition}
		}
		var flag []grid.Coordinate
		for _, it := range g.Items {
			if it.Kind == items.Flag {
				flag = append(flag, it.Position)
			}
		}
		for _, p := range enemies(g, b) {
			if p.HasFlag {
				flag = append(flag, p.Position)
			}
		}
		if len(flag) > 0 {
			return append(flag, byDistance(g, b, enemyTiles(g, b))...)
		}
	}

	foes := byDistance(g, b, enemyTiles(g, b))
	var loot []grid.Coordinate
	if len(b.Items) < engine.MaxItemsPerPlayer {
		for _, it := range g.Items {
			loot = append(loot, it.Position)
		}
		loot = byDistance(g, b, loot)
	}
	if b.Profile == engine.ProfileDefensive {
		return append(loot, foes...)
	}
	return append(foes, loot...)
}

func enemyTiles(g *engine.Game, b *engine.Player) []grid.Coordinate {
	var out []grid.Coordinate
	for _, p := range enemies(g, b) {
		out = append(out, p.Position)
	}
	return out
}

// byDistance keeps the reachable targets, sorted by path cost then path length.
// Unreachable ones are skipped.
func byDistance(g *engine.Game, b *engine.Player, targets []grid.Coordinate) []grid.Coordinate {
	type ranked struct {
		c     grid.Coordinate
		cost  int
		steps int
	}
	var found []ranked
	for _, t := range targets {
		path, ok := g.Grid.ShortestPath(b.Position, t, grid.PathOptions{
			Blocked:          func(c grid.Coordinate) bool { return g.Occupied(c, b.ID) },
			AllowBlockedGoal: true,
			DoorsPassable:    true,
		})
		if !ok {
			continue
		}
		found = append(found, ranked{c: t, cost: path.Cost, steps: path.Len()})
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].cost != found[j].cost {
			return found[i].cost < found[j].cost
		}
		return found[i].steps < found[j].steps
	})
	out := make([]grid.Coordinate, 0, len(found))
	for _, r := range found {
		out = append(out, r.c)
	}
	return out
}

// advance walks the planned path as far as speed allows. It stops before closed doors,
// occupied tiles and after the first item. A closed door right next to the bot is
// opened instead.
func advance(g *engine.Game, b *engine.Player, path []grid.Coordinate) (engine.Command, bool) {
	last := 0
	for i := 1; i < len(path); i++ {
		c := path[i]
		if g.Grid.IsClosedDoor(c) {
			if i == 1 && b.ActionPoints > 0 && g.ItemAt(c) < 0 {
				return engine.Command{Type: engine.CmdUseDoor, PlayerID: b.ID, Destination: c}, true
			}
			break
		}
		if g.Occupied(c, b.ID) {
			break
		}
		cost, ok := g.Grid.PathCost(path[:i+1])
		if !ok || cost > b.Speed {
			break
		}
		last = i
		if g.ItemAt(c) >= 0 {
			break
		}
	}
	if last == 0 {
		return engine.Command{}, false
	}
	return engine.Command{Type: engine.CmdMovePlayer, PlayerID: b.ID, Destination: path[last]}, true
}
