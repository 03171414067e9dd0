package engine

import (
	"slices"

	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

func (g *Game) blockedFor(playerID string) func(grid.Coordinate) bool {
	return func(c grid.Coordinate) bool { return g.Occupied(c, playerID) }
}

// ReachableTiles returns the tiles the player can reach with its remaining speed.
func (g *Game) ReachableTiles(playerID string) map[grid.Coordinate]int {
	p := g.PlayerByID(playerID)
	if p == nil {
		return nil
	}
	return g.Grid.Reachable(p.Position, p.Speed, g.blockedFor(p.ID))
}

// PathTo returns the cheapest walkable path from the player to dest, cut short at the
// first tile holding an item, and the index of that item (or -1).
func (g *Game) PathTo(playerID string, dest grid.Coordinate) (grid.Path, int, bool) {
	p := g.PlayerByID(playerID)
	if p == nil {
		return grid.Path{}, -1, false
	}
	path, ok := g.Grid.ShortestPath(p.Position, dest, grid.PathOptions{Blocked: g.blockedFor(p.ID)})
	if !ok {
		return grid.Path{}, -1, false
	}
	for i, c := range path.Tiles[1:] {
		if idx := g.ItemAt(c); idx >= 0 {
			path.Tiles = path.Tiles[:i+2]
			path.Cost, _ = g.Grid.PathCost(path.Tiles)
			return path, idx, true
		}
	}
	return path, -1, true
}

func (g *Game) move(p *Player, dest grid.Coordinate) ([]Event, error) {
	if !g.Grid.IsTraversable(dest) || g.Occupied(dest, p.ID) || dest == p.Position {
		return nil, ErrUnreachable
	}

	var events []Event
	if g.IsDebugModeActive {
		from := p.Position
		g.TeleportPlayer(p.ID, dest)
		events = append(events, Event{Type: EvtPlayerMoved, PlayerID: p.ID, Path: pathOf(from, dest), Teleport: true})
	} else {
		full, ok := g.Grid.ShortestPath(p.Position, dest, grid.PathOptions{Blocked: g.blockedFor(p.ID)})
		if !ok {
			return nil, ErrUnreachable
		}
		if full.Cost > p.Speed {
			return nil, ErrNotEnoughSpeed
		}
		path, _, _ := g.PathTo(p.ID, dest)
		end := path.Tiles[len(path.Tiles)-1]
		if !g.MovePlayer(p.ID, end, path.Tiles) {
			return nil, ErrUnreachable
		}
		events = append(events, Event{Type: EvtPlayerMoved, PlayerID: p.ID, Path: path.Tiles})
	}

	if idx := g.ItemAt(p.Position); idx >= 0 {
		events = append(events, g.pickUp(p, idx)...)
	}
	if win := g.checkFlagCapture(p); win != nil {
		return append(events, win...), nil
	}
	events = append(events, Event{Type: EvtPlayersUpdated})
	return append(events, g.afterAction(p)...), nil
}

// checkFlagCapture ends a CTF game when a flag holder reaches its own spawn point.
func (g *Game) checkFlagCapture(p *Player) []Event {
	if g.Mode != items.ModeCaptureTheFlag || !p.HasFlag || p.Position != p.SpawnPointPosition {
		return nil
	}
	return g.endGame(p.ID, p.Team)
}

func (g *Game) pickUp(p *Player, idx int) []Event {
	it := g.Items[idx]
	if it.Kind == items.Flag && g.Mode != items.ModeCaptureTheFlag {
		return nil
	}
	g.Items = slices.Delete(g.Items, idx, idx+1)
	events := []Event{{Type: EvtItemPickedUp, PlayerID: p.ID, Item: it.Kind, Position: p.Position}}
	if len(p.Items) >= MaxItemsPerPlayer {
		g.pending = &pendingPickup{playerID: p.ID, kind: it.Kind}
		return append(events, Event{Type: EvtInventoryFull, PlayerID: p.ID, Item: it.Kind}, Event{Type: EvtItemsUpdated})
	}
	p.Items = append(p.Items, it.Kind)
	ApplyPassiveItemEffect(p, it.Kind)
	return append(events, Event{Type: EvtItemsUpdated})
}

func (g *Game) pickupHere(p *Player) ([]Event, error) {
	idx := g.ItemAt(p.Position)
	if idx < 0 {
		return nil, ErrNoItem
	}
	events := g.pickUp(p, idx)
	if events == nil {
		return nil, ErrNoItem
	}
	return append(events, Event{Type: EvtPlayersUpdated}), nil
}

// dropItem leaves kind on the player's tile. While a pickup is pending, kind may be
// the pending item itself or one already held, in which case the pending item takes
// its inventory slot.
func (g *Game) dropItem(p *Player, kind items.Kind) ([]Event, error) {
	if g.ItemAt(p.Position) >= 0 {
		return nil, ErrIllegalTarget
	}
	pending := g.pending != nil && g.pending.playerID == p.ID
	switch {
	case pending && g.pending.kind == kind:
	case p.HasItem(kind):
		RemovePassiveItemEffect(p, kind)
		p.removeItem(kind)
		if pending {
			p.Items = append(p.Items, g.pending.kind)
			ApplyPassiveItemEffect(p, g.pending.kind)
		}
	default:
		return nil, ErrNoItem
	}
	g.pending = nil
	g.Items = append(g.Items, items.Placement{Position: p.Position, Kind: kind})
	events := []Event{
		{Type: EvtItemDropped, PlayerID: p.ID, Item: kind, Position: p.Position},
		{Type: EvtItemsUpdated},
		{Type: EvtPlayersUpdated},
	}
	return append(events, g.afterAction(p)...), nil
}

// dropAll scatters every item p holds on the free tiles closest to from.
func (g *Game) dropAll(p *Player, from grid.Coordinate) bool {
	dropped := false
	for _, kind := range slices.Clone(p.Items) {
		RemovePassiveItemEffect(p, kind)
		p.removeItem(kind)
		c, ok := g.closestFreeTile(from, "")
		if !ok {
			continue
		}
		g.Items = append(g.Items, items.Placement{Position: c, Kind: kind})
		dropped = true
	}
	return dropped
}

func (g *Game) adjacentTarget(p *Player, target grid.Coordinate) error {
	if !g.Grid.InBounds(target) || !grid.Adjacent(p.Position, target) {
		return ErrIllegalTarget
	}
	if p.ActionPoints <= 0 {
		return ErrNoActionPoints
	}
	return nil
}

func (g *Game) useDoor(p *Player, target grid.Coordinate) ([]Event, error) {
	if err := g.adjacentTarget(p, target); err != nil {
		return nil, err
	}
	if !g.Grid.At(target).IsDoor || g.PlayerAt(target) != nil || g.ItemAt(target) >= 0 {
		return nil, ErrIllegalTarget
	}
	tile, err := g.Grid.ToggleDoor(target)
	if err != nil {
		return nil, ErrIllegalTarget
	}
	p.ActionPoints--
	events := []Event{
		{Type: EvtGridUpdated, PlayerID: p.ID, Position: target, Tile: tile},
		{Type: EvtPlayersUpdated},
	}
	return append(events, g.afterAction(p)...), nil
}

func (g *Game) breakWall(p *Player, target grid.Coordinate) ([]Event, error) {
	if err := g.adjacentTarget(p, target); err != nil {
		return nil, err
	}
	if !p.HasActive(items.Pickaxe) && !g.IsDebugModeActive {
		return nil, ErrIllegalTarget
	}
	tile, err := g.Grid.BreakWall(target)
	if err != nil {
		return nil, ErrIllegalTarget
	}
	p.ActionPoints--
	events := []Event{
		{Type: EvtGridUpdated, PlayerID: p.ID, Position: target, Tile: tile},
		{Type: EvtPlayersUpdated},
	}
	return append(events, g.afterAction(p)...), nil
}
