package engine

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

type GameParams struct {
	ID      string
	MapID   string
	MapName string
	Mode    items.GameMode
	Grid    grid.GameGrid
	Items   []items.Placement
	Players []PlayerInfo
}

// combatSession is the active fight; at most one per game.
type combatSession struct {
	attackerID string
	defenderID string
}

// pendingPickup holds an item picked up by a player whose inventory was already full,
// until they choose what to drop.
type pendingPickup struct {
	playerID string
	kind     items.Kind
}

type Game struct {
	ID                string
	MapID             string
	MapName           string
	Mode              items.GameMode
	Grid              *grid.State
	Players           []*Player
	Items             []items.Placement
	CurrentTurnHolder int
	IsDebugModeActive bool

	combat  *combatSession
	pending *pendingPickup
	over    bool
	winner  string
	winTeam Team
	rng     *rand.Rand
}

// NewGame builds the grid, instantiates players, fixes the turn order, assigns spawn
// points and teams, and resolves item placements. The first turn starts with Start.
func NewGame(params GameParams, rng *rand.Rand) (*Game, error) {
	state, err := grid.Build(params.Grid)
	if err != nil {
		return nil, fmt.Errorf("build grid: %w", err)
	}
	if len(state.Spawnpoints) < len(params.Players) {
		return nil, fmt.Errorf("%w: %d spawn points, %d players", ErrNotEnoughSpawnpoints, len(state.Spawnpoints), len(params.Players))
	}

	g := &Game{
		ID:      params.ID,
		MapID:   params.MapID,
		MapName: params.MapName,
		Mode:    params.Mode,
		Grid:    state,
		rng:     rng,
	}
	for _, info := range params.Players {
		g.Players = append(g.Players, newPlayer(info))
	}

	sortTurnOrder(g.Players, rng)
	g.assignSpawnpoints()
	if g.Mode == items.ModeCaptureTheFlag {
		g.assignTeams()
	}

	if err := items.CheckPositions(params.Items, state); err != nil {
		return nil, err
	}
	resolved, err := items.Resolve(params.Items, params.Mode, rng)
	if err != nil {
		return nil, fmt.Errorf("resolve items: %w", err)
	}
	g.Items = resolved
	return g, nil
}

func (g *Game) assignSpawnpoints() {
	spawns := slices.Clone(g.Grid.Spawnpoints)
	g.rng.Shuffle(len(spawns), func(i, j int) { spawns[i], spawns[j] = spawns[j], spawns[i] })
	for i, p := range g.Players {
		p.SpawnPointPosition = spawns[i]
		p.Position = spawns[i]
	}
	// unused spawn points become ordinary tiles
	for _, c := range spawns[len(g.Players):] {
		g.Grid.At(c).Spawnpoint = false
	}
	g.Grid.Spawnpoints = spawns[:len(g.Players)]
}

func (g *Game) assignTeams() {
	order := slices.Clone(g.Players)
	g.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	half := len(order) / 2
	for i, p := range order {
		if i < half {
			p.Team = TeamRed
		} else {
			p.Team = TeamBlue
		}
	}
}

// Start begins the first turn.
func (g *Game) Start() []Event {
	if len(g.Players) == 0 {
		return nil
	}
	g.CurrentTurnHolder = 0
	return g.startTurn()
}

func (g *Game) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) PlayerAt(c grid.Coordinate) *Player {
	for _, p := range g.Players {
		if p.Position == c {
			return p
		}
	}
	return nil
}

// ItemAt returns the index in Items of the item lying on c, or -1.
func (g *Game) ItemAt(c grid.Coordinate) int {
	return slices.IndexFunc(g.Items, func(it items.Placement) bool { return it.Position == c })
}

func (g *Game) CurrentPlayer() *Player {
	if g.CurrentTurnHolder < 0 || g.CurrentTurnHolder >= len(g.Players) {
		return nil
	}
	return g.Players[g.CurrentTurnHolder]
}

func (g *Game) CurrentPlayerID() string {
	if p := g.CurrentPlayer(); p != nil {
		return p.ID
	}
	return ""
}

// CombatTurnPlayer returns the fighter whose combat turn it is, or nil outside combat.
func (g *Game) CombatTurnPlayer() *Player {
	if g.combat == nil {
		return nil
	}
	for _, id := range []string{g.combat.attackerID, g.combat.defenderID} {
		if p := g.PlayerByID(id); p != nil && p.IsCombatTurn {
			return p
		}
	}
	return nil
}

func (g *Game) InCombat() bool { return g.combat != nil }

// PendingDrop returns the player who must choose an item to drop, if any.
func (g *Game) PendingDrop() (string, items.Kind, bool) {
	if g.pending == nil {
		return "", "", false
	}
	return g.pending.playerID, g.pending.kind, true
}

func (g *Game) IsOver() bool { return g.over }

// Winner returns the winning player id (Classic) or team (CTF) once the game is over.
func (g *Game) Winner() (string, Team) { return g.winner, g.winTeam }

// IsAlly reports whether a and b share a real team.
func (g *Game) IsAlly(a, b *Player) bool {
	return a.Team != TeamNone && a.Team == b.Team
}

func (g *Game) HumanCount() int {
	n := 0
	for _, p := range g.Players {
		if !p.IsBot {
			n++
		}
	}
	return n
}

// Occupied reports whether another player than except stands on c.
func (g *Game) Occupied(c grid.Coordinate, except string) bool {
	p := g.PlayerAt(c)
	return p != nil && p.ID != except
}

// MovePlayer moves a player along path to destination. The path must start on the
// player's tile, end on destination, and cost no more than the remaining speed; the
// starting tile is not charged. Any violation leaves the game unchanged.
func (g *Game) MovePlayer(playerID string, destination grid.Coordinate, path []grid.Coordinate) bool {
	p := g.PlayerByID(playerID)
	if p == nil || len(path) < 2 {
		return false
	}
	if !g.Grid.IsTraversable(destination) || g.Occupied(destination, p.ID) {
		return false
	}
	if path[0] != p.Position || path[len(path)-1] != destination {
		return false
	}
	for _, c := range path[1:] {
		if g.Occupied(c, p.ID) {
			return false
		}
	}
	cost, ok := g.Grid.PathCost(path)
	if !ok || cost > p.Speed {
		return false
	}
	p.Position = destination
	p.Speed -= cost
	return true
}

// TeleportPlayer sets the position unconditionally.
func (g *Game) TeleportPlayer(playerID string, destination grid.Coordinate) bool {
	p := g.PlayerByID(playerID)
	if p == nil || !g.Grid.InBounds(destination) {
		return false
	}
	p.Position = destination
	return true
}

// RemovePlayer removes a player and returns it. CurrentTurnHolder is left for the caller.
func (g *Game) RemovePlayer(playerID string) *Player {
	i := slices.IndexFunc(g.Players, func(p *Player) bool { return p.ID == playerID })
	if i < 0 {
		return nil
	}
	p := g.Players[i]
	g.Players = slices.Delete(g.Players, i, i+1)
	return p
}

func (g *Game) ToggleDebug() bool {
	g.IsDebugModeActive = !g.IsDebugModeActive
	return g.IsDebugModeActive
}

func (g *Game) DeactivateDebug() {
	g.IsDebugModeActive = false
}

// closestFreeTile finds the nearest traversable tile with no item and no player other
// than except.
func (g *Game) closestFreeTile(from grid.Coordinate, except string) (grid.Coordinate, bool) {
	return g.Grid.ClosestTile(from, func(c grid.Coordinate) bool {
		return !g.Occupied(c, except) && g.ItemAt(c) < 0
	})
}

func (g *Game) endGame(winner string, team Team) []Event {
	g.over = true
	g.winner = winner
	g.winTeam = team
	g.combat = nil
	g.pending = nil
	return []Event{{Type: EvtGameEnded, PlayerID: winner, Team: team}}
}

// PlayerViews returns deep copies of the roster in turn order.
func (g *Game) PlayerViews() []Player {
	out := make([]Player, 0, len(g.Players))
	for _, p := range g.Players {
		out = append(out, p.Clone())
	}
	return out
}

func (g *Game) ItemViews() []items.Placement {
	return slices.Clone(g.Items)
}

func (g *Game) GridView() [][]grid.TileState {
	out := make([][]grid.TileState, len(g.Grid.Grid))
	for y, row := range g.Grid.Grid {
		out[y] = slices.Clone(row)
	}
	return out
}

func pathOf(from, to grid.Coordinate) []grid.Coordinate {
	return []grid.Coordinate{from, to}
}
