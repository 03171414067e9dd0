package engine

import (
	"errors"

	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

var ErrWrongTurn = errors.New("invalid turn")
var ErrUnknownPlayer = errors.New("unknown player")
var ErrUnreachable = errors.New("destination unreachable")
var ErrNotEnoughSpeed = errors.New("not enough movement points")
var ErrNoActionPoints = errors.New("no action points left")
var ErrIllegalTarget = errors.New("illegal target")
var ErrInCombat = errors.New("player is in combat")
var ErrNotInCombat = errors.New("player is not in combat")
var ErrNoEscapesLeft = errors.New("no escape attempts left")
var ErrInventoryFull = errors.New("inventory full, an item must be dropped")
var ErrNoItem = errors.New("no such item")
var ErrNotLeader = errors.New("only the room leader can do that")
var ErrUnsupportedCommand = errors.New("unsupported command")
var ErrGameOver = errors.New("game already completed")
var ErrNotEnoughSpawnpoints = errors.New("map has fewer spawn points than players")

const (
	MaxEscapesAttempts    = 2
	MaxItemsPerPlayer     = 2
	WinningFightsCount    = 3
	EscapeChance          = 0.4
	ShieldHealthThreshold = 3
	IcePenalty            = 2
)

type CommandType string

const (
	CmdMovePlayer    CommandType = "MovePlayer"
	CmdUseDoor       CommandType = "UseDoor"
	CmdBreakWall     CommandType = "BreakWall"
	CmdStartCombat   CommandType = "StartCombat"
	CmdAttack        CommandType = "Attack"
	CmdEscape        CommandType = "Escape"
	CmdForfeitCombat CommandType = "ForfeitCombat"
	CmdNextTurn      CommandType = "NextTurn"
	CmdPickupItem    CommandType = "PickupItem"
	CmdDropItem      CommandType = "DropItem"
	CmdToggleDebug   CommandType = "ToggleDebug"
	CmdLeaveGame     CommandType = "LeaveGame"
	// Issued by the room's timers, never by clients.
	CmdTurnTimeout   CommandType = "TurnTimeout"
	CmdCombatTimeout CommandType = "CombatTimeout"
)

/*
	CmdMovePlayer    -> MovePlayer -> [ItemPickedUp | InventoryFull] -> PlayersUpdated -> [TurnChanged]
	CmdUseDoor       -> GridUpdated -> PlayersUpdated
	CmdStartCombat   -> CombatStarted [BotStartCombat] -> PlayersUpdated
	CmdAttack        -> CombatUpdate -> [CombatEnded -> ItemsUpdated -> TurnChanged | GameEnded]
	CmdEscape        -> EscapeAttempt -> [CombatEnded]
	CmdLeaveGame     -> PlayerLeft -> ItemsUpdated -> [TurnChanged | GameEnded]
*/

// Command is a player intent. PlayerID is set by the server from the connection,
// never taken from the client payload.
type Command struct {
	Type        CommandType
	PlayerID    string
	TargetID    string
	Destination grid.Coordinate
	Item        items.Kind
}

type EventType string

const (
	EvtTurnChanged     EventType = "TurnChanged"
	EvtPlayersUpdated  EventType = "PlayersUpdated"
	EvtGridUpdated     EventType = "GridUpdated"
	EvtItemsUpdated    EventType = "UpdateItems"
	EvtInventoryFull   EventType = "InventoryFull"
	EvtPlayerMoved     EventType = "MovePlayer"
	EvtItemPickedUp    EventType = "ItemPickedUp"
	EvtItemDropped     EventType = "ItemDropped"
	EvtCombatStarted   EventType = "CombatStarted"
	EvtBotStartCombat  EventType = "BotStartCombat"
	EvtCombatUpdate    EventType = "CombatUpdate"
	EvtEscapeAttempt   EventType = "EscapeAttempt"
	EvtCombatEnded     EventType = "CombatEnded"
	EvtDebugToggled    EventType = "DebugToggled"
	EvtPlayerLeft      EventType = "PlayerLeft"
	EvtEndTurnRequired EventType = "EndTurnRequired"
	EvtGameEnded       EventType = "GameEnded"
)

type AttackResult struct {
	AttackerID   string `json:"attackerId"`
	DefenderID   string `json:"defenderId"`
	AttackRoll   int    `json:"attackRoll"`
	DefenseRoll  int    `json:"defenseRoll"`
	AttackTotal  int    `json:"attackTotal"`
	DefenseTotal int    `json:"defenseTotal"`
	Damage       int    `json:"damage"`
}

type Event struct {
	Type     EventType
	PlayerID string
	TargetID string
	Position grid.Coordinate
	Path     []grid.Coordinate
	Tile     grid.TileState
	Item     items.Kind
	Attack   *AttackResult
	Success  bool
	Teleport bool
	Team     Team
}

// Apply validates cmd against the current state and, only if it is legal, mutates the
// game. A rejected command returns an error and leaves the game untouched.
func (g *Game) Apply(cmd Command) ([]Event, error) {
	if g.over {
		return nil, ErrGameOver
	}
	p := g.PlayerByID(cmd.PlayerID)
	if p == nil {
		return nil, ErrUnknownPlayer
	}

	switch cmd.Type {
	case CmdLeaveGame:
		return g.leave(p), nil
	case CmdToggleDebug:
		if !p.IsLeader {
			return nil, ErrNotLeader
		}
		on := g.ToggleDebug()
		return []Event{{Type: EvtDebugToggled, PlayerID: p.ID, Success: on}}, nil
	case CmdAttack, CmdCombatTimeout:
		if err := g.checkCombatTurn(p); err != nil {
			return nil, err
		}
		return g.attack(p), nil
	case CmdEscape:
		if err := g.checkCombatTurn(p); err != nil {
			return nil, err
		}
		return g.escape(p)
	case CmdForfeitCombat:
		if g.combat == nil || !p.IsInCombat {
			return nil, ErrNotInCombat
		}
		return g.forfeit(p), nil
	}

	if err := g.checkTurn(p); err != nil {
		return nil, err
	}
	if g.pending != nil && cmd.Type != CmdDropItem && cmd.Type != CmdTurnTimeout {
		return nil, ErrInventoryFull
	}

	switch cmd.Type {
	case CmdMovePlayer:
		return g.move(p, cmd.Destination)
	case CmdUseDoor:
		return g.useDoor(p, cmd.Destination)
	case CmdBreakWall:
		return g.breakWall(p, cmd.Destination)
	case CmdStartCombat:
		return g.startCombat(p, cmd.TargetID)
	case CmdNextTurn:
		return g.endTurn(), nil
	case CmdTurnTimeout:
		return g.turnTimeout(p), nil
	case CmdPickupItem:
		return g.pickupHere(p)
	case CmdDropItem:
		return g.dropItem(p, cmd.Item)
	default:
		return nil, ErrUnsupportedCommand
	}
}

func (g *Game) checkTurn(p *Player) error {
	if g.CurrentPlayer() != p {
		return ErrWrongTurn
	}
	if p.IsInCombat || g.combat != nil {
		return ErrInCombat
	}
	return nil
}

func (g *Game) checkCombatTurn(p *Player) error {
	if g.combat == nil || !p.IsInCombat {
		return ErrNotInCombat
	}
	if !p.IsCombatTurn {
		return ErrWrongTurn
	}
	return nil
}
