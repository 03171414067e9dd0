package types

import (
	"github.com/DoyleJ11/grid-tactics-backend/internal/engine"
	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

type ClientMessage struct {
	Type          string           `json:"type"`
	Name          string           `json:"name,omitempty"`
	TargetID      string           `json:"targetId,omitempty"`
	Profile       string           `json:"profile,omitempty"`
	ChampionIndex *int             `json:"championIndex,omitempty"`
	ChampionName  string           `json:"championName,omitempty"`
	Bonus         string           `json:"bonus,omitempty"`
	Dice          string           `json:"dice,omitempty"`
	Position      *grid.Coordinate `json:"position,omitempty"`
	Item          string           `json:"item,omitempty"`
}

type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Member struct {
	ID            string            `json:"_id"`
	Name          string            `json:"name"`
	IsBot         bool              `json:"isBot"`
	Profile       engine.BotProfile `json:"profile,omitempty"`
	IsLeader      bool              `json:"isLeader"`
	ChampionIndex int               `json:"championIndex"` // -1 until chosen
	ChampionName  string            `json:"championName,omitempty"`
	Bonus         engine.Bonus      `json:"bonus,omitempty"`
	Dice          engine.DiceChoice `json:"dice,omitempty"`
	Submitted     bool              `json:"submitted"`
}

type Room struct {
	Code       string         `json:"code"`
	MapID      string         `json:"mapId"`
	MapName    string         `json:"mapName"`
	Mode       items.GameMode `json:"gameMode"`
	Phase      string         `json:"phase"`
	Locked     bool           `json:"locked"`
	MaxPlayers int            `json:"maxPlayers"`
	Members    []Member       `json:"members"`
}

type Joined struct {
	PlayerID string `json:"playerId"`
	Room     Room   `json:"room"`
}

type Kicked struct {
	Reason string `json:"reason"`
}

// Game is a full snapshot, sent on GameStarted.
type Game struct {
	ID              string             `json:"id"`
	MapID           string             `json:"mapId"`
	Mode            items.GameMode     `json:"gameMode"`
	Grid            [][]grid.TileState `json:"grid"`
	Players         []engine.Player    `json:"players"`
	Items           []items.Placement  `json:"items"`
	CurrentPlayerID string             `json:"currentPlayerId"`
	Debug           bool               `json:"isDebugModeActive"`
}

type Players struct {
	Players []engine.Player `json:"players"`
}

type Items struct {
	Items []items.Placement `json:"items"`
}

type PlayerRef struct {
	PlayerID string `json:"playerId"`
}

type GridUpdate struct {
	Position grid.Coordinate `json:"position"`
	Tile     grid.TileState  `json:"tile"`
}

type InventoryFull struct {
	Item  items.Kind   `json:"item"`
	Items []items.Kind `json:"items"`
}

type Move struct {
	PlayerID string            `json:"playerId"`
	Path     []grid.Coordinate `json:"path"`
	Teleport bool              `json:"teleport"`
}

type ItemEvent struct {
	PlayerID string          `json:"playerId"`
	Item     items.Kind      `json:"item"`
	Position grid.Coordinate `json:"position"`
}

type Combat struct {
	AttackerID string `json:"attackerId"`
	DefenderID string `json:"defenderId"`
}

type Escape struct {
	PlayerID string `json:"playerId"`
	Success  bool   `json:"success"`
}

type CombatEnded struct {
	WinnerID string `json:"winnerId,omitempty"`
	LoserID  string `json:"loserId,omitempty"`
}

type Timer struct {
	RemainingMs int64 `json:"remainingMs"`
	Combat      bool  `json:"combat"`
	Paused      bool  `json:"paused"`
}

type Debug struct {
	Active bool `json:"active"`
}

type GameEnded struct {
	WinnerID   string      `json:"winnerId,omitempty"`
	WinnerTeam engine.Team `json:"winnerTeam,omitempty"`
}
