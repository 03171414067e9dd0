package store

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

var ErrMapNotFound = errors.New("map not found")

// Map is a map document. Only the tiles, items and mode feed a game; the rest is
// metadata for listings.
type Map struct {
	ID          string            `json:"_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Mode        items.GameMode    `json:"gameMode"`
	Size        int               `json:"size"`
	Tiles       [][]grid.Tile     `json:"tiles"`
	Items       []items.Placement `json:"items"`
	IsHidden    bool              `json:"isHidden"`
}

// Grid returns the tile document the grid builder reads.
func (m Map) Grid() grid.GameGrid {
	size := m.Size
	if size == 0 {
		size = len(m.Tiles)
	}
	return grid.GameGrid{Tiles: m.Tiles, Size: size}
}

// Validate builds the grid and checks the item placements, so a broken map is refused
// before a room opens on it.
func (m Map) Validate() error {
	state, err := grid.Build(m.Grid())
	if err != nil {
		return err
	}
	return items.CheckPositions(m.Items, state)
}

type MapSummary struct {
	ID          string         `json:"_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Mode        items.GameMode `json:"gameMode"`
	Size        int            `json:"size"`
}

func (m Map) Summary() MapSummary {
	return MapSummary{ID: m.ID, Name: m.Name, Description: m.Description, Mode: m.Mode, Size: m.Grid().Size}
}

// Match is the record of a finished game.
type Match struct {
	ID         string         `json:"id"`
	RoomCode   string         `json:"roomCode"`
	MapID      string         `json:"mapId"`
	Mode       items.GameMode `json:"gameMode"`
	WinnerID   string         `json:"winnerId,omitempty"`
	WinnerTeam string         `json:"winnerTeam,omitempty"`
	Players    []string       `json:"players"`
	StartedAt  time.Time      `json:"startedAt"`
	EndedAt    time.Time      `json:"endedAt"`
}

type MapSource interface {
	GetMap(ctx context.Context, id string) (Map, error)
	// ListMaps returns the visible maps.
	ListMaps(ctx context.Context) ([]MapSummary, error)
}

type MatchRecorder interface {
	RecordMatch(ctx context.Context, m Match) error
}

type Store interface {
	MapSource
	MatchRecorder
	Close() error
}
