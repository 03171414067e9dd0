package grid

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var ErrUnknownMaterial = errors.New("unknown tile material")
var ErrInvalidGrid = errors.New("invalid grid")
var ErrOutOfBounds = errors.New("coordinate out of bounds")
var ErrNotADoor = errors.New("tile is not a door")
var ErrNotAWall = errors.New("tile is not a wall")

// Coordinate is a grid cell. X is the column, Y is the row.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// OffGrid marks an item that is held by a player rather than lying on a tile.
var OffGrid = Coordinate{X: -1, Y: -1}

func (c Coordinate) Add(d Coordinate) Coordinate {
	return Coordinate{X: c.X + d.X, Y: c.Y + d.Y}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Adjacent reports whether a and b share an edge.
func Adjacent(a, b Coordinate) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return (dx == 0 && (dy == 1 || dy == -1)) || (dy == 0 && (dx == 1 || dx == -1))
}

// Orthogonal neighbor offsets in search order: up, right, down, left.
var directions = [...]Coordinate{
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
}

// Tile is one editor-authored cell.
type Tile struct {
	TileType     string `json:"tileType"`
	Material     string `json:"material"`
	IsSpawnPoint bool   `json:"isSpawnPoint"`
}

// GameGrid is the authored map grid, indexed Tiles[y][x].
type GameGrid struct {
	Tiles [][]Tile `json:"tiles"`
	Size  int      `json:"size"`
}

type TileState struct {
	Material      string `json:"material"`
	IsDoor        bool   `json:"isDoor"`
	IsTraversable bool   `json:"isTraversable"`
	TileCost      int    `json:"tileCost"`
	Spawnpoint    bool   `json:"spawnpoint"`
}

const (
	MaterialGrass    = "grass"
	MaterialIce      = "ice"
	MaterialWater    = "water"
	MaterialWall     = "wall"
	MaterialDoor     = "door"
	MaterialOpenDoor = "opendoor"
)

var tileTable = map[string]TileState{
	MaterialGrass:    {IsTraversable: true, TileCost: 1},
	MaterialIce:      {IsTraversable: true, TileCost: 0},
	MaterialWater:    {IsTraversable: true, TileCost: 2},
	MaterialWall:     {},
	MaterialDoor:     {IsDoor: true},
	MaterialOpenDoor: {IsDoor: true, IsTraversable: true, TileCost: 1},
}

// MaterialKey strips directories and extension: "./assets/tiles/Grass.png" -> "grass".
func MaterialKey(material string) string {
	base := path.Base(strings.ReplaceAll(material, "\\", "/"))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.ToLower(strings.TrimSpace(base))
	return strings.NewReplacer("-", "", "_", "").Replace(base)
}

// Lookup resolves a material to its tile state. Unknown materials are an error.
func Lookup(material string) (TileState, error) {
	key := MaterialKey(material)
	ts, ok := tileTable[key]
	if !ok {
		return TileState{}, fmt.Errorf("%w: %q", ErrUnknownMaterial, material)
	}
	ts.Material = key
	return ts, nil
}

// State is the simulation grid derived from a GameGrid. Grid is indexed [y][x].
type State struct {
	Grid        [][]TileState `json:"grid"`
	Spawnpoints []Coordinate  `json:"spawnpoints"`
}

// Build converts an authored grid into a simulation grid.
func Build(g GameGrid) (*State, error) {
	if len(g.Tiles) == 0 || len(g.Tiles[0]) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidGrid)
	}
	width := len(g.Tiles[0])
	s := &State{Grid: make([][]TileState, len(g.Tiles))}
	for y, row := range g.Tiles {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d tiles, want %d", ErrInvalidGrid, y, len(row), width)
		}
		s.Grid[y] = make([]TileState, width)
		for x, tile := range row {
			material := tile.Material
			if material == "" {
				material = tile.TileType
			}
			ts, err := Lookup(material)
			if err != nil {
				return nil, fmt.Errorf("tile %v: %w", Coordinate{X: x, Y: y}, err)
			}
			ts.Spawnpoint = tile.IsSpawnPoint
			s.Grid[y][x] = ts
			if tile.IsSpawnPoint {
				s.Spawnpoints = append(s.Spawnpoints, Coordinate{X: x, Y: y})
			}
		}
	}
	return s, nil
}

func (s *State) Height() int { return len(s.Grid) }

func (s *State) Width() int {
	if len(s.Grid) == 0 {
		return 0
	}
	return len(s.Grid[0])
}

func (s *State) InBounds(c Coordinate) bool {
	return c.Y >= 0 && c.Y < len(s.Grid) && c.X >= 0 && c.X < len(s.Grid[c.Y])
}

// At returns the tile at c, or nil when c is outside the grid.
func (s *State) At(c Coordinate) *TileState {
	if !s.InBounds(c) {
		return nil
	}
	return &s.Grid[c.Y][c.X]
}

func (s *State) IsTraversable(c Coordinate) bool {
	t := s.At(c)
	return t != nil && t.IsTraversable
}

func (s *State) IsClosedDoor(c Coordinate) bool {
	t := s.At(c)
	return t != nil && t.IsDoor && !t.IsTraversable
}

func (s *State) IsOpenDoor(c Coordinate) bool {
	t := s.At(c)
	return t != nil && t.IsDoor && t.IsTraversable
}

func (s *State) IsWall(c Coordinate) bool {
	t := s.At(c)
	return t != nil && !t.IsDoor && !t.IsTraversable
}

// Neighbors returns the in-bounds orthogonal neighbors of c.
func (s *State) Neighbors(c Coordinate) []Coordinate {
	out := make([]Coordinate, 0, len(directions))
	for _, d := range directions {
		n := c.Add(d)
		if s.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// ToggleDoor opens a closed door or closes an open one and returns the new state.
func (s *State) ToggleDoor(c Coordinate) (TileState, error) {
	t := s.At(c)
	if t == nil {
		return TileState{}, ErrOutOfBounds
	}
	if !t.IsDoor {
		return TileState{}, ErrNotADoor
	}
	spawn := t.Spawnpoint
	if t.IsTraversable {
		*t = tileTable[MaterialDoor]
		t.Material = MaterialDoor
	} else {
		*t = tileTable[MaterialOpenDoor]
		t.Material = MaterialOpenDoor
	}
	t.Spawnpoint = spawn
	return *t, nil
}

// BreakWall turns a wall into plain grass.
func (s *State) BreakWall(c Coordinate) (TileState, error) {
	t := s.At(c)
	if t == nil {
		return TileState{}, ErrOutOfBounds
	}
	if t.IsDoor || t.IsTraversable {
		return TileState{}, ErrNotAWall
	}
	spawn := t.Spawnpoint
	*t = tileTable[MaterialGrass]
	t.Material = MaterialGrass
	t.Spawnpoint = spawn
	return *t, nil
}
