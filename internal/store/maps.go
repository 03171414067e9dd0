package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

var legend = map[rune]string{
	'.': grid.MaterialGrass,
	'S': grid.MaterialGrass,
	'~': grid.MaterialWater,
	'*': grid.MaterialIce,
	'#': grid.MaterialWall,
	'D': grid.MaterialDoor,
}

func tilesFromRows(rows ...string) [][]grid.Tile {
	out := make([][]grid.Tile, 0, len(rows))
	for _, row := range rows {
		line := make([]grid.Tile, 0, len(row))
		for _, r := range row {
			line = append(line, grid.Tile{Material: legend[r], IsSpawnPoint: r == 'S'})
		}
		out = append(out, line)
	}
	return out
}

// BuiltinMaps are always available, even without a database.
func BuiltinMaps() []Map {
	return []Map{
		{
			ID:          "classic-small",
			Name:        "Crossroads",
			Description: "Four corners, one lake.",
			Mode:        items.ModeClassic,
			Size:        items.SizeSmall,
			Tiles: tilesFromRows(
				"S........S",
				"..#....#..",
				"..#.**.#..",
				"....~~....",
				"...#~~#...",
				"...D~~D...",
				"....**....",
				"..#....#..",
				"..#....#..",
				"S........S",
			),
			Items: []items.Placement{
				{Position: grid.Coordinate{X: 1, Y: 4}, Kind: items.Random},
				{Position: grid.Coordinate{X: 8, Y: 5}, Kind: items.Random},
			},
		},
		{
			ID:          "ctf-small",
			Name:        "Banner Run",
			Description: "Grab the flag, bring it home.",
			Mode:        items.ModeCaptureTheFlag,
			Size:        items.SizeSmall,
			Tiles: tilesFromRows(
				"S...##...S",
				"....##....",
				"..........",
				"##..~~..##",
				"....**....",
				"....**....",
				"##..~~..##",
				"..........",
				"....DD....",
				"S...##...S",
			),
			Items: []items.Placement{
				{Position: grid.Coordinate{X: 4, Y: 4}, Kind: items.Flag},
				{Position: grid.Coordinate{X: 2, Y: 2}, Kind: items.Random},
			},
		},
	}
}

// LoadDir reads every *.json map document in dir. A missing id defaults to the file name.
func LoadDir(dir string) ([]Map, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	sort.Strings(paths)

	var out []Map
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read map %s: %w", path, err)
		}
		var m Map
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode map %s: %w", path, err)
		}
		if m.ID == "" {
			base := filepath.Base(path)
			m.ID = base[:len(base)-len(filepath.Ext(base))]
		}
		if m.Mode == "" {
			m.Mode = items.ModeClassic
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("map %s: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, nil
}
