package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

func TestBuiltinMaps_AreValid(t *testing.T) {
	for _, m := range BuiltinMaps() {
		t.Run(m.ID, func(t *testing.T) {
			state, err := grid.Build(m.Grid())
			require.NoError(t, err)
			assert.Len(t, state.Spawnpoints, 4)
			assert.LessOrEqual(t, len(m.Items), items.MaxItemsForSize(m.Size))
			for _, it := range m.Items {
				assert.True(t, state.IsTraversable(it.Position), "item on blocked tile %v", it.Position)
			}
		})
	}
}

func TestMemory_Maps(t *testing.T) {
	hidden := Map{ID: "secret", Name: "Secret", IsHidden: true, Tiles: tilesFromRows("SS")}
	m := NewMemory(append(BuiltinMaps(), hidden)...)
	ctx := context.Background()

	got, err := m.GetMap(ctx, "classic-small")
	require.NoError(t, err)
	assert.Equal(t, "Crossroads", got.Name)

	_, err = m.GetMap(ctx, "nope")
	assert.ErrorIs(t, err, ErrMapNotFound)

	_, err = m.GetMap(ctx, "secret")
	assert.NoError(t, err, "hidden maps can still be played by id")

	list, err := m.ListMaps(ctx)
	require.NoError(t, err)
	var ids []string
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"classic-small", "ctf-small"}, ids)
}

func TestMemory_RecordMatch(t *testing.T) {
	m := NewMemory()
	players := []string{"a", "b"}
	require.NoError(t, m.RecordMatch(context.Background(), Match{RoomCode: "1234", Players: players, WinnerID: "a"}))
	players[0] = "mutated"

	matches := m.Matches()
	require.Len(t, matches, 1)
	assert.NotEmpty(t, matches[0].ID)
	assert.Equal(t, []string{"a", "b"}, matches[0].Players)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	doc := `{
		"name": "Tiny",
		"size": 2,
		"tiles": [
			[{"tileType": "grass", "isSpawnPoint": true}, {"tileType": "./assets/Water.png"}],
			[{"tileType": "ice"}, {"tileType": "grass", "isSpawnPoint": true}]
		],
		"items": [{"position": {"x": 1, "y": 0}, "item": "Random"}]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.json"), []byte(doc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	maps, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Equal(t, "tiny", maps[0].ID)
	assert.Equal(t, items.ModeClassic, maps[0].Mode)
	assert.Equal(t, []items.Placement{{Position: grid.Coordinate{X: 1, Y: 0}, Kind: items.Random}}, maps[0].Items)
}

func TestLoadDir_RejectsUnknownMaterial(t *testing.T) {
	dir := t.TempDir()
	doc := `{"tiles": [[{"tileType": "lava", "isSpawnPoint": true}]]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(doc), 0o644))

	_, err := LoadDir(dir)
	assert.ErrorIs(t, err, grid.ErrUnknownMaterial)
}

func TestLoadDir_RejectsItemOnWall(t *testing.T) {
	dir := t.TempDir()
	doc := `{
		"tiles": [[{"tileType": "grass", "isSpawnPoint": true}, {"tileType": "wall"}]],
		"items": [{"position": {"x": 1, "y": 0}, "item": "Armor"}]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "walled.json"), []byte(doc), 0o644))

	_, err := LoadDir(dir)
	assert.ErrorIs(t, err, items.ErrBadPosition)
}
