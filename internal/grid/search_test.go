package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuild(t *testing.T, lines ...string) *State {
	t.Helper()
	s, err := Build(rows(lines...))
	require.NoError(t, err)
	return s
}

func TestReachable_BoundedBySpeed(t *testing.T) {
	s := mustBuild(t,
		"gggg",
		"gggg",
	)
	got := s.Reachable(Coordinate{X: 0, Y: 0}, 2, nil)

	assert.Equal(t, 0, got[Coordinate{X: 0, Y: 0}])
	assert.Equal(t, 2, got[Coordinate{X: 2, Y: 0}])
	assert.Equal(t, 2, got[Coordinate{X: 1, Y: 1}])
	_, far := got[Coordinate{X: 3, Y: 0}]
	assert.False(t, far)
}

func TestReachable_IceIsFreeWaterIsExpensive(t *testing.T) {
	s := mustBuild(t, "giiigw")
	got := s.Reachable(Coordinate{X: 0, Y: 0}, 1, nil)

	assert.Equal(t, 0, got[Coordinate{X: 3, Y: 0}])
	assert.Equal(t, 1, got[Coordinate{X: 4, Y: 0}])
	_, ok := got[Coordinate{X: 5, Y: 0}]
	assert.False(t, ok, "water costs 2")
}

func TestReachable_WallsDoorsAndOccupants(t *testing.T) {
	s := mustBuild(t,
		"g#g",
		"gdg",
		"ggg",
	)
	occupied := Coordinate{X: 1, Y: 2}
	got := s.Reachable(Coordinate{X: 0, Y: 0}, 10, func(c Coordinate) bool { return c == occupied })

	_, wall := got[Coordinate{X: 1, Y: 0}]
	_, door := got[Coordinate{X: 1, Y: 1}]
	_, occ := got[occupied]
	_, beyond := got[Coordinate{X: 2, Y: 0}]
	assert.False(t, wall)
	assert.False(t, door)
	assert.False(t, occ)
	assert.False(t, beyond, "only route runs through the occupied tile")

	_, err := s.ToggleDoor(Coordinate{X: 1, Y: 1})
	require.NoError(t, err)
	got = s.Reachable(Coordinate{X: 0, Y: 0}, 10, func(c Coordinate) bool { return c == occupied })
	assert.Equal(t, 4, got[Coordinate{X: 2, Y: 0}])
}

func TestShortestPath_PrefersCheaperDetour(t *testing.T) {
	s := mustBuild(t,
		"gwg",
		"ggg",
	)
	p, ok := s.ShortestPath(Coordinate{X: 0, Y: 0}, Coordinate{X: 2, Y: 0}, PathOptions{})
	require.True(t, ok)
	assert.Equal(t, 3, p.Cost)
	assert.Equal(t, []Coordinate{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}, p.Tiles)

	s = mustBuild(t,
		"gwwg",
		"gggg",
	)
	p, ok = s.ShortestPath(Coordinate{X: 0, Y: 0}, Coordinate{X: 3, Y: 0}, PathOptions{})
	require.True(t, ok)
	assert.Equal(t, 5, p.Cost)
	assert.Equal(t, 3, p.Len(), "equal cost, fewer steps wins")
}

func TestShortestPath_BlockedGoal(t *testing.T) {
	s := mustBuild(t, "ggg")
	enemy := Coordinate{X: 2, Y: 0}
	blocked := func(c Coordinate) bool { return c == enemy }

	_, ok := s.ShortestPath(Coordinate{X: 0, Y: 0}, enemy, PathOptions{Blocked: blocked})
	assert.False(t, ok)

	p, ok := s.ShortestPath(Coordinate{X: 0, Y: 0}, enemy, PathOptions{Blocked: blocked, AllowBlockedGoal: true})
	require.True(t, ok)
	assert.Equal(t, 2, p.Len())
}

func TestShortestPath_DoorsPassableForPlanning(t *testing.T) {
	s := mustBuild(t, "gdg")
	_, ok := s.ShortestPath(Coordinate{X: 0, Y: 0}, Coordinate{X: 2, Y: 0}, PathOptions{})
	assert.False(t, ok)

	p, ok := s.ShortestPath(Coordinate{X: 0, Y: 0}, Coordinate{X: 2, Y: 0}, PathOptions{DoorsPassable: true})
	require.True(t, ok)
	assert.Equal(t, 2, p.Cost)
}

func TestPathCost(t *testing.T) {
	s := mustBuild(t, "gwig")
	cost, ok := s.PathCost([]Coordinate{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}})
	require.True(t, ok)
	assert.Equal(t, 3, cost)

	_, ok = s.PathCost([]Coordinate{{X: 0, Y: 0}, {X: 2, Y: 0}})
	assert.False(t, ok, "non adjacent steps")
}

func TestClosestTile_BreadthFirstOrder(t *testing.T) {
	s := mustBuild(t,
		"ggg",
		"ggg",
		"ggg",
	)
	center := Coordinate{X: 1, Y: 1}
	taken := map[Coordinate]bool{center: true}

	got, ok := s.ClosestTile(center, func(c Coordinate) bool { return !taken[c] })
	require.True(t, ok)
	assert.Equal(t, Coordinate{X: 1, Y: 0}, got, "up is visited first")

	taken[Coordinate{X: 1, Y: 0}] = true
	got, ok = s.ClosestTile(center, func(c Coordinate) bool { return !taken[c] })
	require.True(t, ok)
	assert.Equal(t, Coordinate{X: 2, Y: 1}, got)
}

func TestClosestTile_DoesNotCrossWalls(t *testing.T) {
	s := mustBuild(t, "g#g")
	start := Coordinate{X: 0, Y: 0}
	_, ok := s.ClosestTile(start, func(c Coordinate) bool { return c != start })
	assert.False(t, ok)
}
