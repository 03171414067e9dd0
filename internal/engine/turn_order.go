package engine

import (
	"math/rand"
	"sort"
)

// sortTurnOrder orders players by descending speed. Players are shuffled first so
// equal speeds end up in a coin-flip order that is stable for a given seed.
func sortTurnOrder(players []*Player, rng *rand.Rand) {
	rng.Shuffle(len(players), func(i, j int) { players[i], players[j] = players[j], players[i] })
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Speed > players[j].Speed
	})
}

// nextTurnIndex is the slot after current, wrapping around.
func nextTurnIndex(current, count int) int {
	if count == 0 {
		return 0
	}
	return (current + 1) % count
}
