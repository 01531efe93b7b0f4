package tilegame

import (
	"math/rand"

	"github.com/rocketscienceinc/tilegame-backend/internal/entity"
)

// ShuffledTileOrder - a per-session random permutation of the tile set,
// used only for displaying the opponent's remaining tiles. The order is
// never synchronized between clients; only the count matters.
func ShuffledTileOrder() []int {
	order := make([]int, 0, entity.MaxTile-entity.MinTile+1)
	for number := entity.MinTile; number <= entity.MaxTile; number++ {
		order = append(order, number)
	}

	rand.Shuffle(len(order), func(i, j int) { //nolint: gosec // it's ok
		order[i], order[j] = order[j], order[i]
	})

	return order
}

// RemainingTiles - the tiles from order that are not in used, keeping
// the order's sequence.
func RemainingTiles(order, used []int) []int {
	usedSet := make(map[int]struct{}, len(used))
	for _, number := range used {
		usedSet[number] = struct{}{}
	}

	remaining := make([]int, 0, len(order))
	for _, number := range order {
		if _, ok := usedSet[number]; ok {
			continue
		}
		remaining = append(remaining, number)
	}

	return remaining
}
