package items

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
)

var ErrNotEnoughItems = errors.New("not enough distinct items to fill random slots")
var ErrUnknownKind = errors.New("unknown item kind")
var ErrBadPosition = errors.New("item placed where no player can stand")

type Kind string

const (
	Armor          Kind = "Armor"
	Bomb           Kind = "Bomb"
	GladiatorHelm  Kind = "GladiatorHelm"
	Pickaxe        Kind = "Pickaxe"
	Shield         Kind = "Shield"
	SwiftnessBoots Kind = "SwiftnessBoots"
	Flag           Kind = "Flag"
	Random         Kind = "Random"
)

type GameMode string

const (
	ModeClassic        GameMode = "Classic"
	ModeCaptureTheFlag GameMode = "CaptureTheFlag"
)

// catalog is the pool random slots draw from, in a fixed order so seeded draws are stable.
var catalog = []Kind{Armor, Bomb, GladiatorHelm, Pickaxe, Shield, SwiftnessBoots}

// ValidKinds returns a copy of the random item pool.
func ValidKinds() []Kind {
	return slices.Clone(catalog)
}

func IsValid(k Kind) bool {
	return slices.Contains(catalog, k) || k == Flag || k == Random
}

// Placement is an item lying on the grid, or an authored slot before resolution.
type Placement struct {
	Position grid.Coordinate `json:"position"`
	Kind     Kind            `json:"item"`
}

// CheckPositions rejects placements outside the grid or on walls and closed doors.
func CheckPositions(placements []Placement, state *grid.State) error {
	for _, p := range placements {
		if !state.IsTraversable(p.Position) {
			return fmt.Errorf("%w: %s at %v", ErrBadPosition, p.Kind, p.Position)
		}
	}
	return nil
}

// Map sizes recognised by the editor.
const (
	SizeSmall  = 10
	SizeMedium = 15
	SizeLarge  = 20
)

// MaxItemsForSize is the editor's item budget for a map size.
func MaxItemsForSize(size int) int {
	switch {
	case size <= SizeSmall:
		return 2
	case size <= SizeMedium:
		return 4
	default:
		return 6
	}
}

// Resolve turns authored placements into concrete items. A placement is deferred when its
// kind is Random or already used by an earlier placement; flags outside CTF are dropped.
// Deferred slots then receive distinct kinds drawn without replacement from the catalog
// minus every kind already placed, in encounter order.
func Resolve(placements []Placement, mode GameMode, rng *rand.Rand) ([]Placement, error) {
	used := map[Kind]bool{}
	out := make([]Placement, 0, len(placements))
	var deferred []grid.Coordinate

	for _, p := range placements {
		if !IsValid(p.Kind) {
			return nil, fmt.Errorf("%w: %q at %v", ErrUnknownKind, p.Kind, p.Position)
		}
		if p.Kind == Flag && mode != ModeCaptureTheFlag {
			continue
		}
		if p.Kind == Random || used[p.Kind] {
			deferred = append(deferred, p.Position)
			continue
		}
		used[p.Kind] = true
		out = append(out, p)
	}

	if len(deferred) == 0 {
		return out, nil
	}

	var pool []Kind
	for _, k := range catalog {
		if !used[k] {
			pool = append(pool, k)
		}
	}
	if len(pool) < len(deferred) {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughItems, len(deferred), len(pool))
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	for i, pos := range deferred {
		out = append(out, Placement{Position: pos, Kind: pool[i]})
	}
	return out, nil
}
