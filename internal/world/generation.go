// World generation using layered simplex noise.
// Elevation and moisture fields are sampled per tile, then terrain is
// derived with the same biases the hand-rolled generator used: mountains
// cluster on the east/west edges and a river band crosses the middle row.
package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Width          int
	Height         int
	Seed           int64
	ResourceChance float64 // Per-cell probability of holding one resource
}

// DefaultGenConfig returns the standard 5x5 world.
func DefaultGenConfig(seed int64) GenConfig {
	return GenConfig{
		Width:          5,
		Height:         5,
		Seed:           seed,
		ResourceChance: 0.3,
	}
}

// Generate creates a grid with terrain and resources, deterministic
// from the seed. The agent's starting cell (0,0) is pre-discovered.
func Generate(cfg GenConfig) *Grid {
	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	moistNoise := opensimplex.NewNormalized(cfg.Seed + 1)
	rng := rand.New(rand.NewSource(cfg.Seed + 2))

	g := NewGrid(cfg.Width, cfg.Height)

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			// Small grids need a high noise frequency to vary at all.
			fx := float64(x) * 0.9
			fy := float64(y) * 0.9

			elev := elevNoise.Eval2(fx, fy)
			moist := moistNoise.Eval2(fx+7.3, fy-2.1)

			// Edge columns rise toward mountains.
			if x == 0 || x == cfg.Width-1 {
				elev += 0.18
			}

			cell := g.Cell(x, y)
			cell.Terrain = deriveTerrain(x, y, cfg, elev, moist)

			if rng.Float64() < cfg.ResourceChance {
				cell.AddResource(ResourceType(rng.Intn(NumResources)))
			}
		}
	}

	if start := g.Cell(0, 0); start != nil {
		start.Discovered = true
	}

	return g
}

// deriveTerrain maps the noise fields to a terrain type.
func deriveTerrain(x, y int, cfg GenConfig, elev, moist float64) TerrainType {
	// River band along the middle row where moisture allows.
	if y == cfg.Height/2 && moist > 0.35 {
		return TerrainRiver
	}
	switch {
	case elev > 0.72:
		return TerrainMountains
	case elev > 0.55 && moist < 0.40:
		return TerrainRuins
	case moist > 0.60:
		return TerrainForest
	default:
		return TerrainPlains
	}
}
