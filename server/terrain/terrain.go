// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package terrain

import (
	"github.com/SoftbearStudios/terrastream/server/world"
)

const (
	// Scale is the world distance between adjacent height samples.
	Scale = 100

	// HeightScale maps the unit noise field to world height, so
	// heights land in [-HeightScale, HeightScale].
	HeightScale = 100

	// DefaultSize is the default number of samples per chunk side.
	DefaultSize = 32

	// Height bands in world units, used for classification and
	// rendering.
	WaterLevel = -20
	SandLevel  = -5
	GrassLevel = 40
	RockLevel  = 75
)

// Edge is the chunk edge length in world units for a given size.
// Chunk origins are spaced Size-1 samples apart so that neighbors
// share one row/column of samples and meshes meet without seams.
func Edge(size int) float32 {
	return float32((size - 1) * Scale)
}

type (
	// Params selects a deterministic height field. Equal Params always
	// produce bit identical terrain. Immutable for the life of a run
	// and shared by every chunk.
	Params struct {
		Octaves     int     `json:"octaves"`
		Persistence float64 `json:"persistence"`
		Frequency   float64 `json:"frequency"`
		Seed        int64   `json:"seed"`
	}

	// State is a chunk's position in its lifecycle.
	State uint8

	// Chunk is one square tile of generated terrain. Heights is
	// row major, len Size*Size, and only valid once State is
	// StateReady.
	Chunk struct {
		ID      world.ChunkID
		Coord   world.ChunkCoord
		Size    int
		Heights []float32
		State   State
	}

	// Class is a coarse surface category for one sample.
	Class uint8
)

const (
	// StatePending means the chunk record exists but no worker was
	// dispatched yet.
	StatePending State = iota
	// StateGenerating means a worker is computing the height field.
	StateGenerating
	// StateReady means Heights is complete.
	StateReady
	// StateRetiring means the chunk is being torn down while its
	// worker is still running.
	StateRetiring
)

const (
	ClassWater Class = iota
	ClassSand
	ClassGrass
	ClassRock
	ClassSnow
)

func DefaultParams() Params {
	return Params{
		Octaves:     4,
		Persistence: 0.5,
		Frequency:   0.02,
		Seed:        42,
	}
}

// Biome derives the companion parameter set whose field drives surface
// classification. Lower frequency than the height field so biomes span
// multiple chunks, reseeded so the two fields are uncorrelated.
func (p Params) Biome() Params {
	return Params{
		Octaves:     2,
		Persistence: 0.6,
		Frequency:   p.Frequency * 0.25,
		Seed:        p.Seed ^ 0x9E3779B9,
	}
}

// Origin is the chunk's sample space origin. Units are samples, not
// world units; multiply by Scale for world space.
func (c *Chunk) Origin() (x, y int) {
	n := c.Size - 1
	return int(c.Coord.X) * n, int(c.Coord.Y) * n
}

// HeightAt reads a sample by chunk local coordinates.
func (c *Chunk) HeightAt(x, y int) float32 {
	return c.Heights[x+y*c.Size]
}

func (c *Chunk) Ready() bool {
	return c.State == StateReady
}

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateGenerating:
		return "generating"
	case StateReady:
		return "ready"
	case StateRetiring:
		return "retiring"
	default:
		return "unknown"
	}
}

// Classify buckets a sample by height, with moisture (a raw noise
// value around [-1, 1]) deciding whether mid heights read as arid or
// vegetated.
func Classify(height, moisture float32) Class {
	switch {
	case height <= WaterLevel:
		return ClassWater
	case height <= SandLevel:
		return ClassSand
	case height <= GrassLevel:
		if moisture < -0.25 {
			return ClassSand
		}
		return ClassGrass
	case height <= RockLevel:
		return ClassRock
	default:
		return ClassSnow
	}
}
