// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package world

import (
	"fmt"
	"github.com/chewxy/math32"
	"strconv"
)

type (
	// ChunkCoord addresses a chunk on the infinite grid.
	// Neighboring chunks differ by one along an axis.
	ChunkCoord struct {
		X int32 `json:"x"`
		Y int32 `json:"y"`
	}

	// ChunkID is a ChunkCoord packed into a single map key.
	// The packing is a bijection over the full signed 32 bit
	// coordinate range, so Coord always recovers the original pair.
	ChunkID uint64
)

func (coord ChunkCoord) ID() ChunkID {
	return ChunkID(uint64(uint32(coord.X))<<32 | uint64(uint32(coord.Y)))
}

func (id ChunkID) Coord() ChunkCoord {
	return ChunkCoord{X: int32(uint32(id >> 32)), Y: int32(uint32(id))}
}

// Chebyshev is the distance in chunks walking one step in any of the
// eight directions at a time. The streamed window is the set of chunks
// within Chebyshev distance of the observer.
func (coord ChunkCoord) Chebyshev(otherCoord ChunkCoord) int32 {
	dx := absInt32(coord.X - otherCoord.X)
	dy := absInt32(coord.Y - otherCoord.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func (coord ChunkCoord) Add(otherCoord ChunkCoord) ChunkCoord {
	coord.X += otherCoord.X
	coord.Y += otherCoord.Y
	return coord
}

func (coord ChunkCoord) String() string {
	return fmt.Sprintf("(%d, %d)", coord.X, coord.Y)
}

// ChunkCoordAt maps a continuous world position to the coordinate of
// the chunk containing it. edge is the chunk edge length in world
// units. Positions on a boundary belong to the higher chunk.
func ChunkCoordAt(pos Vec2f, edge float32) ChunkCoord {
	return ChunkCoord{
		X: int32(math32.Floor(pos.X / edge)),
		Y: int32(math32.Floor(pos.Y / edge)),
	}
}

func (id ChunkID) String() string {
	return string(id.AppendText(make([]byte, 0, 16)))
}

func (id ChunkID) AppendText(buf []byte) []byte {
	return strconv.AppendUint(buf, uint64(id), 16)
}

func ParseChunkID(text string) (ChunkID, error) {
	i, err := strconv.ParseUint(text, 16, 64)
	return ChunkID(i), err
}

func absInt32(a int32) int32 {
	if a < 0 {
		return -a
	}
	return a
}
