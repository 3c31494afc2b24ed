// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"sync"

	"github.com/SoftbearStudios/terrastream/server/terrain"
	"github.com/SoftbearStudios/terrastream/server/world"
)

type (
	// ChunkGone tells viewers to drop a chunk's mesh.
	ChunkGone struct {
		Chunk world.ChunkID `json:"chunk"`
	}

	// ChunkReady carries one generated chunk. Terrain is the quantized,
	// run-length encoded height payload; viewers decode it and rebuild
	// the mesh locally.
	ChunkReady struct {
		Terrain *terrain.Data    `json:"terrain"`
		Coord   world.ChunkCoord `json:"coord"`
		Chunk   world.ChunkID    `json:"chunk"`
		Size    int              `json:"size"`
	}

	// Progress reports how far the initial window load has come.
	Progress struct {
		Completed int `json:"completed"`
		Total     int `json:"total"`
	}

	// Status is a periodic summary of the hub for viewers.
	Status struct {
		Phase        string `json:"phase"`
		Ready        int    `json:"ready"`
		Generating   int    `json:"generating"`
		CreateQueue  int    `json:"createQueue"`
		DestroyQueue int    `json:"destroyQueue"`
		Late         int    `json:"late"`
		Viewers      int    `json:"viewers"`
	}
)

func init() {
	registerOutbound(
		ChunkGone{},
		&ChunkReady{},
		Progress{},
		Status{},
	)
}

var chunkReadyPool = sync.Pool{
	New: func() interface{} {
		return new(ChunkReady)
	},
}

// NewChunkReady allocates from a pool; callers hand the message to
// Client.Send which pools it after writing.
func NewChunkReady(chunk *terrain.Chunk) *ChunkReady {
	out := chunkReadyPool.Get().(*ChunkReady)
	out.Terrain = terrain.Encode(chunk)
	out.Coord = chunk.Coord
	out.Chunk = chunk.ID
	out.Size = chunk.Size
	return out
}

// Pool uses pointers for reuse in pool
func (out *ChunkReady) Pool() {
	// Use separate pool for terrain payloads
	if out.Terrain != nil {
		out.Terrain.Pool()
	}

	*out = ChunkReady{}
	chunkReadyPool.Put(out)
}

func (out ChunkGone) Pool() {}
func (out Progress) Pool()  {}
func (out Status) Pool()    {}
