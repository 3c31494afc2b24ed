// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"

	"github.com/SoftbearStudios/terrastream/server/terrain"
	"github.com/SoftbearStudios/terrastream/server/terrain/noise"
	"github.com/SoftbearStudios/terrastream/server/world"
)

type (
	// registry tracks every live chunk. All methods must be called from
	// the hub goroutine; workers report back through the complete
	// channel and never touch the registry themselves.
	registry struct {
		chunks map[world.ChunkID]*chunkRecord
		field  *noise.Field
		size   int

		// complete receives finished height buffers from workers.
		complete chan completion
		// workers is a semaphore bounding concurrent generation.
		workers chan struct{}

		// late counts completions that arrived after their chunk was
		// destroyed. Expected under churn, surfaced in Debug.
		late int
	}

	chunkRecord struct {
		chunk *terrain.Chunk
		// stop is closed to cancel the chunk's worker. nil once Ready.
		stop chan struct{}
	}

	// completion is a worker's result handoff. The heights buffer
	// belongs to the receiver from here on.
	completion struct {
		id      world.ChunkID
		heights []float32
	}
)

func newRegistry(field *noise.Field, size, maxWorkers int) *registry {
	return &registry{
		chunks:   make(map[world.ChunkID]*chunkRecord),
		field:    field,
		size:     size,
		complete: make(chan completion, 8+maxWorkers),
		workers:  make(chan struct{}, maxWorkers),
	}
}

func (r *registry) has(id world.ChunkID) bool {
	_, ok := r.chunks[id]
	return ok
}

// generate inserts a chunk record and starts its worker. Requesting a
// chunk that already exists is a no-op; the stream's queues routinely
// produce duplicates.
func (r *registry) generate(coord world.ChunkCoord) bool {
	id := coord.ID()
	if _, ok := r.chunks[id]; ok {
		fmt.Println("chunk already exists, ignoring generate:", coord)
		return false
	}

	rec := &chunkRecord{
		chunk: &terrain.Chunk{
			ID:    id,
			Coord: coord,
			Size:  r.size,
			State: terrain.StatePending,
		},
		stop: make(chan struct{}),
	}
	r.chunks[id] = rec

	rec.chunk.State = terrain.StateGenerating
	go generateChunk(r.field, coord, r.size, r.workers, rec.stop, r.complete)
	return true
}

// destroy removes a chunk in any state. A Generating chunk's worker is
// signaled to stop; its buffer is collected when the goroutine exits.
// Destroying an absent chunk is a no-op so teardown can be idempotent.
func (r *registry) destroy(id world.ChunkID) bool {
	rec, ok := r.chunks[id]
	if !ok {
		fmt.Println("chunk does not exist, ignoring destroy:", id.Coord())
		return false
	}

	if rec.stop != nil {
		close(rec.stop)
		rec.stop = nil
		rec.chunk.State = terrain.StateRetiring
	}

	delete(r.chunks, id)
	return true
}

// finish attaches a worker's result. Returns the chunk once Ready, or
// nil for completions whose chunk was destroyed while in flight; those
// are expected and only counted.
func (r *registry) finish(c completion) *terrain.Chunk {
	rec, ok := r.chunks[c.id]
	if !ok {
		r.late++
		return nil
	}

	// A chunk destroyed and recreated while its first worker was in
	// flight can complete twice. The results are identical, so the
	// second one only counts.
	if rec.chunk.Ready() {
		r.late++
		return nil
	}

	rec.stop = nil
	rec.chunk.Heights = c.heights
	rec.chunk.State = terrain.StateReady
	return rec.chunk
}

func (r *registry) count() int {
	return len(r.chunks)
}

// states is a histogram of chunk states for Debug.
func (r *registry) states() (counts [4]int) {
	for _, rec := range r.chunks {
		counts[rec.chunk.State]++
	}
	return
}

func (r *registry) each(fn func(*terrain.Chunk)) {
	for _, rec := range r.chunks {
		fn(rec.chunk)
	}
}

// coords snapshots the live coordinates so callers may generate or
// destroy while walking the result.
func (r *registry) coords() []world.ChunkCoord {
	coords := make([]world.ChunkCoord, 0, len(r.chunks))
	for id := range r.chunks {
		coords = append(coords, id.Coord())
	}
	return coords
}
