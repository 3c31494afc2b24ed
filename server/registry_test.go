// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"testing"
	"time"

	"github.com/SoftbearStudios/terrastream/server/terrain"
	"github.com/SoftbearStudios/terrastream/server/terrain/noise"
	"github.com/SoftbearStudios/terrastream/server/world"
)

func testRegistry(size, maxWorkers int) *registry {
	return newRegistry(noise.NewDefault(), size, maxWorkers)
}

func receiveCompletion(t *testing.T, reg *registry) completion {
	t.Helper()

	select {
	case c := <-reg.complete:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for completion")
		return completion{}
	}
}

func TestRegistryLifecycle(t *testing.T) {
	const size = 8

	reg := testRegistry(size, 2)
	coord := world.ChunkCoord{X: 1, Y: -2}

	if !reg.generate(coord) {
		t.Fatal("generate failed")
	}
	if !reg.has(coord.ID()) || reg.count() != 1 {
		t.Fatalf("expected 1 chunk, got %d", reg.count())
	}

	c := receiveCompletion(t, reg)
	if c.id != coord.ID() {
		t.Fatalf("expected completion for %s, got %s", coord, c.id.Coord())
	}

	chunk := reg.finish(c)
	if chunk == nil {
		t.Fatal("expected ready chunk")
	}
	if !chunk.Ready() {
		t.Errorf("expected ready state, got %s", chunk.State)
	}
	if chunk.Coord != coord || len(chunk.Heights) != size*size {
		t.Errorf("bad chunk: coord %s, %d heights", chunk.Coord, len(chunk.Heights))
	}

	if !reg.destroy(coord.ID()) {
		t.Fatal("destroy failed")
	}
	if reg.count() != 0 {
		t.Errorf("expected empty registry, got %d chunks", reg.count())
	}
}

func TestRegistryHeights(t *testing.T) {
	const size = 4

	field := noise.NewDefault()
	reg := newRegistry(field, size, 1)
	coord := world.ChunkCoord{X: 2, Y: 1}

	reg.generate(coord)
	chunk := reg.finish(receiveCompletion(t, reg))
	if chunk == nil {
		t.Fatal("expected ready chunk")
	}

	// Origins are spaced size-1 samples apart.
	originX, originY := chunk.Origin()
	if originX != 2*(size-1) || originY != size-1 {
		t.Fatalf("bad origin (%d, %d)", originX, originY)
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			expected := float32(field.At(originX+x, originY+y)) * terrain.HeightScale
			if h := chunk.HeightAt(x, y); h != expected {
				t.Fatalf("sample (%d, %d): expected %f, got %f", x, y, expected, h)
			}
		}
	}
}

func TestRegistrySharedEdges(t *testing.T) {
	const size = 8

	reg := testRegistry(size, 2)
	left := world.ChunkCoord{}
	right := world.ChunkCoord{X: 1}

	reg.generate(left)
	reg.generate(right)

	chunks := make(map[world.ChunkID]*terrain.Chunk, 2)
	for i := 0; i < 2; i++ {
		chunk := reg.finish(receiveCompletion(t, reg))
		if chunk == nil {
			t.Fatal("unexpected late completion")
		}
		chunks[chunk.ID] = chunk
	}

	l, r := chunks[left.ID()], chunks[right.ID()]
	if l == nil || r == nil {
		t.Fatal("missing chunk")
	}

	// Neighbors repeat their boundary column, so meshes meet without
	// seams.
	for y := 0; y < size; y++ {
		if l.HeightAt(size-1, y) != r.HeightAt(0, y) {
			t.Fatalf("row %d: edge mismatch %f != %f", y, l.HeightAt(size-1, y), r.HeightAt(0, y))
		}
	}
}

func TestRegistryDuplicateGenerate(t *testing.T) {
	reg := testRegistry(4, 2)
	coord := world.ChunkCoord{}

	if !reg.generate(coord) {
		t.Fatal("generate failed")
	}
	if reg.generate(coord) {
		t.Error("duplicate generate not ignored")
	}
	if reg.count() != 1 {
		t.Fatalf("expected 1 chunk, got %d", reg.count())
	}

	// Only one worker was started.
	reg.finish(receiveCompletion(t, reg))
	select {
	case c := <-reg.complete:
		t.Errorf("unexpected second completion for %s", c.id.Coord())
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRegistryDestroyAbsent(t *testing.T) {
	reg := testRegistry(4, 1)

	if reg.destroy(world.ChunkCoord{X: 9}.ID()) {
		t.Error("destroy of absent chunk not ignored")
	}
}

func TestRegistryLateCompletion(t *testing.T) {
	reg := testRegistry(8, 2)
	coord := world.ChunkCoord{X: 3}

	reg.generate(coord)
	c := receiveCompletion(t, reg)

	// Destroyed while its completion was in flight.
	reg.destroy(coord.ID())

	if chunk := reg.finish(c); chunk != nil {
		t.Error("expected late completion to be dropped")
	}
	if reg.late != 1 {
		t.Errorf("expected 1 late completion, got %d", reg.late)
	}
}

func TestRegistryCancel(t *testing.T) {
	reg := testRegistry(8, 1)

	// Hold the only worker slot so the chunk's worker stays queued.
	reg.workers <- struct{}{}

	canceled := world.ChunkCoord{X: -1}
	reg.generate(canceled)
	reg.destroy(canceled.ID())

	<-reg.workers

	// A canceled worker must not send a completion, even if it won the
	// slot after the release above; it checks stop before sampling.
	other := world.ChunkCoord{X: 1}
	reg.generate(other)

	c := receiveCompletion(t, reg)
	if c.id != other.ID() {
		t.Fatalf("canceled chunk completed: %s", c.id.Coord())
	}
}

func TestRegistryStates(t *testing.T) {
	reg := testRegistry(4, 2)

	reg.generate(world.ChunkCoord{})
	reg.generate(world.ChunkCoord{X: 1})

	counts := reg.states()
	if counts[terrain.StateGenerating] != 2 {
		t.Errorf("expected 2 generating, got %v", counts)
	}

	reg.finish(receiveCompletion(t, reg))

	counts = reg.states()
	if counts[terrain.StateReady] != 1 || counts[terrain.StateGenerating] != 1 {
		t.Errorf("expected 1 ready and 1 generating, got %v", counts)
	}
}

func BenchmarkRegistryChurn(b *testing.B) {
	reg := testRegistry(16, 4)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		coord := world.ChunkCoord{X: int32(i)}
		reg.generate(coord)
		if reg.finish(<-reg.complete) == nil {
			b.Fatal("late completion")
		}
		reg.destroy(coord.ID())
	}
}
