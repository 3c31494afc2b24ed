// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"testing"
	"time"

	"github.com/SoftbearStudios/terrastream/server/terrain"
	"github.com/SoftbearStudios/terrastream/server/world"
)

type streamRecorder struct {
	progress  [][2]int
	displayed []world.ChunkID
	gone      []world.ChunkID
}

func (rec *streamRecorder) newStream(reg *registry, source PositionSource, radius int32, drainPeriod time.Duration) *stream {
	return newStream(reg, source, radius, drainPeriod,
		func(completed, total int) {
			rec.progress = append(rec.progress, [2]int{completed, total})
		},
		func(chunk *terrain.Chunk) {
			rec.displayed = append(rec.displayed, chunk.ID)
		},
		func(id world.ChunkID) {
			rec.gone = append(rec.gone, id)
		})
}

func fixedPosition(pos world.Vec2f) PositionSource {
	return PositionFunc(func() world.Vec2f {
		return pos
	})
}

func TestWindowCoords(t *testing.T) {
	center := world.ChunkCoord{X: 3, Y: -2}

	for radius := int32(0); radius <= 3; radius++ {
		coords := windowCoords(center, radius)
		side := int(radius)*2 + 1

		if len(coords) != side*side {
			t.Fatalf("radius %d: expected %d coords, got %d", radius, side*side, len(coords))
		}
		if coords[0] != center {
			t.Errorf("radius %d: expected center first, got %s", radius, coords[0])
		}

		seen := make(map[world.ChunkID]struct{}, len(coords))
		for _, coord := range coords {
			if coord.Chebyshev(center) > radius {
				t.Errorf("radius %d: %s outside window", radius, coord)
			}
			if _, ok := seen[coord.ID()]; ok {
				t.Errorf("radius %d: duplicate %s", radius, coord)
			}
			seen[coord.ID()] = struct{}{}
		}
	}
}

func TestStreamBootstrap(t *testing.T) {
	reg := testRegistry(5, 4)
	rec := &streamRecorder{}
	s := rec.newStream(reg, fixedPosition(world.Vec2f{}), 2, time.Millisecond)

	s.bootstrap()

	if s.phase != phaseBootstrap {
		t.Fatalf("expected bootstrap phase, got %s", s.phase)
	}
	if s.total != 25 || reg.count() != 25 {
		t.Fatalf("expected 25 chunks, got %d requested and %d live", s.total, reg.count())
	}
	if len(rec.progress) != 1 || rec.progress[0] != [2]int{0, 25} {
		t.Fatalf("expected initial progress 0/25, got %v", rec.progress)
	}

	// Feed completions back the way the hub does.
	for i := 0; i < 25; i++ {
		chunk := reg.finish(receiveCompletion(t, reg))
		if chunk == nil {
			t.Fatal("late completion during bootstrap")
		}
		s.chunkReady(chunk)
	}

	if s.phase != phaseSteady {
		t.Fatalf("expected steady phase, got %s", s.phase)
	}
	if len(rec.displayed) != 25 {
		t.Errorf("expected 25 displayed chunks, got %d", len(rec.displayed))
	}
	if last := rec.progress[len(rec.progress)-1]; last != [2]int{25, 25} {
		t.Errorf("expected final progress 25/25, got %v", last)
	}
}

func TestStreamDiff(t *testing.T) {
	reg := testRegistry(3, 4)
	rec := &streamRecorder{}
	s := rec.newStream(reg, fixedPosition(world.Vec2f{}), 1, time.Hour)

	s.bootstrap()

	// Far enough that the old and new windows are disjoint.
	center := world.ChunkCoord{X: 3}
	s.diff(center)

	if len(s.creations) != 9 {
		t.Errorf("expected 9 queued creations, got %d", len(s.creations))
	}
	if len(s.destructions) != 9 {
		t.Errorf("expected 9 queued destructions, got %d", len(s.destructions))
	}
	for _, coord := range s.creations {
		if coord.Chebyshev(center) > 1 {
			t.Errorf("queued creation %s outside window", coord)
		}
	}
}

func TestStreamDiffOverlap(t *testing.T) {
	reg := testRegistry(3, 4)
	rec := &streamRecorder{}
	s := rec.newStream(reg, fixedPosition(world.Vec2f{}), 1, time.Hour)

	s.bootstrap()

	// One chunk east: only the leading column is created and only the
	// trailing column destroyed. The overlap stays untouched.
	s.diff(world.ChunkCoord{X: 1})

	if len(s.creations) != 3 || len(s.destructions) != 3 {
		t.Fatalf("expected 3+3 queued, got %d creations and %d destructions", len(s.creations), len(s.destructions))
	}
	for _, coord := range s.creations {
		if coord.X != 2 {
			t.Errorf("unexpected creation %s", coord)
		}
	}
	for _, id := range s.destructions {
		if id.Coord().X != -1 {
			t.Errorf("unexpected destruction %s", id.Coord())
		}
	}
}

func TestStreamDrain(t *testing.T) {
	reg := testRegistry(3, 4)
	rec := &streamRecorder{}
	s := rec.newStream(reg, fixedPosition(world.Vec2f{}), 0, time.Millisecond)

	s.bootstrap()
	chunk := reg.finish(receiveCompletion(t, reg))
	if chunk == nil {
		t.Fatal("late completion during bootstrap")
	}
	s.chunkReady(chunk)
	if s.phase != phaseSteady {
		t.Fatalf("expected steady phase, got %s", s.phase)
	}

	old := world.ChunkCoord{}
	next := world.ChunkCoord{X: 5}
	s.diff(next)

	if len(s.creations) != 1 || len(s.destructions) != 1 {
		t.Fatalf("expected 1+1 queued, got %d creations and %d destructions", len(s.creations), len(s.destructions))
	}

	s.drain()

	if len(s.creations) != 0 || len(s.destructions) != 0 {
		t.Errorf("queues not drained: %d creations, %d destructions", len(s.creations), len(s.destructions))
	}
	if !reg.has(next.ID()) {
		t.Error("queued creation not generated")
	}
	if reg.has(old.ID()) {
		t.Error("queued destruction not applied")
	}
	if len(rec.gone) != 1 || rec.gone[0] != old.ID() {
		t.Errorf("expected gone callback for %s, got %v", old, rec.gone)
	}
}

func TestStreamDrainDuplicates(t *testing.T) {
	reg := testRegistry(3, 4)
	rec := &streamRecorder{}
	s := rec.newStream(reg, fixedPosition(world.Vec2f{}), 0, time.Nanosecond)

	s.bootstrap()
	chunk := reg.finish(receiveCompletion(t, reg))
	if chunk == nil {
		t.Fatal("late completion during bootstrap")
	}
	s.chunkReady(chunk)

	// Crossing back and forth requeues entries still outstanding; the
	// queues hold the duplicates and the registry absorbs the replays.
	old := world.ChunkCoord{}
	next := world.ChunkCoord{X: 1}
	s.diff(next)
	s.diff(old)
	s.diff(next)

	if len(s.creations) != 2 || len(s.destructions) != 2 {
		t.Fatalf("expected 2+2 queued, got %d creations and %d destructions", len(s.creations), len(s.destructions))
	}

	for len(s.creations) > 0 || len(s.destructions) > 0 {
		s.drain()
	}

	if !reg.has(next.ID()) {
		t.Error("queued creation not generated")
	}
	if reg.has(old.ID()) {
		t.Error("queued destruction not applied")
	}
	if len(rec.gone) != 1 {
		t.Errorf("expected one gone callback, got %d", len(rec.gone))
	}
}

func TestStreamDrainPacing(t *testing.T) {
	reg := testRegistry(3, 4)
	rec := &streamRecorder{}

	// One immediate token, then an hour apart: the second drain in quick
	// succession must do nothing.
	s := rec.newStream(reg, fixedPosition(world.Vec2f{}), 1, time.Hour)

	s.bootstrap()
	for i := 0; i < 9; i++ {
		chunk := reg.finish(receiveCompletion(t, reg))
		if chunk == nil {
			t.Fatal("late completion during bootstrap")
		}
		s.chunkReady(chunk)
	}

	s.diff(world.ChunkCoord{X: 5})
	if len(s.creations) != 9 {
		t.Fatalf("expected 9 queued creations, got %d", len(s.creations))
	}

	s.drain()
	if len(s.creations) != 8 {
		t.Fatalf("expected 8 queued creations after drain, got %d", len(s.creations))
	}

	s.drain()
	if len(s.creations) != 8 {
		t.Error("drain ignored its period")
	}
}

func TestStreamDisabled(t *testing.T) {
	reg := testRegistry(3, 1)
	rec := &streamRecorder{}
	s := rec.newStream(reg, nil, 1, time.Millisecond)

	if s.phase != phaseDisabled {
		t.Fatalf("expected disabled phase, got %s", s.phase)
	}

	// Neither may touch the nil source.
	s.bootstrap()
	s.tick()

	if reg.count() != 0 {
		t.Errorf("disabled stream generated %d chunks", reg.count())
	}
	if len(rec.progress) != 0 {
		t.Errorf("disabled stream reported progress %v", rec.progress)
	}
}

func TestStreamPhaseString(t *testing.T) {
	tests := []struct {
		phase streamPhase
		str   string
	}{
		{phaseDisabled, "disabled"},
		{phaseBootstrap, "bootstrap"},
		{phaseSteady, "steady"},
	}

	for _, test := range tests {
		if s := test.phase.String(); s != test.str {
			t.Errorf("expected %q, got %q", test.str, s)
		}
	}
}
