// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"log"
	"time"

	"github.com/SoftbearStudios/terrastream/server/terrain"
	"github.com/SoftbearStudios/terrastream/server/world"
	"golang.org/x/time/rate"
)

type (
	// PositionSource supplies the observer position that chunk
	// streaming follows.
	PositionSource interface {
		Position() world.Vec2f
	}

	// PositionFunc adapts a function to a PositionSource.
	PositionFunc func() world.Vec2f

	streamPhase uint8

	// stream keeps the window of chunks around the observer loaded.
	// It decides what to generate and destroy; the registry does the
	// bookkeeping. Hub goroutine only.
	stream struct {
		registry *registry
		source   PositionSource
		radius   int32
		edge     float32
		limiter  *rate.Limiter

		// progress reports bootstrap completion, display hands over
		// ready chunks, gone announces destroyed ones.
		progress func(completed, total int)
		display  func(*terrain.Chunk)
		gone     func(world.ChunkID)

		phase    streamPhase
		observer world.ChunkCoord
		started  time.Time

		// pending is the set of bootstrap chunks not yet completed.
		pending map[world.ChunkID]struct{}
		total   int

		// FIFO queues, drained at most one entry each per drain. The
		// queues are unbounded and may hold duplicates when the observer
		// crosses back and forth; the registry treats replays as no-ops.
		creations    []world.ChunkCoord
		destructions []world.ChunkID
	}
)

const (
	phaseDisabled streamPhase = iota
	phaseBootstrap
	phaseSteady
)

func (f PositionFunc) Position() world.Vec2f {
	return f()
}

func (phase streamPhase) String() string {
	switch phase {
	case phaseBootstrap:
		return "bootstrap"
	case phaseSteady:
		return "steady"
	default:
		return "disabled"
	}
}

func newStream(reg *registry, source PositionSource, radius int32, drainPeriod time.Duration,
	progress func(completed, total int), display func(*terrain.Chunk), gone func(world.ChunkID)) *stream {

	s := &stream{
		registry: reg,
		source:   source,
		radius:   radius,
		edge:     terrain.Edge(reg.size),
		limiter:  rate.NewLimiter(rate.Every(drainPeriod), 1),
		progress: progress,
		display:  display,
		gone:     gone,
		phase:    phaseBootstrap,
		pending:  make(map[world.ChunkID]struct{}),
	}

	if source == nil {
		log.Println("chunk streaming disabled: no position source")
		s.phase = phaseDisabled
	}

	return s
}

// windowCoords lists the coordinates within radius of center, center
// first so it is generated before its surroundings.
func windowCoords(center world.ChunkCoord, radius int32) []world.ChunkCoord {
	side := int(radius)*2 + 1
	coords := make([]world.ChunkCoord, 0, side*side)
	coords = append(coords, center)

	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x == 0 && y == 0 {
				continue
			}
			coords = append(coords, center.Add(world.ChunkCoord{X: x, Y: y}))
		}
	}

	return coords
}

// bootstrap generates the whole initial window directly, bypassing the
// queues. Runs once; completions advance progress until Steady.
func (s *stream) bootstrap() {
	if s.phase != phaseBootstrap {
		return
	}

	s.started = time.Now()
	s.observer = world.ChunkCoordAt(s.source.Position(), s.edge)

	for _, coord := range windowCoords(s.observer, s.radius) {
		if s.registry.generate(coord) {
			s.pending[coord.ID()] = struct{}{}
		}
	}

	s.total = len(s.pending)
	fmt.Printf("bootstrap: generating %d chunks around %s\n", s.total, s.observer.String())
	s.progress(0, s.total)

	if s.total == 0 {
		s.enterSteady()
	}
}

// tick is called on the hub's cadence. Diffing happens only when the
// observer crosses into another chunk; draining is wall-clock gated.
func (s *stream) tick() {
	if s.phase != phaseSteady {
		return
	}

	center := world.ChunkCoordAt(s.source.Position(), s.edge)
	if center != s.observer {
		s.diff(center)
	}

	s.drain()
}

// diff reconciles the registry against the window around the new
// observer chunk: creations for missing window coordinates,
// destructions for chunks beyond the radius. Everything goes through
// the queues; nothing is generated or destroyed here.
func (s *stream) diff(center world.ChunkCoord) {
	s.observer = center
	fmt.Println("observer moved to chunk", center.String())

	for _, coord := range windowCoords(center, s.radius) {
		if s.registry.has(coord.ID()) {
			continue
		}
		s.creations = append(s.creations, coord)
	}

	for _, coord := range s.registry.coords() {
		if coord.Chebyshev(center) <= s.radius {
			continue
		}
		s.destructions = append(s.destructions, coord.ID())
	}
}

// drain forwards at most one creation and one destruction per period,
// spreading generation cost over time instead of spiking it when the
// observer crosses a boundary. Duplicate entries burn a period as a
// registry no-op.
func (s *stream) drain() {
	if !s.limiter.Allow() {
		return
	}

	if len(s.creations) > 0 {
		coord := s.creations[0]
		s.creations = s.creations[1:]
		s.registry.generate(coord)
	}

	if len(s.destructions) > 0 {
		id := s.destructions[0]
		s.destructions = s.destructions[1:]
		if s.registry.destroy(id) {
			s.gone(id)
		}
	}
}

// chunkReady routes a chunk that just became Ready: always to display,
// and during bootstrap into the progress count.
func (s *stream) chunkReady(chunk *terrain.Chunk) {
	s.display(chunk)

	if s.phase != phaseBootstrap {
		return
	}
	if _, ok := s.pending[chunk.ID]; !ok {
		return
	}

	delete(s.pending, chunk.ID)
	s.progress(s.total-len(s.pending), s.total)

	if len(s.pending) == 0 {
		s.enterSteady()
	}
}

func (s *stream) enterSteady() {
	s.phase = phaseSteady
	fmt.Printf("bootstrap complete: %d chunks in %v\n", s.total, time.Since(s.started).Round(time.Millisecond))
}
