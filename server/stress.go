// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"time"

	"github.com/SoftbearStudios/terrastream/server/world"
)

// stressRun tracks one generation benchmark: a line of chunks along the
// x axis, timed from first request to last completion.
type stressRun struct {
	pending   map[world.ChunkID]struct{}
	requested int
	started   time.Time
}

// startStress requests n chunks at (0,0)..(n-1,0), bypassing the
// stream's queues. Coordinates already present (the window around a
// stationary observer) are skipped and not counted. Results go to the
// log and, when online, the cloud benchmark table.
func (h *Hub) startStress(n int) {
	if h.stress != nil {
		fmt.Println("stress already running")
		return
	}

	n = clampInt(n, 1, 65536)

	run := &stressRun{
		pending: make(map[world.ChunkID]struct{}, n),
		started: time.Now(),
	}

	for i := 0; i < n; i++ {
		coord := world.ChunkCoord{X: int32(i)}
		if h.registry.generate(coord) {
			run.pending[coord.ID()] = struct{}{}
		}
	}

	run.requested = len(run.pending)
	if run.requested == 0 {
		fmt.Println("stress: nothing to generate")
		return
	}

	fmt.Printf("stress: generating %d chunks\n", run.requested)
	h.stress = run
}

// stressChunk records a completion that belongs to the active stress
// run, reporting once the last one lands.
func (h *Hub) stressChunk(id world.ChunkID) {
	run := h.stress
	if run == nil {
		return
	}
	if _, ok := run.pending[id]; !ok {
		return
	}

	delete(run.pending, id)
	if len(run.pending) > 0 {
		return
	}

	elapsed := time.Since(run.started)
	mean := elapsed / time.Duration(run.requested)
	fmt.Printf("stress: %d chunks in %v (%v per chunk)\n", run.requested, elapsed.Round(time.Millisecond), mean.Round(time.Microsecond))

	_ = AppendLog("/tmp/terrastream-stress.log", []interface{}{
		unixMillis(),
		run.requested,
		elapsed.Milliseconds(),
	})

	chunks, millis := run.requested, elapsed.Milliseconds()
	go func() {
		if err := h.cloud.UpdateBenchmark(chunks, millis); err != nil {
			fmt.Println("error updating benchmark:", err)
		}
	}()

	h.stress = nil
}
