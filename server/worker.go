// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"github.com/SoftbearStudios/terrastream/server/terrain"
	"github.com/SoftbearStudios/terrastream/server/terrain/noise"
	"github.com/SoftbearStudios/terrastream/server/world"
)

// generateChunk computes one chunk's heights and hands them to the hub
// through the complete channel. It runs on its own goroutine, gated by
// the workers semaphore, and owns the buffer until the send.
//
// Cancellation is cooperative: the stop channel is checked while
// waiting for a slot and once per row. A canceled worker exits without
// sending; a worker that finishes the race anyway sends a result the
// registry will ignore as late.
func generateChunk(field *noise.Field, coord world.ChunkCoord, size int, workers chan struct{}, stop <-chan struct{}, complete chan<- completion) {
	select {
	case workers <- struct{}{}:
	case <-stop:
		return
	}
	defer func() {
		<-workers
	}()

	// Origins are spaced size-1 samples apart so neighbors share a
	// boundary row/column and generate identical heights there.
	originX := int(coord.X) * (size - 1)
	originY := int(coord.Y) * (size - 1)

	heights := make([]float32, 0, size*size)

	for y := 0; y < size; y++ {
		select {
		case <-stop:
			return
		default:
		}

		for x := 0; x < size; x++ {
			heights = append(heights, float32(field.At(originX+x, originY+y))*terrain.HeightScale)
		}
	}

	complete <- completion{id: coord.ID(), heights: heights}
}
