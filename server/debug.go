// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"fmt"
	"image/png"
	"runtime"
	"sort"
	"time"

	"github.com/SoftbearStudios/terrastream/server/terrain"
)

// Debug prints debugging info to console and tmp files.
func (h *Hub) Debug() {
	fmt.Printf("Debug [%v] %s\n", time.Now().Format(time.UnixDate), h.cloud)
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	fmt.Printf(" - memstats: %dM/%dM\n", stats.HeapInuse/1e6, stats.NextGC/1e6)

	var (
		botCount int
		viewers  []*ClientData
		fps      float32
		fpsCount int // Can be less than len(viewers) for viewers that haven't sent a trace yet
	)

	for client := h.clients.First; client != nil; client = client.Data().Next {
		if client.Bot() {
			botCount++
			continue
		}

		data := client.Data()
		viewers = append(viewers, data)
		if data.FPS != 0 {
			fps += data.FPS
			fpsCount++
		}
	}

	sort.Slice(viewers, func(i, j int) bool {
		return viewers[i].Name < viewers[j].Name
	})

	fmt.Printf(" - viewers: %d, bots: %d, observer: %s in chunk %s\n", len(viewers), botCount, h.observer.String(), h.stream.observer.String())
	for _, viewer := range viewers {
		fmt.Printf("   - %s\n", viewer.Name)
	}

	if fpsCount > 0 {
		// Average
		fps /= float32(fpsCount)
		fmt.Printf(" - fps: %.1f\n", fps)
	}

	states := h.registry.states()
	fmt.Printf(" - chunks: %d (%d generating, %d ready), late completions: %d\n",
		h.registry.count(), states[terrain.StateGenerating], states[terrain.StateReady], h.registry.late)
	fmt.Printf(" - stream: %s, creations queued: %d, destructions queued: %d\n",
		h.stream.phase, len(h.stream.creations), len(h.stream.destructions))

	// Function benchmarks
	var totalDuration time.Duration

	fmt.Print(" - ")
	for i := range h.funcBenches {
		bench := &h.funcBenches[i]

		duration := bench.reset()
		totalDuration += duration

		fmt.Print(bench.name, ": ", duration, ", ")
	}
	fmt.Println("total:", totalDuration)

	_ = AppendLog("/tmp/terrastream.log", []interface{}{
		unixMillis(),
		len(viewers),
		botCount,
		h.registry.count(),
		states[terrain.StateReady],
		h.registry.late,
		fps,
	})
}

// SnapshotTerrain renders the ready chunks of the streamed window and
// uploads the PNG through the cloud.
func (h *Hub) SnapshotTerrain() {
	size := h.registry.size
	radius := int(h.stream.radius)
	side := 2*radius + 1
	width := side*(size-1) + 1

	minX := int(h.stream.observer.X) - radius
	minY := int(h.stream.observer.Y) - radius

	heights := make([]float32, width*width)
	found := 0

	h.registry.each(func(chunk *terrain.Chunk) {
		if !chunk.Ready() {
			return
		}

		cx := int(chunk.Coord.X) - minX
		cy := int(chunk.Coord.Y) - minY
		if cx < 0 || cy < 0 || cx >= side || cy >= side {
			return
		}

		// Shared boundary samples overwrite with identical values.
		ox := cx * (size - 1)
		oy := cy * (size - 1)
		for y := 0; y < size; y++ {
			copy(heights[(oy+y)*width+ox:(oy+y)*width+ox+size], chunk.Heights[y*size:(y+1)*size])
		}
		found++
	})

	if found == 0 {
		return
	}

	moisture := make([]float32, 0, width*width)
	sampleMinX := minX * (size - 1)
	sampleMinY := minY * (size - 1)
	for y := 0; y < width; y++ {
		for x := 0; x < width; x++ {
			moisture = append(moisture, float32(h.biome.At(sampleMinX+x, sampleMinY+y)))
		}
	}

	img := terrain.Render(heights, moisture, width)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return
	}
	_ = h.cloud.UploadTerrainSnapshot(buf.Bytes())
}

// funcBench is a benchmark of a core function.
type funcBench struct {
	name     string
	duration time.Duration
	runs     int
}

// reset resets the benchmark and returns the average duration
func (bench *funcBench) reset() time.Duration {
	if bench.runs == 0 {
		return 0
	}
	average := bench.duration / time.Duration(bench.runs)
	bench.duration = 0
	bench.runs = 0
	return average
}

// timeFunction times a function.
// defer timeFunction("name", time.Now())
func (h *Hub) timeFunction(name string, start time.Time) {
	end := time.Now()

	var bench *funcBench
	for i := range h.funcBenches {
		b := &h.funcBenches[i]
		if name == b.name {
			bench = b
			break
		}
	}

	if bench == nil {
		h.funcBenches = append(h.funcBenches, funcBench{name: name})
		bench = &h.funcBenches[len(h.funcBenches)-1]
	}

	bench.duration += end.Sub(start)
	bench.runs++
}
