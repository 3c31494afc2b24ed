// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"flag"
	"image/png"
	"log"
	"os"
	"runtime/pprof"

	"github.com/SoftbearStudios/terrastream/server/terrain"
	"github.com/SoftbearStudios/terrastream/server/terrain/noise"
)

func main() {
	var (
		cpuProfile  string
		out         string
		width       int
		seed        int64
		octaves     int
		persistence float64
		frequency   float64
	)

	defaults := terrain.DefaultParams()

	flag.StringVar(&cpuProfile, "cpuprofile", "", "write cpu profile to `file`")
	flag.StringVar(&out, "out", "out.png", "write rendered terrain to `file`")
	flag.IntVar(&width, "width", 1024, "raster side length in samples")
	flag.Int64Var(&seed, "seed", defaults.Seed, "terrain seed")
	flag.IntVar(&octaves, "octaves", defaults.Octaves, "noise octaves")
	flag.Float64Var(&persistence, "persistence", defaults.Persistence, "noise persistence")
	flag.Float64Var(&frequency, "frequency", defaults.Frequency, "noise frequency")
	flag.Parse()

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close() // error handling omitted for example
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	run(terrain.Params{
		Octaves:     octaves,
		Persistence: persistence,
		Frequency:   frequency,
		Seed:        seed,
	}, width, out)
}

func run(params terrain.Params, width int, out string) {
	height := noise.New(params)
	biome := noise.New(params.Biome())

	// Center the raster on the origin like a streamed window would be.
	heights := make([]float32, 0, width*width)
	moisture := make([]float32, 0, width*width)
	for y := 0; y < width; y++ {
		for x := 0; x < width; x++ {
			heights = append(heights, float32(height.At(x-width/2, y-width/2))*terrain.HeightScale)
			moisture = append(moisture, float32(biome.At(x-width/2, y-width/2)))
		}
	}

	img := terrain.Render(heights, moisture, width)

	file, err := os.Create(out)
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	if err = png.Encode(file, img); err != nil {
		log.Fatal(err)
	}
}
