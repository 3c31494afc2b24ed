// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/SoftbearStudios/terrastream/server/terrain"
	"github.com/hashicorp/go-getter"
)

// HubOptions configures a Hub. The zero value is usable; missing or out
// of range fields are defaulted and clamped with a log line each, never
// rejected.
type HubOptions struct {
	Params terrain.Params `json:"params"`

	// ChunkSize is the number of height samples per chunk side.
	ChunkSize int `json:"chunkSize"`

	// Radius is the streamed window in chunks: all chunks within
	// Chebyshev distance Radius of the observer stay loaded.
	Radius int32 `json:"radius"`

	// DrainMillis is the wall-clock period between queue drains; each
	// drain starts at most one creation and one destruction.
	DrainMillis int `json:"drainMillis"`

	// MaxWorkers bounds concurrent chunk generation.
	MaxWorkers int `json:"maxWorkers"`

	// Auth guards privileged inbounds like Stress. Empty disables the
	// check.
	Auth string `json:"auth"`

	// Wander registers a built-in bot observer that walks the world,
	// exercising streaming without any connected viewer.
	Wander bool `json:"wander"`

	Cloud Cloud `json:"-"`
}

func (options HubOptions) withDefaults() HubOptions {
	if options.Params == (terrain.Params{}) {
		options.Params = terrain.DefaultParams()
	}
	if clamped := clampInt(options.Params.Octaves, 1, 10); clamped != options.Params.Octaves {
		log.Printf("clamping octaves %d to %d", options.Params.Octaves, clamped)
		options.Params.Octaves = clamped
	}
	if p := options.Params.Persistence; p <= 0 || p > 1 {
		log.Printf("clamping persistence %v to %v", p, terrain.DefaultParams().Persistence)
		options.Params.Persistence = terrain.DefaultParams().Persistence
	}
	if f := options.Params.Frequency; f <= 0 {
		log.Printf("clamping frequency %v to %v", f, terrain.DefaultParams().Frequency)
		options.Params.Frequency = terrain.DefaultParams().Frequency
	}

	if options.ChunkSize == 0 {
		options.ChunkSize = terrain.DefaultSize
	}
	if clamped := clampInt(options.ChunkSize, 2, 512); clamped != options.ChunkSize {
		log.Printf("clamping chunk size %d to %d", options.ChunkSize, clamped)
		options.ChunkSize = clamped
	}

	if options.Radius < 0 || options.Radius > 32 {
		clamped := int32(clampInt(int(options.Radius), 0, 32))
		log.Printf("clamping radius %d to %d", options.Radius, clamped)
		options.Radius = clamped
	}

	if options.DrainMillis <= 0 {
		options.DrainMillis = 250
	}

	if options.MaxWorkers <= 0 {
		options.MaxWorkers = 4 * runtime.NumCPU()
	}

	if options.Cloud == nil {
		options.Cloud = Offline{}
	}

	return options
}

// Merge overlays the set fields of a preset onto options. Zero values
// in the preset leave the receiver's fields alone.
func (options HubOptions) Merge(preset HubOptions) HubOptions {
	if preset.Params != (terrain.Params{}) {
		options.Params = preset.Params
	}
	if preset.ChunkSize != 0 {
		options.ChunkSize = preset.ChunkSize
	}
	if preset.Radius != 0 {
		options.Radius = preset.Radius
	}
	if preset.DrainMillis != 0 {
		options.DrainMillis = preset.DrainMillis
	}
	if preset.MaxWorkers != 0 {
		options.MaxWorkers = preset.MaxWorkers
	}
	if preset.Auth != "" {
		options.Auth = preset.Auth
	}
	if preset.Wander {
		options.Wander = true
	}
	return options
}

// LoadPreset fetches a JSON HubOptions preset. src can be a local path
// or anything go-getter understands (http, git, s3), so shared presets
// can live next to deployment configs.
func LoadPreset(src string) (HubOptions, error) {
	var options HubOptions

	dst := filepath.Join(os.TempDir(), fmt.Sprintf("terrastream-preset-%d.json", unixMillis()))
	if err := getter.GetFile(dst, src); err != nil {
		return options, err
	}
	defer os.Remove(dst)

	buf, err := os.ReadFile(dst)
	if err != nil {
		return options, err
	}

	err = json.Unmarshal(buf, &options)
	return options, err
}
