// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package noise

import (
	"github.com/SoftbearStudios/terrastream/server/terrain"
	"github.com/aquilax/go-perlin"
)

// Field is a deterministic octave Perlin height field. Layer k samples
// at Frequency*2^k with amplitude Persistence^k. Read only after New,
// so chunk workers may sample one Field concurrently.
type Field struct {
	perlin    *perlin.Perlin
	frequency float64
}

// New builds a Field from params. Equal params always produce a Field
// with bit identical samples.
func New(params terrain.Params) *Field {
	// go-perlin sums n octaves internally: octave k contributes
	// noise(x*beta^k)/alpha^k, so alpha is the inverse persistence and
	// beta the per octave frequency multiplier.
	return &Field{
		perlin:    perlin.NewPerlin(1/params.Persistence, 2, int32(params.Octaves), params.Seed),
		frequency: params.Frequency,
	}
}

func NewDefault() *Field {
	return New(terrain.DefaultParams())
}

// At samples the field at integer sample space coordinates.
// Values are roughly within [-1, 1]; callers scale to world units.
func (f *Field) At(x, y int) float64 {
	return f.perlin.Noise2D(float64(x)*f.frequency, float64(y)*f.frequency)
}
