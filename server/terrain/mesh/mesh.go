// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mesh turns ready chunks into triangle meshes for display.
// Building is a pure function of the chunk, so meshes can be discarded
// and rebuilt at will.
package mesh

import (
	"github.com/SoftbearStudios/terrastream/server/terrain"
	"github.com/SoftbearStudios/terrastream/server/world"
)

// Mesh is an indexed triangle list in chunk local space. Vertex
// x + y*size matches the chunk's row major height layout, so adjacent
// chunks repeat their shared edge vertices and line up exactly.
type Mesh struct {
	Positions []world.Vec3f `json:"positions"`
	Indices   []uint32      `json:"indices"`
}

// Build emits one vertex per height sample and two counter clockwise
// triangles per grid cell, viewed from above.
func Build(c *terrain.Chunk) Mesh {
	if !c.Ready() {
		panic("cannot mesh chunk without heights")
	}

	size := c.Size
	m := Mesh{
		Positions: make([]world.Vec3f, 0, size*size),
		Indices:   make([]uint32, 0, (size-1)*(size-1)*6),
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			m.Positions = append(m.Positions, world.Vec3f{
				X: float32(x) * terrain.Scale,
				Y: float32(y) * terrain.Scale,
				Z: c.HeightAt(x, y),
			})
		}
	}

	for y := 0; y < size-1; y++ {
		for x := 0; x < size-1; x++ {
			bottomLeft := uint32(x + y*size)
			bottomRight := bottomLeft + 1
			topLeft := bottomLeft + uint32(size)
			topRight := topLeft + 1

			m.Indices = append(m.Indices,
				bottomLeft, bottomRight, topLeft,
				bottomRight, topRight, topLeft,
			)
		}
	}

	return m
}

func (m *Mesh) Triangles() int {
	return len(m.Indices) / 3
}

// Normals computes smooth per vertex normals from height differences,
// one sided at chunk borders. Same ordering as Mesh.Positions.
func Normals(c *terrain.Chunk) []world.Vec3f {
	if !c.Ready() {
		panic("cannot compute normals without heights")
	}

	size := c.Size
	normals := make([]world.Vec3f, 0, size*size)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			x0, x1 := maxInt(x-1, 0), minInt(x+1, size-1)
			y0, y1 := maxInt(y-1, 0), minInt(y+1, size-1)

			dx := (c.HeightAt(x1, y) - c.HeightAt(x0, y)) / (float32(x1-x0) * terrain.Scale)
			dy := (c.HeightAt(x, y1) - c.HeightAt(x, y0)) / (float32(y1-y0) * terrain.Scale)

			normals = append(normals, world.Vec3f{X: -dx, Y: -dy, Z: 1}.Norm())
		}
	}

	return normals
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
