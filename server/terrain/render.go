// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package terrain

import (
	"fmt"
	"github.com/SoftbearStudios/terrastream/server/world"
	"image"
	"image/color"
)

type ColorVec [3]float32

var classColors = [...]ColorVec{
	ClassWater: RGB(0, 75, 130),
	ClassSand:  RGB(194, 178, 128),
	ClassGrass: RGB(90, 180, 30),
	ClassRock:  RGB(105, 110, 115),
	ClassSnow:  Gray(220),
}

var deepWater = RGB(0, 50, 115)

// Render rasterizes world unit heights to a banded color image.
// moisture may be nil, otherwise it must be the same shape as heights
// and tints each sample by how wet it is. len(heights) must be a
// multiple of width.
func Render(heights, moisture []float32, width int) image.Image {
	if width <= 0 || len(heights)%width != 0 {
		panic("heights is not a width aligned raster")
	}

	height := len(heights) / width
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			h := heights[i+j*width]
			var m float32
			if moisture != nil {
				m = moisture[i+j*width]
			}

			c := classColors[Classify(h, m)]
			switch {
			case h <= WaterLevel:
				// Deeper water fades darker.
				c = deepWater.Lerp(c, clamp(1-(WaterLevel-h)/(HeightScale-WaterLevel)))
			case h > SandLevel && h <= GrassLevel:
				c = classColors[ClassSand].Lerp(c, clamp((h-SandLevel)*0.1))
			case h > GrassLevel && h <= RockLevel:
				c = classColors[ClassGrass].Lerp(c, clamp((h-GrassLevel)*0.1))
			case h > RockLevel:
				c = classColors[ClassRock].Lerp(c, clamp((h-RockLevel)*0.07))
			}

			if moisture != nil && h > WaterLevel {
				// Wet terrain reads slightly darker.
				c = c.Mul(1 - clamp(m*0.5+0.5)*0.2)
			}

			// Flip vertically so north is up.
			img.Set(i, height-1-j, c.Color())
		}
	}

	return img
}

func Gray(v byte) ColorVec {
	return RGB(v, v, v)
}

func RGB(r, g, b byte) ColorVec {
	const factor = 1.0 / 255
	return ColorVec{float32(r) * factor, float32(g) * factor, float32(b) * factor}
}

func (vec ColorVec) String() string {
	return fmt.Sprintf("vec4(%.3f, %.3f, %.3f, 1.0)", vec[0], vec[1], vec[2])
}

func (vec ColorVec) Mul(v float32) ColorVec {
	vec[0] *= v
	vec[1] *= v
	vec[2] *= v
	return vec
}

func (vec ColorVec) Lerp(other ColorVec, factor float32) ColorVec {
	for i := range vec {
		vec[i] = world.Lerp(vec[i], other[i], factor)
	}
	return vec
}

func (vec ColorVec) Color() color.RGBA {
	return color.RGBA{R: floatToByte(vec[0]), G: floatToByte(vec[1]), B: floatToByte(vec[2]), A: 255}
}

func floatToByte(f float32) byte {
	i := int(f * 256)
	if i < 0 {
		i = 0
	} else if i > 255 {
		i = 255
	}
	return byte(i)
}

func clamp(f float32) float32 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
