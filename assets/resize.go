// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"flag"
	"fmt"
	"github.com/nfnt/resize"
	"image/png"
	"os"
)

func main() {
	in := flag.String("in", "out.png", "rendered terrain to shrink")
	out := flag.String("out", "thumb.png", "output thumbnail")
	width := flag.Uint("width", 256, "thumbnail width in pixels")
	flag.Parse()

	file, err := os.Open(*in)
	if err != nil {
		panic(err)
	}

	img, err := png.Decode(file)
	if err != nil {
		panic(err)
	}
	file.Close()

	bounds := img.Bounds()

	// Zero height preserves the aspect ratio
	thumb := resize.Resize(*width, 0, img, resize.Lanczos3)

	outputFile, err := os.Create(*out)
	if err != nil {
		panic(err)
	}

	if err = png.Encode(outputFile, thumb); err != nil {
		panic(err)
	}
	outputFile.Close()

	newBounds := thumb.Bounds()
	fmt.Printf("%s %dx%d -> %s %dx%d\n", *in, bounds.Dx(), bounds.Dy(), *out, newBounds.Dx(), newBounds.Dy())
}
