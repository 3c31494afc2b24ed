// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package terrain

import (
	"errors"
	"fmt"
	"sync"
)

// Data is the wire form of a chunk's height field: heights quantized
// to bytes and run length encoded. A chunk costs at most Length*2
// bytes encoded and usually far less on smooth terrain.
type Data struct {
	Data   []byte `json:"data"`
	Stride int    `json:"stride"`
	Length int    `json:"length"`
}

// 255 byte steps across the full representable height range.
const quantizeStep = (2 * HeightScale) / 255.0

var dataPool = sync.Pool{
	New: func() interface{} {
		return new(Data)
	},
}

// Encode converts a ready chunk's heights for transport.
// The returned Data must be returned with Pool after use.
func Encode(c *Chunk) *Data {
	if !c.Ready() {
		panic("cannot encode chunk without heights")
	}

	data := dataPool.Get().(*Data)
	data.Stride = c.Size
	data.Length = len(c.Heights)
	data.Data = RunLengthEncode(data.Data[:0], Quantize(make([]byte, 0, len(c.Heights)), c.Heights))
	return data
}

// Pool returns the Data's buffer for reuse.
func (data *Data) Pool() {
	buf := data.Data[:0]
	*data = Data{Data: buf}
	dataPool.Put(data)
}

// Decode expands the payload back to world unit heights.
func (data *Data) Decode() ([]float32, error) {
	raw, err := RunLengthDecode(make([]byte, 0, data.Length), data.Data)
	if err != nil {
		return nil, err
	}
	if len(raw) != data.Length {
		return nil, fmt.Errorf("terrain data length %d, expected %d", len(raw), data.Length)
	}
	return Dequantize(make([]float32, 0, len(raw)), raw), nil
}

// Quantize appends heights mapped to single bytes over
// [-HeightScale, HeightScale]. Out of range heights saturate.
func Quantize(out []byte, heights []float32) []byte {
	for _, h := range heights {
		q := (h + HeightScale) / quantizeStep
		if q < 0 {
			q = 0
		} else if q > 255 {
			q = 255
		}
		out = append(out, byte(q))
	}
	return out
}

// Dequantize appends the height each byte's band starts at, inverting
// Quantize to within one quantization step.
func Dequantize(out []float32, data []byte) []float32 {
	for _, b := range data {
		out = append(out, float32(b)*quantizeStep-HeightScale)
	}
	return out
}

// RunLengthEncode appends value, run pairs. Runs longer than 255 are
// split.
func RunLengthEncode(out, data []byte) []byte {
	for i := 0; i < len(data); {
		value := data[i]
		run := 1
		for i+run < len(data) && data[i+run] == value && run < 255 {
			run++
		}
		out = append(out, value, byte(run))
		i += run
	}
	return out
}

// RunLengthDecode appends the expansion of value, run pairs.
func RunLengthDecode(out, data []byte) ([]byte, error) {
	if len(data)%2 != 0 {
		return nil, errors.New("odd length run length payload")
	}
	for i := 0; i < len(data); i += 2 {
		value, run := data[i], int(data[i+1])
		if run == 0 {
			return nil, errors.New("zero length run")
		}
		for j := 0; j < run; j++ {
			out = append(out, value)
		}
	}
	return out, nil
}
