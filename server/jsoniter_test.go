// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"testing"

	"github.com/SoftbearStudios/terrastream/server/terrain"
	"github.com/SoftbearStudios/terrastream/server/world"
)

func TestJsonIter(t *testing.T) {
	// Chunk ids are quoted hex on the wire.
	testID := world.ChunkCoord{X: -3, Y: 2}.ID()

	testGone := Message{Data: ChunkGone{Chunk: testID}}
	const testGoneString = `{"data":{"chunk":"fffffffd00000002"},"type":"chunkGone"}`

	buf, err := json.Marshal(testGone)
	if err != nil {
		t.Error("error marshaling:", err.Error())
		return
	}
	if !bytes.Equal(buf, []byte(testGoneString)) {
		t.Error("different output:\none:", testGoneString, "\ntwo:", string(buf))
	}

	testProgress := Message{Data: Progress{Completed: 3, Total: 25}}
	const testProgressString = `{"data":{"completed":3,"total":25},"type":"progress"}`

	buf, err = json.Marshal(testProgress)
	if err != nil {
		t.Error("error marshaling:", err.Error())
		return
	}
	if !bytes.Equal(buf, []byte(testProgressString)) {
		t.Error("different output:\none:", testProgressString, "\ntwo:", string(buf))
	}

	realChunkID := world.ChunkCoord{X: 7, Y: -1}.ID()
	const chunkIDString = `{"chunk": "7ffffffff"}`

	var chunkIDWrapper struct {
		Chunk world.ChunkID `json:"chunk"`
	}
	err = json.Unmarshal([]byte(chunkIDString), &chunkIDWrapper)
	if err != nil {
		t.Error("error unmarshaling:", err.Error())
		return
	}
	if chunkIDWrapper.Chunk != realChunkID {
		t.Error("different output:\nexpected:", realChunkID, "\ngot:", chunkIDWrapper.Chunk, "\n")
	}
}

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		json string
		data interface{}
	}{
		{
			`{"data":{"position":{"x":150.5,"y":-75.25}},"type":"observerUpdate"}`,
			ObserverUpdate{Position: world.Vec2f{X: 150.5, Y: -75.25}},
		},
		{
			// Type after data requires a second pass.
			`{"type":"observerUpdate","data":{"position":{"x":150.5,"y":-75.25}}}`,
			ObserverUpdate{Position: world.Vec2f{X: 150.5, Y: -75.25}},
		},
		{
			`{"data":{"name":"alice"},"type":"hello"}`,
			Hello{Name: "alice"},
		},
		{
			`{"data":{"auth":"s3cret","chunks":64},"type":"stress"}`,
			Stress{Auth: "s3cret", Chunks: 64},
		},
		{
			`{"data":{"fps":31.5},"type":"trace"}`,
			Trace{FPS: 31.5},
		},
	}

	for _, test := range tests {
		var message Message
		if err := json.Unmarshal([]byte(test.json), &message); err != nil {
			t.Errorf("%s: %v", test.json, err)
			continue
		}
		if message.Data != test.data {
			t.Errorf("%s: expected %#v, got %#v", test.json, test.data, message.Data)
		}
	}
}

func TestDecodeInvalidInbound(t *testing.T) {
	var message Message
	if err := json.Unmarshal([]byte(`{"data":{},"type":"bogus"}`), &message); err != nil {
		t.Fatal(err)
	}

	invalid, ok := message.Data.(InvalidInbound)
	if !ok {
		t.Fatalf("expected InvalidInbound, got %#v", message.Data)
	}
	if invalid.messageType != "bogus" {
		t.Errorf("expected type bogus, got %s", invalid.messageType)
	}

	// Outbound types must not decode as inbounds.
	if err := json.Unmarshal([]byte(`{"data":{},"type":"chunkGone"}`), &message); err != nil {
		t.Fatal(err)
	}
	if _, ok := message.Data.(InvalidInbound); !ok {
		t.Errorf("expected InvalidInbound, got %#v", message.Data)
	}

	if err := json.Unmarshal([]byte(`{"data":{}}`), &message); err == nil {
		t.Error("expected error for missing message type")
	}
}

func TestChunkReadyJSON(t *testing.T) {
	const size = 4

	chunk := &terrain.Chunk{
		ID:      world.ChunkCoord{X: 1, Y: 2}.ID(),
		Coord:   world.ChunkCoord{X: 1, Y: 2},
		Size:    size,
		Heights: make([]float32, size*size),
		State:   terrain.StateReady,
	}
	for i := range chunk.Heights {
		chunk.Heights[i] = float32(i) - 8
	}

	out := NewChunkReady(chunk)
	buf, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	out.Pool()

	var ready ChunkReady
	if err := json.Unmarshal(buf, &ready); err != nil {
		t.Fatal(err)
	}

	if ready.Chunk != chunk.ID || ready.Coord != chunk.Coord || ready.Size != size {
		t.Fatalf("bad header: chunk %s, coord %s, size %d", ready.Chunk.Coord(), ready.Coord, ready.Size)
	}

	heights, err := ready.Terrain.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if len(heights) != size*size {
		t.Fatalf("expected %d heights, got %d", size*size, len(heights))
	}
	for i := range heights {
		if diff := heights[i] - chunk.Heights[i]; diff > 1 || diff < -1 {
			t.Errorf("height %d: expected about %f, got %f", i, chunk.Heights[i], heights[i])
		}
	}
}
