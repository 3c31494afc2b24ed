// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SoftbearStudios/terrastream/server/terrain"
	"github.com/SoftbearStudios/terrastream/server/terrain/mesh"
	"github.com/SoftbearStudios/terrastream/server/world"
)

// testClient collects outbounds on a channel for the test goroutine.
type testClient struct {
	ClientData
	outbound chan Outbound
	once     sync.Once
}

func newTestClient() *testClient {
	return &testClient{outbound: make(chan Outbound, 1024)}
}

func (c *testClient) Init()  {}
func (c *testClient) Close() {}

func (c *testClient) Send(out Outbound) {
	select {
	case c.outbound <- out:
	default:
	}
}

func (c *testClient) Destroy() {
	c.once.Do(func() {
		c.Hub.Unregister(c)
	})
}

func (c *testClient) Bot() bool {
	return false
}

func (c *testClient) Data() *ClientData {
	return &c.ClientData
}

func TestHubStreamsChunks(t *testing.T) {
	const size = 5

	hub := NewHub(HubOptions{
		Cloud:       Offline{},
		ChunkSize:   size,
		Radius:      1,
		DrainMillis: 1,
		MaxWorkers:  4,
	})

	go hub.Run()

	client := newTestClient()
	hub.Register(client)

	// All 9 window chunks must arrive, by catch up at registration or as
	// they complete.
	chunks := make(map[world.ChunkID]world.ChunkCoord, 9)
	timeout := time.After(5 * time.Second)

	for len(chunks) < 9 {
		select {
		case out := <-client.outbound:
			ready, ok := out.(*ChunkReady)
			if !ok {
				continue
			}

			heights, err := ready.Terrain.Decode()
			if err != nil {
				t.Fatal(err)
			}
			if ready.Size != size || len(heights) != size*size {
				t.Fatalf("bad chunk: size %d, %d heights", ready.Size, len(heights))
			}

			m := mesh.Build(&terrain.Chunk{
				ID:      ready.Chunk,
				Coord:   ready.Coord,
				Size:    ready.Size,
				Heights: heights,
				State:   terrain.StateReady,
			})
			if expected := (size - 1) * (size - 1) * 2; m.Triangles() != expected {
				t.Fatalf("expected %d triangles, got %d", expected, m.Triangles())
			}

			chunks[ready.Chunk] = ready.Coord
			ready.Pool()
		case <-timeout:
			t.Fatalf("timed out with %d of 9 chunks", len(chunks))
		}
	}

	for _, coord := range windowCoords(world.ChunkCoord{}, 1) {
		if _, ok := chunks[coord.ID()]; !ok {
			t.Errorf("missing chunk %s", coord)
		}
	}
}

func TestHubStress(t *testing.T) {
	hub := NewHub(HubOptions{
		Cloud:      Offline{},
		ChunkSize:  4,
		Radius:     0,
		MaxWorkers: 2,
	})

	go hub.Run()

	client := newTestClient()
	hub.Register(client)
	hub.ReceiveSigned(SignedInbound{Inbound: Stress{Chunks: 8}}, true)

	// Status broadcasts report the ready count; the stress line plus the
	// bootstrap chunk reach 8 live chunks.
	timeout := time.After(10 * time.Second)
	for {
		select {
		case out := <-client.outbound:
			if status, ok := out.(Status); ok && status.Ready >= 8 {
				return
			}
		case <-timeout:
			t.Fatal("stress chunks never became ready")
		}
	}
}

func TestStressAuth(t *testing.T) {
	hub := NewHub(HubOptions{
		Cloud:      Offline{},
		ChunkSize:  4,
		MaxWorkers: 2,
		Auth:       "secret",
	})

	Stress{Chunks: 4}.Inbound(hub, nil)
	if n := hub.registry.count(); n != 0 {
		t.Fatalf("unauthenticated stress generated %d chunks", n)
	}

	Stress{Chunks: 4, Auth: "secret"}.Inbound(hub, nil)
	if n := hub.registry.count(); n != 4 {
		t.Fatalf("expected 4 chunks, got %d", n)
	}
}

func TestObserverUpdate(t *testing.T) {
	hub := NewHub(HubOptions{Cloud: Offline{}})

	pos := world.Vec2f{X: 3100, Y: -50}
	ObserverUpdate{Position: pos}.Inbound(hub, nil)

	if hub.observer != pos {
		t.Errorf("expected observer at %s, got %s", pos, hub.observer)
	}
}

func TestHelloNames(t *testing.T) {
	hub := NewHub(HubOptions{Cloud: Offline{}})
	client := newTestClient()

	Hello{Name: " Alice "}.Inbound(hub, client)
	if name := client.Data().Name; name != "Alice" {
		t.Errorf("expected Alice, got %q", name)
	}

	// Reserved names fall back to a generated one.
	Hello{Name: "server"}.Inbound(hub, client)
	if name := client.Data().Name; !strings.HasPrefix(name, "viewer-") {
		t.Errorf("reserved name kept: %q", name)
	}

	Hello{}.Inbound(hub, client)
	if name := client.Data().Name; !strings.HasPrefix(name, "viewer-") {
		t.Errorf("empty name kept: %q", name)
	}
}
