// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/SoftbearStudios/terrastream/server/terrain"
	"github.com/SoftbearStudios/terrastream/server/terrain/noise"
	"github.com/SoftbearStudios/terrastream/server/world"
)

const (
	// tickPeriod paces observer polling; queue draining has its own
	// wall-clock limiter inside the stream.
	tickPeriod   = time.Second / 20
	statusPeriod = time.Second
	debugPeriod  = time.Second * 5
)

// Hub owns the registry and the stream and runs the single control
// goroutine everything else talks to through channels.
type Hub struct {
	// Terrain state
	registry *registry
	stream   *stream
	stress   *stressRun
	biome    *noise.Field
	params   terrain.Params

	// observer is the position chunk streaming follows, fed by
	// ObserverUpdate messages. Hub goroutine only.
	observer world.Vec2f

	clients ClientList

	// Flags
	auth   string
	wander bool

	// Cloud (and things that are served atomically by HTTP)
	cloud      Cloud
	statusJSON atomic.Value

	// funcBenches are benchmarks of core Hub functions.
	funcBenches []funcBench

	// Inbound channels
	inbound    chan SignedInbound
	register   chan Client
	unregister chan Client

	// Timer based events
	tickTicker   *time.Ticker
	statusTicker *time.Ticker
	debugTicker  *time.Ticker
	cloudTicker  *time.Ticker
}

func NewHub(options HubOptions) *Hub {
	options = options.withDefaults()

	h := &Hub{
		registry:     newRegistry(noise.New(options.Params), options.ChunkSize, options.MaxWorkers),
		biome:        noise.New(options.Params.Biome()),
		params:       options.Params,
		auth:         options.Auth,
		wander:       options.Wander,
		cloud:        options.Cloud,
		inbound:      make(chan SignedInbound, 64),
		register:     make(chan Client, 8),
		unregister:   make(chan Client, 16),
		tickTicker:   time.NewTicker(tickPeriod),
		statusTicker: time.NewTicker(statusPeriod),
		debugTicker:  time.NewTicker(debugPeriod),
		cloudTicker:  time.NewTicker(options.Cloud.UpdatePeriod()),
	}

	h.stream = newStream(h.registry, PositionFunc(h.observerPosition), options.Radius,
		time.Duration(options.DrainMillis)*time.Millisecond,
		h.reportProgress, h.broadcastChunk, h.broadcastGone)

	return h
}

func (h *Hub) Run() {
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		}
		println("That's it, I'm out -hub") // Don't waste time debugging hub exits
		os.Exit(1)
	}()

	h.Cloud()

	if h.wander {
		h.register <- &BotClient{}
	}

	h.stream.bootstrap()

	for {
		select {
		case client := <-h.register:
			h.clients.Add(client)
			client.Data().Hub = h
			client.Init()

			// Catch up on chunks that became Ready before the client
			// arrived; later ones stream in as they complete.
			h.registry.each(func(chunk *terrain.Chunk) {
				if chunk.Ready() {
					client.Send(NewChunkReady(chunk))
				}
			})
		case client := <-h.unregister:
			client.Close()
			client.Data().Hub = nil
			h.clients.Remove(client)
		case in := <-h.inbound:
			// Read all messages currently in the channel
			n := len(h.inbound)

			for {
				// If not same hub the message is old; nil clients are
				// trusted messages from the process itself
				if in.Client == nil || in.Client.Data().Hub == h {
					in.Inbound.Inbound(h, in.Client)
				}

				if n--; n <= 0 {
					break
				}

				in = <-h.inbound
			}
		case c := <-h.registry.complete:
			// Read all completions currently in the channel
			n := len(h.registry.complete)

			for {
				h.finishChunk(c)

				if n--; n <= 0 {
					break
				}

				c = <-h.registry.complete
			}
		case <-h.tickTicker.C:
			h.tick()
		case <-h.statusTicker.C:
			h.broadcastStatus()
		case <-h.debugTicker.C:
			h.Debug()
			h.SnapshotTerrain()
		case <-h.cloudTicker.C:
			h.Cloud()
		}
	}
}

func (h *Hub) tick() {
	defer h.timeFunction("stream", time.Now())
	h.stream.tick()
}

// finishChunk routes a worker completion: late ones are dropped by the
// registry, live ones go to stress bookkeeping and the stream.
func (h *Hub) finishChunk(c completion) {
	chunk := h.registry.finish(c)
	if chunk == nil {
		return
	}

	h.stressChunk(chunk.ID)
	h.stream.chunkReady(chunk)
}

func (h *Hub) observerPosition() world.Vec2f {
	return h.observer
}

func (h *Hub) reportProgress(completed, total int) {
	fmt.Printf("bootstrap progress: %d/%d\n", completed, total)
	h.broadcast(Progress{Completed: completed, Total: total})
}

func (h *Hub) broadcastChunk(chunk *terrain.Chunk) {
	// Each client gets its own message so pooling stays accurate.
	for client := h.clients.First; client != nil; client = client.Data().Next {
		client.Send(NewChunkReady(chunk))
	}
}

func (h *Hub) broadcastGone(id world.ChunkID) {
	h.broadcast(ChunkGone{Chunk: id})
}

// broadcast shares one message between all clients. Only valid for
// outbounds with a no-op Pool.
func (h *Hub) broadcast(out Outbound) {
	for client := h.clients.First; client != nil; client = client.Data().Next {
		client.Send(out)
	}
}

func (h *Hub) viewerCount() int {
	viewers := 0
	for client := h.clients.First; client != nil; client = client.Data().Next {
		if !client.Bot() {
			viewers++
		}
	}
	return viewers
}

func (h *Hub) broadcastStatus() {
	states := h.registry.states()

	h.broadcast(Status{
		Phase:        h.stream.phase.String(),
		Ready:        states[terrain.StateReady],
		Generating:   states[terrain.StateGenerating],
		CreateQueue:  len(h.stream.creations),
		DestroyQueue: len(h.stream.destructions),
		Late:         h.registry.late,
		Viewers:      h.viewerCount(),
	})
}

func (h *Hub) Cloud() {
	fmt.Println("Updating cloud")

	states := h.registry.states()
	ready := states[terrain.StateReady]
	viewers := h.viewerCount()

	statusJSON, err := json.Marshal(struct {
		Phase        string `json:"phase"`
		Chunks       int    `json:"chunks"`
		Generating   int    `json:"generating"`
		CreateQueue  int    `json:"createQueue"`
		DestroyQueue int    `json:"destroyQueue"`
		Workers      int    `json:"workers"`
		Viewers      int    `json:"viewers"`
	}{
		Phase:        h.stream.phase.String(),
		Chunks:       ready,
		Generating:   states[terrain.StateGenerating],
		CreateQueue:  len(h.stream.creations),
		DestroyQueue: len(h.stream.destructions),
		Workers:      cap(h.registry.workers),
		Viewers:      viewers,
	})

	if err == nil {
		h.statusJSON.Store(statusJSON)
	} else {
		fmt.Println("error marshaling status:", err)
	}

	go func() {
		if err := h.cloud.UpdateServer(ready, viewers); err != nil {
			fmt.Println("Error updating server:", err)
		}
	}()
}

// Register adds a client to the hub on its goroutine.
func (h *Hub) Register(client Client) {
	h.register <- client
}

// Unregister removes a client on the hub goroutine. Prefer
// Client.Destroy which guards against double unregistration.
func (h *Hub) Unregister(client Client) {
	h.unregister <- client
}

// ReceiveSigned hands an inbound message to the hub goroutine.
// Unreliable messages are dropped when the hub is backlogged, which
// suits messages superseded by later ones like ObserverUpdate. Reliable
// sends fall back to a goroutine so calls from the hub goroutine itself
// cannot deadlock.
func (h *Hub) ReceiveSigned(in SignedInbound, reliable bool) {
	select {
	case h.inbound <- in:
	default:
		if reliable {
			go func() {
				h.inbound <- in
			}()
		}
	}
}
