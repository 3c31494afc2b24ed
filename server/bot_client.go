// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"github.com/SoftbearStudios/terrastream/server/terrain"
	"github.com/SoftbearStudios/terrastream/server/world"
	"github.com/chewxy/math32"
)

// BotClient is a built-in observer that wanders the world, so chunk
// streaming churns even with no viewer connected. It paces itself off
// the hub's Status broadcasts.
type BotClient struct {
	ClientData
	position   world.Vec2f
	heading    world.Vec2f // unit direction
	chunks     int         // ChunkReady messages received
	destroying bool
}

func (bot *BotClient) Close() {}

func (bot *BotClient) Bot() bool {
	return true
}

func (bot *BotClient) Data() *ClientData {
	return &bot.ClientData
}

func (bot *BotClient) Destroy() {
	if bot.destroying {
		return // In case goroutine hasn't run yet
	}

	bot.destroying = true
	hub := bot.Hub

	// Needs to go through always.
	select {
	case hub.unregister <- bot:
	default:
		go func() {
			hub.unregister <- bot
		}()
	}
}

func (bot *BotClient) Init() {
	r := getRand()

	angle := r.Float32() * 2 * math32.Pi
	sin, cos := math32.Sincos(angle)
	bot.heading = world.Vec2f{X: cos, Y: sin}

	name := randomBotName(r)
	poolRand(r)

	bot.receiveAsync(Hello{Name: name})
}

func (bot *BotClient) Send(out Outbound) {
	if bot.destroying {
		return
	}

	// Use local rand to avoid locking
	r := getRand()

	switch out.(type) {
	case Status:
		// One Status per second paces the walk. A few chunk widths
		// per minute keeps the drain queues busy without flooding.
		const speed = 2.5 * terrain.Scale

		// Turn sometimes
		if prob(r, 0.1) {
			bot.heading = rotate(bot.heading, (r.Float32()-0.5)*math32.Pi/2)
		}

		bot.position = bot.position.AddScaled(bot.heading, speed)
		bot.receiveAsync(ObserverUpdate{Position: bot.position})
	case *ChunkReady:
		bot.chunks++
	}

	// Pool resources
	poolRand(r)
	out.Pool()
}

// receiveAsync doesn't deadlock the hub
func (bot *BotClient) receiveAsync(in Inbound) {
	select {
	case bot.Hub.inbound <- SignedInbound{Client: bot, Inbound: in}:
	default:
		// Drop bot messages to avoid downfall of server
	}
}

func rotate(vec world.Vec2f, angle float32) world.Vec2f {
	sin, cos := math32.Sincos(angle)
	return world.Vec2f{
		X: vec.X*cos - vec.Y*sin,
		Y: vec.X*sin + vec.Y*cos,
	}
}
