// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	_ "net/http/pprof"

	"github.com/SoftbearStudios/terrastream/server"
	"github.com/SoftbearStudios/terrastream/server/cloud"
	"github.com/SoftbearStudios/terrastream/server/terrain"
	"golang.org/x/net/netutil"
)

func main() {
	var (
		auth           string
		config         string
		region         string
		stage          string
		port           int
		maxConnections int
		chunkSize      int
		radius         int
		drainMillis    int
		workers        int
		seed           int64
		octaves        int
		persistence    float64
		frequency      float64
		stress         int
		wander         bool
	)

	defaults := terrain.DefaultParams()

	flag.StringVar(&auth, "auth", "", "admin auth code")
	flag.StringVar(&config, "config", "", "terrain preset path or url")
	flag.StringVar(&region, "region", "", "aws region (default EC2 user data)")
	flag.StringVar(&stage, "stage", "", "deployment stage (default EC2 user data)")
	flag.IntVar(&port, "port", 8192, "http service port")
	flag.IntVar(&maxConnections, "max-connections", 256, "maximum number of inbound TCP connections")
	flag.IntVar(&chunkSize, "chunk-size", terrain.DefaultSize, "height samples per chunk side")
	flag.IntVar(&radius, "radius", 5, "streamed window radius in chunks")
	flag.IntVar(&drainMillis, "drain-millis", 0, "queue drain period in milliseconds (0 = default)")
	flag.IntVar(&workers, "workers", 0, "maximum concurrent chunk workers (0 = automatic)")
	flag.Int64Var(&seed, "seed", defaults.Seed, "terrain seed")
	flag.IntVar(&octaves, "octaves", defaults.Octaves, "noise octaves")
	flag.Float64Var(&persistence, "persistence", defaults.Persistence, "noise persistence")
	flag.Float64Var(&frequency, "frequency", defaults.Frequency, "noise frequency")
	flag.IntVar(&stress, "stress", 0, "generate this many chunks on startup and report timing")
	flag.BoolVar(&wander, "wander", false, "run a wandering bot observer")
	flag.Parse()

	options := server.HubOptions{
		Params: terrain.Params{
			Octaves:     octaves,
			Persistence: persistence,
			Frequency:   frequency,
			Seed:        seed,
		},
		ChunkSize:   chunkSize,
		Radius:      int32(radius),
		DrainMillis: drainMillis,
		MaxWorkers:  workers,
		Auth:        auth,
		Wander:      wander,
	}

	if config != "" {
		preset, err := server.LoadPreset(config)
		if err != nil {
			log.Fatal("invalid argument config: ", err)
		}
		options = options.Merge(preset)
	}

	var c server.Cloud

	c, err := cloud.New(region, stage)
	if err != nil {
		// Cloud is not required for server to function, just log an error
		log.Printf("Cloud error: %v\n", err)

		c = server.Offline{}
	}
	options.Cloud = c

	hub := server.NewHub(options)

	go hub.Run()

	if stress > 0 {
		hub.ReceiveSigned(server.SignedInbound{Inbound: server.Stress{Chunks: stress, Auth: auth}}, true)
	}

	if port < 0 {
		log.Println("terrastream simulation started")
		// Block forever
		<-make(chan struct{})
	}

	log.Println("terrastream server started on port", port)

	http.HandleFunc("/", hub.ServeIndex)
	http.HandleFunc("/ws", hub.ServeSocket)

	l, err := net.Listen("tcp", fmt.Sprint(":", port))

	if err != nil {
		log.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	l = netutil.LimitListener(l, maxConnections)

	log.Fatal("ListenAndServe: ", http.Serve(l, nil))
}
