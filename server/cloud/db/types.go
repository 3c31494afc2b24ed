// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

type Server struct {
	Region  string `dynamo:"region"`
	Host    string `dynamo:"host"`
	Chunks  int    `dynamo:"chunks"`
	Viewers int    `dynamo:"viewers"`
	TTL     int64  `dynamo:"ttl,omitempty"`
}

// Benchmark is the best stress timing recorded for a chunk count.
type Benchmark struct {
	Chunks int    `dynamo:"chunks"`
	Millis int64  `dynamo:"millis"`
	Host   string `dynamo:"host"`
	TTL    int64  `dynamo:"ttl,omitempty"`
}
