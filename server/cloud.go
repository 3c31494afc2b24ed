// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"time"
)

// Cloud is where the server reports its existence and diagnostics.
// Offline stands in when no cloud is reachable.
type Cloud interface {
	fmt.Stringer
	// UpdateServer heartbeats this host's chunk and viewer counts.
	UpdateServer(chunks, viewers int) error
	// UpdateBenchmark records a stress result; implementations keep
	// the best (lowest) time per chunk count.
	UpdateBenchmark(chunks int, millis int64) error
	// UploadTerrainSnapshot takes an encoded PNG.
	UploadTerrainSnapshot(data []byte) error
	UpdatePeriod() time.Duration
}

type Offline struct{}

func (offline Offline) String() string {
	return "offline"
}

func (offline Offline) UpdateServer(chunks, viewers int) error {
	return nil
}

func (offline Offline) UpdateBenchmark(chunks int, millis int64) error {
	return nil
}

func (offline Offline) UploadTerrainSnapshot(data []byte) error {
	return nil
}

func (offline Offline) UpdatePeriod() time.Duration {
	return time.Hour
}
