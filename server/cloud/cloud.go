// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/SoftbearStudios/terrastream/server/cloud/db"
	"github.com/SoftbearStudios/terrastream/server/cloud/fs"
)

const UpdatePeriod = 30 * time.Second

// Cloud reports this server's heartbeats, stress benchmarks, and
// terrain snapshots to AWS.
type Cloud struct {
	region   string
	stage    string
	host     string
	database db.Database
	fs       fs.Filesystem
}

func (cloud *Cloud) String() string {
	var builder strings.Builder
	builder.WriteByte('[')
	builder.WriteString(cloud.region)
	builder.WriteByte(' ')
	builder.WriteString(cloud.stage)
	builder.WriteByte(' ')
	builder.WriteString(cloud.host)
	builder.WriteByte(']')
	return builder.String()
}

// New connects using the shared credentials file or EC2 role. Empty
// region/stage fall back to EC2 user data. Returns an error when
// anything is unreachable; callers fall back to offline mode.
func New(region, stage string) (*Cloud, error) {
	if region == "" || stage == "" {
		userData, err := loadUserData()
		if err != nil {
			return nil, fmt.Errorf("missing region or stage: %v", err)
		}
		region, stage = userData.Region, userData.Stage
	}

	cloud := &Cloud{
		region: region,
		stage:  stage,
	}

	host, err := os.Hostname()
	if err != nil {
		return nil, err
	}
	cloud.host = host

	sess, err := getAWSSession(region)
	if err != nil {
		return nil, err
	}

	cloud.database, err = db.NewDynamoDBDatabase(sess, stage)
	if err != nil {
		return nil, err
	}
	cloud.fs, err = fs.NewS3Filesystem(sess, stage)
	if err != nil {
		return nil, err
	}

	servers, err := cloud.database.ReadServersByRegion(region)
	if err != nil {
		return nil, err
	}
	fmt.Printf("cloud: %d other servers in %s\n", len(servers), region)

	benchmarks, err := cloud.database.ReadBenchmarks()
	if err != nil {
		return nil, err
	}
	for _, benchmark := range benchmarks {
		fmt.Printf("cloud: best stress result so far: %d chunks in %dms (%s)\n", benchmark.Chunks, benchmark.Millis, benchmark.Host)
	}

	err = cloud.UpdateServer(0, 0)
	if err != nil {
		return nil, err
	}

	return cloud, nil
}

// Call at least every 30s or the row expires.
func (cloud *Cloud) UpdateServer(chunks, viewers int) error {
	return cloud.database.UpdateServer(db.Server{
		Region:  cloud.region,
		Host:    cloud.host,
		Chunks:  chunks,
		Viewers: viewers,
		TTL:     time.Now().Unix() + int64(UpdatePeriod/time.Second) + 5,
	})
}

// UpdateBenchmark keeps the best (lowest) wall-clock time per chunk
// count across all hosts.
func (cloud *Cloud) UpdateBenchmark(chunks int, millis int64) error {
	return cloud.database.UpdateBenchmark(db.Benchmark{
		Chunks: chunks,
		Millis: millis,
		Host:   cloud.host,
	})
}

func (cloud *Cloud) UploadTerrainSnapshot(data []byte) error {
	return cloud.fs.UploadStaticFile("terrain.png", 60, data)
}

func (cloud *Cloud) UpdatePeriod() time.Duration {
	return UpdatePeriod
}
