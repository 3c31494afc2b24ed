// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

import (
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/guregu/dynamo"
)

type DynamoDBDatabase struct {
	svc             *dynamodb.DynamoDB
	db              *dynamo.DB
	serversTable    dynamo.Table
	benchmarksTable dynamo.Table
}

func NewDynamoDBDatabase(session *session.Session, stage string) (*DynamoDBDatabase, error) {
	ddb := &DynamoDBDatabase{svc: dynamodb.New(session)}
	ddb.db = dynamo.NewFromIface(ddb.svc)
	ddb.serversTable = ddb.db.Table("terrastream-" + stage + "-servers")
	ddb.benchmarksTable = ddb.db.Table("terrastream-" + stage + "-benchmarks")
	return ddb, nil
}

func (ddb *DynamoDBDatabase) UpdateServer(server Server) error {
	return ddb.serversTable.Put(server).Run()
}

func (ddb *DynamoDBDatabase) ReadServers() (servers []Server, err error) {
	query := ddb.serversTable.Scan().Iter()

	for {
		var server Server
		ok := query.Next(&server)
		if !ok {
			err = query.Err()
			return
		}
		servers = append(servers, server)
	}

	// Unreachable
	return
}

func (ddb *DynamoDBDatabase) ReadServersByRegion(region string) (servers []Server, err error) {
	query := ddb.serversTable.Get("region", region).Iter()

	for {
		var server Server
		ok := query.Next(&server)
		if !ok {
			err = query.Err()
			return
		}
		servers = append(servers, server)
	}

	// Unreachable
	return
}

// UpdateBenchmark only replaces a row when the new time beats it.
func (ddb *DynamoDBDatabase) UpdateBenchmark(benchmark Benchmark) error {
	err := ddb.benchmarksTable.Put(benchmark).If("attribute_not_exists(millis) OR millis > ?", benchmark.Millis).Run()
	if err != nil {
		if _, ok := err.(*dynamodb.ConditionalCheckFailedException); ok {
			return nil
		}
	}
	return err
}

func (ddb *DynamoDBDatabase) ReadBenchmarks() (benchmarks []Benchmark, err error) {
	query := ddb.benchmarksTable.Scan().Iter()

	for {
		var benchmark Benchmark
		ok := query.Next(&benchmark)
		if !ok {
			err = query.Err()
			return
		}
		benchmarks = append(benchmarks, benchmark)
	}

	// Unreachable
	return
}
