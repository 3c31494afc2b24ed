// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
)

// This is an internal script used to translate stress benchmark logs from
// server format to public format

func main() {
	// File sourced from server filesystem
	f, err := os.Open("terrastream-stress.log")
	if err != nil {
		log.Fatal(err)
	}
	r := csv.NewReader(f)

	// Best (lowest) duration seen for each chunk count
	best := make(map[int]int64)

	for {
		record, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			log.Fatal(err)
		}

		// timestamp, chunks, millis
		chunks, err := strconv.Atoi(record[1])
		if err != nil {
			log.Fatal(err)
		}
		millis, err := strconv.ParseInt(record[2], 10, 64)
		if err != nil {
			log.Fatal(err)
		}

		if current, ok := best[chunks]; !ok || millis < current {
			best[chunks] = millis
		}
	}

	f.Close()

	counts := make([]int, 0, len(best))

	for c := range best {
		counts = append(counts, c)
	}

	sort.Ints(counts)

	o, err := os.Create("terrastream-benchmarks.csv")
	if err != nil {
		log.Fatal(err)
	}
	w := csv.NewWriter(o)

	// Header
	w.Write([]string{"chunks", "millis", "millisPerChunk"})

	for _, c := range counts {
		millis := best[c]
		w.Write([]string{
			strconv.Itoa(c),
			strconv.FormatInt(millis, 10),
			fmt.Sprint(float32(millis) / float32(c)),
		})
	}

	w.Flush()
	// Error from flush
	if err := w.Error(); err != nil {
		log.Fatal(err)
	}

	o.Close()
}
