// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// +build js,wasm

package main

import (
	"log"

	"github.com/SoftbearStudios/terrastream/server"
)

func main() {
	hub := server.NewHub(server.HubOptions{
		Cloud: server.Offline{},
	})

	log.Println("terrastream WASM server started")

	hub.Register(&localClient)

	hub.Run()
}
