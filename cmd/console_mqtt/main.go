// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/inertial_compass/internal/app"
	"github.com/relabs-tech/inertial_compass/internal/config"
)

func main() {
	raw := flag.Bool("raw", false, "also print the raw sensor streams")
	flag.Parse()

	log.Println("starting inertial-compass console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal("compass_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(*raw); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
