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
	mock := flag.Bool("mock", false, "publish a synthetic device instead of reading the sensors")
	flag.Parse()

	log.Println("starting inertial-compass sensor producer")

	// Load configuration
	if err := config.InitGlobal("compass_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunSensorProducer(*mock); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
