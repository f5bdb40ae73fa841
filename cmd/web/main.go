// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"

	"github.com/relabs-tech/nmea_fix/internal/app"
	"github.com/relabs-tech/nmea_fix/internal/config"
)

func main() {
	log.Println("starting nmea-fix web server (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal("nmea_fix_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunWeb(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
