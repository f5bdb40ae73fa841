// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"
	"os"

	"github.com/relabs-tech/nmea_fix/internal/app"
	"github.com/relabs-tech/nmea_fix/internal/config"
)

// Usage: replay [file.nmea]
// Without an argument GPS_REPLAY_FILE from the config file is used.
func main() {
	cfg := &config.Config{}
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	if err := config.InitGlobal("nmea_fix_config.txt"); err == nil {
		cfg = config.Get()
		if path == "" {
			path = cfg.GPSReplayFile
		}
	} else if path == "" {
		log.Fatalf("failed to load config: %v", err)
	}
	if path == "" {
		log.Fatalf("no replay file given")
	}

	log.Printf("replaying %s", path)
	if err := app.RunReplay(path, cfg, os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
