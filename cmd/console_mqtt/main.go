package main

import (
	"log"

	"github.com/relabs-tech/nmea_fix/internal/app"
	"github.com/relabs-tech/nmea_fix/internal/config"
)

func main() {
	log.Println("starting nmea-fix console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal("nmea_fix_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
