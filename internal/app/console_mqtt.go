package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/nmea_fix/internal/config"
	"github.com/relabs-tech/nmea_fix/internal/gps"
)

// RunConsoleMQTT prints the latest fix received over MQTT, at most once
// per CONSOLE_LOG_INTERVAL, plus every lock change as it arrives.
func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	var (
		mu       sync.Mutex
		last     gps.Snapshot
		received time.Time
		have     bool
	)

	// Subscribe to GPS snapshots
	err = subscribe(client, cfg.TopicGPS, func(_ mqtt.Client, msg mqtt.Message) {
		var s gps.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: gps unmarshal error: %v", err)
			return
		}
		mu.Lock()
		last, received, have = s, time.Now(), true
		mu.Unlock()
	})
	if err != nil {
		return err
	}
	log.Printf("console: subscribed to %s", cfg.TopicGPS)

	// Subscribe to lock changes
	err = subscribe(client, cfg.TopicGPSLock, func(_ mqtt.Client, msg mqtt.Message) {
		fmt.Printf("[LOCK] locked=%s\n", msg.Payload())
	})
	if err != nil {
		return err
	}
	log.Printf("console: subscribed to %s", cfg.TopicGPSLock)

	ticker := time.NewTicker(time.Duration(cfg.ConsoleLogInterval) * time.Millisecond)
	defer ticker.Stop()

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			mu.Lock()
			s, at, ok := last, received, have
			mu.Unlock()
			if ok {
				fmt.Println(formatConsoleLine(s, at, time.Now()))
			}
		case <-sigCh:
			log.Println("console: shutting down")
			client.Disconnect(250)
			return nil
		}
	}
}

func formatConsoleLine(s gps.Snapshot, received, now time.Time) string {
	lock := "NO LOCK"
	if s.Locked {
		lock = "LOCK"
	}
	return fmt.Sprintf(
		"[GPS ]  %s %s  %-7s lat=%.6f lon=%.6f alt=%.1fm speed=%.1fkm/h course=%.1f° (%s)  sats=%d/%d hdop=%.1f  received %s",
		s.Date, s.Time, lock,
		s.Position.Latitude, s.Position.Longitude, s.Position.Altitude,
		s.Velocity.SpeedKmh, s.Velocity.CourseDeg, s.Velocity.Compass,
		s.Satellites.Tracking, s.Satellites.Visible, s.Quality.HDOP,
		humanize.RelTime(received, now, "ago", "from now"),
	)
}
