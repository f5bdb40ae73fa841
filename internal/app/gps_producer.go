// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/nmea_fix/internal/config"
	"github.com/relabs-tech/nmea_fix/internal/gps"
	"github.com/relabs-tech/nmea_fix/internal/nmea"
)

// RunGPSProducer reads NMEA sentences from the serial port (or the replay
// file), keeps the fix up to date and publishes it to MQTT.
func RunGPSProducer() error {
	cfg := config.Get()

	// ---- 1) Connect to MQTT broker ----
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDGPS)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("gps: connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open the sentence source ----
	src, interval, err := openLineSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	// ---- 3) Engine: parser -> service -> MQTT ----
	parser, svc := newEngine(cfg)
	wireGPSPublishing(svc, mqttPublisher{client: client}, cfg, time.Now)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := feedLines(ctx, src, parser, interval)
	log.Printf("gps: stopped after %d lines (%d rejected)", stats.Lines, stats.Rejected)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("gps read error: %w", err)
	}
	return nil
}

// newEngine builds the parser and the service registered on it.
func newEngine(cfg *config.Config) (*nmea.Parser, *gps.Service) {
	parser := nmea.NewParser()
	parser.RequireChecksum = cfg.GPSRequireChecksum
	svc := gps.NewService(parser, cfg.GPSTalkerIDs...)
	return parser, svc
}

// openLineSource returns the replay file when one is configured, otherwise
// the serial port. The duration is the delay between lines (0 for serial).
func openLineSource(cfg *config.Config) (io.ReadCloser, time.Duration, error) {
	if cfg.GPSReplayFile != "" {
		f, err := os.Open(cfg.GPSReplayFile)
		if err != nil {
			return nil, 0, fmt.Errorf("open replay file: %w", err)
		}
		log.Printf("gps: replaying %s every %d ms", cfg.GPSReplayFile, cfg.GPSReplayIntervalMs)
		return f, time.Duration(cfg.GPSReplayIntervalMs) * time.Millisecond, nil
	}

	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("open serial port %s: %w", cfg.GPSSerialPort, err)
	}
	log.Printf("gps: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)
	return port, 0, nil
}

type feedStats struct {
	Lines    int
	Rejected int
}

// maxLineBytes bounds one NMEA line; a sentence is at most 82 characters.
// Longer lines are dropped without being buffered.
const maxLineBytes = 4096

// feedLines hands every non-blank line of r to the parser. Rejected
// sentences are logged and skipped. It returns at EOF, on a read error or
// when ctx is done.
func feedLines(ctx context.Context, r io.Reader, parser *nmea.Parser, interval time.Duration) (feedStats, error) {
	var stats feedStats
	reader := bufio.NewReaderSize(r, maxLineBytes)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		raw, oversized, readErr := readLine(reader)
		if oversized {
			stats.Lines++
			stats.Rejected++
			log.Printf("gps: dropped line longer than %d bytes", maxLineBytes)
		} else if line := strings.TrimSpace(raw); line != "" {
			stats.Lines++
			if err := parser.ReadSentence(line); err != nil {
				stats.Rejected++
				log.Printf("gps: %v (line: %q)", err, line)
			}

			if interval > 0 {
				select {
				case <-ctx.Done():
					return stats, ctx.Err()
				case <-time.After(interval):
				}
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return stats, nil
			}
			return stats, readErr
		}
	}
}

// readLine returns the next line without its terminator. A line that does
// not fit the reader's buffer is consumed to its end and reported as
// oversized instead.
func readLine(reader *bufio.Reader) (string, bool, error) {
	chunk, isPrefix, err := reader.ReadLine()
	if err != nil {
		return "", false, err
	}
	if !isPrefix {
		return string(chunk), false, nil
	}
	for isPrefix {
		if _, isPrefix, err = reader.ReadLine(); err != nil {
			return "", true, err
		}
	}
	return "", true, nil
}

// wireGPSPublishing publishes the lock state (retained) whenever it flips
// and the snapshot plus its parts on every update.
func wireGPSPublishing(svc *gps.Service, pub publisher, cfg *config.Config, now func() time.Time) {
	svc.OnLockStateChanged.Subscribe(func(locked bool) {
		if err := pub.Publish(cfg.TopicGPSLock, true, []byte(strconv.FormatBool(locked))); err != nil {
			log.Printf("gps: lock publish error: %v", err)
			return
		}
		log.Printf("gps: lock state changed: locked=%v", locked)
	})

	svc.OnUpdate.Subscribe(func() {
		snap := gps.NewSnapshot(svc.Fix(), now())
		parts := []struct {
			topic string
			v     any
		}{
			{cfg.TopicGPS, snap},
			{cfg.TopicGPSPosition, snap.Position},
			{cfg.TopicGPSVelocity, snap.Velocity},
			{cfg.TopicGPSQuality, snap.Quality},
			{cfg.TopicGPSSatellites, snap.Satellites},
		}
		for _, p := range parts {
			payload, err := json.Marshal(p.v)
			if err != nil {
				log.Printf("gps: JSON marshal error for %s: %v", p.topic, err)
				continue
			}
			if err := pub.Publish(p.topic, true, payload); err != nil {
				log.Printf("gps: publish error on %s: %v", p.topic, err)
			}
		}
	})
}
