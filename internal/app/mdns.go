// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"os"

	"github.com/grandcat/zeroconf"
)

const (
	mdnsServiceType = "_nmeafix._tcp"
	mdnsDomain      = "local."
)

// advertise registers the web server on the local network so dashboards
// can find it without knowing the host's address.
func advertise(port int) (*zeroconf.Server, error) {
	instance := mdnsInstanceName()
	server, err := zeroconf.Register(instance, mdnsServiceType, mdnsDomain, port, mdnsTXT(), nil)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", mdnsServiceType, err)
	}
	log.Printf("mdns: advertising %s.%s%s on port %d", instance, mdnsServiceType, mdnsDomain, port)
	return server, nil
}

func mdnsInstanceName() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	return hostname + "-nmea-fix"
}

func mdnsTXT() []string {
	return []string{
		"version=1",
		"api=/api/gps",
		"ws=/ws/gps",
		"card=/api/gps/card.png",
	}
}
