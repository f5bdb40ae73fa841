package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/nmea_fix/internal/config"
	"github.com/relabs-tech/nmea_fix/internal/gps"
)

// gpsState is the latest snapshot received over MQTT.
type gpsState struct {
	mu   sync.RWMutex
	last gps.Snapshot
	have bool

	hub *wsHub
}

func newGPSState() *gpsState {
	s := &gpsState{}
	s.hub = newWSHub(s.currentMessage)
	return s
}

// update stores s and pushes it to websocket clients.
func (g *gpsState) update(s gps.Snapshot) {
	g.mu.Lock()
	g.last = s
	g.have = true
	g.mu.Unlock()

	msg, err := json.Marshal(wsMessage{Type: "gps", Data: s})
	if err != nil {
		log.Printf("web: json encode error: %v", err)
		return
	}
	g.hub.publish(msg)
}

func (g *gpsState) get() (gps.Snapshot, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.last, g.have
}

func (g *gpsState) currentMessage() ([]byte, bool) {
	s, ok := g.get()
	if !ok {
		return nil, false
	}
	msg, err := json.Marshal(wsMessage{Type: "gps", Data: s})
	if err != nil {
		return nil, false
	}
	return msg, true
}

func RunWeb() error {
	cfg := config.Get()
	state := newGPSState()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go state.hub.run(ctx)

	// 1) Connect to MQTT broker
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to the snapshot topic and keep the latest one
	err = subscribe(client, cfg.TopicGPS, func(_ mqtt.Client, msg mqtt.Message) {
		var s gps.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("web: MQTT payload unmarshal error: %v", err)
			return
		}
		state.update(s)
	})
	if err != nil {
		return err
	}
	log.Printf("web: subscribed to MQTT topic %s", cfg.TopicGPS)

	// 3) Optional mDNS advertisement
	if cfg.WebMDNSEnable {
		server, err := advertise(cfg.WebServerPort)
		if err != nil {
			log.Printf("mdns: %v", err)
		} else {
			defer server.Shutdown()
		}
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, newWebMux(state, cfg.WebStaticDir))
}

func newWebMux(state *gpsState, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// JSON API endpoint: latest snapshot
	mux.HandleFunc("/api/gps", func(w http.ResponseWriter, r *http.Request) {
		s, ok := state.get()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, s)
	})

	mux.HandleFunc("/api/gps/satellites", func(w http.ResponseWriter, r *http.Request) {
		s, ok := state.get()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, s.Satellites)
	})

	mux.HandleFunc("/api/gps/card.png", func(w http.ResponseWriter, r *http.Request) {
		s, ok := state.get()
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := png.Encode(w, RenderStatusCard(s, ok)); err != nil {
			log.Printf("web: png encode error: %v", err)
		}
	})

	mux.HandleFunc("/ws/gps", state.hub.HandleGPSWS)

	// Static files as the root
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}
