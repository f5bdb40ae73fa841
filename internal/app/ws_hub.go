// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsMessage is what /ws/gps sends: {"type":"gps","data":{...}} or
// {"type":"error","error":"..."}.
type wsMessage struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// wsCommand is what clients may send.
type wsCommand struct {
	Action string `json:"action"` // "get"
}

type wsClient struct {
	hub  *wsHub
	conn *websocket.Conn
	send chan []byte
	id   string
}

// wsHub fans snapshots out to every connected websocket client.
type wsHub struct {
	// current returns the encoded latest message, false before the first fix.
	current func() ([]byte, bool)

	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	direct     chan directMessage
	done       chan struct{}
}

// directMessage is a reply meant for a single client.
type directMessage struct {
	client *wsClient
	msg    []byte
}

func newWSHub(current func() ([]byte, bool)) *wsHub {
	return &wsHub{
		current:    current,
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 64),
		direct:     make(chan directMessage),
		done:       make(chan struct{}),
	}
}

// run owns the client set until ctx is done.
func (h *wsHub) run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			log.Printf("web: websocket client %s connected (%d total)", c.id, len(h.clients))
			if msg, ok := h.current(); ok {
				c.send <- msg
			}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				log.Printf("web: websocket client %s disconnected (%d total)", c.id, len(h.clients))
			}

		case d := <-h.direct:
			if h.clients[d.client] {
				select {
				case d.client.send <- d.msg:
				default:
				}
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Too slow to keep up; drop it.
					delete(h.clients, c)
					close(c.send)
					log.Printf("web: websocket client %s dropped", c.id)
				}
			}
		}
	}
}

// publish queues msg for every client without blocking the caller.
func (h *wsHub) publish(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("web: websocket broadcast queue full, snapshot dropped")
	}
}

// HandleGPSWS upgrades the request and attaches the client to the hub.
func (h *wsHub) HandleGPSWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}

	c := &wsClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		id:   uuid.NewString(),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var cmd wsCommand
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("web: websocket read error from %s: %v", c.id, err)
			}
			return
		}

		switch cmd.Action {
		case "get":
			if msg, ok := c.hub.current(); ok {
				c.reply(msg)
			} else {
				c.replyError("no data yet")
			}
		default:
			c.replyError("unknown action: " + cmd.Action)
		}
	}
}

// reply hands msg to the hub, which drops it if the client is gone or
// its buffer is full.
func (c *wsClient) reply(msg []byte) {
	select {
	case c.hub.direct <- directMessage{client: c, msg: msg}:
	case <-c.hub.done:
	}
}

func (c *wsClient) replyError(text string) {
	msg, err := json.Marshal(wsMessage{Type: "error", Error: text})
	if err != nil {
		return
	}
	c.reply(msg)
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
