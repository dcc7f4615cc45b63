package server

import (
	"net/http"
	"time"

	"mixvault/logger"
	"mixvault/model"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	eventWriteWait  = 10 * time.Second
	eventPingPeriod = 30 * time.Second

	// Slow consumers are dropped rather than allowed to back up the hub.
	eventSendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The session cookie is the access control; cross-origin pages cannot
	// read it, so any origin may open the socket.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is one feed notification pushed to connected clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type eventClient struct {
	conn *websocket.Conn
	send chan []byte
}

// EventHub fans feed events out to every connected websocket client. Clients
// whose send buffer fills up are disconnected.
type EventHub struct {
	register   chan *eventClient
	unregister chan *eventClient
	broadcast  chan []byte
	done       chan struct{}
}

// NewEventHub creates an EventHub. Run must be started for it to deliver.
func NewEventHub() *EventHub {
	return &EventHub{
		register:   make(chan *eventClient),
		unregister: make(chan *eventClient),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client set. All membership changes and deliveries go through
// this loop, so no locking is needed.
func (h *EventHub) Run() {
	clients := make(map[*eventClient]struct{})
	for {
		select {
		case <-h.done:
			for c := range clients {
				close(c.send)
			}
			return
		case c := <-h.register:
			clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					delete(clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Stop shuts the hub down and disconnects every client.
func (h *EventHub) Stop() {
	close(h.done)
}

// add subscribes a client. Returns false when the hub has already stopped.
func (h *EventHub) add(c *eventClient) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// remove unsubscribes a client. Returns immediately after shutdown so pump
// goroutines never block on a hub that no longer drains its channels.
func (h *EventHub) remove(c *eventClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues an event for delivery. Dropped when the hub is saturated;
// feed events are advisory, clients refetch on reconnect anyway.
func (h *EventHub) Broadcast(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		logger.Warn("failed to encode event", logger.String("type", event.Type), logger.ErrorField(err))
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		logger.Warn("event hub saturated, dropping event", logger.String("type", event.Type))
	}
}

// BroadcastMixCreated announces a new public mix to the feed.
func (h *EventHub) BroadcastMixCreated(mix *model.Mix) {
	h.Broadcast(Event{Type: "mix.created", Data: map[string]interface{}{
		"id":     mix.ID,
		"title":  mix.Title,
		"artist": mix.Artist,
	}})
}

// BroadcastMixDeleted tells clients to drop a mix from their feed and queue.
func (h *EventHub) BroadcastMixDeleted(mixID int64) {
	h.Broadcast(Event{Type: "mix.deleted", Data: map[string]interface{}{"id": mixID}})
}

// handleEvents upgrades the connection and subscribes it to feed events.
func (h *APIHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := &eventClient{conn: conn, send: make(chan []byte, eventSendBuffer)}
	if !h.hub.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h.hub)
}

// writePump delivers queued events and keeps the connection alive with pings.
func (c *eventClient) writePump() {
	ticker := time.NewTicker(eventPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames; its job is noticing the close.
func (c *eventClient) readPump(hub *EventHub) {
	defer func() {
		hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
