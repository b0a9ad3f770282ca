package web

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/wwvb-sensor/internal/status"
)

// writeWait bounds how long a broadcast may block on one client.
const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The page is served by the sensor itself.
		return true
	},
}

// LiveHub pushes per-second status updates to websocket clients. Each
// connection carries its own write mutex so a slow client stalls only
// its own writes. A nil *LiveHub discards broadcasts.
type LiveHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

// NewLiveHub creates an empty hub.
func NewLiveHub() *LiveHub {
	return &LiveHub{clients: make(map[*websocket.Conn]*sync.Mutex)}
}

// HandleLive upgrades the request and registers the client.
func (h *LiveHub) HandleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("web: live client connected (%d total)", count)

	go h.readLoop(conn)
}

// readLoop drains client messages until the connection closes, then
// unregisters it.
func (h *LiveHub) readLoop(conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()
		conn.Close()
		log.Printf("web: live client disconnected (%d remaining)", remaining)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Count returns the number of connected clients.
func (h *LiveHub) Count() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends one JSON message to every client. Connections that
// fail to accept the write are closed and dropped.
func (h *LiveHub) Broadcast(v interface{}) {
	if h == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("web: marshal live update: %v", err)
		return
	}

	// Copy the client list so writes happen outside the hub lock.
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	locks := make([]*sync.Mutex, 0, len(h.clients))
	for conn, writeMu := range h.clients {
		conns = append(conns, conn)
		locks = append(locks, writeMu)
	}
	h.mu.RUnlock()

	var failed []*websocket.Conn
	for i, conn := range conns {
		writeMu := locks[i]
		writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.TextMessage, data)
		writeMu.Unlock()
		if err != nil {
			failed = append(failed, conn)
		}
	}

	if len(failed) == 0 {
		return
	}
	h.mu.Lock()
	for _, conn := range failed {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

// LiveUpdate is the JSON message pushed on every symbol boundary.
type LiveUpdate struct {
	Symbol        string  `json:"symbol"`
	HealthPercent float64 `json:"health_percent"`
	Healthy       bool    `json:"healthy"`
	StartOfSecond int     `json:"start_of_second"`
	Symbols       uint64  `json:"symbols"`
	Minutes       uint64  `json:"minutes"`
	MinuteUTC     string  `json:"minute_utc,omitempty"`
	MQTTConnected bool    `json:"mqtt_connected"`
}

// StatusUpdate builds the broadcast message from a snapshot.
func StatusUpdate(snap status.Snapshot) LiveUpdate {
	u := LiveUpdate{
		Symbol:        snap.SymbolString(),
		HealthPercent: snap.HealthPercent,
		Healthy:       snap.Healthy,
		StartOfSecond: snap.StartOfSecond,
		Symbols:       snap.Counters.Symbols,
		Minutes:       snap.Counters.Minutes,
		MQTTConnected: snap.MQTTConnected,
	}
	if snap.Minute != nil {
		u.MinuteUTC = snap.Minute.UTC().Format(time.RFC3339)
	}
	return u
}
