package web

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lcalzada-xor/blemap/internal/core/services/tracker"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Non-browser clients send no Origin header.
		if origin == "" {
			return true
		}

		// Browsers send Origin even on same-origin requests; accept when
		// it points back at this server.
		if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
			return true
		}

		log.Printf("WebSocket: Rejected origin: %s", origin)
		return false
	},
}

// WSMessage is the envelope for everything pushed over the socket.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WSManager pushes the latest tick snapshot to every connected client.
type WSManager struct {
	Tracker *tracker.Tracker
	Clients map[*websocket.Conn]struct{}
	mu      sync.Mutex
}

func NewWSManager(t *tracker.Tracker) *WSManager {
	return &WSManager{
		Tracker: t,
		Clients: make(map[*websocket.Conn]struct{}),
	}
}

func (m *WSManager) Start(ctx context.Context) {
	go m.broadcastLoop(ctx)
}

func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	m.mu.Lock()
	m.Clients[conn] = struct{}{}
	m.mu.Unlock()

	// Clean up on disconnect
	go func() {
		defer conn.Close()
		defer func() {
			m.mu.Lock()
			delete(m.Clients, conn)
			m.mu.Unlock()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (m *WSManager) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case <-ticker.C:
			m.broadcastSnapshot()
		}
	}
}

func (m *WSManager) broadcastSnapshot() {
	msg := WSMessage{Type: "snapshot", Payload: m.Tracker.Snapshot()}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.Clients {
		if err := conn.WriteJSON(msg); err != nil {
			conn.Close()
			delete(m.Clients, conn)
		}
	}
}

func (m *WSManager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.Clients {
		conn.Close()
		delete(m.Clients, conn)
	}
}
