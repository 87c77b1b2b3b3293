package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/tejaa171419/paysplit/events"
)

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)

// RunHub fans bus events out to connected clients. The hub holds exactly one
// bus subscription for its lifetime; per-connection lifetimes are handled by
// Register/Unregister from the websocket handler.
func RunHub() {
	bus, cancel := events.Default.Subscribe()
	defer cancel()

	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.UserID)
			clientsMu.Lock()
			if prev, ok := clients[client.UserID]; ok && prev != client.Conn {
				prev.Close()
			}
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()

		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()

		case event := <-bus:
			deliver(event)
		}
	}
}

func deliver(event events.Event) {
	var stale []uuid.UUID

	clientsMu.RLock()
	for userID, conn := range clients {
		if !event.Concerns(userID) {
			continue
		}
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("Error sending %s event to client %s: %v", event.Type, userID, err)
			conn.Close()
			stale = append(stale, userID)
		}
	}
	clientsMu.RUnlock()

	if len(stale) > 0 {
		clientsMu.Lock()
		for _, userID := range stale {
			delete(clients, userID)
		}
		clientsMu.Unlock()
	}
}
