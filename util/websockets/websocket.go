package websockets

import (
	"log"
	"net/http"
	"time"

	"github.com/bwise1/workin/internal/model"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewWebSocketManager initializes a WebSocketManager
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		send:       make(chan model.Notification, pendingLimit),
		quit:       make(chan struct{}),
	}
}

// Run starts the WebSocket manager. It returns after Close.
func (manager *WebSocketManager) Run() {
	for {
		select {
		case client := <-manager.register:
			manager.mu.Lock()
			conns, ok := manager.clients[client.Identity]
			if !ok {
				conns = make(map[*Client]struct{})
				manager.clients[client.Identity] = conns
			}
			conns[client] = struct{}{}
			manager.mu.Unlock()
			manager.write(client, Message{Type: MsgTypeConnected})

		case client := <-manager.unregister:
			manager.drop(client)

		case n := <-manager.send:
			manager.mu.Lock()
			targets := make([]*Client, 0, len(manager.clients[n.RecipientID]))
			for client := range manager.clients[n.RecipientID] {
				targets = append(targets, client)
			}
			manager.mu.Unlock()
			for _, client := range targets {
				manager.write(client, Message{Type: MsgTypeNotification, Data: n})
			}

		case <-manager.quit:
			manager.mu.Lock()
			for _, conns := range manager.clients {
				for client := range conns {
					client.Conn.Close()
				}
			}
			manager.clients = make(map[string]map[*Client]struct{})
			manager.mu.Unlock()
			return
		}
	}
}

// Close stops Run and closes every open socket.
func (manager *WebSocketManager) Close() {
	close(manager.quit)
}

// Notify queues n for the recipient's open sockets. It never blocks; when the
// queue is full the push is dropped and the notification stays in the inbox.
func (manager *WebSocketManager) Notify(n model.Notification) {
	select {
	case manager.send <- n:
	default:
		log.Printf("[WS] queue full, dropping push %s for %s", n.ID, n.RecipientID)
	}
}

// HandleConnections upgrades an authenticated request and holds the socket
// open until the client goes away. Incoming frames are ignored.
func (manager *WebSocketManager) HandleConnections(w http.ResponseWriter, r *http.Request, identity string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket Upgrade Error:", err)
		return
	}

	client := &Client{Conn: conn, Identity: identity}
	select {
	case manager.register <- client:
	case <-manager.quit:
		conn.Close()
		return
	}

	defer func() {
		select {
		case manager.unregister <- client:
		case <-manager.quit:
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (manager *WebSocketManager) write(client *Client, msg Message) {
	client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.Conn.WriteJSON(msg); err != nil {
		log.Printf("[WS] write to %s failed: %v", client.Identity, err)
		manager.drop(client)
	}
}

func (manager *WebSocketManager) drop(client *Client) {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	conns, ok := manager.clients[client.Identity]
	if !ok {
		return
	}
	if _, exists := conns[client]; !exists {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(manager.clients, client.Identity)
	}
	client.Conn.Close()
	log.Printf("Client %s disconnected", client.Identity)
}
