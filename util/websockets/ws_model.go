package websockets

import (
	"sync"
	"time"

	"github.com/bwise1/workin/internal/model"
	"github.com/gorilla/websocket"
)

// Message types
const (
	MsgTypeConnected    = "connected"
	MsgTypeNotification = "notification"
)

const (
	writeWait    = 5 * time.Second
	pendingLimit = 256
)

// Client is one open socket of an identity. An identity may hold several.
type Client struct {
	Conn     *websocket.Conn
	Identity string
}

type WebSocketManager struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	send       chan model.Notification
	quit       chan struct{}
	mu         sync.Mutex
}

// Message is the envelope for everything pushed to a client.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}
