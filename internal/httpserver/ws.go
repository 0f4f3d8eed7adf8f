// internal/httpserver/ws.go
//
// Websocket fan-out of round and profile snapshots.
// Every connection first receives the latest message of each type, then
// every later Publish. Slow clients whose buffer fills are dropped.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the websocket envelope.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsClient struct {
	id   string
	send chan []byte
}

// Hub tracks websocket clients. It satisfies round.Notifier.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*wsClient
	last    map[string][]byte // event type → latest encoded message
	order   []string          // event types in first-seen order
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*wsClient), last: make(map[string][]byte)}
}

// Publish encodes payload under event and queues it for every client.
func (h *Hub) Publish(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("encode ws payload")
		return
	}
	msg, _ := json.Marshal(Message{Type: event, Payload: raw})

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, seen := h.last[event]; !seen {
		h.order = append(h.order, event)
	}
	h.last[event] = msg
	for id, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Warn().Str("client", id).Msg("ws client too slow, dropping")
			delete(h.clients, id)
			close(c.send)
		}
	}
}

// Clients reports how many connections are registered.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register() *wsClient {
	c := &wsClient{id: uuid.NewString(), send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ev := range h.order {
		c.send <- h.last[ev]
	}
	h.clients[c.id] = c
	return c
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.clients[c.id]; ok && existing == c {
		delete(h.clients, c.id)
		close(c.send)
	}
}

// ServeWS upgrades the request and streams messages until the peer leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade")
		return
	}
	c := h.register()
	log.Debug().Str("client", c.id).Msg("ws connected")

	go h.writePump(conn, c)
	go h.readPump(conn, c)
}

// readPump only services control frames; clients send nothing we act on.
func (h *Hub) readPump(conn *websocket.Conn, c *wsClient) {
	defer func() {
		h.unregister(c)
		_ = conn.Close()
		log.Debug().Str("client", c.id).Msg("ws disconnected")
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("client", c.id).Msg("ws read")
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
