package highlight

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haivivi/dantranh/pkg/layout"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 64
)

// Message is pushed to every connected view.
type Message struct {
	Type  string `json:"type"` // "highlight" or "clear"
	Song  string `json:"song,omitempty"`
	Note  string `json:"note,omitempty"`
	Index int    `json:"index"`
	Pitch string `json:"pitch,omitempty"`
}

// Hub broadcasts highlight changes over websocket. It implements
// playback.Highlighter and http.Handler. Broadcasting never blocks: a view
// that falls behind loses messages rather than stalling playback.
type Hub struct {
	song     string
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub returns a hub for one song. A nil logger means slog.Default().
func NewHub(songID string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		song:   songID,
		logger: logger.With("component", "highlight-hub", "song", songID),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and streams messages until the view
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: ws, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		ws.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("view connected", "remote", r.RemoteAddr)

	go h.writeLoop(c)

	// Views only listen; reading detects disconnects.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	h.logger.Debug("view disconnected", "remote", r.RemoteAddr)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// Clients returns the number of connected views.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Highlight(n layout.Note) {
	h.broadcast(Message{Type: "highlight", Song: h.song, Note: n.ID, Index: n.Index, Pitch: n.Pitch.String()})
}

func (h *Hub) Clear() {
	h.broadcast(Message{Type: "clear", Song: h.song, Index: -1})
}

func (h *Hub) broadcast(m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		h.logger.Warn("marshal highlight message", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("view too slow, dropping message", "type", m.Type)
		}
	}
}

// Close disconnects every view and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	return nil
}
