package livereload

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/amonks/assetpipe/internal/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
)

// Message is what the Hub sends to pages, encoded as json.
type Message struct {
	Command string   `json:"command"`
	Paths   []string `json:"paths,omitempty"`
}

const writeWait = time.Second

// Hub is a [Notifier] which forwards notifications to connected websocket
// clients. It is an [http.Handler] for the websocket endpoint.
type Hub struct {
	log      io.Writer
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

var _ Notifier = &Hub{}
var _ http.Handler = &Hub{}

func NewHub(log io.Writer) *Hub {
	return &Hub{
		log:     log,
		clients: map[*client]struct{}{},
		upgrader: websocket.Upgrader{
			// Pages are served by the dev server itself, but may be
			// opened through any hostname that reaches it.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request to a websocket and keeps it registered
// until the page goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.printf(styles.Error, "upgrade: %s", err)
		return
	}
	c := &client{conn: conn}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	// Pages never send anything; reading is how we find out that one
	// has gone.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}
	h.drop(c)
}

// Clients returns the number of connected pages.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Reload implements [Notifier].
func (h *Hub) Reload() {
	h.printf(styles.Log, "reload")
	h.broadcast(Message{Command: "reload"})
}

// Stream implements [Notifier].
func (h *Hub) Stream(paths ...string) {
	h.printf(styles.Log, "stream %v", paths)
	h.broadcast(Message{Command: "stream", Paths: paths})
}

// Close disconnects every page.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = map[*client]struct{}{}
	h.mu.Unlock()

	for c := range clients {
		c.mu.Lock()
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopped"),
			time.Now().Add(writeWait))
		c.conn.Close()
		c.mu.Unlock()
	}
}

func (h *Hub) broadcast(m Message) {
	bs, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}

	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := c.conn.WriteMessage(websocket.TextMessage, bs)
		c.mu.Unlock()
		if err != nil {
			h.drop(c)
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

func (h *Hub) printf(style lipgloss.Style, f string, args ...any) {
	styles.Fprintf(h.log, style, f, args...)
}
