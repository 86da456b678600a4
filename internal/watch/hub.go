package watch

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Commands pushed to browsers.
const (
	CommandDirty  = "dirty"
	CommandReload = "reload"
)

// Path is where the hub is mounted.
const Path = "/livereload"

const writeWait = time.Second

// Script connects a page to the hub. Dirty shows a banner, reload
// refreshes the page.
const Script = `<script>(function(){` +
	`var ws=new WebSocket((location.protocol==="https:"?"wss://":"ws://")+location.host+"` + Path + `");` +
	`ws.onmessage=function(e){var m=JSON.parse(e.data);` +
	`if(m.command==="reload"){location.reload();}` +
	`else if(m.command==="dirty"){document.body.setAttribute("data-stencil-dirty","true");}};` +
	`})();</script>`

// Message is the wire format of a push.
type Message struct {
	Command string `json:"command"`
}

// Hub tracks browser connections.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
		conns:  make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP upgrades the request and holds the connection until the
// browser goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("livereload upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	defer h.remove(conn)
	for {
		// Browsers never send; reading detects the close.
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// Len reports the number of connected browsers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast sends command to every connection, dropping the ones that fail.
func (h *Hub) Broadcast(command string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := Message{Command: command}
	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Debug("livereload write failed", "error", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// Close disconnects every browser.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[conn] {
		conn.Close()
		delete(h.conns, conn)
	}
}

// Inject adds Script before the last </body>, or appends it.
func Inject(page string) string {
	i := strings.LastIndex(strings.ToLower(page), "</body>")
	if i < 0 {
		return page + Script
	}
	return page[:i] + Script + page[i:]
}
