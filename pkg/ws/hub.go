package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

type HubOptions struct {
	Logger       *logrus.Logger
	CheckOrigin  func(r *http.Request) bool
	OnConnect    func(r *http.Request, conn *Connection) error
	OnDisconnect func(conn *Connection)
}

type Connection struct {
	ws   *websocket.Conn
	send chan []byte
}

// Hub tracks live websocket connections and fans messages out to all of them.
// A slow client drops messages rather than blocking the broadcaster.
type Hub struct {
	mu       sync.RWMutex
	conns    map[*Connection]struct{}
	upgrader websocket.Upgrader
	opts     HubOptions
}

func NewHub(opts HubOptions) *Hub {
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		conns: make(map[*Connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		opts: opts,
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.opts.Logger != nil {
			h.opts.Logger.Warnf("ws: upgrade failed: %v", err)
		}
		return
	}
	conn := &Connection{ws: ws, send: make(chan []byte, sendBufferSize)}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	if h.opts.OnConnect != nil {
		if err := h.opts.OnConnect(r, conn); err != nil {
			h.drop(conn)
			return
		}
	}

	go h.writePump(conn)
	go h.readPump(conn)
}

func (h *Hub) ConnectionsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// BroadcastJSON marshals v once and queues it on every connection.
func (h *Hub) BroadcastJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.conns {
		select {
		case conn.send <- payload:
		default:
			// Backpressure: this client is not keeping up, skip the frame.
		}
	}
	return nil
}

func (h *Hub) drop(conn *Connection) {
	h.mu.Lock()
	_, ok := h.conns[conn]
	if ok {
		delete(h.conns, conn)
		close(conn.send)
	}
	h.mu.Unlock()
	if ok {
		_ = conn.ws.Close()
		if h.opts.OnDisconnect != nil {
			h.opts.OnDisconnect(conn)
		}
	}
}

func (h *Hub) readPump(conn *Connection) {
	defer h.drop(conn)
	conn.ws.SetReadLimit(1024)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// Clients only listen; reads exist to surface close frames.
		if _, _, err := conn.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.drop(conn)
	}()
	for {
		select {
		case payload, ok := <-conn.send:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
