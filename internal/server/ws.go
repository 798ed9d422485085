package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/kaishou/internal/app"
	"github.com/ayusman/kaishou/internal/landmark"
)

const (
	// sendBuffer is how many pushes a slow client may fall behind before
	// updates to it are dropped.
	sendBuffer = 16
	writeWait  = 2 * time.Second
)

// UpdateState is the kind of the message sent to a client when it connects.
const UpdateState app.UpdateKind = "state"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// landmarksMessage is one browser-side detection. Points is null when no
// hand is in view.
type landmarksMessage struct {
	Points []landmark.Point3D `json:"points"`
}

// pushMessage is an app update together with the display state it produced.
type pushMessage struct {
	app.Update
	State app.StateView `json:"state"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// LandmarksHandler accepts hand landmarks from browsers over WebSocket and
// pushes every app update back to all connected clients.
type LandmarksHandler struct {
	app         *app.App
	unsubscribe func()

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewLandmarksHandler creates a LandmarksHandler subscribed to a's updates.
func NewLandmarksHandler(a *app.App) *LandmarksHandler {
	h := &LandmarksHandler{
		app:     a,
		clients: make(map[*client]struct{}),
	}
	h.unsubscribe = a.Subscribe(h.broadcast)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	hello, err := h.encode(app.Update{Kind: UpdateState, At: time.Now()})
	if err != nil {
		log.Printf("encode state: %v", err)
		conn.Close()
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c, hello) {
		conn.Close()
		return
	}
	defer h.unregister(c)

	go c.writeLoop()
	h.readLoop(c)
}

// readLoop submits one frame per message until the connection fails.
// Anything that is not a 21-point skeleton counts as no hand.
func (h *LandmarksHandler) readLoop(c *client) {
	warned := false
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}

		var msg landmarksMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			msg.Points = nil
		}
		hand, _ := landmark.FromPoints(msg.Points)

		err = h.app.Submit(app.Frame{Hand: hand, At: time.Now()})
		switch {
		case errors.Is(err, app.ErrNotRunning) && !warned:
			log.Printf("landmarks ignored: %v", err)
			warned = true
		case err == nil:
			warned = false
		}
	}
}

func (c *client) writeLoop() {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

// register adds c and queues its first message.
func (h *LandmarksHandler) register(c *client, first []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	c.send <- first
	h.clients[c] = struct{}{}
	return true
}

func (h *LandmarksHandler) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *LandmarksHandler) encode(u app.Update) ([]byte, error) {
	return json.Marshal(pushMessage{Update: u, State: h.app.State()})
}

// broadcast runs on the goroutine that produced u and never blocks on a client.
func (h *LandmarksHandler) broadcast(u app.Update) {
	data, err := h.encode(u)
	if err != nil {
		log.Printf("encode update: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Printf("dropping %s update for slow client", u.Kind)
		}
	}
}

// Clients returns the number of connected clients.
func (h *LandmarksHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops listening for updates and disconnects every client.
func (h *LandmarksHandler) Close() {
	h.unsubscribe()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
