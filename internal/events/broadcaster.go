package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"launchpad/internal/launchpad"
)

const (
	writeWait = 5 * time.Second
	// per-client backlog; a client that falls further behind is disconnected
	sendBuffer = 64
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// writeLoop owns all writes to the connection
func (c *client) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debugf("websocket write error: %v", err)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Broadcaster pushes trade events to every connected websocket client
type Broadcaster struct {
	clients  map[*client]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
}

// NewBroadcaster accepts connections from the given origins, or from any origin when none are given
func NewBroadcaster(allowedOrigins []string) *Broadcaster {
	origins := mapset.NewThreadUnsafeSet[string](allowedOrigins...)
	return &Broadcaster{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
			return origins.Cardinality() == 0 || origins.Contains(r.Header.Get("Origin"))
		}},
	}
}

// Publish queues a trade event for every client without waiting on any of them
func (b *Broadcaster) Publish(ev launchpad.Event) {
	if ev.Kind != launchpad.EventTradeExecuted && ev.Kind != launchpad.EventBidUnfilled {
		return
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("failed to marshal event: %v", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		select {
		case c.send <- msg:
		default:
			log.Warnf("dropping slow websocket client after %d pending messages", sendBuffer)
			b.removeLocked(c)
		}
	}
}

func (b *Broadcaster) add(c *client) {
	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()
}

func (b *Broadcaster) remove(c *client) {
	b.mu.Lock()
	b.removeLocked(c)
	b.mu.Unlock()
}

// removeLocked closes the send channel exactly once, which stops the writer
func (b *Broadcaster) removeLocked(c *client) {
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected clients
func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("websocket upgrade error: %v", err)
			return
		}
		c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
		b.add(c)
		go c.writeLoop()

		// the read loop only notices disconnects
		go func() {
			defer b.remove(c)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
