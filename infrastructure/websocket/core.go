package websocket

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/townhall/domain/event"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"go.uber.org/zap"
)

var ErrCoreStopped = errors.New("websocket core is not running")

type delivery struct {
	connectionIDs []string
	envelope      *event.Envelope
}

// Core is the hub. A single goroutine (Run) owns the client table and every
// client's send buffer, and handles deliveries in the order they were
// dispatched.
type Core struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	upgrader   websocket.Upgrader
	logger     *logger.Logger

	// count mirrors len(clients) for readers outside Run.
	count   int
	countMu sync.RWMutex

	done     chan struct{}
	stopOnce sync.Once
}

func NewCore(log *logger.Logger, allowedOrigins []string) *Core {
	return &Core{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 1024),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		logger: log,
		done:   make(chan struct{}),
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func (c *Core) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return c.upgrader.Upgrade(w, r, nil)
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (c *Core) Run(ctx context.Context) {
	defer c.stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("websocket core shutting down", zap.Int("clients", len(c.clients)))
			return

		case cl := <-c.register:
			c.clients[cl.ID] = cl
			c.setCount(len(c.clients))
			c.logger.Debug("client registered", zap.String("connectionID", cl.ID))

		case cl := <-c.unregister:
			if current, ok := c.clients[cl.ID]; ok && current == cl {
				delete(c.clients, cl.ID)
				close(cl.send)
				c.setCount(len(c.clients))
				c.logger.Debug("client unregistered", zap.String("connectionID", cl.ID))
			}

		case d := <-c.deliver:
			for _, id := range d.connectionIDs {
				if cl, ok := c.clients[id]; ok {
					cl.enqueue(d.envelope)
				}
			}
		}
	}
}

func (c *Core) stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		for id, cl := range c.clients {
			cl.Close()
			delete(c.clients, id)
		}
		c.setCount(0)
	})
}

func (c *Core) Register(cl *Client) error {
	select {
	case c.register <- cl:
		return nil
	case <-c.done:
		return ErrCoreStopped
	}
}

func (c *Core) Unregister(cl *Client) {
	select {
	case c.unregister <- cl:
	case <-c.done:
	}
}

// Dispatch queues env for the given connections. Deliveries keep their
// dispatch order. Once the hub has stopped, envelopes are dropped.
func (c *Core) Dispatch(connectionIDs []string, env *event.Envelope) {
	if len(connectionIDs) == 0 {
		return
	}
	ids := make([]string, len(connectionIDs))
	copy(ids, connectionIDs)

	select {
	case c.deliver <- delivery{connectionIDs: ids, envelope: env}:
	case <-c.done:
	}
}

func (c *Core) ClientCount() int {
	c.countMu.RLock()
	defer c.countMu.RUnlock()
	return c.count
}

func (c *Core) setCount(n int) {
	c.countMu.Lock()
	c.count = n
	c.countMu.Unlock()
}
