package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/townhall/domain/event"
	"github.com/hilthontt/townhall/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 32 * 1024
)

// InboundHandler reacts to what a client sends. HandleDisconnect runs
// exactly once, after the read loop ends for any reason.
type InboundHandler interface {
	HandleFrame(ctx context.Context, client *Client, frame *Frame)
	HandleDisconnect(ctx context.Context, client *Client)
}

type ClientOptions struct {
	SendBuffer        int
	MessagesPerSecond float64
	MessageBurst      int
}

type Client struct {
	ID string

	conn    *connWrapper
	send    chan *event.Envelope
	limiter *rate.Limiter
	logger  *logger.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(conn *websocket.Conn, id string, opts ClientOptions, log *logger.Logger) *Client {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	limit := rate.Inf
	if opts.MessagesPerSecond > 0 {
		limit = rate.Limit(opts.MessagesPerSecond)
	}
	return &Client{
		ID:      id,
		conn:    newConnWrapper(conn),
		send:    make(chan *event.Envelope, opts.SendBuffer),
		limiter: rate.NewLimiter(limit, max(opts.MessageBurst, 1)),
		logger:  log.With(zap.String("connectionID", id)),
		closed:  make(chan struct{}),
	}
}

// Close tears the socket down. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

func (c *Client) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// enqueue never blocks; a full buffer drops the frame. Only the hub calls it.
func (c *Client) enqueue(env *event.Envelope) bool {
	if c.IsClosed() {
		return false
	}
	select {
	case c.send <- env:
		return true
	default:
		c.logger.Warn("client buffer full, dropping frame", zap.String("type", string(env.Type)))
		return false
	}
}

// ReadPump reads frames until the socket fails or closes, then unregisters
// the client and reports the disconnect to handler.
func (c *Client) ReadPump(ctx context.Context, core *Core, handler InboundHandler) {
	defer func() {
		handler.HandleDisconnect(context.WithoutCancel(ctx), c)
		core.Unregister(c)
		c.Close()
	}()

	c.conn.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.conn.SetPongHandler(func(string) error {
		return c.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				c.logger.Warn("frame too large, closing connection")
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		if len(raw) == 0 {
			continue
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Type == "" {
			core.Dispatch([]string{c.ID}, event.NewError(CodeInvalidFrame, "frame must be a JSON object with a type"))
			continue
		}

		if frame.Type == FrameMessage && !c.limiter.Allow() {
			core.Dispatch([]string{c.ID}, event.NewError(CodeRateLimited, "too many messages, slow down"))
			continue
		}

		handler.HandleFrame(ctx, c, &frame)
	}
}

// WritePump drains the send buffer to the socket and keeps it alive with
// pings. It returns when the hub closes the buffer or the socket fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage)
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage); err != nil {
				return
			}

		case <-c.closed:
			return
		}
	}
}
