package relay

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/HIMANSHU6001/whiteboard/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // full scene snapshots can be large
)

// Conn adapts a gorilla websocket connection to the relay's Connection
// interface. Writes go through a buffered channel so Broadcast never
// blocks on a slow receiver.
type Conn struct {
	id       string
	ws       *websocket.Conn
	send     chan []byte
	registry *Registry
	handler  MessageHandler
	logger   zerolog.Logger
}

// NewConn wraps an upgraded websocket connection.
func NewConn(id string, ws *websocket.Conn, registry *Registry, handler MessageHandler, logger zerolog.Logger) *Conn {
	return &Conn{
		id:       id,
		ws:       ws,
		send:     make(chan []byte, 256),
		registry: registry,
		handler:  handler,
		logger:   logger,
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues data for delivery. Fails immediately when the buffer is
// full; the registry treats that as a dead connection.
func (c *Conn) Send(data []byte) error {
	select {
	case c.send <- data:
		return nil
	default:
		return websocket.ErrCloseSent
	}
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

// Start launches the read and write pumps.
func (c *Conn) Start() {
	metrics.ConnectionsActive.Inc()
	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.registry.Leave(c)
		c.ws.Close()
		metrics.ConnectionsActive.Dec()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Str("client_id", c.id).Err(err).Msg("read error")
			}
			return
		}

		c.handler.Handle(c, data)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
