package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Time a client has to authenticate after connecting
	authWait = 10 * time.Second

	maxMessageSize = 8192
	sendBufferSize = 256
)

type Client struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	logger        *zap.Logger
	authenticated bool
	username      string

	mu     sync.Mutex
	closed bool
}

// queue hands data to the write pump without blocking. It reports false
// when the buffer is full or the client is already closed.
func (c *Client) queue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) queueMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}
	c.queue(data)
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) remoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *Client) readPump() {
	// Closing send lets the write pump flush what is queued and then
	// close the connection.
	defer func() {
		c.hub.leave(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if c.authenticated {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
	} else {
		c.conn.SetReadDeadline(time.Now().Add(authWait))
	}
	c.conn.SetPongHandler(func(string) error {
		if c.authenticated {
			c.conn.SetReadDeadline(time.Now().Add(pongWait))
		}
		return nil
	})

	for {
		var msg inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error",
					zap.Error(err),
					zap.String("remote_addr", c.remoteAddr()))
			}
			return
		}

		// First message MUST be authentication
		if !c.authenticated {
			if !c.authenticate(msg) {
				return
			}
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) authenticate(msg inbound) bool {
	if msg.Type != MessageTypeAuth {
		c.reject("First message must be authentication")
		return false
	}
	if msg.Token == "" {
		c.reject("Missing token in auth message")
		return false
	}

	user, err := c.hub.validator.ValidateToken(msg.Token)
	if err != nil {
		c.logger.Warn("WebSocket authentication failed",
			zap.Error(err),
			zap.String("remote_addr", c.remoteAddr()))
		c.reject("Invalid or expired token")
		return false
	}

	c.authenticated = true
	c.username = user.Username
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.queueMessage(newAuthSuccess(user))
	c.logger.Info("WebSocket client authenticated",
		zap.String("remote_addr", c.remoteAddr()),
		zap.String("username", user.Username))

	if !c.hub.admit(c) {
		return false
	}
	c.queueMessage(c.hub.batch())
	return true
}

func (c *Client) reject(reason string) {
	c.queueMessage(newAuthFailed(reason))
}

func (c *Client) handleMessage(msg inbound) {
	switch msg.Type {
	case MessageTypeRefresh:
		c.queueMessage(c.hub.batch())
	default:
		c.logger.Debug("Ignoring client message",
			zap.String("remote_addr", c.remoteAddr()),
			zap.String("type", string(msg.Type)))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades the request and attaches the connection to hub.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     hub.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade error",
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr))
		return
	}

	client := &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		logger:        hub.logger,
		authenticated: !hub.requireAuth,
	}

	if client.authenticated {
		if !hub.admit(client) {
			conn.Close()
			return
		}
		client.queueMessage(hub.batch())
	}

	go client.writePump()
	go client.readPump()
}
