package ws

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"channel-chat/services"
)

// Client is one live connection. Its user identity is fixed for its lifetime.
type Client struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	userID   uint
	username string
	limiter  *rate.Limiter
	log      *logrus.Entry

	mu     sync.Mutex
	rooms  map[uint]struct{}
	closed bool
}

func newClient(h *Hub, conn *websocket.Conn, identity services.Identity) *Client {
	limit := rate.Inf
	if h.cfg.RateLimit > 0 {
		limit = rate.Limit(h.cfg.RateLimit)
	}
	burst := h.cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	buffer := h.cfg.SendBuffer
	if buffer <= 0 {
		buffer = 256
	}

	id := uuid.NewString()
	return &Client{
		id:       id,
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, buffer),
		userID:   identity.UserID,
		username: identity.Username,
		limiter:  rate.NewLimiter(limit, burst),
		log: logrus.WithFields(logrus.Fields{
			"component": "ws",
			"conn_id":   id,
			"user_id":   identity.UserID,
		}),
		rooms: make(map[uint]struct{}),
	}
}

func (c *Client) ID() string       { return c.id }
func (c *Client) UserID() uint     { return c.userID }
func (c *Client) Username() string { return c.username }

// Rooms returns the channels this connection is subscribed to, sorted.
func (c *Client) Rooms() []uint {
	c.mu.Lock()
	defer c.mu.Unlock()

	rooms := make([]uint, 0, len(c.rooms))
	for id := range c.rooms {
		rooms = append(rooms, id)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i] < rooms[j] })
	return rooms
}

// addRoom fails once the connection is closed so a disconnecting client
// cannot be re-subscribed behind the cleanup.
func (c *Client) addRoom(channelID uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.rooms[channelID] = struct{}{}
	return true
}

func (c *Client) removeRoom(channelID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, channelID)
}

// enqueue never blocks; a full queue drops the payload for this client only.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		c.log.Warn("send queue full, dropping event")
		return false
	}
}

// Send encodes v and queues it for this connection only.
func (c *Client) Send(v any) bool {
	return c.enqueue(encode(v))
}

func (c *Client) sendError(request string, channelID uint, err error) {
	c.Send(ErrorEvent{
		Type:      EventError,
		Message:   services.PublicMessage(err),
		Code:      services.ErrorCode(err),
		Request:   request,
		ChannelID: channelID,
	})
}

// close stops delivery; the write pump sends a close frame and exits.
func (c *Client) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.send)
	return true
}

func (c *Client) readPump() {
	defer func() {
		c.hub.disconnect(c)
		c.conn.Close()
	}()

	cfg := c.hub.cfg
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("unexpected close")
			} else {
				c.log.WithError(err).Debug("connection closed")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
		c.handleFrame(data)
	}
}

func (c *Client) handleFrame(data []byte) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		c.log.WithError(err).Debug("unmarshal error")
		c.Send(ErrorEvent{Type: EventError, Message: "malformed event", Code: services.CodeInvalidInput})
		return
	}

	switch in.Type {
	case EventPing:
		c.Send(map[string]string{"type": EventPong})
		return
	case EventPong:
		return
	}

	if !c.limiter.Allow() {
		c.Send(ErrorEvent{Type: EventError, Message: "rate limit exceeded", Code: "rate_limited", Request: in.Type})
		return
	}
	c.hub.dispatch(c, in)
}

func (c *Client) writePump() {
	cfg := c.hub.cfg
	ticker := time.NewTicker(cfg.PingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.WithError(err).Debug("write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("ping error")
				return
			}
		}
	}
}
