package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"channel-chat/config"
	"channel-chat/models"
	"channel-chat/services"
)

const eventTimeout = 10 * time.Second

// Subprotocol is the only protocol the server negotiates. Browsers that cannot
// set headers send it first and the token second; only the name is echoed.
const Subprotocol = "channel-chat"

const (
	reasonKicked    = "kicked"
	reasonLeft      = "left"
	reasonNotMember = "not_a_member"
)

var log = logrus.WithField("component", "hub")

// Hub owns the live connection state of one process: the connection registry
// and the per-channel rooms. Every event is dispatched on the goroutine of the
// connection that sent it; the hub has no central loop.
type Hub struct {
	cfg      config.WSConfig
	registry *ConnectionRegistry
	rooms    *RoomManager
	gate     *services.Gate
	messages *services.MessageService
	channels *services.ChannelService
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHub(cfg *config.Config, gate *services.Gate, messages *services.MessageService, channels *services.ChannelService) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		cfg:      cfg.WS,
		registry: NewConnectionRegistry(),
		rooms:    NewRoomManager(),
		gate:     gate,
		messages: messages,
		channels: channels,
		ctx:      ctx,
		cancel:   cancel,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
		Subprotocols:    []string{Subprotocol},
	}
	return h
}

// TokenFromSubprotocols returns the entry following Subprotocol in the
// Sec-WebSocket-Protocol request header, or "".
func TokenFromSubprotocols(r *http.Request) string {
	protocols := websocket.Subprotocols(r)
	for i := 0; i+1 < len(protocols); i++ {
		if protocols[i] == Subprotocol {
			return protocols[i+1]
		}
	}
	return ""
}

// checkOrigin allows every origin when the list is empty.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
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

// ServeWS upgrades an already authenticated request.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, identity services.Identity) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).WithField("user_id", identity.UserID).Warn("websocket upgrade failed")
		return
	}
	h.Attach(conn, identity)
}

// Attach registers conn and starts its pumps.
func (h *Hub) Attach(conn *websocket.Conn, identity services.Identity) *Client {
	c := newClient(h, conn, identity)
	if h.ctx.Err() != nil {
		c.close()
		conn.Close()
		return c
	}
	h.registry.Add(c)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	go func() {
		defer h.wg.Done()
		c.readPump()
	}()

	c.log.WithField("username", identity.Username).Info("client connected")
	return c
}

func (h *Hub) dispatch(c *Client, in Inbound) {
	ctx, cancel := context.WithTimeout(h.ctx, eventTimeout)
	defer cancel()

	switch in.Type {
	case EventJoinChannel, EventLeaveChannel, EventSendMessage, EventTyping, EventKickUser:
	default:
		c.sendError(in.Type, in.ChannelID, fmt.Errorf("%w: unknown event type %q", services.ErrInvalidInput, in.Type))
		return
	}
	if in.ChannelID == 0 {
		c.sendError(in.Type, 0, fmt.Errorf("%w: channel_id is required", services.ErrInvalidInput))
		return
	}

	switch in.Type {
	case EventJoinChannel:
		h.handleJoin(ctx, c, in.ChannelID)
	case EventLeaveChannel:
		h.handleLeave(c, in.ChannelID)
	case EventSendMessage:
		h.handleSend(ctx, c, in.ChannelID, in.Content)
	case EventTyping:
		h.handleTyping(ctx, c, in.ChannelID, in.IsTyping)
	case EventKickUser:
		h.handleKick(ctx, c, in.ChannelID, in.TargetUserID)
	}
}

func (h *Hub) handleJoin(ctx context.Context, c *Client, channelID uint) {
	added, err := h.rooms.SubscribeAuthorized(channelID, c, func() error {
		return h.gate.Authorize(ctx, channelID, c.userID)
	})
	if err != nil {
		if errors.Is(err, errClientClosed) {
			return
		}
		h.reject(c, EventJoinChannel, channelID, err)
		return
	}

	if added {
		h.rooms.Broadcast(channelID, encode(PresenceEvent{
			Type:      EventUserJoined,
			UserID:    c.userID,
			Username:  c.username,
			ChannelID: channelID,
		}), c)
		c.log.WithField("channel_id", channelID).Debug("joined room")
	}
	h.broadcastRoomInfo(channelID)
}

func (h *Hub) handleLeave(c *Client, channelID uint) {
	h.leaveRoom(c, channelID)
}

func (h *Hub) handleSend(ctx context.Context, c *Client, channelID uint, content string) {
	if _, err := h.messages.Send(ctx, channelID, c.userID, content); err != nil {
		h.reject(c, EventSendMessage, channelID, err)
	}
}

// handleTyping drops the signal silently when the gate refuses it.
func (h *Hub) handleTyping(ctx context.Context, c *Client, channelID uint, isTyping bool) {
	ok, err := h.gate.IsMember(ctx, channelID, c.userID)
	if err != nil || !ok {
		return
	}
	h.rooms.Broadcast(channelID, encode(TypingEvent{
		Type:      EventUserTyping,
		UserID:    c.userID,
		Username:  c.username,
		ChannelID: channelID,
		IsTyping:  isTyping,
	}), c)
}

func (h *Hub) handleKick(ctx context.Context, c *Client, channelID, targetID uint) {
	if targetID == 0 {
		c.sendError(EventKickUser, channelID, fmt.Errorf("%w: target_user_id is required", services.ErrInvalidInput))
		return
	}
	if err := h.channels.RemoveMember(ctx, channelID, c.userID, targetID); err != nil {
		c.sendError(EventKickUser, channelID, err)
	}
}

// reject reports err to c only. A gate refusal also tells the client to drop
// the room and removes any subscription it still holds.
func (h *Hub) reject(c *Client, request string, channelID uint, err error) {
	if code := services.ErrorCode(err); code == services.CodeInternal {
		c.log.WithError(err).WithFields(logrus.Fields{
			"request":    request,
			"channel_id": channelID,
		}).Error("event failed")
	}
	c.sendError(request, channelID, err)
	if errors.Is(err, services.ErrNotAMember) {
		h.leaveRoom(c, channelID)
		c.Send(forceLeave(channelID, reasonNotMember))
	}
}

func (h *Hub) leaveRoom(c *Client, channelID uint) {
	if !h.rooms.Unsubscribe(channelID, c) {
		return
	}
	h.rooms.Broadcast(channelID, encode(PresenceEvent{
		Type:      EventUserLeft,
		UserID:    c.userID,
		Username:  c.username,
		ChannelID: channelID,
	}), c)
	h.broadcastRoomInfo(channelID)
}

func (h *Hub) broadcastRoomInfo(channelID uint) {
	h.rooms.Broadcast(channelID, encode(RoomInfoEvent{
		Type:        EventRoomInfo,
		ChannelID:   channelID,
		OnlineCount: h.rooms.Size(channelID),
	}), nil)
}

// EjectMember runs once the membership row is gone: it announces the kick,
// evicts every live connection of the user from this channel only, then
// announces the updated member list.
func (h *Hub) EjectMember(channelID, userID uint) {
	h.rooms.Broadcast(channelID, encode(MemberEvent{Type: EventUserKicked, ChannelID: channelID, UserID: userID}), nil)
	h.evict(channelID, userID, reasonKicked)
}

// MemberLeft ejects a user's connections after they left over HTTP.
func (h *Hub) MemberLeft(channelID, userID uint) {
	h.evict(channelID, userID, reasonLeft)
}

func (h *Hub) evict(channelID, userID uint, reason string) {
	evicted := h.rooms.Evict(channelID, h.registry.ByUser(userID))
	for _, c := range evicted {
		c.Send(forceLeave(channelID, reason))
	}
	h.rooms.Broadcast(channelID, encode(MemberEvent{Type: EventMemberRemoved, ChannelID: channelID, UserID: userID}), nil)
	if len(evicted) > 0 {
		h.broadcastRoomInfo(channelID)
	}

	log.WithFields(logrus.Fields{
		"channel_id": channelID,
		"user_id":    userID,
		"reason":     reason,
		"evicted":    len(evicted),
	}).Info("member evicted")
}

// BroadcastMessage delivers a stored message to everyone in its channel.
func (h *Hub) BroadcastMessage(msg models.Message) {
	h.rooms.Broadcast(msg.ChannelID, encode(newMessageEvent(msg)), nil)
}

// BroadcastToChannel sends event to every subscriber and returns how many accepted it.
func (h *Hub) BroadcastToChannel(channelID uint, event any) int {
	return h.rooms.Broadcast(channelID, encode(event), nil)
}

// FindConnectionsByUser returns the user's connections subscribed to channelID.
func (h *Hub) FindConnectionsByUser(channelID, userID uint) []*Client {
	return h.rooms.Subscribed(channelID, h.registry.ByUser(userID))
}

// OnlineCount is the number of live subscribers of channelID.
func (h *Hub) OnlineCount(channelID uint) int {
	return h.rooms.Size(channelID)
}

func (h *Hub) ConnectionCount() int {
	return h.registry.Count()
}

// disconnect removes c from the registry and from every room it joined. It
// is safe to call more than once.
func (h *Hub) disconnect(c *Client) {
	if !c.close() {
		return
	}
	h.registry.Remove(c)
	for _, channelID := range c.Rooms() {
		h.leaveRoom(c, channelID)
	}
	c.log.Info("client disconnected")
}

// Shutdown disconnects every client and waits for their pumps to exit.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()
	for _, c := range h.registry.All() {
		h.disconnect(c)
		if c.conn != nil {
			c.conn.Close()
		}
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("hub shutdown: %w", ctx.Err())
	}
}
