package ws

import (
	"encoding/json"

	"channel-chat/models"

	"github.com/sirupsen/logrus"
)

// client -> server
const (
	EventJoinChannel  = "join_channel"
	EventLeaveChannel = "leave_channel"
	EventSendMessage  = "send_message"
	EventTyping       = "typing"
	EventKickUser     = "kick_user"
	EventPing         = "ping"
	EventPong         = "pong"
)

// server -> client
const (
	EventNewMessage        = "new_message"
	EventUserJoined        = "user_joined"
	EventUserLeft          = "user_left"
	EventRoomInfo          = "room_info"
	EventUserTyping        = "user_typing"
	EventUserKicked        = "user_kicked"
	EventMemberAdded       = "member_added"
	EventMemberRemoved     = "member_removed"
	EventForceLeaveChannel = "force_leave_channel"
	EventError             = "error"
)

// Inbound is every client frame. Fields not used by a given type are ignored.
type Inbound struct {
	Type         string `json:"type"`
	ChannelID    uint   `json:"channel_id,omitempty"`
	Content      string `json:"content,omitempty"`
	IsTyping     bool   `json:"is_typing,omitempty"`
	TargetUserID uint   `json:"target_user_id,omitempty"`
}

type MessageEvent struct {
	Type string `json:"type"`
	models.Message
	TS int64 `json:"ts"`
}

type PresenceEvent struct {
	Type      string `json:"type"`
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	ChannelID uint   `json:"channel_id"`
}

type RoomInfoEvent struct {
	Type        string `json:"type"`
	ChannelID   uint   `json:"channel_id"`
	OnlineCount int    `json:"online_count"`
}

type TypingEvent struct {
	Type      string `json:"type"`
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	ChannelID uint   `json:"channel_id"`
	IsTyping  bool   `json:"is_typing"`
}

// MemberEvent covers user_kicked, member_added and member_removed.
type MemberEvent struct {
	Type      string `json:"type"`
	ChannelID uint   `json:"channel_id"`
	UserID    uint   `json:"user_id"`
}

type ForceLeaveEvent struct {
	Type      string `json:"type"`
	ChannelID uint   `json:"channel_id"`
	Reason    string `json:"reason,omitempty"`
}

type ErrorEvent struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Code      string `json:"code"`
	Request   string `json:"request,omitempty"`
	ChannelID uint   `json:"channel_id,omitempty"`
}

func newMessageEvent(msg models.Message) MessageEvent {
	return MessageEvent{Type: EventNewMessage, Message: msg, TS: msg.CreatedAt.UnixMilli()}
}

func forceLeave(channelID uint, reason string) ForceLeaveEvent {
	return ForceLeaveEvent{Type: EventForceLeaveChannel, ChannelID: channelID, Reason: reason}
}

func encode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).WithField("component", "ws").Error("failed to encode event")
		return nil
	}
	return b
}
