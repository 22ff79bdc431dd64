package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"channel-chat/config"
	"channel-chat/models"
	"channel-chat/repository"

	"github.com/sirupsen/logrus"
)

const unknownUsername = "Unknown User"

// MessageBroadcaster interface to avoid import cycles
type MessageBroadcaster interface {
	BroadcastMessage(msg models.Message)
}

type MessageService struct {
	msgs   repository.MessageRepository
	users  repository.UserRepository
	gate   *Gate
	hub    MessageBroadcaster
	config *config.Config
}

func NewMessageService(mr repository.MessageRepository, ur repository.UserRepository, gate *Gate, cfg *config.Config) *MessageService {
	return &MessageService{msgs: mr, users: ur, gate: gate, config: cfg}
}

// SetBroadcaster attaches the realtime fan-out. Without one, Send only persists.
func (s *MessageService) SetBroadcaster(b MessageBroadcaster) {
	s.hub = b
}

// Send checks membership, validates, persists, enriches with the sender's
// current profile and fans the message out to the whole channel.
func (s *MessageService) Send(ctx context.Context, channelID, senderID uint, content string) (*models.Message, error) {
	if err := s.gate.Authorize(ctx, channelID, senderID); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrInvalidContent
	}
	if s.config.MaxMessageLength > 0 && utf8.RuneCountInString(content) > s.config.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	msg := &models.Message{
		ChannelID: channelID,
		SenderID:  senderID,
		Content:   content,
	}
	if err := s.msgs.Append(ctx, msg); err != nil {
		return nil, err
	}

	s.enrich(ctx, msg, nil)
	if s.hub != nil {
		s.hub.BroadcastMessage(*msg)
	}

	logrus.WithFields(logrus.Fields{
		"component":  "messages",
		"channel_id": channelID,
		"user_id":    senderID,
		"message_id": msg.ID,
	}).Debug("message sent")
	return msg, nil
}

// History returns up to limit messages older than the newest offset ones,
// oldest-first.
func (s *MessageService) History(ctx context.Context, channelID, userID uint, limit, offset int) ([]models.Message, error) {
	if err := s.gate.Authorize(ctx, channelID, userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = s.config.HistoryDefaultLimit
	}
	if s.config.HistoryMaxLimit > 0 && limit > s.config.HistoryMaxLimit {
		limit = s.config.HistoryMaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	msgs, err := s.msgs.Recent(ctx, channelID, limit, offset)
	if err != nil {
		return nil, err
	}

	profiles := make(map[uint]*models.User)
	for i := range msgs {
		s.enrich(ctx, &msgs[i], profiles)
	}
	return msgs, nil
}

// enrich fills the sender's current name and color. profiles, if non-nil,
// memoizes lookups within one call.
func (s *MessageService) enrich(ctx context.Context, msg *models.Message, profiles map[uint]*models.User) {
	u, seen := profiles[msg.SenderID]
	if !seen {
		found, err := s.users.FindByID(ctx, msg.SenderID)
		if err == nil {
			u = found
		}
		if profiles != nil {
			profiles[msg.SenderID] = u
		}
	}
	if u == nil {
		msg.Username = unknownUsername
		return
	}
	msg.Username = u.Username
	msg.Color = u.Color
}
