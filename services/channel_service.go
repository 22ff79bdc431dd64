package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"channel-chat/models"
	"channel-chat/repository"

	"github.com/sirupsen/logrus"
)

// MembershipNotifier is implemented by the realtime layer so that membership
// removals made here reach live connections immediately.
type MembershipNotifier interface {
	// EjectMember runs after a creator removed userID from channelID.
	EjectMember(channelID, userID uint)
	// MemberLeft runs after userID removed their own membership.
	MemberLeft(channelID, userID uint)
}

type ChannelService struct {
	channels    repository.ChannelRepository
	users       repository.UserRepository
	memberships repository.MembershipRepository
	gate        *Gate
	notifier    MembershipNotifier
}

func NewChannelService(cr repository.ChannelRepository, ur repository.UserRepository, mr repository.MembershipRepository, gate *Gate) *ChannelService {
	return &ChannelService{channels: cr, users: ur, memberships: mr, gate: gate}
}

// SetNotifier attaches the realtime layer. It must be called before serving traffic.
func (s *ChannelService) SetNotifier(n MembershipNotifier) {
	s.notifier = n
}

func (s *ChannelService) CreateChannel(ctx context.Context, creatorID uint, name, description string) (*models.Channel, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return nil, fmt.Errorf("%w: channel name too short (minimum 2 characters)", ErrInvalidInput)
	}
	if len(name) > 50 {
		return nil, fmt.Errorf("%w: channel name too long (maximum 50 characters)", ErrInvalidInput)
	}
	if len(description) > 500 {
		return nil, fmt.Errorf("%w: description too long (maximum 500 characters)", ErrInvalidInput)
	}

	ch := &models.Channel{Name: name, Description: strings.TrimSpace(description), CreatedBy: creatorID}
	if err := s.channels.Create(ctx, ch); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrChannelNameTaken
		}
		return nil, err
	}

	// the creator is always a member
	if _, err := s.memberships.Add(ctx, ch.ID, creatorID); err != nil {
		return nil, fmt.Errorf("failed to add creator to channel: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"component":  "channels",
		"channel_id": ch.ID,
		"user_id":    creatorID,
	}).Info("channel created")
	return ch, nil
}

func (s *ChannelService) GetChannel(ctx context.Context, channelID uint) (*models.Channel, error) {
	ch, err := s.channels.FindByID(ctx, channelID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, err
	}
	return ch, nil
}

func (s *ChannelService) ListChannels(ctx context.Context) ([]models.Channel, error) {
	return s.channels.List(ctx)
}

// ListForUser returns the channels the user currently belongs to.
func (s *ChannelService) ListForUser(ctx context.Context, userID uint) ([]models.Channel, error) {
	ids, err := s.memberships.ListChannelIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.channels.FindByIDs(ctx, ids)
}

// JoinChannel adds the user to the channel. joined is false when the user
// was already a member.
func (s *ChannelService) JoinChannel(ctx context.Context, channelID, userID uint) (ch *models.Channel, joined bool, err error) {
	ch, err = s.GetChannel(ctx, channelID)
	if err != nil {
		return nil, false, err
	}
	joined, err = s.memberships.Add(ctx, channelID, userID)
	if err != nil {
		return nil, false, err
	}
	return ch, joined, nil
}

// LeaveChannel drops the caller's own membership. Leaving twice is not an error.
func (s *ChannelService) LeaveChannel(ctx context.Context, channelID, userID uint) error {
	ch, err := s.GetChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if ch.CreatedBy == userID {
		return ErrCannotRemoveCreator
	}

	removed, err := s.memberships.Remove(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if removed && s.notifier != nil {
		s.notifier.MemberLeft(channelID, userID)
	}
	return nil
}

func (s *ChannelService) ListMembers(ctx context.Context, channelID, requesterID uint) ([]models.Member, error) {
	if err := s.gate.Authorize(ctx, channelID, requesterID); err != nil {
		return nil, err
	}
	ch, err := s.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	memberships, err := s.memberships.ListMembers(ctx, channelID)
	if err != nil {
		return nil, err
	}

	members := make([]models.Member, 0, len(memberships))
	for _, m := range memberships {
		member := models.Member{
			UserID:    m.UserID,
			Username:  unknownUsername,
			IsCreator: m.UserID == ch.CreatedBy,
			JoinedAt:  m.JoinedAt,
		}
		if u, err := s.users.FindByID(ctx, m.UserID); err == nil {
			member.Username = u.Username
			member.Color = u.Color
		}
		members = append(members, member)
	}
	return members, nil
}

// RemoveMember is the forced-removal entry point. The membership row is gone
// before the realtime layer is told to eject live connections. Removing a
// user who is no longer a member still notifies, so a retry is safe.
func (s *ChannelService) RemoveMember(ctx context.Context, channelID, requesterID, targetID uint) error {
	ch, err := s.GetChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if ch.CreatedBy != requesterID {
		return ErrForbidden
	}
	if targetID == ch.CreatedBy {
		return ErrCannotRemoveCreator
	}

	removed, err := s.memberships.Remove(ctx, channelID, targetID)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"component":  "channels",
		"channel_id": channelID,
		"user_id":    targetID,
		"removed_by": requesterID,
		"had_row":    removed,
	}).Info("member removed")

	if s.notifier != nil {
		s.notifier.EjectMember(channelID, targetID)
	}
	return nil
}
