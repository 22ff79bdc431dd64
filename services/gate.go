package services

import (
	"context"
	"errors"
	"fmt"

	"channel-chat/repository"
)

// Gate answers whether a user currently belongs to a channel. Every call
// goes to the membership store; results are never kept between calls.
type Gate struct {
	channels    repository.ChannelRepository
	memberships repository.MembershipRepository
}

func NewGate(cr repository.ChannelRepository, mr repository.MembershipRepository) *Gate {
	return &Gate{channels: cr, memberships: mr}
}

func (g *Gate) IsMember(ctx context.Context, channelID, userID uint) (bool, error) {
	ok, err := g.memberships.IsMember(ctx, channelID, userID)
	if err != nil {
		return false, fmt.Errorf("membership lookup: %w", err)
	}
	return ok, nil
}

// Authorize returns ErrChannelNotFound for unknown channels and
// ErrNotAMember when the user has no membership row.
func (g *Gate) Authorize(ctx context.Context, channelID, userID uint) error {
	ok, err := g.IsMember(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := g.channels.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrChannelNotFound
		}
		return err
	}
	return ErrNotAMember
}
