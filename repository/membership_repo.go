package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"channel-chat/models"
)

// MembershipRepository is the source of truth for who belongs to which channel.
type MembershipRepository interface {
	// Add reports whether a row was inserted. Adding an existing member keeps
	// the original row and is not an error.
	Add(ctx context.Context, channelID, userID uint) (bool, error)
	// Remove reports whether a row was deleted. Removing a non-member is not an error.
	Remove(ctx context.Context, channelID, userID uint) (bool, error)
	IsMember(ctx context.Context, channelID, userID uint) (bool, error)
	ListMembers(ctx context.Context, channelID uint) ([]models.Membership, error)
	ListChannelIDs(ctx context.Context, userID uint) ([]uint, error)
}

type InMemoryMembershipRepo struct {
	mu   sync.RWMutex
	seq  uint
	data map[uint]*models.Membership // by membership id
	byCU map[string]uint             // "channelID:userID" -> membership id
}

func NewInMemoryMembershipRepo() *InMemoryMembershipRepo {
	return &InMemoryMembershipRepo{
		data: make(map[uint]*models.Membership),
		byCU: make(map[string]uint),
	}
}

func (r *InMemoryMembershipRepo) Add(_ context.Context, channelID, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := formatChannelUserKey(channelID, userID)
	if _, exists := r.byCU[key]; exists {
		return false, nil
	}

	r.seq++
	membership := &models.Membership{
		ID:        r.seq,
		ChannelID: channelID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	}

	r.data[membership.ID] = membership
	r.byCU[key] = membership.ID
	return true, nil
}

func (r *InMemoryMembershipRepo) Remove(_ context.Context, channelID, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := formatChannelUserKey(channelID, userID)
	membershipID, exists := r.byCU[key]
	if !exists {
		return false, nil
	}

	delete(r.data, membershipID)
	delete(r.byCU, key)
	return true, nil
}

func (r *InMemoryMembershipRepo) IsMember(_ context.Context, channelID, userID uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.byCU[formatChannelUserKey(channelID, userID)]
	return exists, nil
}

func (r *InMemoryMembershipRepo) ListMembers(_ context.Context, channelID uint) ([]models.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memberships := []models.Membership{}
	for _, membership := range r.data {
		if membership.ChannelID == channelID {
			memberships = append(memberships, *membership)
		}
	}
	// membership ids follow join order
	sort.Slice(memberships, func(i, j int) bool { return memberships[i].ID < memberships[j].ID })
	return memberships, nil
}

func (r *InMemoryMembershipRepo) ListChannelIDs(_ context.Context, userID uint) ([]uint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := []uint{}
	for _, membership := range r.data {
		if membership.UserID == userID {
			channels = append(channels, membership.ChannelID)
		}
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })
	return channels, nil
}

func formatChannelUserKey(channelID, userID uint) string {
	return fmt.Sprintf("%d:%d", channelID, userID)
}
