package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"channel-chat/models"
)

const (
	memberFlag    = "1"
	nonMemberFlag = "0"
)

// CachedMembershipRepo is a read-through cache for IsMember keyed by
// (channel, user). Add and Remove write the authoritative flag after the
// underlying store changes, while lookups only fill an absent key with SETNX.
// A lookup that read the store before a concurrent write can therefore never
// overwrite the flag that write left behind. Redis read failures degrade to
// the underlying store.
type CachedMembershipRepo struct {
	next   MembershipRepository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCachedMembershipRepo(next MembershipRepository, client *redis.Client, prefix string, ttl time.Duration) *CachedMembershipRepo {
	return &CachedMembershipRepo{next: next, client: client, prefix: prefix, ttl: ttl}
}

func (r *CachedMembershipRepo) key(channelID, userID uint) string {
	return r.prefix + formatChannelUserKey(channelID, userID)
}

func flagFor(member bool) string {
	if member {
		return memberFlag
	}
	return nonMemberFlag
}

func (r *CachedMembershipRepo) IsMember(ctx context.Context, channelID, userID uint) (bool, error) {
	key := r.key(channelID, userID)

	val, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return val == memberFlag, nil
	case errors.Is(err, redis.Nil):
	default:
		logrus.WithError(err).WithField("key", key).Warn("membership cache read failed")
	}

	ok, err := r.next.IsMember(ctx, channelID, userID)
	if err != nil {
		return false, err
	}
	if err := r.client.SetNX(ctx, key, flagFor(ok), r.ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("membership cache fill failed")
	}
	return ok, nil
}

func (r *CachedMembershipRepo) Add(ctx context.Context, channelID, userID uint) (bool, error) {
	added, err := r.next.Add(ctx, channelID, userID)
	if err != nil {
		return false, err
	}
	return added, r.store(ctx, channelID, userID, true)
}

func (r *CachedMembershipRepo) Remove(ctx context.Context, channelID, userID uint) (bool, error) {
	removed, err := r.next.Remove(ctx, channelID, userID)
	if err != nil {
		return false, err
	}
	return removed, r.store(ctx, channelID, userID, false)
}

func (r *CachedMembershipRepo) ListMembers(ctx context.Context, channelID uint) ([]models.Membership, error) {
	return r.next.ListMembers(ctx, channelID)
}

func (r *CachedMembershipRepo) ListChannelIDs(ctx context.Context, userID uint) ([]uint, error) {
	return r.next.ListChannelIDs(ctx, userID)
}

// store must succeed for a write to be reported as done; a stale positive
// entry would let a removed user pass the gate until the TTL expires.
func (r *CachedMembershipRepo) store(ctx context.Context, channelID, userID uint, member bool) error {
	if err := r.client.Set(ctx, r.key(channelID, userID), flagFor(member), r.ttl).Err(); err != nil {
		return fmt.Errorf("membership cache write: %w", err)
	}
	return nil
}
