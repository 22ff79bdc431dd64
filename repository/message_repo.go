package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"channel-chat/models"
)

type MessageRepository interface {
	// Append assigns the message id and creation time.
	Append(ctx context.Context, msg *models.Message) error
	// Recent skips the newest offset messages, takes the next limit and
	// returns them oldest-first.
	Recent(ctx context.Context, channelID uint, limit, offset int) ([]models.Message, error)
}

type InMemoryMessageRepo struct {
	mu   sync.RWMutex
	seq  uint
	data map[uint]*models.Message // by id
	byC  map[uint][]uint          // channel -> message IDs in append order
}

func NewInMemoryMessageRepo() *InMemoryMessageRepo {
	return &InMemoryMessageRepo{
		data: make(map[uint]*models.Message),
		byC:  make(map[uint][]uint),
	}
}

func (r *InMemoryMessageRepo) Append(_ context.Context, msg *models.Message) error {
	if msg == nil {
		return errors.New("nil message")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	msg.ID = r.seq
	msg.CreatedAt = time.Now()
	stored := *msg
	r.data[msg.ID] = &stored
	r.byC[msg.ChannelID] = append(r.byC[msg.ChannelID], msg.ID)
	return nil
}

func (r *InMemoryMessageRepo) Recent(_ context.Context, channelID uint, limit, offset int) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byC[channelID]

	// ids are already in creation order; window from the newest end
	end := len(ids) - offset
	if offset < 0 || end <= 0 || limit <= 0 {
		return []models.Message{}, nil
	}
	start := end - limit
	if start < 0 {
		start = 0
	}

	msgs := make([]models.Message, 0, end-start)
	for _, id := range ids[start:end] {
		msgs = append(msgs, *r.data[id])
	}
	return msgs, nil
}
