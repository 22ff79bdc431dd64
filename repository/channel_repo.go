package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"channel-chat/models"
)

type ChannelRepository interface {
	Create(ctx context.Context, ch *models.Channel) error
	FindByID(ctx context.Context, id uint) (*models.Channel, error)
	List(ctx context.Context) ([]models.Channel, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Channel, error)
}

type InMemoryChannelRepo struct {
	mu   sync.RWMutex
	seq  uint
	data map[uint]*models.Channel
}

func NewInMemoryChannelRepo() *InMemoryChannelRepo {
	return &InMemoryChannelRepo{
		data: make(map[uint]*models.Channel),
	}
}

func (r *InMemoryChannelRepo) Create(_ context.Context, ch *models.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.data {
		if existing.Name == ch.Name {
			return ErrDuplicate
		}
	}

	r.seq++
	ch.ID = r.seq
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = time.Now()
	}
	stored := *ch
	r.data[ch.ID] = &stored
	return nil
}

func (r *InMemoryChannelRepo) FindByID(_ context.Context, id uint) (*models.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ch
	return &cp, nil
}

func (r *InMemoryChannelRepo) List(_ context.Context) ([]models.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]models.Channel, 0, len(r.data))
	for _, v := range r.data {
		channels = append(channels, *v)
	}
	sortChannels(channels)
	return channels, nil
}

func (r *InMemoryChannelRepo) FindByIDs(_ context.Context, ids []uint) ([]models.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]models.Channel, 0, len(ids))
	for _, id := range ids {
		if ch, ok := r.data[id]; ok {
			channels = append(channels, *ch)
		}
	}
	sortChannels(channels)
	return channels, nil
}

func sortChannels(channels []models.Channel) {
	sort.Slice(channels, func(i, j int) bool { return channels[i].ID < channels[j].ID })
}
