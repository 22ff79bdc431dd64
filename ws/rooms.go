package ws

import (
	"errors"
	"sync"
)

var errClientClosed = errors.New("connection is closed")

type room struct {
	mu      sync.Mutex
	members map[*Client]struct{}
	// dead is set once the room was emptied and dropped from the manager;
	// callers holding a stale pointer must look it up again.
	dead bool
}

// RoomManager maps a channel to its subscribed connections. Each room has its
// own lock, so activity in one channel never waits on another.
//
// Lock order: room.mu before RoomManager.mu before Client.mu.
type RoomManager struct {
	mu    sync.Mutex
	rooms map[uint]*room
}

func NewRoomManager() *RoomManager {
	return &RoomManager{rooms: make(map[uint]*room)}
}

// lock returns the locked room for channelID, creating it when create is set.
// It returns nil if the room does not exist and create is false.
func (m *RoomManager) lock(channelID uint, create bool) *room {
	for {
		m.mu.Lock()
		r, ok := m.rooms[channelID]
		if !ok {
			if !create {
				m.mu.Unlock()
				return nil
			}
			r = &room{members: make(map[*Client]struct{})}
			m.rooms[channelID] = r
		}
		m.mu.Unlock()

		r.mu.Lock()
		if !r.dead {
			return r
		}
		r.mu.Unlock()
	}
}

// unlock drops an empty room before releasing it.
func (m *RoomManager) unlock(channelID uint, r *room) {
	if len(r.members) == 0 && !r.dead {
		r.dead = true
		m.mu.Lock()
		if m.rooms[channelID] == r {
			delete(m.rooms, channelID)
		}
		m.mu.Unlock()
	}
	r.mu.Unlock()
}

// Subscribe adds c to the room. It is idempotent and reports whether c was newly added.
func (m *RoomManager) Subscribe(channelID uint, c *Client) bool {
	added, _ := m.SubscribeAuthorized(channelID, c, nil)
	return added
}

// SubscribeAuthorized runs authorize while holding the room lock and only
// subscribes c if it returns nil. Evictions for the same room are serialized
// with this, so a connection that passed the check before a membership was
// deleted is always visible to the eviction that follows the deletion.
func (m *RoomManager) SubscribeAuthorized(channelID uint, c *Client, authorize func() error) (bool, error) {
	r := m.lock(channelID, true)
	defer m.unlock(channelID, r)

	if authorize != nil {
		if err := authorize(); err != nil {
			return false, err
		}
	}
	if _, ok := r.members[c]; ok {
		return false, nil
	}
	if !c.addRoom(channelID) {
		return false, errClientClosed
	}
	r.members[c] = struct{}{}
	return true, nil
}

// Unsubscribe removes c from the room. Calling it for a connection that is
// not subscribed is a no-op.
func (m *RoomManager) Unsubscribe(channelID uint, c *Client) bool {
	r := m.lock(channelID, false)
	if r == nil {
		c.removeRoom(channelID)
		return false
	}
	defer m.unlock(channelID, r)

	c.removeRoom(channelID)
	if _, ok := r.members[c]; !ok {
		return false
	}
	delete(r.members, c)
	return true
}

// Broadcast queues payload for every subscriber except exclude and returns
// how many connections accepted it. Full send queues are skipped.
func (m *RoomManager) Broadcast(channelID uint, payload []byte, exclude *Client) int {
	if payload == nil {
		return 0
	}
	r := m.lock(channelID, false)
	if r == nil {
		return 0
	}
	defer m.unlock(channelID, r)

	delivered := 0
	for c := range r.members {
		if c == exclude {
			continue
		}
		if c.enqueue(payload) {
			delivered++
		}
	}
	return delivered
}

// Size is the number of live subscribers, not the number of members.
func (m *RoomManager) Size(channelID uint) int {
	r := m.lock(channelID, false)
	if r == nil {
		return 0
	}
	defer m.unlock(channelID, r)
	return len(r.members)
}

func (m *RoomManager) IsSubscribed(channelID uint, c *Client) bool {
	r := m.lock(channelID, false)
	if r == nil {
		return false
	}
	defer m.unlock(channelID, r)
	_, ok := r.members[c]
	return ok
}

// Subscribed returns the candidates that are currently in the room.
func (m *RoomManager) Subscribed(channelID uint, candidates []*Client) []*Client {
	out := []*Client{}
	if len(candidates) == 0 {
		return out
	}
	r := m.lock(channelID, false)
	if r == nil {
		return out
	}
	defer m.unlock(channelID, r)

	for _, c := range candidates {
		if _, ok := r.members[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Evict removes every candidate that is in the room in one critical section
// and returns the ones that were removed.
func (m *RoomManager) Evict(channelID uint, candidates []*Client) []*Client {
	evicted := []*Client{}
	if len(candidates) == 0 {
		return evicted
	}
	r := m.lock(channelID, false)
	if r == nil {
		return evicted
	}
	defer m.unlock(channelID, r)

	for _, c := range candidates {
		if _, ok := r.members[c]; ok {
			delete(r.members, c)
			c.removeRoom(channelID)
			evicted = append(evicted, c)
		}
	}
	return evicted
}

// Count is the number of non-empty rooms.
func (m *RoomManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}
