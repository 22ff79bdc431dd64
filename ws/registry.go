package ws

import "sync"

// ConnectionRegistry tracks every live connection, indexed by id and by user
// so that all of a user's devices can be found at once.
type ConnectionRegistry struct {
	mu     sync.RWMutex
	byID   map[string]*Client
	byUser map[uint]map[*Client]struct{}
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		byID:   make(map[string]*Client),
		byUser: make(map[uint]map[*Client]struct{}),
	}
}

func (r *ConnectionRegistry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[c.id] = c
	if r.byUser[c.userID] == nil {
		r.byUser[c.userID] = make(map[*Client]struct{})
	}
	r.byUser[c.userID][c] = struct{}{}
}

// Remove reports whether c was registered.
func (r *ConnectionRegistry) Remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[c.id]; !ok {
		return false
	}
	delete(r.byID, c.id)
	if conns, ok := r.byUser[c.userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(r.byUser, c.userID)
		}
	}
	return true
}

func (r *ConnectionRegistry) Get(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}

func (r *ConnectionRegistry) ByUser(userID uint) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Client, 0, len(r.byUser[userID]))
	for c := range r.byUser[userID] {
		conns = append(conns, c)
	}
	return conns
}

func (r *ConnectionRegistry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Client, 0, len(r.byID))
	for _, c := range r.byID {
		conns = append(conns, c)
	}
	return conns
}

func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
