package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomManager_SubscribeIsIdempotent(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	c := e.connect(alice)
	m := NewRoomManager()

	assert.True(t, m.Subscribe(1, c))
	assert.False(t, m.Subscribe(1, c))
	assert.Equal(t, 1, m.Size(1))
	assert.True(t, m.IsSubscribed(1, c))
	assert.Equal(t, []uint{1}, c.Rooms())
}

func TestRoomManager_UnsubscribeTwiceIsNoop(t *testing.T) {
	e := newEnv(t)
	c := e.connect(e.user(t, "alice"))
	m := NewRoomManager()

	m.Subscribe(1, c)
	assert.True(t, m.Unsubscribe(1, c))
	assert.False(t, m.Unsubscribe(1, c))
	assert.False(t, m.Unsubscribe(42, c))
	assert.Equal(t, 0, m.Size(1))
	assert.Equal(t, 0, m.Count(), "empty rooms are dropped")
	assert.Empty(t, c.Rooms())
}

func TestRoomManager_BroadcastSkipsExcluded(t *testing.T) {
	e := newEnv(t)
	a := e.connect(e.user(t, "alice"))
	b := e.connect(e.user(t, "bob"))
	m := NewRoomManager()
	m.Subscribe(1, a)
	m.Subscribe(1, b)

	assert.Equal(t, 1, m.Broadcast(1, []byte(`{"type":"x"}`), a))
	assert.Empty(t, drain(t, a))
	assert.Len(t, drain(t, b), 1)
	assert.Equal(t, 0, m.Broadcast(2, []byte(`{}`), nil))
}

func TestRoomManager_FullQueueDoesNotBlock(t *testing.T) {
	e := newEnv(t)
	slow := e.connect(e.user(t, "slow"))
	fast := e.connect(e.user(t, "fast"))
	m := NewRoomManager()
	m.Subscribe(1, slow)
	m.Subscribe(1, fast)

	for i := 0; i < cap(slow.send); i++ {
		require.True(t, slow.enqueue([]byte(`{}`)))
	}
	drain(t, fast)

	assert.Equal(t, 1, m.Broadcast(1, []byte(`{"type":"x"}`), nil))
	assert.Len(t, drain(t, fast), 1)
}

func TestRoomManager_EvictOnlyTouchesOneRoom(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "bob")
	c1 := e.connect(u)
	c2 := e.connect(u)
	other := e.connect(e.user(t, "alice"))
	m := NewRoomManager()
	m.Subscribe(1, c1)
	m.Subscribe(1, c2)
	m.Subscribe(1, other)
	m.Subscribe(2, c1)

	evicted := m.Evict(1, []*Client{c1, c2})
	assert.ElementsMatch(t, []*Client{c1, c2}, evicted)
	assert.Empty(t, m.Subscribed(1, []*Client{c1, c2}))
	assert.True(t, m.IsSubscribed(1, other))
	assert.True(t, m.IsSubscribed(2, c1))
	assert.Equal(t, []uint{2}, c1.Rooms())

	assert.Empty(t, m.Evict(1, []*Client{c1}))
}

func TestRoomManager_ClosedClientCannotSubscribe(t *testing.T) {
	e := newEnv(t)
	c := e.connect(e.user(t, "alice"))
	m := NewRoomManager()
	c.close()

	added, err := m.SubscribeAuthorized(1, c, nil)
	assert.False(t, added)
	assert.ErrorIs(t, err, errClientClosed)
	assert.Equal(t, 0, m.Count())
}

func TestRoomManager_ConcurrentAccess(t *testing.T) {
	e := newEnv(t)
	m := NewRoomManager()
	clients := make([]*Client, 20)
	for i := range clients {
		clients[i] = e.connect(e.user(t, "user"+string(rune('a'+i))))
	}

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				ch := uint(i%3 + 1)
				m.Subscribe(ch, c)
				m.Broadcast(ch, []byte(`{}`), c)
				m.Unsubscribe(ch, c)
			}
		}(c)
	}
	wg.Wait()

	assert.Equal(t, 0, m.Count())
	for _, c := range clients {
		assert.Empty(t, c.Rooms())
	}
}

func TestConnectionRegistry_IndexesByUser(t *testing.T) {
	e := newEnv(t)
	u := e.user(t, "bob")
	c1 := newClient(e.hub, nil, identityOf(u.ID, u.Username))
	c2 := newClient(e.hub, nil, identityOf(u.ID, u.Username))
	r := NewConnectionRegistry()

	r.Add(c1)
	r.Add(c2)
	assert.Equal(t, 2, r.Count())
	assert.ElementsMatch(t, []*Client{c1, c2}, r.ByUser(u.ID))

	got, ok := r.Get(c1.ID())
	require.True(t, ok)
	assert.Same(t, c1, got)

	assert.True(t, r.Remove(c1))
	assert.False(t, r.Remove(c1))
	assert.Equal(t, []*Client{c2}, r.ByUser(u.ID))

	r.Remove(c2)
	assert.Empty(t, r.ByUser(u.ID))
	assert.Empty(t, r.All())
}
