package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"channel-chat/config"
	"channel-chat/models"
	"channel-chat/repository"
	"channel-chat/services"
)

type env struct {
	hub         *Hub
	users       *repository.InMemoryUserRepo
	memberships *repository.InMemoryMembershipRepo
	chans       *services.ChannelService
	msgs        *services.MessageService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := &config.Config{
		MaxMessageLength:    20,
		HistoryDefaultLimit: 50,
		HistoryMaxLimit:     100,
		WS: config.WSConfig{
			SendBuffer:     64,
			PongWait:       time.Minute,
			WriteWait:      5 * time.Second,
			MaxMessageSize: 4096,
		},
	}
	users := repository.NewInMemoryUserRepo()
	channels := repository.NewInMemoryChannelRepo()
	memberships := repository.NewInMemoryMembershipRepo()
	messages := repository.NewInMemoryMessageRepo()

	gate := services.NewGate(channels, memberships)
	chans := services.NewChannelService(channels, users, memberships, gate)
	msgs := services.NewMessageService(messages, users, gate, cfg)
	hub := NewHub(cfg, gate, msgs, chans)
	chans.SetNotifier(hub)
	msgs.SetBroadcaster(hub)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
	})

	return &env{hub: hub, users: users, memberships: memberships, chans: chans, msgs: msgs}
}

func (e *env) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Password: "x", Color: "#123456"}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *env) channel(t *testing.T, creator *models.User, name string, members ...*models.User) *models.Channel {
	t.Helper()
	ctx := context.Background()
	ch, err := e.chans.CreateChannel(ctx, creator.ID, name, "")
	require.NoError(t, err)
	for _, m := range members {
		_, _, err := e.chans.JoinChannel(ctx, ch.ID, m.ID)
		require.NoError(t, err)
	}
	return ch
}

// connect registers a client without a socket; its queue is read directly.
func (e *env) connect(u *models.User) *Client {
	c := newClient(e.hub, nil, identityOf(u.ID, u.Username))
	e.hub.registry.Add(c)
	return c
}

func (e *env) send(c *Client, in Inbound) {
	e.hub.dispatch(c, in)
}

type event map[string]any

func (ev event) str(key string) string {
	s, _ := ev[key].(string)
	return s
}

func (ev event) num(key string) uint {
	f, _ := ev[key].(float64)
	return uint(f)
}

// drain returns every event queued for c so far.
func drain(t *testing.T, c *Client) []event {
	t.Helper()
	var out []event
	for {
		select {
		case b, ok := <-c.send:
			if !ok {
				return out
			}
			var ev event
			require.NoError(t, json.Unmarshal(b, &ev))
			out = append(out, ev)
		default:
			return out
		}
	}
}

func ofType(events []event, typ string) []event {
	var out []event
	for _, ev := range events {
		if ev.str("type") == typ {
			out = append(out, ev)
		}
	}
	return out
}

func identityOf(userID uint, username string) services.Identity {
	return services.Identity{UserID: userID, Username: username}
}
