package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"channel-chat/config"
	"channel-chat/models"
	"channel-chat/repository"
)

type recordingNotifier struct {
	mu      sync.Mutex
	ejected [][2]uint
	left    [][2]uint
}

func (n *recordingNotifier) EjectMember(channelID, userID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ejected = append(n.ejected, [2]uint{channelID, userID})
}

func (n *recordingNotifier) MemberLeft(channelID, userID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.left = append(n.left, [2]uint{channelID, userID})
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []models.Message
}

func (b *recordingBroadcaster) BroadcastMessage(msg models.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
}

type fixture struct {
	cfg         *config.Config
	users       *repository.InMemoryUserRepo
	channels    *repository.InMemoryChannelRepo
	memberships *repository.InMemoryMembershipRepo
	messages    *repository.InMemoryMessageRepo

	gate     *Gate
	auth     *AuthService
	chans    *ChannelService
	msgs     *MessageService
	notifier *recordingNotifier
	bcast    *recordingBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:           "test-secret",
		JWTExpiry:           1,
		MaxMessageLength:    20,
		HistoryDefaultLimit: 50,
		HistoryMaxLimit:     100,
	}
	f := &fixture{
		cfg:         cfg,
		users:       repository.NewInMemoryUserRepo(),
		channels:    repository.NewInMemoryChannelRepo(),
		memberships: repository.NewInMemoryMembershipRepo(),
		messages:    repository.NewInMemoryMessageRepo(),
		notifier:    &recordingNotifier{},
		bcast:       &recordingBroadcaster{},
	}
	f.gate = NewGate(f.channels, f.memberships)
	f.auth = NewAuthService(f.users, cfg)
	f.chans = NewChannelService(f.channels, f.users, f.memberships, f.gate)
	f.chans.SetNotifier(f.notifier)
	f.msgs = NewMessageService(f.messages, f.users, f.gate, cfg)
	f.msgs.SetBroadcaster(f.bcast)
	return f
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Password: "x", Color: "#000000"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}
