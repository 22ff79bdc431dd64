package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelService_CreateAddsCreatorAsMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	ch, err := f.chans.CreateChannel(ctx, alice.ID, "  general  ", "talk")
	require.NoError(t, err)
	assert.Equal(t, "general", ch.Name)
	assert.Equal(t, alice.ID, ch.CreatedBy)

	ok, err := f.memberships.IsMember(ctx, ch.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.chans.CreateChannel(ctx, alice.ID, "general", "")
	assert.ErrorIs(t, err, ErrChannelNameTaken)
	_, err = f.chans.CreateChannel(ctx, alice.ID, "g", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestChannelService_JoinAndListForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	general, err := f.chans.CreateChannel(ctx, alice.ID, "general", "")
	require.NoError(t, err)
	_, err = f.chans.CreateChannel(ctx, alice.ID, "private", "")
	require.NoError(t, err)

	_, joined, err := f.chans.JoinChannel(ctx, general.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, joined)
	_, joined, err = f.chans.JoinChannel(ctx, general.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, joined, "second join is a no-op")
	_, _, err = f.chans.JoinChannel(ctx, 999, bob.ID)
	assert.ErrorIs(t, err, ErrChannelNotFound)

	mine, err := f.chans.ListForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "general", mine[0].Name)

	all, err := f.chans.ListChannels(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestChannelService_ListMembersIsGated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	ch, err := f.chans.CreateChannel(ctx, alice.ID, "general", "")
	require.NoError(t, err)
	_, _, err = f.chans.JoinChannel(ctx, ch.ID, bob.ID)
	require.NoError(t, err)

	members, err := f.chans.ListMembers(ctx, ch.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Username)
	assert.True(t, members[0].IsCreator)
	assert.Equal(t, "bob", members[1].Username)
	assert.False(t, members[1].IsCreator)

	_, err = f.chans.ListMembers(ctx, ch.ID, carol.ID)
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestChannelService_RemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	ch, err := f.chans.CreateChannel(ctx, alice.ID, "general", "")
	require.NoError(t, err)
	_, _, err = f.chans.JoinChannel(ctx, ch.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, f.chans.RemoveMember(ctx, ch.ID, alice.ID, bob.ID))

	ok, err := f.memberships.IsMember(ctx, ch.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, [][2]uint{{ch.ID, bob.ID}}, f.notifier.ejected)

	// retry is not an error and still notifies
	require.NoError(t, f.chans.RemoveMember(ctx, ch.ID, alice.ID, bob.ID))
	assert.Len(t, f.notifier.ejected, 2)
}

func TestChannelService_RemoveMemberRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	ch, err := f.chans.CreateChannel(ctx, alice.ID, "general", "")
	require.NoError(t, err)
	_, _, err = f.chans.JoinChannel(ctx, ch.ID, bob.ID)
	require.NoError(t, err)

	err = f.chans.RemoveMember(ctx, ch.ID, bob.ID, alice.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	err = f.chans.RemoveMember(ctx, ch.ID, alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrCannotRemoveCreator)
	ok, err := f.memberships.IsMember(ctx, ch.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	err = f.chans.RemoveMember(ctx, 999, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrChannelNotFound)

	assert.Empty(t, f.notifier.ejected)
}

func TestChannelService_LeaveChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	ch, err := f.chans.CreateChannel(ctx, alice.ID, "general", "")
	require.NoError(t, err)
	_, _, err = f.chans.JoinChannel(ctx, ch.ID, bob.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.chans.LeaveChannel(ctx, ch.ID, alice.ID), ErrCannotRemoveCreator)

	require.NoError(t, f.chans.LeaveChannel(ctx, ch.ID, bob.ID))
	require.NoError(t, f.chans.LeaveChannel(ctx, ch.ID, bob.ID))
	assert.Equal(t, [][2]uint{{ch.ID, bob.ID}}, f.notifier.left)

	ok, err := f.memberships.IsMember(ctx, ch.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodeNotAMember, ErrorCode(ErrNotAMember))
	assert.Equal(t, CodeInvalidContent, ErrorCode(ErrMessageTooLong))
	assert.Equal(t, CodeForbidden, ErrorCode(ErrForbidden))
	assert.Equal(t, CodeCannotRemoveCreator, ErrorCode(ErrCannotRemoveCreator))
	assert.Equal(t, CodeNotFound, ErrorCode(ErrChannelNotFound))
	assert.Equal(t, CodeInternal, ErrorCode(assert.AnError))
	assert.Equal(t, "operation failed", PublicMessage(assert.AnError))
	assert.Equal(t, ErrForbidden.Error(), PublicMessage(ErrForbidden))
}
