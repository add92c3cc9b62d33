package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booksly/errs"
)

func TestFollowAndUnfollow(t *testing.T) {
	s := tempService(t)
	alice := mustSignup(t, s, "alice")
	mustSignup(t, s, "bob")

	following, err := s.IsFollowing(alice.ID, "bob")
	require.NoError(t, err)
	assert.False(t, following)

	require.NoError(t, s.Follow(alice.ID, "bob"))

	following, err = s.IsFollowing(alice.ID, "bob")
	require.NoError(t, err)
	assert.True(t, following)

	require.NoError(t, s.Unfollow(alice.ID, "bob"))

	following, err = s.IsFollowing(alice.ID, "bob")
	require.NoError(t, err)
	assert.False(t, following)
}

func TestFollowSelf(t *testing.T) {
	s := tempService(t)
	alice := mustSignup(t, s, "alice")

	err := s.Follow(alice.ID, "alice")
	assert.ErrorIs(t, err, ErrSelfFollow)
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestFollowTwice(t *testing.T) {
	s := tempService(t)
	alice := mustSignup(t, s, "alice")
	mustSignup(t, s, "bob")

	require.NoError(t, s.Follow(alice.ID, "bob"))

	err := s.Follow(alice.ID, "bob")
	assert.ErrorIs(t, err, ErrAlreadyFollowing)
	assert.ErrorIs(t, err, errs.ErrConflict)
}

func TestFollowUnknownUser(t *testing.T) {
	s := tempService(t)
	alice := mustSignup(t, s, "alice")

	assert.ErrorIs(t, s.Follow(alice.ID, "ghost"), ErrUserNotFound)
	assert.ErrorIs(t, s.Unfollow(alice.ID, "ghost"), ErrUserNotFound)

	_, err := s.IsFollowing(alice.ID, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUnfollowWithoutEdge(t *testing.T) {
	s := tempService(t)
	alice := mustSignup(t, s, "alice")
	mustSignup(t, s, "bob")

	err := s.Unfollow(alice.ID, "bob")
	assert.ErrorIs(t, err, ErrNotFollowing)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestFollowCountsAreDirectional(t *testing.T) {
	s := tempService(t)
	alice := mustSignup(t, s, "alice")
	bob := mustSignup(t, s, "bob")
	carol := mustSignup(t, s, "carol")

	require.NoError(t, s.Follow(alice.ID, "bob"))
	require.NoError(t, s.Follow(carol.ID, "bob"))
	require.NoError(t, s.Follow(bob.ID, "alice"))

	followers, err := s.FollowerCount(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, followers)

	following, err := s.FollowingCount(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, following)

	followers, err = s.FollowerCount(carol.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, followers)
}
