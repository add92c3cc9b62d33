package users

import (
	"booksly/errs"
	"booksly/store"
)

var (
	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errs.Conflict("you can't follow yourself")
	// ErrAlreadyFollowing is returned when the follow edge already exists.
	ErrAlreadyFollowing = errs.Conflict("you are already following that user")
	// ErrNotFollowing is returned when unfollowing without an existing edge.
	ErrNotFollowing = errs.NotFound("you are not following that user")
)

// IsFollowing reports whether follower follows the user with the given
// username. The followee is expected to exist; an unknown username is
// reported as ErrUserNotFound.
func (s *Service) IsFollowing(followerID int64, followeeUsername string) (bool, error) {
	followeeID, err := s.ID(followeeUsername)
	if err != nil {
		return false, err
	}

	var following bool
	err = s.st.QueryRow(`
        SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = ? AND followee_id = ?)`,
		followerID, followeeID).Scan(&following)
	if err != nil {
		return false, store.Fail(err)
	}
	return following, nil
}

// Follow inserts the follow edge. The pair constraint on follows reports a
// duplicate edge even when two sessions race on the same pair.
func (s *Service) Follow(followerID int64, followeeUsername string) error {
	followeeID, err := s.ID(followeeUsername)
	if err != nil {
		return err
	}
	if followeeID == followerID {
		return ErrSelfFollow
	}

	_, err = s.st.Exec(`
        INSERT INTO follows (follower_id, followee_id) VALUES (?, ?)`,
		followerID, followeeID)
	if store.IsUniqueViolation(err) {
		return ErrAlreadyFollowing
	}
	if err != nil {
		return store.Fail(err)
	}
	return nil
}

// Unfollow deletes the follow edge.
func (s *Service) Unfollow(followerID int64, followeeUsername string) error {
	followeeID, err := s.ID(followeeUsername)
	if err != nil {
		return err
	}

	res, err := s.st.Exec(`
        DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`,
		followerID, followeeID)
	if err != nil {
		return store.Fail(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return store.Fail(err)
	}
	if n == 0 {
		return ErrNotFollowing
	}
	return nil
}

// FollowerCount returns how many users follow userID.
func (s *Service) FollowerCount(userID int64) (int, error) {
	var n int
	err := s.st.QueryRow(`SELECT COUNT(*) FROM follows WHERE followee_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, store.Fail(err)
	}
	return n, nil
}

// FollowingCount returns how many users userID follows.
func (s *Service) FollowingCount(userID int64) (int, error) {
	var n int
	err := s.st.QueryRow(`SELECT COUNT(*) FROM follows WHERE follower_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, store.Fail(err)
	}
	return n, nil
}
