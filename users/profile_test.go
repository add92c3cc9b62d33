package users

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booksly/errs"
)

func addBook(t *testing.T, s *Service, title string, length int) int64 {
	t.Helper()
	res, err := s.st.Exec(`
        INSERT INTO book (title, audience, release_date, length)
        VALUES (?, 'adult', '2024-01-01', ?)`, title, length)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func addRating(t *testing.T, s *Service, userID, bookID int64, rating int) {
	t.Helper()
	_, err := s.st.Exec(`
        INSERT INTO rating (user_id, book_id, rating) VALUES (?, ?, ?)`,
		userID, bookID, rating)
	require.NoError(t, err)
}

func addSession(t *testing.T, s *Service, userID, bookID int64, seconds int64) {
	t.Helper()
	start := "2024-06-01 10:00:00"
	end := fmt.Sprintf("2024-06-01 10:%02d:%02d", seconds/60, seconds%60)
	_, err := s.st.Exec(`
        INSERT INTO session (user_id, book_id, start_page, end_page, start_time, end_time)
        VALUES (?, ?, 1, 10, ?, ?)`,
		userID, bookID, start, end)
	require.NoError(t, err)
}

func TestProfileCounts(t *testing.T) {
	s := tempService(t)
	alice := mustSignup(t, s, "alice")
	bob := mustSignup(t, s, "bob")
	carol := mustSignup(t, s, "carol")

	require.NoError(t, s.Follow(bob.ID, "alice"))
	require.NoError(t, s.Follow(carol.ID, "alice"))
	require.NoError(t, s.Follow(alice.ID, "bob"))

	_, err := s.st.Exec(`INSERT INTO collection (user_id, name) VALUES (?, 'to read')`, alice.ID)
	require.NoError(t, err)

	p, err := s.Profile("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, 1, p.Collections)
	assert.Equal(t, 2, p.Followers)
	assert.Equal(t, 1, p.Following)
}

func TestProfileUnknownUser(t *testing.T) {
	s := tempService(t)

	_, err := s.Profile("ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTopRatedOrdering(t *testing.T) {
	s := tempService(t)
	alice := mustSignup(t, s, "alice")

	low := addBook(t, s, "Low", 100)
	high := addBook(t, s, "High", 100)
	mid := addBook(t, s, "Mid", 100)

	addRating(t, s, alice.ID, low, 2)
	addRating(t, s, alice.ID, high, 5)
	addRating(t, s, alice.ID, mid, 4)

	top, err := s.TopRated(alice.ID)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, RatedBook{Title: "High", Rating: 5}, top[0])
	assert.Equal(t, RatedBook{Title: "Mid", Rating: 4}, top[1])
	assert.Equal(t, RatedBook{Title: "Low", Rating: 2}, top[2])
}

func TestTopReadSumsSessions(t *testing.T) {
	s := tempService(t)
	alice := mustSignup(t, s, "alice")

	short := addBook(t, s, "Short", 100)
	long := addBook(t, s, "Long", 100)

	addSession(t, s, alice.ID, short, 60)
	addSession(t, s, alice.ID, long, 120)
	addSession(t, s, alice.ID, long, 180)

	top, err := s.TopRead(alice.ID)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, ReadBook{Title: "Long", Seconds: 300}, top[0])
	assert.Equal(t, ReadBook{Title: "Short", Seconds: 60}, top[1])
}

func TestTopBothMergesRatingsAndReadTime(t *testing.T) {
	s := tempService(t)
	alice := mustSignup(t, s, "alice")

	ratedOnly := addBook(t, s, "Rated Only", 100)
	readOnly := addBook(t, s, "Read Only", 100)
	both := addBook(t, s, "Both", 100)

	addRating(t, s, alice.ID, ratedOnly, 5)
	addRating(t, s, alice.ID, both, 5)
	addSession(t, s, alice.ID, both, 600)
	addSession(t, s, alice.ID, readOnly, 60)

	top, err := s.TopBoth(alice.ID)
	require.NoError(t, err)
	require.Len(t, top, 3)

	// Same rating sorts by read time; unrated books come last.
	assert.Equal(t, ProfileBook{Title: "Both", Rating: 5, Seconds: 600}, top[0])
	assert.Equal(t, ProfileBook{Title: "Rated Only", Rating: 5, Seconds: 0}, top[1])
	assert.Equal(t, ProfileBook{Title: "Read Only", Rating: 0, Seconds: 60}, top[2])
}

func TestTopListsEmptyHistory(t *testing.T) {
	s := tempService(t)
	alice := mustSignup(t, s, "alice")

	top, err := s.TopRated(alice.ID)
	require.NoError(t, err)
	assert.Empty(t, top)

	read, err := s.TopRead(alice.ID)
	require.NoError(t, err)
	assert.Empty(t, read)

	both, err := s.TopBoth(alice.ID)
	require.NoError(t, err)
	assert.Empty(t, both)
}

func TestTopListsOnUnavailableStore(t *testing.T) {
	s := tempService(t)
	alice := mustSignup(t, s, "alice")
	require.NoError(t, s.st.Close())

	_, err := s.TopRated(alice.ID)
	assert.ErrorIs(t, err, errs.ErrUnavailable)

	_, err = s.TopRead(alice.ID)
	assert.ErrorIs(t, err, errs.ErrUnavailable)

	_, err = s.TopBoth(alice.ID)
	assert.ErrorIs(t, err, errs.ErrUnavailable)
}
