package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booksly/errs"
	"booksly/store"
)

func tempService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st)
}

func addBook(t *testing.T, s *Service, title, release string, length int) int64 {
	t.Helper()
	res, err := s.st.Exec(`
        INSERT INTO book (title, audience, release_date, length)
        VALUES (?, 'adult', ?, ?)`, title, release, length)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func addContributor(t *testing.T, s *Service, name string) int64 {
	t.Helper()
	res, err := s.st.Exec(`INSERT INTO contributor (name) VALUES (?)`, name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func addUser(t *testing.T, s *Service, username string) int64 {
	t.Helper()
	res, err := s.st.Exec(`
        INSERT INTO users (username, email, first_name, last_name, creation_date, last_access_date)
        VALUES (?, ?, 'Test', 'User', '2024-01-01 00:00:00', '2024-01-01 00:00:00')`,
		username, username+"@example.com")
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func link(t *testing.T, s *Service, table, left, right string, leftID, rightID int64) {
	t.Helper()
	_, err := s.st.Exec(
		`INSERT INTO `+table+` (`+left+`, `+right+`) VALUES (?, ?)`, leftID, rightID)
	require.NoError(t, err)
}

func TestExistsAndLength(t *testing.T) {
	s := tempService(t)
	id := addBook(t, s, "The Quiet Harbor", "2024-01-01", 320)

	exists, err := s.Exists(id)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Exists(id + 1)
	require.NoError(t, err)
	assert.False(t, exists)

	length, err := s.Length(id)
	require.NoError(t, err)
	assert.Equal(t, 320, length)

	_, err = s.Length(id + 1)
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRandomID(t *testing.T) {
	s := tempService(t)

	_, err := s.RandomID()
	assert.ErrorIs(t, err, ErrBookNotFound)

	want := map[int64]bool{
		addBook(t, s, "A", "2024-01-01", 100): true,
		addBook(t, s, "B", "2024-01-01", 100): true,
	}

	for i := 0; i < 10; i++ {
		id, err := s.RandomID()
		require.NoError(t, err)
		assert.True(t, want[id])
	}
}

func TestDetail(t *testing.T) {
	s := tempService(t)
	id := addBook(t, s, "The Quiet Harbor", "2024-05-10", 320)

	zora := addContributor(t, s, "Zora Thorne")
	abe := addContributor(t, s, "Abe Finch")
	press := addContributor(t, s, "Lantern Press")
	link(t, s, "book_author", "book_id", "author_id", id, zora)
	link(t, s, "book_author", "book_id", "author_id", id, abe)
	link(t, s, "book_publisher", "book_id", "publisher_id", id, press)

	bob := addUser(t, s, "bob")
	amy := addUser(t, s, "amy")
	zed := addUser(t, s, "zed")
	for _, r := range []struct {
		user   int64
		rating int
	}{{bob, 5}, {amy, 3}, {zed, 3}} {
		_, err := s.st.Exec(`
            INSERT INTO rating (user_id, book_id, rating) VALUES (?, ?, ?)`, r.user, id, r.rating)
		require.NoError(t, err)
	}

	d, err := s.Detail(id)
	require.NoError(t, err)

	assert.Equal(t, "The Quiet Harbor", d.Title)
	assert.Equal(t, 320, d.Length)
	assert.Equal(t, "adult", d.Audience)
	assert.Equal(t, []string{"Abe Finch", "Zora Thorne"}, d.Authors)
	assert.Equal(t, []string{"Lantern Press"}, d.Publishers)

	// Rating descending, ties broken by username.
	require.Len(t, d.Ratings, 3)
	assert.Equal(t, BookRating{Username: "bob", Rating: 5}, d.Ratings[0])
	assert.Equal(t, BookRating{Username: "amy", Rating: 3}, d.Ratings[1])
	assert.Equal(t, BookRating{Username: "zed", Rating: 3}, d.Ratings[2])
}

func TestDetailNotFound(t *testing.T) {
	s := tempService(t)

	_, err := s.Detail(42)
	assert.ErrorIs(t, err, ErrBookNotFound)
}
