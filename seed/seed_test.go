package seed

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booksly/store"
)

func TestLoadFillsEveryTable(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	opts := Options{
		Users:        10,
		Contributors: 8,
		Genres:       5,
		Books:        12,
		Ratings:      30,
		Sessions:     30,
		Follows:      20,
		Accesses:     15,
	}
	require.NoError(t, New(st, log).Load(opts))

	counts := map[string]int{}
	for _, table := range []string{
		"users", "credentials", "contributor", "genre", "book",
		"book_author", "book_publisher", "book_genre",
		"rating", "session", "follows", "user_access",
	} {
		var n int
		require.NoError(t, st.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
		counts[table] = n
	}

	assert.Equal(t, opts.Users, counts["users"])
	assert.Equal(t, opts.Users, counts["credentials"])
	assert.Equal(t, opts.Contributors, counts["contributor"])
	assert.Equal(t, opts.Genres, counts["genre"])
	assert.Equal(t, opts.Books, counts["book"])
	assert.Equal(t, opts.Sessions, counts["session"])
	assert.Equal(t, opts.Accesses, counts["user_access"])

	// Random pairs can collide and get ignored, so these are upper bounds.
	assert.Greater(t, counts["rating"], 0)
	assert.LessOrEqual(t, counts["rating"], opts.Ratings)
	assert.Greater(t, counts["follows"], 0)
	assert.LessOrEqual(t, counts["follows"], opts.Follows)
	assert.GreaterOrEqual(t, counts["book_author"], opts.Books)
	assert.Equal(t, opts.Books, counts["book_publisher"])
	assert.GreaterOrEqual(t, counts["book_genre"], opts.Books)
}

func TestLoadedSessionsRespectBookLength(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	opts := DefaultOptions()
	opts.Users = 5
	opts.Books = 10
	opts.Sessions = 50
	require.NoError(t, New(st, log).Load(opts))

	var bad int
	require.NoError(t, st.QueryRow(`
        SELECT COUNT(*) FROM session s JOIN book b ON b.book_id = s.book_id
        WHERE s.start_page < 1 OR s.end_page < s.start_page OR s.end_page > b.length`).Scan(&bad))
	assert.Zero(t, bad)
}
