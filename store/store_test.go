package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booksly/errs"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenCreatesSchema(t *testing.T) {
	st := tempStore(t)

	for _, table := range []string{
		"users", "credentials", "user_access", "book", "contributor",
		"book_author", "book_publisher", "genre", "book_genre",
		"rating", "session", "follows", "collection", "collection_book",
	} {
		var name string
		err := st.QueryRow(`
            SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	st, err := Open(path, 0)
	require.NoError(t, err)

	_, err = st.Exec(`
        INSERT INTO users (username, email, first_name, last_name, creation_date, last_access_date)
        VALUES ('ada', 'ada@example.com', 'Ada', 'Alder', '2024-01-01 00:00:00', '2024-01-01 00:00:00')`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	// Reopening must not re-run migrations destructively.
	st, err = Open(path, 0)
	require.NoError(t, err)
	defer st.Close()

	var n int
	require.NoError(t, st.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestIsUniqueViolation(t *testing.T) {
	st := tempStore(t)

	_, err := st.Exec(`
        INSERT INTO users (username, email, first_name, last_name, creation_date, last_access_date)
        VALUES ('ada', 'ada@example.com', 'Ada', 'Alder', '2024-01-01 00:00:00', '2024-01-01 00:00:00')`)
	require.NoError(t, err)

	_, err = st.Exec(`
        INSERT INTO users (username, email, first_name, last_name, creation_date, last_access_date)
        VALUES ('ada', 'other@example.com', 'Ada', 'Alder', '2024-01-01 00:00:00', '2024-01-01 00:00:00')`)
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	// A CHECK violation is not a unique violation.
	_, err = st.Exec(`
        INSERT INTO book (title, audience, release_date, length)
        VALUES ('Bad', 'adult', '2024-01-01', 0)`)
	require.Error(t, err)
	assert.False(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(nil))
}

func TestForeignKeysEnforced(t *testing.T) {
	st := tempStore(t)

	_, err := st.Exec(`
        INSERT INTO rating (user_id, book_id, rating) VALUES (999, 999, 3)`)
	assert.Error(t, err)
}

func TestFail(t *testing.T) {
	domain := errs.NotFound("missing thing")
	assert.Equal(t, domain, Fail(domain))

	wrapped := Fail(assert.AnError)
	assert.True(t, errs.Is(wrapped, errs.ErrUnavailable))
	assert.ErrorIs(t, wrapped, assert.AnError)
}
