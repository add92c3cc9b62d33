package store

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            user_id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            creation_date DATETIME NOT NULL,
            last_access_date DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS credentials (
            user_id INTEGER PRIMARY KEY REFERENCES users(user_id),
            password_hash TEXT NOT NULL,
            password_salt TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS user_access (
            access_id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL REFERENCES users(user_id),
            access_time DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS book (
            book_id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            audience TEXT NOT NULL,
            release_date DATE NOT NULL,
            length INTEGER NOT NULL CHECK (length >= 1)
        );`,
		`CREATE TABLE IF NOT EXISTS contributor (
            contributor_id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS book_author (
            book_id INTEGER NOT NULL REFERENCES book(book_id),
            author_id INTEGER NOT NULL REFERENCES contributor(contributor_id),
            PRIMARY KEY (book_id, author_id)
        );`,
		`CREATE TABLE IF NOT EXISTS book_publisher (
            book_id INTEGER NOT NULL REFERENCES book(book_id),
            publisher_id INTEGER NOT NULL REFERENCES contributor(contributor_id),
            PRIMARY KEY (book_id, publisher_id)
        );`,
		`CREATE TABLE IF NOT EXISTS genre (
            genre_id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL UNIQUE
        );`,
		`CREATE TABLE IF NOT EXISTS book_genre (
            book_id INTEGER NOT NULL REFERENCES book(book_id),
            genre_id INTEGER NOT NULL REFERENCES genre(genre_id),
            PRIMARY KEY (book_id, genre_id)
        );`,
		`CREATE TABLE IF NOT EXISTS rating (
            user_id INTEGER NOT NULL REFERENCES users(user_id),
            book_id INTEGER NOT NULL REFERENCES book(book_id),
            rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
            PRIMARY KEY (user_id, book_id)
        );`,
		`CREATE TABLE IF NOT EXISTS session (
            session_id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL REFERENCES users(user_id),
            book_id INTEGER NOT NULL REFERENCES book(book_id),
            start_page INTEGER NOT NULL,
            end_page INTEGER NOT NULL,
            start_time DATETIME NOT NULL,
            end_time DATETIME NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS follows (
            follower_id INTEGER NOT NULL REFERENCES users(user_id),
            followee_id INTEGER NOT NULL REFERENCES users(user_id),
            PRIMARY KEY (follower_id, followee_id)
        );`,
		`CREATE TABLE IF NOT EXISTS collection (
            collection_id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL REFERENCES users(user_id),
            name TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS collection_book (
            collection_id INTEGER NOT NULL REFERENCES collection(collection_id) ON DELETE CASCADE,
            book_id INTEGER NOT NULL REFERENCES book(book_id),
            PRIMARY KEY (collection_id, book_id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_session_user ON session(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_session_book_start ON session(book_id, start_time);`,
		`CREATE INDEX IF NOT EXISTS idx_rating_book ON rating(book_id);`,
		`CREATE INDEX IF NOT EXISTS idx_follows_followee ON follows(followee_id);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}
