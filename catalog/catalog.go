// Package catalog provides book, contributor, and genre lookups plus the
// dynamic book search.
package catalog

import (
	"database/sql"
	"errors"
	"time"

	"booksly/errs"
	"booksly/store"
)

// ErrBookNotFound is returned when a referenced book does not exist.
var ErrBookNotFound = errs.NotFound("no book found with that id")

// Service answers catalog queries against the shared store.
type Service struct {
	st *store.Store
}

func New(st *store.Store) *Service {
	return &Service{st: st}
}

// Exists reports whether a book with the given id exists.
func (s *Service) Exists(bookID int64) (bool, error) {
	var exists bool
	err := s.st.QueryRow(`SELECT EXISTS(SELECT 1 FROM book WHERE book_id = ?)`, bookID).Scan(&exists)
	if err != nil {
		return false, store.Fail(err)
	}
	return exists, nil
}

// Length returns the book's length in pages.
func (s *Service) Length(bookID int64) (int, error) {
	var length int
	err := s.st.QueryRow(`SELECT length FROM book WHERE book_id = ?`, bookID).Scan(&length)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrBookNotFound
	}
	if err != nil {
		return 0, store.Fail(err)
	}
	return length, nil
}

// RandomID returns the id of a uniformly random existing book.
func (s *Service) RandomID() (int64, error) {
	var id int64
	err := s.st.QueryRow(`SELECT book_id FROM book ORDER BY RANDOM() LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrBookNotFound
	}
	if err != nil {
		return 0, store.Fail(err)
	}
	return id, nil
}

// BookRating is one user's rating of a book.
type BookRating struct {
	Username string
	Rating   int
}

// Detail is the full display record for a book.
type Detail struct {
	ID         int64
	Title      string
	Length     int
	Audience   string
	Release    time.Time
	Authors    []string
	Publishers []string
	Ratings    []BookRating
}

// Detail returns the book's display record: authors and publishers sorted by
// name, ratings by rating descending then username.
func (s *Service) Detail(bookID int64) (*Detail, error) {
	d := &Detail{ID: bookID}

	err := s.st.QueryRow(
		`SELECT title, length, audience, release_date FROM book WHERE book_id = ?`, bookID,
	).Scan(&d.Title, &d.Length, &d.Audience, &d.Release)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, store.Fail(err)
	}

	d.Authors, err = s.contributorNames(`
        SELECT c.name FROM contributor c
        JOIN book_author ba ON ba.author_id = c.contributor_id
        WHERE ba.book_id = ?
        ORDER BY c.name`, bookID)
	if err != nil {
		return nil, err
	}

	d.Publishers, err = s.contributorNames(`
        SELECT c.name FROM contributor c
        JOIN book_publisher bp ON bp.publisher_id = c.contributor_id
        WHERE bp.book_id = ?
        ORDER BY c.name`, bookID)
	if err != nil {
		return nil, err
	}

	rows, err := s.st.Query(`
        SELECT u.username, r.rating FROM rating r
        JOIN users u ON u.user_id = r.user_id
        WHERE r.book_id = ?
        ORDER BY r.rating DESC, u.username ASC`, bookID)
	if err != nil {
		return nil, store.Fail(err)
	}
	defer rows.Close()

	for rows.Next() {
		var br BookRating
		if err := rows.Scan(&br.Username, &br.Rating); err != nil {
			return nil, store.Fail(err)
		}
		d.Ratings = append(d.Ratings, br)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Fail(err)
	}

	return d, nil
}

func (s *Service) contributorNames(query string, bookID int64) ([]string, error) {
	rows, err := s.st.Query(query, bookID)
	if err != nil {
		return nil, store.Fail(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, store.Fail(err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Fail(err)
	}
	return names, nil
}
