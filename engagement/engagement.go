// Package engagement records ratings and reading sessions.
package engagement

import (
	"math/rand"
	"time"

	"booksly/catalog"
	"booksly/errs"
	"booksly/store"
)

var (
	// ErrRatingRange is returned for a rating outside 1..5.
	ErrRatingRange = errs.Validation("rating must be between 1 and 5, inclusive")
	// ErrDuplicateRating is returned when the user has already rated the book.
	ErrDuplicateRating = errs.Conflict("you have already rated that book")
	// ErrRatingNotFound is returned when updating a rating that doesn't exist.
	ErrRatingNotFound = errs.NotFound("you have not rated that book")

	// ErrInvalidStartPage is returned when a session starts before page 1.
	ErrInvalidStartPage = errs.Validation("start page must be at least 1")
	// ErrInvalidPageRange is returned when the end page precedes the start page.
	ErrInvalidPageRange = errs.Validation("end page must be at least start page")
	// ErrInvalidTimeRange is returned when the end time precedes the start time.
	ErrInvalidTimeRange = errs.Validation("end time must be at least start time")
	// ErrInvalidEndPage is returned when the end page exceeds the book length.
	ErrInvalidEndPage = errs.Validation("the end page is at most the length of the book")
)

// Service records engagement facts. Book existence and length checks go
// through the catalog.
type Service struct {
	st  *store.Store
	cat *catalog.Service
}

func New(st *store.Store, cat *catalog.Service) *Service {
	return &Service{st: st, cat: cat}
}

// HasRated reports whether the user has rated the book.
func (s *Service) HasRated(userID, bookID int64) (bool, error) {
	var rated bool
	err := s.st.QueryRow(`
        SELECT EXISTS(SELECT 1 FROM rating WHERE user_id = ? AND book_id = ?)`,
		userID, bookID).Scan(&rated)
	if err != nil {
		return false, store.Fail(err)
	}
	return rated, nil
}

// Rate inserts the user's first rating of a book. A re-rate surfaces as
// ErrDuplicateRating from the (user, book) constraint; callers route those to
// UpdateRating.
func (s *Service) Rate(userID, bookID int64, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrRatingRange
	}

	exists, err := s.cat.Exists(bookID)
	if err != nil {
		return err
	}
	if !exists {
		return catalog.ErrBookNotFound
	}

	_, err = s.st.Exec(`
        INSERT INTO rating (user_id, book_id, rating) VALUES (?, ?, ?)`,
		userID, bookID, rating)
	if store.IsUniqueViolation(err) {
		return ErrDuplicateRating
	}
	if err != nil {
		return store.Fail(err)
	}
	return nil
}

// UpdateRating changes an existing rating in place; the row count tells us
// whether there was one.
func (s *Service) UpdateRating(userID, bookID int64, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrRatingRange
	}

	res, err := s.st.Exec(`
        UPDATE rating SET rating = ? WHERE user_id = ? AND book_id = ?`,
		rating, userID, bookID)
	if err != nil {
		return store.Fail(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return store.Fail(err)
	}
	if n == 0 {
		return ErrRatingNotFound
	}
	return nil
}

// RecordSession appends a reading session. The checks run in a fixed order --
// start page, page range, time range, book existence, end page against the
// book length -- and fail on the first violation, so callers get
// deterministic errors.
func (s *Service) RecordSession(userID, bookID int64, startPage, endPage int, startTime, endTime time.Time) error {
	if startPage < 1 {
		return ErrInvalidStartPage
	}
	if startPage > endPage {
		return ErrInvalidPageRange
	}
	if endTime.Before(startTime) {
		return ErrInvalidTimeRange
	}

	length, err := s.cat.Length(bookID)
	if err != nil {
		return err
	}
	if endPage > length {
		return ErrInvalidEndPage
	}

	_, err = s.st.Exec(`
        INSERT INTO session (user_id, book_id, start_page, end_page, start_time, end_time)
        VALUES (?, ?, ?, ?, ?, ?)`,
		userID, bookID, startPage, endPage, startTime.UTC(), endTime.UTC())
	if err != nil {
		return store.Fail(err)
	}
	return nil
}

// RecordRandomSession logs a session for a uniformly random book over a
// random page span within its length.
func (s *Service) RecordRandomSession(userID int64, startTime, endTime time.Time) (int64, error) {
	bookID, err := s.cat.RandomID()
	if err != nil {
		return 0, err
	}

	length, err := s.cat.Length(bookID)
	if err != nil {
		return 0, err
	}

	startPage := 1 + rand.Intn(length)
	endPage := startPage + rand.Intn(length-startPage+1)

	if err := s.RecordSession(userID, bookID, startPage, endPage, startTime, endTime); err != nil {
		return 0, err
	}
	return bookID, nil
}
