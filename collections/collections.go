// Package collections manages named per-user book groupings.
package collections

import (
	"database/sql"
	"errors"

	"booksly/catalog"
	"booksly/errs"
	"booksly/store"
)

var (
	// ErrCollectionNotFound is returned when a referenced collection does not exist.
	ErrCollectionNotFound = errs.NotFound("no collection found with that id")
	// ErrNotOwner is returned when a user acts on another user's collection.
	ErrNotOwner = errs.Permission("that collection belongs to another user")
	// ErrBookInCollection is returned when adding a book that is already a member.
	ErrBookInCollection = errs.Conflict("that book is already in the collection")
	// ErrBookNotInCollection is returned when removing a book that is not a member.
	ErrBookNotInCollection = errs.NotFound("that book is not in the collection")
)

// Summary is one row of a user's collection listing.
type Summary struct {
	ID         int64
	Name       string
	BookCount  int
	TotalPages int64
}

// Service manages collections against the shared store; book existence is
// checked through the catalog.
type Service struct {
	st  *store.Store
	cat *catalog.Service
}

func New(st *store.Store, cat *catalog.Service) *Service {
	return &Service{st: st, cat: cat}
}

// Create makes a new collection for owner. Duplicate names are allowed.
func (s *Service) Create(ownerID int64, name string) (int64, error) {
	res, err := s.st.Exec(`
        INSERT INTO collection (user_id, name) VALUES (?, ?)`, ownerID, name)
	if err != nil {
		return 0, store.Fail(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, store.Fail(err)
	}
	return id, nil
}

// ownedBy distinguishes a missing collection from someone else's.
func (s *Service) ownedBy(ownerID, collectionID int64) error {
	var owner int64
	err := s.st.QueryRow(`
        SELECT user_id FROM collection WHERE collection_id = ?`, collectionID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCollectionNotFound
	}
	if err != nil {
		return store.Fail(err)
	}
	if owner != ownerID {
		return ErrNotOwner
	}
	return nil
}

// Rename changes the collection's name.
func (s *Service) Rename(ownerID, collectionID int64, name string) error {
	if err := s.ownedBy(ownerID, collectionID); err != nil {
		return err
	}

	_, err := s.st.Exec(`
        UPDATE collection SET name = ? WHERE collection_id = ?`, name, collectionID)
	if err != nil {
		return store.Fail(err)
	}
	return nil
}

// Delete removes the collection; membership rows go with it via the cascade.
func (s *Service) Delete(ownerID, collectionID int64) error {
	if err := s.ownedBy(ownerID, collectionID); err != nil {
		return err
	}

	_, err := s.st.Exec(`
        DELETE FROM collection WHERE collection_id = ?`, collectionID)
	if err != nil {
		return store.Fail(err)
	}
	return nil
}

// AddBook puts a book into the owner's collection.
func (s *Service) AddBook(ownerID, collectionID, bookID int64) error {
	if err := s.ownedBy(ownerID, collectionID); err != nil {
		return err
	}

	exists, err := s.cat.Exists(bookID)
	if err != nil {
		return err
	}
	if !exists {
		return catalog.ErrBookNotFound
	}

	_, err = s.st.Exec(`
        INSERT INTO collection_book (collection_id, book_id) VALUES (?, ?)`,
		collectionID, bookID)
	if store.IsUniqueViolation(err) {
		return ErrBookInCollection
	}
	if err != nil {
		return store.Fail(err)
	}
	return nil
}

// RemoveBook takes a book out of the owner's collection.
func (s *Service) RemoveBook(ownerID, collectionID, bookID int64) error {
	if err := s.ownedBy(ownerID, collectionID); err != nil {
		return err
	}

	exists, err := s.cat.Exists(bookID)
	if err != nil {
		return err
	}
	if !exists {
		return catalog.ErrBookNotFound
	}

	res, err := s.st.Exec(`
        DELETE FROM collection_book WHERE collection_id = ? AND book_id = ?`,
		collectionID, bookID)
	if err != nil {
		return store.Fail(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return store.Fail(err)
	}
	if n == 0 {
		return ErrBookNotInCollection
	}
	return nil
}

// List returns the owner's collections ordered by name, each with its book
// count and total page count. The left joins keep empty collections in the
// result with zero counts.
func (s *Service) List(ownerID int64) ([]Summary, error) {
	rows, err := s.st.Query(`
        SELECT c.collection_id, c.name, COUNT(cb.book_id), COALESCE(SUM(b.length), 0)
        FROM collection c
        LEFT JOIN collection_book cb ON c.collection_id = cb.collection_id
        LEFT JOIN book b ON cb.book_id = b.book_id
        WHERE c.user_id = ?
        GROUP BY c.collection_id, c.name
        ORDER BY c.name`, ownerID)
	if err != nil {
		return nil, store.Fail(err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.BookCount, &sum.TotalPages); err != nil {
			return nil, store.Fail(err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Fail(err)
	}
	return out, nil
}

// Count returns how many collections the owner has.
func (s *Service) Count(ownerID int64) (int, error) {
	var n int
	err := s.st.QueryRow(`SELECT COUNT(*) FROM collection WHERE user_id = ?`, ownerID).Scan(&n)
	if err != nil {
		return 0, store.Fail(err)
	}
	return n, nil
}
