// Package users implements identity (signup, login, lookups) and the social
// follow graph.
package users

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"booksly/credentials"
	"booksly/errs"
	"booksly/store"
)

var (
	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errs.NotFound("no user found with that username")
	// ErrUserExists is returned when the username or email is already taken.
	ErrUserExists = errs.Conflict("username or email already taken")
	// ErrWrongPassword is returned when login verification fails.
	ErrWrongPassword = errs.InvalidCredentials("incorrect password")
)

// User is the identity record.
type User struct {
	ID             int64
	Username       string
	Email          string
	FirstName      string
	LastName       string
	CreationDate   time.Time
	LastAccessDate time.Time
}

// SignupRequest carries the fields required to create an account.
type SignupRequest struct {
	Username  string `validate:"required,max=64"`
	Password  string `validate:"required,max=128"`
	Email     string `validate:"required,email,max=254"`
	FirstName string `validate:"required,max=64"`
	LastName  string `validate:"required,max=64"`
}

// Service implements identity and social graph operations against the shared
// store.
type Service struct {
	st       *store.Store
	validate *validator.Validate
	now      func() time.Time
}

func New(st *store.Store) *Service {
	return &Service{
		st:       st,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Signup creates a user and their credential in one transaction and records
// the first access. Username/email collisions are reported by the store's
// unique constraints, which stay authoritative under concurrent signups.
func (s *Service) Signup(req SignupRequest) (*User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errs.Validation(err.Error())
	}

	salt := credentials.GenerateSalt()
	hash := credentials.Hash(req.Password, salt)
	now := s.now().UTC()

	tx, err := s.st.Begin()
	if err != nil {
		return nil, store.Fail(err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
        INSERT INTO users (username, email, first_name, last_name, creation_date, last_access_date)
        VALUES (?, ?, ?, ?, ?, ?)`,
		req.Username, req.Email, req.FirstName, req.LastName, now, now)
	if store.IsUniqueViolation(err) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, store.Fail(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, store.Fail(err)
	}

	if _, err := tx.Exec(`
        INSERT INTO credentials (user_id, password_hash, password_salt)
        VALUES (?, ?, ?)`, id, hash, salt); err != nil {
		return nil, store.Fail(err)
	}

	if _, err := tx.Exec(`
        INSERT INTO user_access (user_id, access_time) VALUES (?, ?)`, id, now); err != nil {
		return nil, store.Fail(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, store.Fail(err)
	}

	return &User{
		ID:             id,
		Username:       req.Username,
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		CreationDate:   now,
		LastAccessDate: now,
	}, nil
}

// Login verifies the password against the stored salted hash and, on success,
// updates the last-access timestamp and appends to the access log.
func (s *Service) Login(username, password string) (*User, error) {
	var (
		id         int64
		hash, salt string
	)
	err := s.st.QueryRow(`
        SELECT u.user_id, c.password_hash, c.password_salt
        FROM users u JOIN credentials c ON c.user_id = u.user_id
        WHERE u.username = ?`, username).Scan(&id, &hash, &salt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, store.Fail(err)
	}

	if !credentials.Verify(password, salt, hash) {
		return nil, ErrWrongPassword
	}

	if err := s.recordAccess(id); err != nil {
		return nil, err
	}

	return s.byID(id)
}

func (s *Service) recordAccess(userID int64) error {
	now := s.now().UTC()

	tx, err := s.st.Begin()
	if err != nil {
		return store.Fail(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
        INSERT INTO user_access (user_id, access_time) VALUES (?, ?)`, userID, now); err != nil {
		return store.Fail(err)
	}
	if _, err := tx.Exec(`
        UPDATE users SET last_access_date = ? WHERE user_id = ?`, now, userID); err != nil {
		return store.Fail(err)
	}

	return tx.Commit()
}

// Exists reports whether a user with the given username exists.
func (s *Service) Exists(username string) (bool, error) {
	var exists bool
	err := s.st.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists)
	if err != nil {
		return false, store.Fail(err)
	}
	return exists, nil
}

// ID resolves a username to its user id.
func (s *Service) ID(username string) (int64, error) {
	var id int64
	err := s.st.QueryRow(`SELECT user_id FROM users WHERE username = ?`, username).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, store.Fail(err)
	}
	return id, nil
}

// ByEmail looks a user up by their email address.
func (s *Service) ByEmail(email string) (*User, error) {
	var id int64
	err := s.st.QueryRow(`SELECT user_id FROM users WHERE email = ?`, email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("no user found with that email")
	}
	if err != nil {
		return nil, store.Fail(err)
	}
	return s.byID(id)
}

func (s *Service) byID(id int64) (*User, error) {
	u := &User{ID: id}
	err := s.st.QueryRow(`
        SELECT username, email, first_name, last_name, creation_date, last_access_date
        FROM users WHERE user_id = ?`, id).
		Scan(&u.Username, &u.Email, &u.FirstName, &u.LastName, &u.CreationDate, &u.LastAccessDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, store.Fail(err)
	}
	return u, nil
}

// UsernameTaken and EmailTaken support signup prompts that want to reject a
// value before asking for the rest of the form. The unique constraints remain
// the authoritative check.
func (s *Service) UsernameTaken(username string) (bool, error) {
	return s.Exists(username)
}

func (s *Service) EmailTaken(email string) (bool, error) {
	var taken bool
	err := s.st.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&taken)
	if err != nil {
		return false, store.Fail(err)
	}
	return taken, nil
}
