// Package seed fills a store with synthetic users, books, and engagement
// history for demos and load experiments.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"booksly/credentials"
	"booksly/store"
)

// Options sets how many rows of each kind to generate.
type Options struct {
	Users        int
	Contributors int
	Genres       int
	Books        int
	Ratings      int
	Sessions     int
	Follows      int
	Accesses     int
}

// DefaultOptions is small enough to seed a throwaway database quickly.
func DefaultOptions() Options {
	return Options{
		Users:        50,
		Contributors: 40,
		Genres:       12,
		Books:        80,
		Ratings:      300,
		Sessions:     400,
		Follows:      150,
		Accesses:     200,
	}
}

// Loader writes synthetic rows through the shared store handle.
type Loader struct {
	st  *store.Store
	log *logrus.Logger
	rng *rand.Rand
}

func New(st *store.Store, log *logrus.Logger) *Loader {
	return &Loader{
		st:  st,
		log: log,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

var firstNames = []string{
	"Ada", "Ben", "Clara", "Dmitri", "Elena", "Felix", "Grace", "Hugo",
	"Iris", "Jonas", "Kira", "Leo", "Mara", "Nils", "Opal", "Piotr",
	"Quinn", "Rosa", "Sven", "Tara",
}

var lastNames = []string{
	"Alder", "Brook", "Carver", "Dunn", "Ellis", "Finch", "Grove", "Hale",
	"Ingram", "Joyce", "Keller", "Lowell", "Mercer", "North", "Orr",
	"Prior", "Quill", "Rhodes", "Stone", "Thorne",
}

var genreNames = []string{
	"Fantasy", "Science Fiction", "Mystery", "Romance", "Horror",
	"Biography", "History", "Poetry", "Travel", "Philosophy",
	"Adventure", "Satire", "Drama", "Essays", "Folklore",
}

var titleAdjectives = []string{
	"Silent", "Crimson", "Forgotten", "Endless", "Hollow", "Golden",
	"Distant", "Burning", "Quiet", "Broken",
}

var titleNouns = []string{
	"Harbor", "Garden", "Mountain", "Letter", "Winter", "River",
	"Archive", "Voyage", "Orchard", "Lantern",
}

var audiences = []string{"children", "young adult", "adult"}

// Load seeds every table. Uniquely-keyed inserts generate a candidate value
// and retry with a fresh one on a UNIQUE violation, instead of pre-querying
// for availability, so concurrent loaders over the same key space don't race.
func (l *Loader) Load(opts Options) error {
	steps := []struct {
		name string
		run  func(Options) error
	}{
		{"users", l.loadUsers},
		{"contributors", l.loadContributors},
		{"genres", l.loadGenres},
		{"books", l.loadBooks},
		{"ratings", l.loadRatings},
		{"sessions", l.loadSessions},
		{"follows", l.loadFollows},
		{"accesses", l.loadAccesses},
	}

	for _, step := range steps {
		if err := step.run(opts); err != nil {
			return fmt.Errorf("seed %s: %w", step.name, err)
		}
		l.log.WithField("step", step.name).Debug("seeded")
	}
	return nil
}

const maxKeyAttempts = 25

func (l *Loader) loadUsers(opts Options) error {
	for i := 0; i < opts.Users; i++ {
		created := l.randomTime(2020, 2024)

		var lastErr error
		for attempt := 0; attempt < maxKeyAttempts; attempt++ {
			first := firstNames[l.rng.Intn(len(firstNames))]
			last := lastNames[l.rng.Intn(len(lastNames))]
			suffix := l.rng.Intn(10000)
			username := fmt.Sprintf("%s%s%d", first, last, suffix)
			email := fmt.Sprintf("%s.%s.%d@example.com", first, last, suffix)

			salt := credentials.GenerateSalt()
			hash := credentials.Hash("pass_"+username, salt)

			err := l.insertUser(username, email, first, last, hash, salt, created)
			if err == nil {
				lastErr = nil
				break
			}
			if !store.IsUniqueViolation(err) {
				return err
			}
			// Key collision: try again with a fresh candidate.
			lastErr = err
		}
		if lastErr != nil {
			return lastErr
		}
	}
	return nil
}

func (l *Loader) insertUser(username, email, first, last, hash, salt string, created time.Time) error {
	tx, err := l.st.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
        INSERT INTO users (username, email, first_name, last_name, creation_date, last_access_date)
        VALUES (?, ?, ?, ?, ?, ?)`,
		username, email, first, last, created, created)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`
        INSERT INTO credentials (user_id, password_hash, password_salt)
        VALUES (?, ?, ?)`, id, hash, salt); err != nil {
		return err
	}

	return tx.Commit()
}

func (l *Loader) loadContributors(opts Options) error {
	for i := 0; i < opts.Contributors; i++ {
		name := fmt.Sprintf("%s %s",
			firstNames[l.rng.Intn(len(firstNames))],
			lastNames[l.rng.Intn(len(lastNames))])
		if _, err := l.st.Exec(`INSERT INTO contributor (name) VALUES (?)`, name); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadGenres(opts Options) error {
	n := opts.Genres
	if n > len(genreNames) {
		n = len(genreNames)
	}
	for _, name := range genreNames[:n] {
		if _, err := l.st.Exec(`INSERT OR IGNORE INTO genre (name) VALUES (?)`, name); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadBooks(opts Options) error {
	contributors, err := l.ids(`SELECT contributor_id FROM contributor`)
	if err != nil {
		return err
	}
	genres, err := l.ids(`SELECT genre_id FROM genre`)
	if err != nil {
		return err
	}
	if len(contributors) == 0 || len(genres) == 0 {
		return fmt.Errorf("books need contributors and genres seeded first")
	}

	for i := 0; i < opts.Books; i++ {
		title := fmt.Sprintf("The %s %s",
			titleAdjectives[l.rng.Intn(len(titleAdjectives))],
			titleNouns[l.rng.Intn(len(titleNouns))])
		audience := audiences[l.rng.Intn(len(audiences))]
		release := l.randomTime(2015, 2024)
		length := 50 + l.rng.Intn(1150)

		res, err := l.st.Exec(`
            INSERT INTO book (title, audience, release_date, length)
            VALUES (?, ?, ?, ?)`, title, audience, release, length)
		if err != nil {
			return err
		}
		bookID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		for a := 0; a < 1+l.rng.Intn(2); a++ {
			if _, err := l.st.Exec(`
                INSERT OR IGNORE INTO book_author (book_id, author_id) VALUES (?, ?)`,
				bookID, l.pick(contributors)); err != nil {
				return err
			}
		}
		if _, err := l.st.Exec(`
            INSERT OR IGNORE INTO book_publisher (book_id, publisher_id) VALUES (?, ?)`,
			bookID, l.pick(contributors)); err != nil {
			return err
		}
		for g := 0; g < 1+l.rng.Intn(3); g++ {
			if _, err := l.st.Exec(`
                INSERT OR IGNORE INTO book_genre (book_id, genre_id) VALUES (?, ?)`,
				bookID, l.pick(genres)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Loader) loadRatings(opts Options) error {
	userIDs, bookIDs, err := l.usersAndBooks()
	if err != nil {
		return err
	}

	for i := 0; i < opts.Ratings; i++ {
		if _, err := l.st.Exec(`
            INSERT OR IGNORE INTO rating (user_id, book_id, rating) VALUES (?, ?, ?)`,
			l.pick(userIDs), l.pick(bookIDs), 1+l.rng.Intn(5)); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadSessions(opts Options) error {
	userIDs, bookIDs, err := l.usersAndBooks()
	if err != nil {
		return err
	}

	for i := 0; i < opts.Sessions; i++ {
		bookID := l.pick(bookIDs)

		var length int
		if err := l.st.QueryRow(`SELECT length FROM book WHERE book_id = ?`, bookID).Scan(&length); err != nil {
			return err
		}

		startPage := 1 + l.rng.Intn(length)
		endPage := startPage + l.rng.Intn(length-startPage+1)
		start := l.randomTime(2024, 2025)
		end := start.Add(time.Duration(10+l.rng.Intn(200)) * time.Minute)

		if _, err := l.st.Exec(`
            INSERT INTO session (user_id, book_id, start_page, end_page, start_time, end_time)
            VALUES (?, ?, ?, ?, ?, ?)`,
			l.pick(userIDs), bookID, startPage, endPage, start, end); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadFollows(opts Options) error {
	userIDs, err := l.ids(`SELECT user_id FROM users`)
	if err != nil {
		return err
	}
	if len(userIDs) < 2 {
		return nil
	}

	for i := 0; i < opts.Follows; i++ {
		follower := l.pick(userIDs)
		followee := l.pick(userIDs)
		if follower == followee {
			continue
		}
		if _, err := l.st.Exec(`
            INSERT OR IGNORE INTO follows (follower_id, followee_id) VALUES (?, ?)`,
			follower, followee); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadAccesses(opts Options) error {
	userIDs, err := l.ids(`SELECT user_id FROM users`)
	if err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}

	for i := 0; i < opts.Accesses; i++ {
		if _, err := l.st.Exec(`
            INSERT INTO user_access (user_id, access_time) VALUES (?, ?)`,
			l.pick(userIDs), l.randomTime(2024, 2025)); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) usersAndBooks() ([]int64, []int64, error) {
	userIDs, err := l.ids(`SELECT user_id FROM users`)
	if err != nil {
		return nil, nil, err
	}
	bookIDs, err := l.ids(`SELECT book_id FROM book`)
	if err != nil {
		return nil, nil, err
	}
	if len(userIDs) == 0 || len(bookIDs) == 0 {
		return nil, nil, fmt.Errorf("engagement rows need users and books seeded first")
	}
	return userIDs, bookIDs, nil
}

func (l *Loader) ids(query string) ([]int64, error) {
	rows, err := l.st.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (l *Loader) pick(ids []int64) int64 {
	return ids[l.rng.Intn(len(ids))]
}

func (l *Loader) randomTime(startYear, endYear int) time.Time {
	start := time.Date(startYear, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear, 12, 31, 23, 59, 59, 0, time.UTC)
	span := end.Unix() - start.Unix()
	return time.Unix(start.Unix()+l.rng.Int63n(span), 0).UTC()
}
