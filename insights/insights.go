// Package insights computes the read-only rankings: new releases, popular
// books, follower-scoped popularity, and recommendations. It only composes
// over facts the other components store.
package insights

import (
	"time"

	"booksly/store"
)

const (
	topReleasesLimit = 5
	popularLimit     = 20
	popularWindow    = 90 * 24 * time.Hour

	// Minimum average rating for a recommendation candidate. A design
	// constant, not configuration.
	recommendThreshold = 4.5
)

// Engine answers ranking queries. The clock is a field so date-windowed
// queries are testable.
type Engine struct {
	st  *store.Store
	now func() time.Time
}

func New(st *store.Store) *Engine {
	return &Engine{st: st, now: time.Now}
}

// TopReleases returns the five best-rated books released in the current
// month, by average rating. Books without ratings don't participate in the
// join and are excluded; ties fall back to store order.
func (e *Engine) TopReleases() ([]string, error) {
	now := e.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	return e.titles(`
        SELECT b.title
        FROM book b JOIN rating r ON r.book_id = b.book_id
        WHERE b.release_date >= ? AND b.release_date < ?
        GROUP BY b.book_id, b.title
        ORDER BY AVG(r.rating) DESC
        LIMIT ?`, monthStart, nextMonth, topReleasesLimit)
}

// PopularBooks returns the twenty books with the most reading sessions
// started in the last ninety days.
func (e *Engine) PopularBooks() ([]string, error) {
	since := e.now().UTC().Add(-popularWindow)

	return e.titles(`
        SELECT b.title
        FROM book b JOIN session s ON s.book_id = b.book_id
        WHERE s.start_time >= ?
        GROUP BY b.book_id, b.title
        ORDER BY COUNT(*) DESC
        LIMIT ?`, since, popularLimit)
}

// PopularAmongFollowers is PopularBooks restricted to sessions by the users
// the given user follows directly.
func (e *Engine) PopularAmongFollowers(userID int64) ([]string, error) {
	since := e.now().UTC().Add(-popularWindow)

	return e.titles(`
        SELECT b.title
        FROM book b JOIN session s ON s.book_id = b.book_id
        WHERE s.start_time >= ?
          AND s.user_id IN (SELECT followee_id FROM follows WHERE follower_id = ?)
        GROUP BY b.book_id, b.title
        ORDER BY COUNT(*) DESC
        LIMIT ?`, since, userID, popularLimit)
}

// Recommendation is a suggested title with its average rating over all raters.
type Recommendation struct {
	Title         string
	AverageRating float64
}

// Recommend suggests books that share an author or a genre with anything the
// user has a reading session for, keeping only candidates whose average
// rating reaches the threshold, best first. A user without session history
// has no candidates and gets an empty result.
func (e *Engine) Recommend(userID int64) ([]Recommendation, error) {
	rows, err := e.st.Query(`
        SELECT b.title, AVG(r.rating) AS avg_rating
        FROM book b JOIN rating r ON r.book_id = b.book_id
        WHERE b.book_id IN (
                SELECT ba.book_id FROM book_author ba
                WHERE ba.author_id IN (
                    SELECT ba2.author_id FROM book_author ba2
                    JOIN session s ON s.book_id = ba2.book_id
                    WHERE s.user_id = ?))
           OR b.book_id IN (
                SELECT bg.book_id FROM book_genre bg
                WHERE bg.genre_id IN (
                    SELECT bg2.genre_id FROM book_genre bg2
                    JOIN session s ON s.book_id = bg2.book_id
                    WHERE s.user_id = ?))
        GROUP BY b.book_id, b.title
        HAVING AVG(r.rating) >= ?
        ORDER BY avg_rating DESC`, userID, userID, recommendThreshold)
	if err != nil {
		return nil, store.Fail(err)
	}
	defer rows.Close()

	var out []Recommendation
	for rows.Next() {
		var rec Recommendation
		if err := rows.Scan(&rec.Title, &rec.AverageRating); err != nil {
			return nil, store.Fail(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Fail(err)
	}
	return out, nil
}

func (e *Engine) titles(query string, args ...any) ([]string, error) {
	rows, err := e.st.Query(query, args...)
	if err != nil {
		return nil, store.Fail(err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, store.Fail(err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Fail(err)
	}
	return titles, nil
}
