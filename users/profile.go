package users

import (
	"sort"

	"booksly/store"
)

// Profile is the header block of a user's profile view.
type Profile struct {
	Username    string
	Collections int
	Followers   int
	Following   int
}

// Profile returns the profile header for the given username.
func (s *Service) Profile(username string) (*Profile, error) {
	id, err := s.ID(username)
	if err != nil {
		return nil, err
	}

	p := &Profile{Username: username}

	if err := s.st.QueryRow(`SELECT COUNT(*) FROM collection WHERE user_id = ?`, id).Scan(&p.Collections); err != nil {
		return nil, store.Fail(err)
	}
	if p.Followers, err = s.FollowerCount(id); err != nil {
		return nil, err
	}
	if p.Following, err = s.FollowingCount(id); err != nil {
		return nil, err
	}

	return p, nil
}

// RatedBook is a title with the user's own rating.
type RatedBook struct {
	Title  string
	Rating int
}

// ReadBook is a title with the user's total recorded reading time.
type ReadBook struct {
	Title   string
	Seconds int64
}

// ProfileBook combines both profile orderings; a zero Rating or Seconds means
// the user has no rating or no session for the book.
type ProfileBook struct {
	Title   string
	Rating  int
	Seconds int64
}

// TopRated returns the user's ten highest-rated books.
func (s *Service) TopRated(userID int64) ([]RatedBook, error) {
	rows, err := s.st.Query(`
        SELECT b.title, r.rating
        FROM book b JOIN rating r ON r.book_id = b.book_id
        WHERE r.user_id = ?
        ORDER BY r.rating DESC, b.title
        LIMIT 10`, userID)
	if err != nil {
		return nil, store.Fail(err)
	}
	defer rows.Close()

	var out []RatedBook
	for rows.Next() {
		var rb RatedBook
		if err := rows.Scan(&rb.Title, &rb.Rating); err != nil {
			return nil, store.Fail(err)
		}
		out = append(out, rb)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Fail(err)
	}
	return out, nil
}

// TopRead returns the user's ten most-read books by total session time.
func (s *Service) TopRead(userID int64) ([]ReadBook, error) {
	rows, err := s.st.Query(`
        SELECT b.title,
               SUM(strftime('%s', s.end_time) - strftime('%s', s.start_time)) AS read_time
        FROM book b JOIN session s ON s.book_id = b.book_id
        WHERE s.user_id = ?
        GROUP BY b.book_id, b.title
        ORDER BY read_time DESC, b.title
        LIMIT 10`, userID)
	if err != nil {
		return nil, store.Fail(err)
	}
	defer rows.Close()

	var out []ReadBook
	for rows.Next() {
		var rb ReadBook
		if err := rows.Scan(&rb.Title, &rb.Seconds); err != nil {
			return nil, store.Fail(err)
		}
		out = append(out, rb)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Fail(err)
	}
	return out, nil
}

// TopBoth merges the rated and read listings into one top ten: by rating
// descending, then read time descending, then title, with missing values
// sorting last. SQLite has no full outer join, so the merge happens here.
func (s *Service) TopBoth(userID int64) ([]ProfileBook, error) {
	type entry struct {
		title   string
		rating  int
		seconds int64
	}
	byTitle := map[string]*entry{}

	rated, err := s.topRatedAll(userID)
	if err != nil {
		return nil, err
	}
	for _, rb := range rated {
		byTitle[rb.Title] = &entry{title: rb.Title, rating: rb.Rating}
	}

	read, err := s.topReadAll(userID)
	if err != nil {
		return nil, err
	}
	for _, rb := range read {
		if e, ok := byTitle[rb.Title]; ok {
			e.seconds = rb.Seconds
		} else {
			byTitle[rb.Title] = &entry{title: rb.Title, seconds: rb.Seconds}
		}
	}

	merged := make([]ProfileBook, 0, len(byTitle))
	for _, e := range byTitle {
		merged = append(merged, ProfileBook{Title: e.title, Rating: e.rating, Seconds: e.seconds})
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Rating != merged[j].Rating {
			return merged[i].Rating > merged[j].Rating
		}
		if merged[i].Seconds != merged[j].Seconds {
			return merged[i].Seconds > merged[j].Seconds
		}
		return merged[i].Title < merged[j].Title
	})

	if len(merged) > 10 {
		merged = merged[:10]
	}
	return merged, nil
}

func (s *Service) topRatedAll(userID int64) ([]RatedBook, error) {
	rows, err := s.st.Query(`
        SELECT b.title, r.rating
        FROM book b JOIN rating r ON r.book_id = b.book_id
        WHERE r.user_id = ?`, userID)
	if err != nil {
		return nil, store.Fail(err)
	}
	defer rows.Close()

	var out []RatedBook
	for rows.Next() {
		var rb RatedBook
		if err := rows.Scan(&rb.Title, &rb.Rating); err != nil {
			return nil, store.Fail(err)
		}
		out = append(out, rb)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Fail(err)
	}
	return out, nil
}

func (s *Service) topReadAll(userID int64) ([]ReadBook, error) {
	rows, err := s.st.Query(`
        SELECT b.title,
               SUM(strftime('%s', s.end_time) - strftime('%s', s.start_time))
        FROM book b JOIN session s ON s.book_id = b.book_id
        WHERE s.user_id = ?
        GROUP BY b.book_id, b.title`, userID)
	if err != nil {
		return nil, store.Fail(err)
	}
	defer rows.Close()

	var out []ReadBook
	for rows.Next() {
		var rb ReadBook
		if err := rows.Scan(&rb.Title, &rb.Seconds); err != nil {
			return nil, store.Fail(err)
		}
		out = append(out, rb)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Fail(err)
	}
	return out, nil
}
