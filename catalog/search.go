package catalog

import (
	"fmt"
	"time"

	"booksly/errs"
	"booksly/store"
)

// Field selects which book attribute a search term matches against.
type Field int

const (
	FieldTitle Field = iota
	FieldReleaseDate
	FieldAuthor
	FieldPublisher
	FieldGenre
)

// SortKey selects the search result ordering.
type SortKey int

const (
	SortTitle SortKey = iota
	SortReleaseYear
	SortPublisher
	SortGenre
)

// Direction is the sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// The query text is assembled only from these fixed templates, keyed by the
// closed enumerations above. User input is always bound as a parameter.
var fieldWhere = map[Field]string{
	FieldTitle:       `b.title = ?`,
	FieldReleaseDate: `date(b.release_date) = ?`,
	FieldAuthor: `b.book_id IN (
        SELECT ba.book_id FROM book_author ba
        JOIN contributor c ON c.contributor_id = ba.author_id
        WHERE c.name = ?)`,
	FieldPublisher: `b.book_id IN (
        SELECT bp.book_id FROM book_publisher bp
        JOIN contributor c ON c.contributor_id = bp.publisher_id
        WHERE c.name = ?)`,
	FieldGenre: `b.book_id IN (
        SELECT bg.book_id FROM book_genre bg
        JOIN genre g ON g.genre_id = bg.genre_id
        WHERE g.name = ?)`,
}

// For multi-valued sort keys the sort value is the book's alphabetically
// first publisher/genre name. A book with several publishers or genres sorts
// by only one of them; the resulting order is not total across such books.
var sortExpr = map[SortKey]string{
	SortTitle:       `b.title`,
	SortReleaseYear: `CAST(strftime('%Y', b.release_date) AS INTEGER)`,
	SortPublisher: `(SELECT c.name FROM contributor c
        JOIN book_publisher bp ON bp.publisher_id = c.contributor_id
        WHERE bp.book_id = b.book_id
        ORDER BY c.name LIMIT 1)`,
	SortGenre: `(SELECT g.name FROM genre g
        JOIN book_genre bg ON bg.genre_id = g.genre_id
        WHERE bg.book_id = b.book_id
        ORDER BY g.name LIMIT 1)`,
}

var dirSQL = map[Direction]string{
	Asc:  "ASC",
	Desc: "DESC",
}

// ParseField maps the user-facing field name to its enumeration value.
func ParseField(name string) (Field, error) {
	switch name {
	case "title":
		return FieldTitle, nil
	case "release date":
		return FieldReleaseDate, nil
	case "author":
		return FieldAuthor, nil
	case "publisher":
		return FieldPublisher, nil
	case "genre":
		return FieldGenre, nil
	}
	return 0, errs.Validation(fmt.Sprintf("invalid field name %q", name))
}

// ParseSortKey maps the user-facing sort key to its enumeration value. An
// empty name selects the default title ordering.
func ParseSortKey(name string) (SortKey, error) {
	switch name {
	case "", "title":
		return SortTitle, nil
	case "release year":
		return SortReleaseYear, nil
	case "publisher":
		return SortPublisher, nil
	case "genre":
		return SortGenre, nil
	}
	return 0, errs.Validation(fmt.Sprintf("invalid sort key %q", name))
}

// ParseDirection maps "asc"/"desc" to a Direction, defaulting to ascending.
func ParseDirection(name string) (Direction, error) {
	switch name {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return 0, errs.Validation(fmt.Sprintf("invalid ordering %q", name))
}

// Search returns the ids of books whose field equals term, ordered by the
// given sort key and direction. Release-date terms must parse as YYYY-MM-DD.
func (s *Service) Search(field Field, term string, key SortKey, dir Direction) ([]int64, error) {
	where, ok := fieldWhere[field]
	if !ok {
		return nil, errs.Validation("invalid search field")
	}
	orderBy, ok := sortExpr[key]
	if !ok {
		return nil, errs.Validation("invalid sort key")
	}
	direction, ok := dirSQL[dir]
	if !ok {
		return nil, errs.Validation("invalid sort direction")
	}

	if field == FieldReleaseDate {
		parsed, err := time.Parse("2006-01-02", term)
		if err != nil {
			return nil, errs.Validation("release date must be of the form YYYY-MM-DD")
		}
		term = parsed.Format("2006-01-02")
	}

	query := `SELECT b.book_id FROM book b WHERE ` + where +
		` ORDER BY ` + orderBy + ` ` + direction

	rows, err := s.st.Query(query, term)
	if err != nil {
		return nil, store.Fail(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, store.Fail(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Fail(err)
	}
	return ids, nil
}
