package catalog

import "time"

type Author struct {
	ID        int64
	Name      string
	BirthDate *time.Time
	Biography string
	Books     []Book
}

type Book struct {
	ID          int64
	Title       string
	Description string
	ReleaseDate *time.Time

	AuthorID   int64
	AuthorName string
}
