package catalog

import (
	"context"
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("not found")

type Repository interface {
	ListAuthors(ctx context.Context) ([]Author, error)
	FindAuthorByID(ctx context.Context, id int64) (*Author, error)
	AddAuthor(ctx context.Context, a *Author) (int64, error)
	UpdateAuthor(ctx context.Context, a *Author) error
	DeleteAuthor(ctx context.Context, id int64) error

	ListBooks(ctx context.Context) ([]Book, error)
	FindBookByID(ctx context.Context, id int64) (*Book, error)
	AddBook(ctx context.Context, b *Book) (int64, error)
	UpdateBook(ctx context.Context, b *Book) error
	DeleteBook(ctx context.Context, id int64) error
}

type sqliteRepo struct{ db *sql.DB }

func NewSQLiteRepo(db *sql.DB) Repository { return &sqliteRepo{db: db} }

// Migrate creates the catalog tables. Deleting an author cascades to their
// books.
func Migrate(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS authors(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  birth_unix INTEGER,
  biography TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS books(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  release_unix INTEGER,
  author_id INTEGER NOT NULL,
  FOREIGN KEY(author_id) REFERENCES authors(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_books_author ON books(author_id);
`
	_, err := db.Exec(schema)
	return err
}

func (r *sqliteRepo) ListAuthors(ctx context.Context) ([]Author, error) {
	rows, err := r.db.QueryContext(ctx, `
    SELECT id, name, birth_unix, biography FROM authors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *sqliteRepo) FindAuthorByID(ctx context.Context, id int64) (*Author, error) {
	row := r.db.QueryRowContext(ctx, `
    SELECT id, name, birth_unix, biography FROM authors WHERE id=?`, id)
	a, err := scanAuthor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	books, err := r.listBooksByAuthor(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Books = books
	return a, nil
}

func (r *sqliteRepo) AddAuthor(ctx context.Context, a *Author) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
    INSERT INTO authors(name, birth_unix, biography) VALUES(?,?,?)`,
		a.Name, unixOrNil(a.BirthDate), a.Biography)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *sqliteRepo) UpdateAuthor(ctx context.Context, a *Author) error {
	res, err := r.db.ExecContext(ctx, `
    UPDATE authors SET name=?, birth_unix=?, biography=? WHERE id=?`,
		a.Name, unixOrNil(a.BirthDate), a.Biography, a.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sqliteRepo) DeleteAuthor(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM authors WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sqliteRepo) ListBooks(ctx context.Context) ([]Book, error) {
	rows, err := r.db.QueryContext(ctx, `
    SELECT b.id, b.title, b.description, b.release_unix, b.author_id, a.name
    FROM books b JOIN authors a ON a.id=b.author_id
    ORDER BY b.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *sqliteRepo) FindBookByID(ctx context.Context, id int64) (*Book, error) {
	row := r.db.QueryRowContext(ctx, `
    SELECT b.id, b.title, b.description, b.release_unix, b.author_id, a.name
    FROM books b JOIN authors a ON a.id=b.author_id
    WHERE b.id=?`, id)
	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *sqliteRepo) AddBook(ctx context.Context, b *Book) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
    INSERT INTO books(title, description, release_unix, author_id) VALUES(?,?,?,?)`,
		b.Title, b.Description, unixOrNil(b.ReleaseDate), b.AuthorID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *sqliteRepo) UpdateBook(ctx context.Context, b *Book) error {
	res, err := r.db.ExecContext(ctx, `
    UPDATE books SET title=?, description=?, release_unix=?, author_id=? WHERE id=?`,
		b.Title, b.Description, unixOrNil(b.ReleaseDate), b.AuthorID, b.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sqliteRepo) DeleteBook(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *sqliteRepo) listBooksByAuthor(ctx context.Context, authorID int64) ([]Book, error) {
	rows, err := r.db.QueryContext(ctx, `
    SELECT b.id, b.title, b.description, b.release_unix, b.author_id, a.name
    FROM books b JOIN authors a ON a.id=b.author_id
    WHERE b.author_id=? ORDER BY b.id`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanAuthor(row rowScanner) (*Author, error) {
	var a Author
	var birth sql.NullInt64
	if err := row.Scan(&a.ID, &a.Name, &birth, &a.Biography); err != nil {
		return nil, err
	}
	a.BirthDate = timeOrNil(birth)
	return &a, nil
}

func scanBook(row rowScanner) (*Book, error) {
	var b Book
	var release sql.NullInt64
	if err := row.Scan(&b.ID, &b.Title, &b.Description, &release, &b.AuthorID, &b.AuthorName); err != nil {
		return nil, err
	}
	b.ReleaseDate = timeOrNil(release)
	return &b, nil
}
