package checkout

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Repository is the persistence boundary for orders. GetOrder must return a
// fully hydrated aggregate: line items with their book titles resolved.
type Repository interface {
	CreateOrder(ctx context.Context, o *Order) (int64, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

type sqliteRepo struct{ db *sql.DB }

func NewSQLiteRepo(db *sql.DB) Repository { return &sqliteRepo{db: db} }

func Migrate(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS book_orders(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  checkout_unix INTEGER NOT NULL,
  status INTEGER NOT NULL,
  updated_unix INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS book_order_items(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL,
  book_id INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  FOREIGN KEY(order_id) REFERENCES book_orders(id) ON DELETE CASCADE,
  FOREIGN KEY(book_id) REFERENCES books(id)
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON book_order_items(order_id);
`
	_, err := db.Exec(schema)
	return err
}

// CreateOrder persists the order and its items in one transaction and assigns
// the new id.
func (r *sqliteRepo) CreateOrder(ctx context.Context, o *Order) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	res, err := tx.ExecContext(ctx, `
  INSERT INTO book_orders(checkout_unix, status, updated_unix) VALUES(?,?,?)`,
		o.CheckoutDate.Unix(), o.Status, now)
	if err != nil {
		return 0, err
	}
	oid, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
  INSERT INTO book_order_items(order_id, book_id, quantity) VALUES(?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, it := range o.Items {
		if _, err := stmt.ExecContext(ctx, oid, it.BookID, it.Quantity); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	o.ID = oid
	return oid, nil
}

func (r *sqliteRepo) GetOrder(ctx context.Context, id int64) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
    SELECT id, checkout_unix, status FROM book_orders WHERE id=?`, id)
	var o Order
	var checkout int64
	if err := row.Scan(&o.ID, &checkout, &o.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	o.CheckoutDate = time.Unix(checkout, 0).UTC()

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *sqliteRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	res, err := r.db.ExecContext(ctx, `
    UPDATE book_orders SET status=?, updated_unix=? WHERE id=?`,
		status, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteRepo) listItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
    SELECT i.id, i.book_id, b.title, i.quantity
    FROM book_order_items i JOIN books b ON b.id=i.book_id
    WHERE i.order_id=? ORDER BY i.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.BookID, &it.Title, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
