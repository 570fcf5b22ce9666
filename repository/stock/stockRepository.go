package stockrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"resellerdesk/model"
	"resellerdesk/util/database"
)

var ErrNotFound = errors.New("stock item not found")

type Repo interface {
	// InsertItem attempts a unique insert keyed on (product_id, content_hash).
	// Returns false when the content already exists for that product.
	InsertItem(ctx context.Context, productID int64, content, contentHash string) (bool, error)

	AvailableCount(ctx context.Context, productID int64) (int, error)
	ListByProduct(ctx context.Context, productID int64) ([]model.StockItem, error)
	ByID(ctx context.Context, id int64) (*model.StockItem, error)

	// LockAvailable selects up to limit available items for the product,
	// oldest first, holding their row locks until the transaction ends.
	LockAvailable(ctx context.Context, tx database.Tx, productID int64, limit int) ([]model.StockItem, error)
	MarkDelivered(ctx context.Context, tx database.Tx, ids []int64, orderID int64, at time.Time) error

	// DeleteAvailable removes an item only while it is still available.
	// Returns false when the item was reserved/delivered (or gone).
	DeleteAvailable(ctx context.Context, id int64) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) InsertItem(ctx context.Context, productID int64, content, contentHash string) (bool, error) {
	const q = `
		INSERT INTO product_stock_items (product_id, content, content_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, content_hash) DO NOTHING`
	res, err := r.db.ExecContext(ctx, q, productID, content, contentHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *repo) AvailableCount(ctx context.Context, productID int64) (int, error) {
	const q = `
		SELECT COUNT(*) FROM product_stock_items
		WHERE product_id = $1 AND status = $2`
	var n int
	err := r.db.QueryRowContext(ctx, q, productID, model.StockAvailable).Scan(&n)
	return n, err
}

const stockCols = `id, product_id, content, content_hash, status, order_id,
	created_at, reserved_at, delivered_at`

func scanItems(rows *sql.Rows) ([]model.StockItem, error) {
	defer rows.Close()
	var out []model.StockItem
	for rows.Next() {
		var it model.StockItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Content, &it.ContentHash,
			&it.Status, &it.OrderID, &it.CreatedAt, &it.ReservedAt, &it.DeliveredAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repo) ListByProduct(ctx context.Context, productID int64) ([]model.StockItem, error) {
	const q = `SELECT ` + stockCols + ` FROM product_stock_items
		WHERE product_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.StockItem, error) {
	const q = `SELECT ` + stockCols + ` FROM product_stock_items WHERE id = $1`
	var it model.StockItem
	err := r.db.QueryRowContext(ctx, q, id).Scan(&it.ID, &it.ProductID, &it.Content,
		&it.ContentHash, &it.Status, &it.OrderID, &it.CreatedAt, &it.ReservedAt, &it.DeliveredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

// FIFO: oldest ids first, so concurrent allocations for the same product
// contend on the same rows and serialize instead of interleaving.
func (r *repo) LockAvailable(ctx context.Context, tx database.Tx, productID int64, limit int) ([]model.StockItem, error) {
	const q = `
		SELECT ` + stockCols + `
		FROM product_stock_items
		WHERE product_id = $1 AND status = $2
		ORDER BY id
		LIMIT $3
		FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, productID, model.StockAvailable, limit)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func (r *repo) MarkDelivered(ctx context.Context, tx database.Tx, ids []int64, orderID int64, at time.Time) error {
	const q = `
		UPDATE product_stock_items
		SET status = $1, order_id = $2, reserved_at = $3, delivered_at = $3
		WHERE id = $4`
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, q, model.StockDelivered, orderID, at, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) DeleteAvailable(ctx context.Context, id int64) (bool, error) {
	const q = `
		DELETE FROM product_stock_items
		WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, q, id, model.StockAvailable)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
