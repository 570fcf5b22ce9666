package orderrepo

import (
	"context"
	"database/sql"
	"errors"

	"resellerdesk/model"
	"resellerdesk/util/database"
)

var ErrNotFound = errors.New("order not found")

type Repo interface {
	Insert(ctx context.Context, tx database.Tx, o *model.ProductOrder) error
	ByID(ctx context.Context, id int64) (*model.ProductOrder, error)
	LockByID(ctx context.Context, tx database.Tx, id int64) (*model.ProductOrder, error)
	ListByReseller(ctx context.Context, resellerID int64) ([]model.ProductOrder, error)

	UpdateStatus(ctx context.Context, tx database.Tx, id int64, status model.OrderStatus, adminNote string) error
	MarkCompleted(ctx context.Context, tx database.Tx, id int64, externalReference, externalMetadata, adminNote string) error
	SetNote(ctx context.Context, tx database.Tx, id int64, adminNote string) error

	InsertPackageOrder(ctx context.Context, tx database.Tx, po *model.PackageOrder) error
	PackageOrderByID(ctx context.Context, id int64) (*model.PackageOrder, error)
	LockPackageOrder(ctx context.Context, tx database.Tx, id int64) (*model.PackageOrder, error)
	UpdatePackageOrderStatus(ctx context.Context, tx database.Tx, id int64, status model.PackageOrderStatus, adminNote string) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

const orderCols = `id, product_id, reseller_id, quantity, price, total_amount, status,
	source, external_reference, external_metadata, admin_note, created_at, updated_at`

func scanOrder(row *sql.Row) (*model.ProductOrder, error) {
	var o model.ProductOrder
	err := row.Scan(&o.ID, &o.ProductID, &o.ResellerID, &o.Quantity, &o.Price,
		&o.TotalAmount, &o.Status, &o.Source, &o.ExternalReference,
		&o.ExternalMetadata, &o.AdminNote, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *repo) Insert(ctx context.Context, tx database.Tx, o *model.ProductOrder) error {
	const q = `
		INSERT INTO product_orders (product_id, reseller_id, quantity, price, total_amount,
			status, source, external_reference, external_metadata, admin_note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	return tx.QueryRowContext(ctx, q, o.ProductID, o.ResellerID, o.Quantity, o.Price,
		o.TotalAmount, o.Status, o.Source, o.ExternalReference, o.ExternalMetadata, o.AdminNote).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.ProductOrder, error) {
	const q = `SELECT ` + orderCols + ` FROM product_orders WHERE id = $1`
	return scanOrder(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) LockByID(ctx context.Context, tx database.Tx, id int64) (*model.ProductOrder, error) {
	const q = `SELECT ` + orderCols + ` FROM product_orders WHERE id = $1 FOR UPDATE`
	return scanOrder(tx.QueryRowContext(ctx, q, id))
}

func (r *repo) ListByReseller(ctx context.Context, resellerID int64) ([]model.ProductOrder, error) {
	const q = `SELECT ` + orderCols + ` FROM product_orders
		WHERE reseller_id = $1 ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, resellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProductOrder
	for rows.Next() {
		var o model.ProductOrder
		if err := rows.Scan(&o.ID, &o.ProductID, &o.ResellerID, &o.Quantity, &o.Price,
			&o.TotalAmount, &o.Status, &o.Source, &o.ExternalReference,
			&o.ExternalMetadata, &o.AdminNote, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repo) UpdateStatus(ctx context.Context, tx database.Tx, id int64, status model.OrderStatus, adminNote string) error {
	const q = `
		UPDATE product_orders
		SET status = $2,
		    admin_note = CASE WHEN $3 <> '' THEN $3 ELSE admin_note END,
		    updated_at = now()
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, status, adminNote)
	return err
}

func (r *repo) MarkCompleted(ctx context.Context, tx database.Tx, id int64, externalReference, externalMetadata, adminNote string) error {
	const q = `
		UPDATE product_orders
		SET status = $2, external_reference = $3, external_metadata = $4,
		    admin_note = $5, updated_at = now()
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, model.OrderCompleted, externalReference, externalMetadata, adminNote)
	return err
}

func (r *repo) SetNote(ctx context.Context, tx database.Tx, id int64, adminNote string) error {
	const q = `
		UPDATE product_orders SET admin_note = $2, updated_at = now() WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, adminNote)
	return err
}

const packageOrderCols = `id, package_id, name, email, phone, initial_balance, total_amount,
	status, form_data, admin_note, created_at, updated_at`

func scanPackageOrder(row *sql.Row) (*model.PackageOrder, error) {
	var po model.PackageOrder
	err := row.Scan(&po.ID, &po.PackageID, &po.Name, &po.Email, &po.Phone,
		&po.InitialBalance, &po.TotalAmount, &po.Status, &po.FormData,
		&po.AdminNote, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

func (r *repo) InsertPackageOrder(ctx context.Context, tx database.Tx, po *model.PackageOrder) error {
	const q = `
		INSERT INTO package_orders (package_id, name, email, phone, initial_balance,
			total_amount, status, form_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	return tx.QueryRowContext(ctx, q, po.PackageID, po.Name, po.Email, po.Phone,
		po.InitialBalance, po.TotalAmount, po.Status, po.FormData).
		Scan(&po.ID, &po.CreatedAt, &po.UpdatedAt)
}

func (r *repo) PackageOrderByID(ctx context.Context, id int64) (*model.PackageOrder, error) {
	const q = `SELECT ` + packageOrderCols + ` FROM package_orders WHERE id = $1`
	return scanPackageOrder(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) LockPackageOrder(ctx context.Context, tx database.Tx, id int64) (*model.PackageOrder, error) {
	const q = `SELECT ` + packageOrderCols + ` FROM package_orders WHERE id = $1 FOR UPDATE`
	return scanPackageOrder(tx.QueryRowContext(ctx, q, id))
}

func (r *repo) UpdatePackageOrderStatus(ctx context.Context, tx database.Tx, id int64, status model.PackageOrderStatus, adminNote string) error {
	const q = `
		UPDATE package_orders
		SET status = $2,
		    admin_note = CASE WHEN $3 <> '' THEN $3 ELSE admin_note END,
		    updated_at = now()
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, status, adminNote)
	return err
}
