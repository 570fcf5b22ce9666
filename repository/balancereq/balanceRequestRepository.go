package balancereqrepo

import (
	"context"
	"database/sql"
	"errors"

	"resellerdesk/model"
	"resellerdesk/util/database"
)

var ErrNotFound = errors.New("balance request not found")

type Repo interface {
	Insert(ctx context.Context, tx database.Tx, br *model.BalanceRequest) error
	ByID(ctx context.Context, id int64) (*model.BalanceRequest, error)
	LockByID(ctx context.Context, tx database.Tx, id int64) (*model.BalanceRequest, error)
	ListPending(ctx context.Context) ([]model.BalanceRequest, error)
	ListByReseller(ctx context.Context, resellerID int64) ([]model.BalanceRequest, error)

	// MarkProcessed flips a pending request to its terminal status. Returns
	// false when the request was already processed (the guard that makes
	// re-submitted approvals harmless).
	MarkProcessed(ctx context.Context, tx database.Tx, id int64, status model.BalanceRequestStatus,
		adminNote string, processedBy int64) (bool, error)

	SetReseller(ctx context.Context, tx database.Tx, id, resellerID int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

const reqCols = `id, reseller_id, package_order_id, amount, status, admin_note,
	processed_by, processed_at, created_at`

func scanRequest(row *sql.Row) (*model.BalanceRequest, error) {
	var br model.BalanceRequest
	err := row.Scan(&br.ID, &br.ResellerID, &br.PackageOrderID, &br.Amount, &br.Status,
		&br.AdminNote, &br.ProcessedBy, &br.ProcessedAt, &br.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &br, nil
}

func (r *repo) Insert(ctx context.Context, tx database.Tx, br *model.BalanceRequest) error {
	const q = `
		INSERT INTO balance_requests (reseller_id, package_order_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	return tx.QueryRowContext(ctx, q, br.ResellerID, br.PackageOrderID, br.Amount, br.Status).
		Scan(&br.ID, &br.CreatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.BalanceRequest, error) {
	const q = `SELECT ` + reqCols + ` FROM balance_requests WHERE id = $1`
	return scanRequest(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) LockByID(ctx context.Context, tx database.Tx, id int64) (*model.BalanceRequest, error) {
	const q = `SELECT ` + reqCols + ` FROM balance_requests WHERE id = $1 FOR UPDATE`
	return scanRequest(tx.QueryRowContext(ctx, q, id))
}

func (r *repo) list(ctx context.Context, q string, args ...any) ([]model.BalanceRequest, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BalanceRequest
	for rows.Next() {
		var br model.BalanceRequest
		if err := rows.Scan(&br.ID, &br.ResellerID, &br.PackageOrderID, &br.Amount,
			&br.Status, &br.AdminNote, &br.ProcessedBy, &br.ProcessedAt, &br.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

func (r *repo) ListPending(ctx context.Context) ([]model.BalanceRequest, error) {
	const q = `SELECT ` + reqCols + ` FROM balance_requests
		WHERE status = 'pending' ORDER BY id`
	return r.list(ctx, q)
}

func (r *repo) ListByReseller(ctx context.Context, resellerID int64) ([]model.BalanceRequest, error) {
	const q = `SELECT ` + reqCols + ` FROM balance_requests
		WHERE reseller_id = $1 ORDER BY id DESC`
	return r.list(ctx, q, resellerID)
}

func (r *repo) MarkProcessed(ctx context.Context, tx database.Tx, id int64,
	status model.BalanceRequestStatus, adminNote string, processedBy int64) (bool, error) {
	const q = `
		UPDATE balance_requests
		SET status = $2, admin_note = $3, processed_by = $4, processed_at = now()
		WHERE id = $1 AND status = 'pending'`
	res, err := tx.ExecContext(ctx, q, id, status, adminNote, processedBy)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *repo) SetReseller(ctx context.Context, tx database.Tx, id, resellerID int64) error {
	const q = `UPDATE balance_requests SET reseller_id = $2 WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, resellerID)
	return err
}
