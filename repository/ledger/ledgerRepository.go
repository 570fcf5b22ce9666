package ledgerrepo

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"resellerdesk/model"
	"resellerdesk/util/database"
)

type Repo interface {
	Insert(ctx context.Context, tx database.Tx, resellerID int64, kind model.TransactionKind,
		amount decimal.Decimal, description string) (int64, error)
	ListByReseller(ctx context.Context, resellerID int64) ([]model.BalanceTransaction, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Insert(ctx context.Context, tx database.Tx, resellerID int64,
	kind model.TransactionKind, amount decimal.Decimal, description string) (int64, error) {
	const q = `
		INSERT INTO balance_transactions (reseller_id, amount, kind, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	var id int64
	if err := tx.QueryRowContext(ctx, q, resellerID, amount, kind, description).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) ListByReseller(ctx context.Context, resellerID int64) ([]model.BalanceTransaction, error) {
	const q = `
		SELECT id, reseller_id, amount, kind, description, created_at
		FROM balance_transactions
		WHERE reseller_id = $1
		ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, resellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BalanceTransaction
	for rows.Next() {
		var t model.BalanceTransaction
		if err := rows.Scan(&t.ID, &t.ResellerID, &t.Amount, &t.Kind, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
