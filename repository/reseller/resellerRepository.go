package resellerrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"resellerdesk/model"
	"resellerdesk/util/database"
)

var (
	ErrNotFound   = errors.New("reseller not found")
	ErrEmailTaken = errors.New("email already registered")
)

type Repo interface {
	ByID(ctx context.Context, id int64) (*model.Reseller, error)
	ByEmail(ctx context.Context, email string) (*model.Reseller, error)

	// LockBalance takes the reseller row lock that serializes every balance
	// mutation for that reseller.
	LockBalance(ctx context.Context, tx database.Tx, id int64) (decimal.Decimal, error)
	UpdateBalance(ctx context.Context, tx database.Tx, id int64, balance decimal.Decimal) error

	ByEmailForUpdate(ctx context.Context, tx database.Tx, email string) (*model.Reseller, error)
	Create(ctx context.Context, tx database.Tx, r *model.Reseller) error
	Reactivate(ctx context.Context, tx database.Tx, id int64) error
	BackfillTelegram(ctx context.Context, tx database.Tx, id int64, tgID, tgUsername string) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

const resellerCols = `id, name, email, phone, password_hash, role, status, balance,
	telegram_id, telegram_username, created_at`

func scanReseller(row *sql.Row) (*model.Reseller, error) {
	var r model.Reseller
	err := row.Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &r.PasswordHash, &r.Role,
		&r.Status, &r.Balance, &r.TelegramID, &r.TelegramUsername, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Reseller, error) {
	const q = `SELECT ` + resellerCols + ` FROM resellers WHERE id = $1`
	return scanReseller(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.Reseller, error) {
	const q = `SELECT ` + resellerCols + ` FROM resellers WHERE lower(email) = lower($1)`
	return scanReseller(r.db.QueryRowContext(ctx, q, email))
}

func (r *repo) LockBalance(ctx context.Context, tx database.Tx, id int64) (decimal.Decimal, error) {
	const q = `SELECT balance FROM resellers WHERE id = $1 FOR UPDATE`
	var bal decimal.Decimal
	if err := tx.QueryRowContext(ctx, q, id).Scan(&bal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}
	return bal, nil
}

func (r *repo) UpdateBalance(ctx context.Context, tx database.Tx, id int64, balance decimal.Decimal) error {
	const q = `UPDATE resellers SET balance = $2 WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, balance)
	return err
}

func (r *repo) ByEmailForUpdate(ctx context.Context, tx database.Tx, email string) (*model.Reseller, error) {
	const q = `SELECT ` + resellerCols + ` FROM resellers
		WHERE lower(email) = lower($1) FOR UPDATE`
	return scanReseller(tx.QueryRowContext(ctx, q, email))
}

func (r *repo) Create(ctx context.Context, tx database.Tx, m *model.Reseller) error {
	const q = `
		INSERT INTO resellers (name, email, phone, password_hash, role, status, balance,
			telegram_id, telegram_username)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`
	err := tx.QueryRowContext(ctx, q, m.Name, m.Email, m.Phone, m.PasswordHash,
		m.Role, m.Status, m.Balance, m.TelegramID, m.TelegramUsername).
		Scan(&m.ID, &m.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrEmailTaken
	}
	return err
}

func (r *repo) Reactivate(ctx context.Context, tx database.Tx, id int64) error {
	const q = `UPDATE resellers SET status = $2 WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, model.ResellerActive)
	return err
}

// BackfillTelegram fills linkage fields only when they are currently empty so
// operator-entered values are never overwritten.
func (r *repo) BackfillTelegram(ctx context.Context, tx database.Tx, id int64, tgID, tgUsername string) error {
	const q = `
		UPDATE resellers
		SET telegram_id = CASE WHEN telegram_id = '' THEN $2 ELSE telegram_id END,
		    telegram_username = CASE WHEN telegram_username = '' THEN $3 ELSE telegram_username END
		WHERE id = $1`
	_, err := tx.ExecContext(ctx, q, id, tgID, tgUsername)
	return err
}
