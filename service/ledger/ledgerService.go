package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"resellerdesk/model"
	"resellerdesk/util/database"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

type ResellerRepo interface {
	LockBalance(ctx context.Context, tx database.Tx, id int64) (decimal.Decimal, error)
	UpdateBalance(ctx context.Context, tx database.Tx, id int64, balance decimal.Decimal) error
}

type Repo interface {
	Insert(ctx context.Context, tx database.Tx, resellerID int64, kind model.TransactionKind,
		amount decimal.Decimal, description string) (int64, error)
	ListByReseller(ctx context.Context, resellerID int64) ([]model.BalanceTransaction, error)
}

// Service is the unit of truth for money movement. Credit and Debit run
// inside the caller's transaction and take the reseller row lock themselves,
// so concurrent debits against the same balance serialize and can never both
// pass the same pre-lock balance check.
type Service interface {
	Credit(ctx context.Context, tx database.Tx, resellerID int64, amount decimal.Decimal, description string) (int64, error)
	Debit(ctx context.Context, tx database.Tx, resellerID int64, amount decimal.Decimal, description string) (int64, error)
	DebitClamped(ctx context.Context, tx database.Tx, resellerID int64, amount decimal.Decimal, description string) (int64, error)

	// Adjust is the administrative correction entry point; it runs in its own
	// transaction. Corrective debits clamp at zero instead of failing.
	Adjust(ctx context.Context, resellerID int64, amount decimal.Decimal,
		kind model.TransactionKind, description string) (int64, error)

	History(ctx context.Context, resellerID int64) ([]model.BalanceTransaction, error)
}

type service struct {
	db        database.Beginner
	resellers ResellerRepo
	repo      Repo
}

func New(db database.Beginner, resellers ResellerRepo, repo Repo) Service {
	return &service{db: db, resellers: resellers, repo: repo}
}

func (s *service) Credit(ctx context.Context, tx database.Tx, resellerID int64,
	amount decimal.Decimal, description string) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}

	balance, err := s.resellers.LockBalance(ctx, tx, resellerID)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.Insert(ctx, tx, resellerID, model.KindCredit, amount, description)
	if err != nil {
		return 0, err
	}
	if err := s.resellers.UpdateBalance(ctx, tx, resellerID, balance.Add(amount)); err != nil {
		return 0, err
	}
	return id, nil
}

// Debit fails closed: order debits must never push a balance negative.
func (s *service) Debit(ctx context.Context, tx database.Tx, resellerID int64,
	amount decimal.Decimal, description string) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}

	balance, err := s.resellers.LockBalance(ctx, tx, resellerID)
	if err != nil {
		return 0, err
	}
	if balance.LessThan(amount) {
		return 0, fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance,
			balance.StringFixed(2), amount.StringFixed(2))
	}

	id, err := s.repo.Insert(ctx, tx, resellerID, model.KindDebit, amount, description)
	if err != nil {
		return 0, err
	}
	if err := s.resellers.UpdateBalance(ctx, tx, resellerID, balance.Sub(amount)); err != nil {
		return 0, err
	}
	return id, nil
}

// DebitClamped is for administrative corrective debits only. The written
// transaction carries the clamped amount so the ledger sum still matches the
// cached balance.
func (s *service) DebitClamped(ctx context.Context, tx database.Tx, resellerID int64,
	amount decimal.Decimal, description string) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}

	balance, err := s.resellers.LockBalance(ctx, tx, resellerID)
	if err != nil {
		return 0, err
	}
	if balance.LessThan(amount) {
		amount = balance
	}
	if !amount.IsPositive() {
		return 0, nil
	}

	id, err := s.repo.Insert(ctx, tx, resellerID, model.KindDebit, amount, description)
	if err != nil {
		return 0, err
	}
	if err := s.resellers.UpdateBalance(ctx, tx, resellerID, balance.Sub(amount)); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *service) Adjust(ctx context.Context, resellerID int64, amount decimal.Decimal,
	kind model.TransactionKind, description string) (int64, error) {
	var id int64
	err := database.WithinTx(ctx, s.db, func(tx database.Tx) error {
		var err error
		switch kind {
		case model.KindCredit:
			id, err = s.Credit(ctx, tx, resellerID, amount, description)
		case model.KindDebit:
			id, err = s.DebitClamped(ctx, tx, resellerID, amount, description)
		default:
			err = fmt.Errorf("unknown transaction kind %q", kind)
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *service) History(ctx context.Context, resellerID int64) ([]model.BalanceTransaction, error) {
	return s.repo.ListByReseller(ctx, resellerID)
}
