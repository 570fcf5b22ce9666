package ledger

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"resellerdesk/model"
	"resellerdesk/util/database"
)

type fakeTx struct {
	committed  bool
	rolledBack bool
}

var _ database.Tx = (*fakeTx)(nil)

func (f *fakeTx) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return nil, nil
}
func (f *fakeTx) QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return nil, nil
}
func (f *fakeTx) QueryRowContext(ctx context.Context, q string, args ...any) *sql.Row { return nil }
func (f *fakeTx) Commit() error                                                       { f.committed = true; return nil }
func (f *fakeTx) Rollback() error                                                     { f.rolledBack = true; return nil }

type fakeBeginner struct{ tx *fakeTx }

func (f *fakeBeginner) BeginTx(ctx context.Context) (database.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

type mockResellers struct {
	balance decimal.Decimal
	locked  int
	updated *decimal.Decimal
}

var _ ResellerRepo = (*mockResellers)(nil)

func (m *mockResellers) LockBalance(ctx context.Context, tx database.Tx, id int64) (decimal.Decimal, error) {
	m.locked++
	return m.balance, nil
}

func (m *mockResellers) UpdateBalance(ctx context.Context, tx database.Tx, id int64, balance decimal.Decimal) error {
	m.updated = &balance
	return nil
}

type inserted struct {
	kind   model.TransactionKind
	amount decimal.Decimal
	desc   string
}

type mockRepo struct {
	rows []inserted
}

var _ Repo = (*mockRepo)(nil)

func (m *mockRepo) Insert(ctx context.Context, tx database.Tx, resellerID int64,
	kind model.TransactionKind, amount decimal.Decimal, description string) (int64, error) {
	m.rows = append(m.rows, inserted{kind, amount, description})
	return int64(len(m.rows)), nil
}

func (m *mockRepo) ListByReseller(ctx context.Context, resellerID int64) ([]model.BalanceTransaction, error) {
	return nil, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCredit(t *testing.T) {
	ctx := context.Background()
	resellers := &mockResellers{balance: dec("10.00")}
	repo := &mockRepo{}
	svc := New(&fakeBeginner{}, resellers, repo)

	id, err := svc.Credit(ctx, &fakeTx{}, 1, dec("25.50"), "topup")
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	require.Len(t, repo.rows, 1)
	require.Equal(t, model.KindCredit, repo.rows[0].kind)
	require.True(t, repo.rows[0].amount.Equal(dec("25.50")))
	require.NotNil(t, resellers.updated)
	require.True(t, resellers.updated.Equal(dec("35.50")))
}

func TestCredit_NonPositiveAmount(t *testing.T) {
	svc := New(&fakeBeginner{}, &mockResellers{}, &mockRepo{})

	_, err := svc.Credit(context.Background(), &fakeTx{}, 1, decimal.Zero, "x")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Credit(context.Background(), &fakeTx{}, 1, dec("-5"), "x")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDebit(t *testing.T) {
	ctx := context.Background()
	resellers := &mockResellers{balance: dec("100.00")}
	repo := &mockRepo{}
	svc := New(&fakeBeginner{}, resellers, repo)

	_, err := svc.Debit(ctx, &fakeTx{}, 1, dec("100.00"), "order")
	require.NoError(t, err)
	require.Equal(t, model.KindDebit, repo.rows[0].kind)
	require.True(t, resellers.updated.Equal(decimal.Zero))
}

func TestDebit_InsufficientBalance(t *testing.T) {
	resellers := &mockResellers{balance: dec("9.99")}
	repo := &mockRepo{}
	svc := New(&fakeBeginner{}, resellers, repo)

	_, err := svc.Debit(context.Background(), &fakeTx{}, 1, dec("10.00"), "order")
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Empty(t, repo.rows)
	require.Nil(t, resellers.updated)
}

func TestDebitClamped(t *testing.T) {
	resellers := &mockResellers{balance: dec("30.00")}
	repo := &mockRepo{}
	svc := New(&fakeBeginner{}, resellers, repo)

	_, err := svc.DebitClamped(context.Background(), &fakeTx{}, 1, dec("50.00"), "correction")
	require.NoError(t, err)
	// The written transaction carries the clamped amount, not the requested one.
	require.True(t, repo.rows[0].amount.Equal(dec("30.00")))
	require.True(t, resellers.updated.Equal(decimal.Zero))
}

func TestDebitClamped_ZeroBalance(t *testing.T) {
	resellers := &mockResellers{balance: decimal.Zero}
	repo := &mockRepo{}
	svc := New(&fakeBeginner{}, resellers, repo)

	id, err := svc.DebitClamped(context.Background(), &fakeTx{}, 1, dec("50.00"), "correction")
	require.NoError(t, err)
	require.Zero(t, id)
	require.Empty(t, repo.rows)
}

func TestAdjust_CommitsOwnTransaction(t *testing.T) {
	db := &fakeBeginner{}
	resellers := &mockResellers{balance: dec("1.00")}
	repo := &mockRepo{}
	svc := New(db, resellers, repo)

	_, err := svc.Adjust(context.Background(), 1, dec("4.00"), model.KindCredit, "manual")
	require.NoError(t, err)
	require.True(t, db.tx.committed)
	require.True(t, resellers.updated.Equal(dec("5.00")))
}

func TestAdjust_UnknownKind(t *testing.T) {
	db := &fakeBeginner{}
	svc := New(db, &mockResellers{balance: dec("1.00")}, &mockRepo{})

	_, err := svc.Adjust(context.Background(), 1, dec("4.00"), "transfer", "manual")
	require.Error(t, err)
	require.True(t, db.tx.rolledBack)
}
