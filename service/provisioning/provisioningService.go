package provisioning

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"resellerdesk/model"
	resellerrepo "resellerdesk/repository/reseller"
	"resellerdesk/util/database"
	"resellerdesk/util/hash"
)

type ResellerRepo interface {
	ByEmailForUpdate(ctx context.Context, tx database.Tx, email string) (*model.Reseller, error)
	Create(ctx context.Context, tx database.Tx, r *model.Reseller) error
	Reactivate(ctx context.Context, tx database.Tx, id int64) error
	BackfillTelegram(ctx context.Context, tx database.Tx, id int64, tgID, tgUsername string) error
}

type Ledger interface {
	Credit(ctx context.Context, tx database.Tx, resellerID int64, amount decimal.Decimal, description string) (int64, error)
}

type Result struct {
	Reseller *model.Reseller
	// GeneratedPassword is set only when the service invented a password for
	// a brand-new account. It is returned exactly once and persisted only as
	// a bcrypt hash.
	GeneratedPassword string
	Created           bool
}

// Service provisions reseller accounts from completed package orders:
// lookup-or-create by email, then credit the package's starting balance.
// A second application from the same email tops up instead of erroring.
type Service interface {
	Fulfill(ctx context.Context, tx database.Tx, po *model.PackageOrder) (*Result, error)
}

type service struct {
	resellers ResellerRepo
	ledger    Ledger
}

func New(resellers ResellerRepo, ledger Ledger) Service {
	return &service{resellers: resellers, ledger: ledger}
}

// formData carries the free-form signup payload from the public application.
type formData struct {
	Password         string `json:"password"`
	TelegramID       string `json:"telegram_id"`
	TelegramUsername string `json:"telegram_username"`
}

func (s *service) Fulfill(ctx context.Context, tx database.Tx, po *model.PackageOrder) (*Result, error) {
	var form formData
	if po.FormData != "" {
		// Malformed form data is not fatal; provisioning falls back to a
		// generated password and no Telegram linkage.
		_ = json.Unmarshal([]byte(po.FormData), &form)
	}

	existing, err := s.resellers.ByEmailForUpdate(ctx, tx, po.Email)
	switch {
	case err == nil:
		return s.topUpExisting(ctx, tx, existing, po, form)
	case errors.Is(err, resellerrepo.ErrNotFound):
		return s.createNew(ctx, tx, po, form)
	default:
		return nil, err
	}
}

func (s *service) createNew(ctx context.Context, tx database.Tx, po *model.PackageOrder, form formData) (*Result, error) {
	password := form.Password
	generated := ""
	if password == "" {
		p, err := generatePassword()
		if err != nil {
			return nil, err
		}
		password, generated = p, p
	}

	hashed, err := hash.Password(password)
	if err != nil {
		return nil, err
	}

	r := &model.Reseller{
		Name:             po.Name,
		Email:            po.Email,
		Phone:            po.Phone,
		PasswordHash:     hashed,
		Role:             model.RoleReseller,
		Status:           model.ResellerActive,
		Balance:          decimal.Zero,
		TelegramID:       form.TelegramID,
		TelegramUsername: form.TelegramUsername,
	}
	if err := s.resellers.Create(ctx, tx, r); err != nil {
		return nil, err
	}

	if err := s.creditStartingBalance(ctx, tx, r, po); err != nil {
		return nil, err
	}
	return &Result{Reseller: r, GeneratedPassword: generated, Created: true}, nil
}

func (s *service) topUpExisting(ctx context.Context, tx database.Tx, r *model.Reseller, po *model.PackageOrder, form formData) (*Result, error) {
	if r.Status == model.ResellerInactive {
		if err := s.resellers.Reactivate(ctx, tx, r.ID); err != nil {
			return nil, err
		}
		r.Status = model.ResellerActive
	}
	if form.TelegramID != "" || form.TelegramUsername != "" {
		if err := s.resellers.BackfillTelegram(ctx, tx, r.ID, form.TelegramID, form.TelegramUsername); err != nil {
			return nil, err
		}
	}
	if err := s.creditStartingBalance(ctx, tx, r, po); err != nil {
		return nil, err
	}
	return &Result{Reseller: r, Created: false}, nil
}

func (s *service) creditStartingBalance(ctx context.Context, tx database.Tx, r *model.Reseller, po *model.PackageOrder) error {
	if !po.InitialBalance.IsPositive() {
		return nil
	}
	desc := fmt.Sprintf("package order #%d starting balance", po.ID)
	_, err := s.ledger.Credit(ctx, tx, r.ID, po.InitialBalance, desc)
	return err
}

func generatePassword() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
