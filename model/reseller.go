package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ResellerStatus string

const (
	ResellerActive   ResellerStatus = "active"
	ResellerInactive ResellerStatus = "inactive"
)

const (
	RoleAdmin    = "admin"
	RoleReseller = "reseller"
)

// Reseller balance is a denormalized cache of the ledger sum. It is mutated
// only through ledger operations, never written directly.
type Reseller struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone,omitempty"`
	PasswordHash     string          `json:"-"`
	Role             string          `json:"role"`
	Status           ResellerStatus  `json:"status"`
	Balance          decimal.Decimal `json:"balance"`
	TelegramID       string          `json:"telegram_id,omitempty"`
	TelegramUsername string          `json:"telegram_username,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type LoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
