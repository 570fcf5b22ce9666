package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	KindCredit TransactionKind = "credit"
	KindDebit  TransactionKind = "debit"
)

// BalanceTransaction is append-only. Amount is always positive; the kind
// carries the sign.
type BalanceTransaction struct {
	ID          int64           `json:"id"`
	ResellerID  int64           `json:"reseller_id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        TransactionKind `json:"kind"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

type BalanceRequestStatus string

const (
	RequestPending  BalanceRequestStatus = "pending"
	RequestApproved BalanceRequestStatus = "approved"
	RequestRejected BalanceRequestStatus = "rejected"
)

// BalanceRequest is either a plain top-up (ResellerID set) or a dealership
// application (PackageOrderID set). Approved and rejected are terminal.
type BalanceRequest struct {
	ID             int64                `json:"id"`
	ResellerID     *int64               `json:"reseller_id,omitempty"`
	PackageOrderID *int64               `json:"package_order_id,omitempty"`
	Amount         decimal.Decimal      `json:"amount"`
	Status         BalanceRequestStatus `json:"status"`
	AdminNote      string               `json:"admin_note,omitempty"`
	ProcessedBy    *int64               `json:"processed_by,omitempty"`
	ProcessedAt    *time.Time           `json:"processed_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}
