package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

var ErrSameStatus = errors.New("order already has that status")

func (s OrderStatus) valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// ValidateOrderTransition is the single authority for product-order status
// edges. Any change between two distinct known statuses is allowed; moving
// into the same status is rejected so accidental double-submits surface.
// Crossing the cancelled boundary carries a ledger effect (see LedgerEffect).
func ValidateOrderTransition(from, to OrderStatus) error {
	if !from.valid() {
		return fmt.Errorf("unknown order status %q", from)
	}
	if !to.valid() {
		return fmt.Errorf("unknown order status %q", to)
	}
	if from == to {
		return ErrSameStatus
	}
	return nil
}

type Effect int

const (
	EffectNone   Effect = iota
	EffectCredit        // leaving a non-cancelled status for cancelled: refund
	EffectDebit         // re-activating a cancelled order: charge again
)

// LedgerEffect returns the balance movement that must accompany a validated
// transition.
func LedgerEffect(from, to OrderStatus) Effect {
	switch {
	case from != OrderCancelled && to == OrderCancelled:
		return EffectCredit
	case from == OrderCancelled && to != OrderCancelled:
		return EffectDebit
	}
	return EffectNone
}

type ProductOrder struct {
	ID                int64           `json:"id"`
	ProductID         int64           `json:"product_id"`
	ResellerID        int64           `json:"reseller_id"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            OrderStatus     `json:"status"`
	Source            string          `json:"source"`
	ExternalReference string          `json:"external_reference,omitempty"`
	ExternalMetadata  string          `json:"external_metadata,omitempty"`
	AdminNote         string          `json:"admin_note,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type PackageOrderStatus string

const (
	PackagePending   PackageOrderStatus = "pending"
	PackagePaid      PackageOrderStatus = "paid"
	PackageCompleted PackageOrderStatus = "completed"
	PackageCancelled PackageOrderStatus = "cancelled"
)

// packageEdges is the one-way package-order lifecycle. completed and
// cancelled are terminal.
var packageEdges = map[PackageOrderStatus][]PackageOrderStatus{
	PackagePending: {PackagePaid, PackageCancelled},
	PackagePaid:    {PackageCompleted, PackageCancelled},
}

func ValidatePackageTransition(from, to PackageOrderStatus) error {
	if from == to {
		return ErrSameStatus
	}
	for _, allowed := range packageEdges[from] {
		if to == allowed {
			return nil
		}
	}
	return fmt.Errorf("package order cannot move from %q to %q", from, to)
}

type PackageOrder struct {
	ID             int64           `json:"id"`
	PackageID      int64           `json:"package_id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone,omitempty"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Status         PackageOrderStatus `json:"status"`
	FormData       string          `json:"-"`
	AdminNote      string          `json:"admin_note,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
