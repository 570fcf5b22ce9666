package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Provider codes that mean "fulfill from the local stock pool".
const (
	ProviderPanel = "panel"
	ProviderStock = "stock"
)

type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	ProviderCode string          `json:"provider_code,omitempty"`
	ExternalID   string          `json:"external_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// StockFulfilled reports whether orders for this product are served from the
// local stock pool rather than an external provider.
func (p Product) StockFulfilled() bool {
	switch p.ProviderCode {
	case "", ProviderPanel, ProviderStock:
		return true
	}
	return false
}

type Package struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}
