package admin

import (
	"github.com/shopspring/decimal"

	"resellerdesk/model"
)

type SetOrderStatusReq struct {
	Status    model.OrderStatus `json:"status" validate:"required"`
	AdminNote string            `json:"admin_note"`
}

type SetPackageStatusReq struct {
	Status    model.PackageOrderStatus `json:"status" validate:"required"`
	AdminNote string                   `json:"admin_note"`
}

type ProcessRequestReq struct {
	AdminNote string `json:"admin_note"`
}

type ImportStockReq struct {
	// One stock item per line; blank lines and duplicates are skipped.
	Lines string `json:"lines" validate:"required"`
}

type AdjustBalanceReq struct {
	ResellerID  int64                 `json:"reseller_id" validate:"required,gt=0"`
	Amount      decimal.Decimal       `json:"amount" validate:"required"`
	Kind        model.TransactionKind `json:"kind" validate:"required,oneof=credit debit"`
	Description string                `json:"description" validate:"required"`
}
