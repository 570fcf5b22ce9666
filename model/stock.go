package model

import "time"

type StockStatus string

const (
	StockAvailable StockStatus = "available"
	StockReserved  StockStatus = "reserved"
	StockDelivered StockStatus = "delivered"
)

// StockItem is one discrete, single-use unit of deliverable content.
// Reserved and delivered items are evidence of a past fulfillment and are
// never deleted.
type StockItem struct {
	ID          int64       `json:"id"`
	ProductID   int64       `json:"product_id"`
	Content     string      `json:"content"`
	ContentHash string      `json:"-"`
	Status      StockStatus `json:"status"`
	OrderID     *int64      `json:"order_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	ReservedAt  *time.Time  `json:"reserved_at,omitempty"`
	DeliveredAt *time.Time  `json:"delivered_at,omitempty"`
}
