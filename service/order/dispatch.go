package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resellerdesk/model"
	providerrepo "resellerdesk/repository/provider"
	"resellerdesk/service/stock"
	"resellerdesk/util/database"
)

// dispatch routes a freshly inserted order to its fulfillment path. It never
// fails the surrounding transaction for operational conditions (no stock,
// provider down): those leave the order pending with a readable reason, so
// the debit stands and an operator can retry or refund.
func (s *service) dispatch(ctx context.Context, tx database.Tx, o *model.ProductOrder,
	product *model.Product) (bool, error) {
	if product.StockFulfilled() {
		return s.dispatchStock(ctx, tx, o)
	}
	return s.dispatchProvider(ctx, tx, o, product)
}

// dispatchLocked is the redispatch variant: stock rows are locked first, then
// the order row, and the pending status is re-verified under the lock.
func (s *service) dispatchLocked(ctx context.Context, tx database.Tx, o *model.ProductOrder,
	product *model.Product) (bool, error) {
	if product.StockFulfilled() {
		// A shortfall here surfaces as InsufficientStock and rolls the
		// transaction back; the order simply stays pending.
		items, err := s.stock.Allocate(ctx, tx, o.ProductID, o.Quantity, o.ID)
		if err != nil {
			return false, err
		}
		locked, err := s.orders.LockByID(ctx, tx, o.ID)
		if err != nil {
			return false, err
		}
		if locked.Status != model.OrderPending {
			return false, fmt.Errorf("%w: status is %s", ErrNotPending, locked.Status)
		}
		return true, s.completeWithItems(ctx, tx, o, items)
	}

	locked, err := s.orders.LockByID(ctx, tx, o.ID)
	if err != nil {
		return false, err
	}
	if locked.Status != model.OrderPending {
		return false, fmt.Errorf("%w: status is %s", ErrNotPending, locked.Status)
	}
	return s.dispatchProvider(ctx, tx, o, product)
}

func (s *service) dispatchStock(ctx context.Context, tx database.Tx, o *model.ProductOrder) (bool, error) {
	items, err := s.stock.Allocate(ctx, tx, o.ProductID, o.Quantity, o.ID)
	if err != nil {
		if errors.Is(err, stock.ErrInsufficientStock) {
			note := fmt.Sprintf("fulfillment pending: %s", err)
			return false, s.orders.SetNote(ctx, tx, o.ID, note)
		}
		return false, err
	}
	return true, s.completeWithItems(ctx, tx, o, items)
}

func (s *service) completeWithItems(ctx context.Context, tx database.Tx,
	o *model.ProductOrder, items []model.StockItem) error {
	contents := make([]string, len(items))
	for i, it := range items {
		contents[i] = it.Content
	}
	metadata := strings.Join(contents, "\n")
	note := fmt.Sprintf("delivered %d stock item(s)", len(items))

	if err := s.orders.MarkCompleted(ctx, tx, o.ID, "", metadata, note); err != nil {
		return err
	}
	o.Status = model.OrderCompleted
	o.ExternalMetadata = metadata
	o.AdminNote = note
	return nil
}

func (s *service) dispatchProvider(ctx context.Context, tx database.Tx,
	o *model.ProductOrder, product *model.Product) (bool, error) {
	ref := fmt.Sprintf("order-%d", o.ID)
	resp, err := s.provider.Dispatch(ctx, providerrepo.DispatchReq{
		ExternalID: product.ExternalID,
		Quantity:   o.Quantity,
		Reference:  ref,
		Note:       fmt.Sprintf("reseller #%d", o.ResellerID),
	})
	if err != nil {
		note := "provider unavailable, order held pending"
		if errors.Is(err, providerrepo.ErrDisabled) {
			note = "provider disabled, order held pending"
		}
		if nerr := s.orders.SetNote(ctx, tx, o.ID, note); nerr != nil {
			return false, nerr
		}
		o.AdminNote = note
		return false, nil
	}

	if err := s.orders.MarkCompleted(ctx, tx, o.ID, resp.Reference, resp.Metadata,
		fmt.Sprintf("dispatched to provider %s", product.ProviderCode)); err != nil {
		return false, err
	}
	o.Status = model.OrderCompleted
	o.ExternalReference = resp.Reference
	o.ExternalMetadata = resp.Metadata
	return true, nil
}
