package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"resellerdesk/model"
	"resellerdesk/notify"
	orderrepo "resellerdesk/repository/order"
	productrepo "resellerdesk/repository/product"
	providerrepo "resellerdesk/repository/provider"
	resellerrepo "resellerdesk/repository/reseller"
	"resellerdesk/service/ledger"
	"resellerdesk/service/provisioning"
	"resellerdesk/service/stock"
	"resellerdesk/util/database"
)

var (
	ErrNotFound            = errors.New("order not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrResellerNotFound    = errors.New("reseller not found")
	ErrResellerInactive    = errors.New("reseller is inactive")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrInsufficientBalance = ledger.ErrInsufficientBalance
	ErrInsufficientStock   = stock.ErrInsufficientStock
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrNotPending          = errors.New("order is not pending")
)

type Resellers interface {
	ByID(ctx context.Context, id int64) (*model.Reseller, error)
	LockBalance(ctx context.Context, tx database.Tx, id int64) (decimal.Decimal, error)
}

type Products interface {
	ByID(ctx context.Context, id int64) (*model.Product, error)
}

type Ledger interface {
	Credit(ctx context.Context, tx database.Tx, resellerID int64, amount decimal.Decimal, description string) (int64, error)
	Debit(ctx context.Context, tx database.Tx, resellerID int64, amount decimal.Decimal, description string) (int64, error)
}

type Stock interface {
	AvailableCount(ctx context.Context, productID int64) (int, error)
	Allocate(ctx context.Context, tx database.Tx, productID int64, quantity int, orderID int64) ([]model.StockItem, error)
}

type Provider interface {
	Dispatch(ctx context.Context, req providerrepo.DispatchReq) (*providerrepo.DispatchResp, error)
}

type Provisioner interface {
	Fulfill(ctx context.Context, tx database.Tx, po *model.PackageOrder) (*provisioning.Result, error)
}

type Repo = orderrepo.Repo

type Service interface {
	// Place debits the reseller, records the order and dispatches it, all in
	// one transaction. A fulfillment failure leaves the order pending, not
	// cancelled, so an operator can retry or refund.
	Place(ctx context.Context, resellerID, productID int64, quantity int, source string) (*model.ProductOrder, error)

	// Redispatch retries fulfillment of a pending order.
	Redispatch(ctx context.Context, orderID int64) (*model.ProductOrder, error)

	// SetStatus applies an administrative status change with its
	// compensating ledger effect. actorID is recorded in the audit note.
	SetStatus(ctx context.Context, actorID, orderID int64, to model.OrderStatus, adminNote string) (*model.ProductOrder, error)

	// SetPackageStatus drives the package-order lifecycle; the transition
	// into completed provisions the reseller account exactly once.
	SetPackageStatus(ctx context.Context, actorID, packageOrderID int64, to model.PackageOrderStatus, adminNote string) (*model.PackageOrder, *provisioning.Result, error)

	ByID(ctx context.Context, orderID int64) (*model.ProductOrder, error)
	ListByReseller(ctx context.Context, resellerID int64) ([]model.ProductOrder, error)
	PackageOrderByID(ctx context.Context, id int64) (*model.PackageOrder, error)
}

type service struct {
	db        database.Beginner
	resellers Resellers
	products  Products
	orders    Repo
	ledger    Ledger
	stock     Stock
	provider  Provider
	prov      Provisioner
	notifier  notify.Notifier
}

func New(db database.Beginner, resellers Resellers, products Products, orders Repo,
	ledgerSvc Ledger, stockSvc Stock, provider Provider, prov Provisioner,
	notifier notify.Notifier) Service {
	return &service{
		db:        db,
		resellers: resellers,
		products:  products,
		orders:    orders,
		ledger:    ledgerSvc,
		stock:     stockSvc,
		provider:  provider,
		prov:      prov,
		notifier:  notifier,
	}
}

func (s *service) Place(ctx context.Context, resellerID, productID int64,
	quantity int, source string) (*model.ProductOrder, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	reseller, err := s.resellers.ByID(ctx, resellerID)
	if err != nil {
		if errors.Is(err, resellerrepo.ErrNotFound) {
			return nil, ErrResellerNotFound
		}
		return nil, err
	}
	if reseller.Status != model.ResellerActive {
		return nil, ErrResellerInactive
	}

	product, err := s.products.ByID(ctx, productID)
	if err != nil {
		if errors.Is(err, productrepo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	// Availability pre-check before any money moves. The authoritative check
	// is the locked allocation inside the transaction; this one just refuses
	// obviously hopeless orders without debiting.
	if product.StockFulfilled() {
		avail, err := s.stock.AvailableCount(ctx, productID)
		if err != nil {
			return nil, err
		}
		if avail < quantity {
			return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientStock, quantity, avail)
		}
	}

	total := product.Price.Mul(decimal.NewFromInt(int64(quantity)))
	o := &model.ProductOrder{
		ProductID:   productID,
		ResellerID:  resellerID,
		Quantity:    quantity,
		Price:       product.Price,
		TotalAmount: total,
		Status:      model.OrderPending,
		Source:      source,
	}

	var completed bool
	err = database.WithinTx(ctx, s.db, func(tx database.Tx) error {
		// Lock order: reseller row (via the debit) before stock rows.
		desc := fmt.Sprintf("order for product #%d x%d", productID, quantity)
		if _, err := s.ledger.Debit(ctx, tx, resellerID, total, desc); err != nil {
			return err
		}
		if err := s.orders.Insert(ctx, tx, o); err != nil {
			return err
		}

		done, err := s.dispatch(ctx, tx, o, product)
		if err != nil {
			return err
		}
		completed = done
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed {
		s.notifier.OrderCompleted(*o, *reseller)
	}
	return o, nil
}

func (s *service) Redispatch(ctx context.Context, orderID int64) (*model.ProductOrder, error) {
	o, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if o.Status != model.OrderPending {
		return nil, fmt.Errorf("%w: status is %s", ErrNotPending, o.Status)
	}

	product, err := s.products.ByID(ctx, o.ProductID)
	if err != nil {
		return nil, err
	}

	var completed bool
	err = database.WithinTx(ctx, s.db, func(tx database.Tx) error {
		// The order row is locked after any stock rows the dispatch takes;
		// re-check the status once locked in case an admin raced us.
		done, err := s.dispatchLocked(ctx, tx, o, product)
		if err != nil {
			return err
		}
		completed = done
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed {
		if reseller, rerr := s.resellers.ByID(ctx, o.ResellerID); rerr == nil {
			s.notifier.OrderCompleted(*o, *reseller)
		}
	}
	return o, nil
}

func (s *service) SetStatus(ctx context.Context, actorID, orderID int64,
	to model.OrderStatus, adminNote string) (*model.ProductOrder, error) {
	o, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	err = database.WithinTx(ctx, s.db, func(tx database.Tx) error {
		// Reseller row first, then the order row: the fixed lock order holds
		// even when the transition turns out to carry no ledger effect.
		if _, err := s.resellers.LockBalance(ctx, tx, o.ResellerID); err != nil {
			return err
		}
		locked, err := s.orders.LockByID(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if err := model.ValidateOrderTransition(locked.Status, to); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidTransition, err)
		}

		switch model.LedgerEffect(locked.Status, to) {
		case model.EffectCredit:
			desc := fmt.Sprintf("order #%d cancelled by admin #%d", orderID, actorID)
			if _, err := s.ledger.Credit(ctx, tx, locked.ResellerID, locked.TotalAmount, desc); err != nil {
				return err
			}
		case model.EffectDebit:
			// Re-activating a cancelled order re-charges it; fails closed if
			// the reseller can no longer cover the amount.
			desc := fmt.Sprintf("order #%d re-activated by admin #%d", orderID, actorID)
			if _, err := s.ledger.Debit(ctx, tx, locked.ResellerID, locked.TotalAmount, desc); err != nil {
				return err
			}
		}

		if err := s.orders.UpdateStatus(ctx, tx, orderID, to, adminNote); err != nil {
			return err
		}
		o = locked
		o.Status = to
		if adminNote != "" {
			o.AdminNote = adminNote
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) SetPackageStatus(ctx context.Context, actorID, packageOrderID int64,
	to model.PackageOrderStatus, adminNote string) (*model.PackageOrder, *provisioning.Result, error) {
	var (
		po  *model.PackageOrder
		res *provisioning.Result
	)
	err := database.WithinTx(ctx, s.db, func(tx database.Tx) error {
		locked, err := s.orders.LockPackageOrder(ctx, tx, packageOrderID)
		if err != nil {
			if errors.Is(err, orderrepo.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := model.ValidatePackageTransition(locked.Status, to); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidTransition, err)
		}

		// The completed transition is fulfillment-bearing and, thanks to the
		// row lock plus the transition check above, runs at most once.
		if to == model.PackageCompleted {
			res, err = s.prov.Fulfill(ctx, tx, locked)
			if err != nil {
				return err
			}
		}

		if adminNote == "" {
			adminNote = fmt.Sprintf("set to %s by admin #%d", to, actorID)
		}
		if err := s.orders.UpdatePackageOrderStatus(ctx, tx, packageOrderID, to, adminNote); err != nil {
			return err
		}
		locked.Status = to
		po = locked
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if res != nil {
		s.notifier.Onboarding(*res.Reseller, *po, res.GeneratedPassword)
	}
	return po, res, nil
}

func (s *service) ByID(ctx context.Context, orderID int64) (*model.ProductOrder, error) {
	o, err := s.orders.ByID(ctx, orderID)
	if errors.Is(err, orderrepo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return o, err
}

func (s *service) ListByReseller(ctx context.Context, resellerID int64) ([]model.ProductOrder, error) {
	return s.orders.ListByReseller(ctx, resellerID)
}

func (s *service) PackageOrderByID(ctx context.Context, id int64) (*model.PackageOrder, error) {
	po, err := s.orders.PackageOrderByID(ctx, id)
	if errors.Is(err, orderrepo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return po, err
}
