package balancereq

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"resellerdesk/model"
	"resellerdesk/notify"
	balancereqrepo "resellerdesk/repository/balancereq"
	productrepo "resellerdesk/repository/product"
	"resellerdesk/service/provisioning"
	"resellerdesk/util/database"
)

var (
	ErrNotFound         = errors.New("balance request not found")
	ErrAlreadyProcessed = errors.New("balance request already processed")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrPackageNotFound  = errors.New("package not found")
)

type Repo = balancereqrepo.Repo

type Orders interface {
	InsertPackageOrder(ctx context.Context, tx database.Tx, po *model.PackageOrder) error
	LockPackageOrder(ctx context.Context, tx database.Tx, id int64) (*model.PackageOrder, error)
	UpdatePackageOrderStatus(ctx context.Context, tx database.Tx, id int64, status model.PackageOrderStatus, adminNote string) error
}

type Packages interface {
	PackageByID(ctx context.Context, id int64) (*model.Package, error)
}

type Ledger interface {
	Credit(ctx context.Context, tx database.Tx, resellerID int64, amount decimal.Decimal, description string) (int64, error)
}

type Provisioner interface {
	Fulfill(ctx context.Context, tx database.Tx, po *model.PackageOrder) (*provisioning.Result, error)
}

// Service owns balance requests: plain top-ups and dealership applications.
// Approval is the only authenticated entry point that moves money for them.
type Service interface {
	RequestTopup(ctx context.Context, resellerID int64, amount decimal.Decimal) (*model.BalanceRequest, error)
	ApplyPackage(ctx context.Context, packageID int64, name, email, phone, formJSON string) (*model.PackageOrder, *model.BalanceRequest, error)

	Approve(ctx context.Context, actorID, requestID int64, adminNote string) (*model.BalanceRequest, error)
	Reject(ctx context.Context, actorID, requestID int64, adminNote string) (*model.BalanceRequest, error)

	ListPending(ctx context.Context) ([]model.BalanceRequest, error)
	ListByReseller(ctx context.Context, resellerID int64) ([]model.BalanceRequest, error)
}

type service struct {
	db       database.Beginner
	repo     Repo
	orders   Orders
	packages Packages
	ledger   Ledger
	prov     Provisioner
	notifier notify.Notifier
}

func New(db database.Beginner, repo Repo, orders Orders, packages Packages,
	ledgerSvc Ledger, prov Provisioner, notifier notify.Notifier) Service {
	return &service{
		db:       db,
		repo:     repo,
		orders:   orders,
		packages: packages,
		ledger:   ledgerSvc,
		prov:     prov,
		notifier: notifier,
	}
}

func (s *service) RequestTopup(ctx context.Context, resellerID int64, amount decimal.Decimal) (*model.BalanceRequest, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	br := &model.BalanceRequest{
		ResellerID: &resellerID,
		Amount:     amount,
		Status:     model.RequestPending,
	}
	err := database.WithinTx(ctx, s.db, func(tx database.Tx) error {
		return s.repo.Insert(ctx, tx, br)
	})
	if err != nil {
		return nil, err
	}
	return br, nil
}

// ApplyPackage records a public dealership application: a pending package
// order plus the balance request an admin will approve.
func (s *service) ApplyPackage(ctx context.Context, packageID int64,
	name, email, phone, formJSON string) (*model.PackageOrder, *model.BalanceRequest, error) {
	pkg, err := s.packages.PackageByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, productrepo.ErrNotFound) {
			return nil, nil, ErrPackageNotFound
		}
		return nil, nil, err
	}

	if formJSON == "" {
		formJSON = "{}"
	}
	po := &model.PackageOrder{
		PackageID:      pkg.ID,
		Name:           name,
		Email:          email,
		Phone:          phone,
		InitialBalance: pkg.InitialBalance,
		TotalAmount:    pkg.Price,
		Status:         model.PackagePending,
		FormData:       formJSON,
	}
	br := &model.BalanceRequest{
		Amount: pkg.Price,
		Status: model.RequestPending,
	}
	// One transaction for both rows: a package order without its balance
	// request would be unreachable from the approval surface.
	err = database.WithinTx(ctx, s.db, func(tx database.Tx) error {
		if err := s.orders.InsertPackageOrder(ctx, tx, po); err != nil {
			return err
		}
		br.PackageOrderID = &po.ID
		return s.repo.Insert(ctx, tx, br)
	})
	if err != nil {
		return nil, nil, err
	}
	return po, br, nil
}

// Approve flips a pending request to approved and applies its effect: a
// direct ledger credit for a top-up, or paid+completed package-order
// provisioning for an application. Re-approval is rejected on the locked
// status check before anything moves.
func (s *service) Approve(ctx context.Context, actorID, requestID int64, adminNote string) (*model.BalanceRequest, error) {
	var (
		br       *model.BalanceRequest
		res      *provisioning.Result
		pkgOrder *model.PackageOrder
	)
	err := database.WithinTx(ctx, s.db, func(tx database.Tx) error {
		locked, err := s.repo.LockByID(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, balancereqrepo.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if locked.Status != model.RequestPending {
			return fmt.Errorf("%w: status is %s", ErrAlreadyProcessed, locked.Status)
		}

		if locked.PackageOrderID == nil {
			if locked.ResellerID == nil {
				return errors.New("balance request has neither reseller nor package order")
			}
			desc := fmt.Sprintf("balance request #%d approved by admin #%d", locked.ID, actorID)
			if _, err := s.ledger.Credit(ctx, tx, *locked.ResellerID, locked.Amount, desc); err != nil {
				return err
			}
		} else {
			po, err := s.orders.LockPackageOrder(ctx, tx, *locked.PackageOrderID)
			if err != nil {
				return err
			}
			if err := model.ValidatePackageTransition(po.Status, model.PackagePaid); err != nil {
				return fmt.Errorf("%w: %s", ErrAlreadyProcessed, err)
			}
			if err := s.orders.UpdatePackageOrderStatus(ctx, tx, po.ID, model.PackagePaid, ""); err != nil {
				return err
			}
			po.Status = model.PackagePaid

			res, err = s.prov.Fulfill(ctx, tx, po)
			if err != nil {
				return err
			}
			note := fmt.Sprintf("completed via balance request #%d", locked.ID)
			if err := s.orders.UpdatePackageOrderStatus(ctx, tx, po.ID, model.PackageCompleted, note); err != nil {
				return err
			}
			po.Status = model.PackageCompleted
			pkgOrder = po

			if err := s.repo.SetReseller(ctx, tx, locked.ID, res.Reseller.ID); err != nil {
				return err
			}
			locked.ResellerID = &res.Reseller.ID
		}

		ok, err := s.repo.MarkProcessed(ctx, tx, locked.ID, model.RequestApproved, adminNote, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyProcessed
		}
		locked.Status = model.RequestApproved
		br = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Post-commit, best effort.
	if res != nil && pkgOrder != nil {
		s.notifier.Onboarding(*res.Reseller, *pkgOrder, res.GeneratedPassword)
	} else if br.ResellerID != nil {
		s.notifier.BalanceApproved(*br.ResellerID, br.Amount)
	}
	return br, nil
}

func (s *service) Reject(ctx context.Context, actorID, requestID int64, adminNote string) (*model.BalanceRequest, error) {
	var br *model.BalanceRequest
	err := database.WithinTx(ctx, s.db, func(tx database.Tx) error {
		locked, err := s.repo.LockByID(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, balancereqrepo.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if locked.Status != model.RequestPending {
			return fmt.Errorf("%w: status is %s", ErrAlreadyProcessed, locked.Status)
		}

		if locked.PackageOrderID != nil {
			po, err := s.orders.LockPackageOrder(ctx, tx, *locked.PackageOrderID)
			if err != nil {
				return err
			}
			if po.Status == model.PackagePending || po.Status == model.PackagePaid {
				if err := s.orders.UpdatePackageOrderStatus(ctx, tx, po.ID, model.PackageCancelled,
					"balance request rejected"); err != nil {
					return err
				}
			}
		}

		ok, err := s.repo.MarkProcessed(ctx, tx, locked.ID, model.RequestRejected, adminNote, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyProcessed
		}
		locked.Status = model.RequestRejected
		br = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return br, nil
}

func (s *service) ListPending(ctx context.Context) ([]model.BalanceRequest, error) {
	return s.repo.ListPending(ctx)
}

func (s *service) ListByReseller(ctx context.Context, resellerID int64) ([]model.BalanceRequest, error) {
	return s.repo.ListByReseller(ctx, resellerID)
}
