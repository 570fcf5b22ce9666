package stock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"resellerdesk/model"
	productrepo "resellerdesk/repository/product"
	stockrepo "resellerdesk/repository/stock"
	"resellerdesk/util/database"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotAvailable      = errors.New("stock item is reserved or delivered")
	ErrNotFound          = errors.New("stock item not found")
	ErrProductNotFound   = errors.New("product not found")
)

type ProductRepo interface {
	ByID(ctx context.Context, id int64) (*model.Product, error)
}

type Repo interface {
	InsertItem(ctx context.Context, productID int64, content, contentHash string) (bool, error)
	AvailableCount(ctx context.Context, productID int64) (int, error)
	ListByProduct(ctx context.Context, productID int64) ([]model.StockItem, error)
	ByID(ctx context.Context, id int64) (*model.StockItem, error)
	LockAvailable(ctx context.Context, tx database.Tx, productID int64, limit int) ([]model.StockItem, error)
	MarkDelivered(ctx context.Context, tx database.Tx, ids []int64, orderID int64, at time.Time) error
	DeleteAvailable(ctx context.Context, id int64) (bool, error)
}

type ImportResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

type Service interface {
	// AddItems bulk-imports one stock item per non-blank line, deduplicated
	// by content hash. Re-importing the same lines is harmless.
	AddItems(ctx context.Context, productID int64, raw string) (*ImportResult, error)

	AvailableCount(ctx context.Context, productID int64) (int, error)
	List(ctx context.Context, productID int64) ([]model.StockItem, error)

	// Allocate claims exactly quantity available items for the order, oldest
	// first, inside the caller's transaction. All or nothing: a shortfall
	// mutates nothing.
	Allocate(ctx context.Context, tx database.Tx, productID int64, quantity int, orderID int64) ([]model.StockItem, error)

	Delete(ctx context.Context, id int64) error
}

type service struct {
	products ProductRepo
	repo     Repo
}

func New(products ProductRepo, repo Repo) Service {
	return &service{products: products, repo: repo}
}

func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (s *service) AddItems(ctx context.Context, productID int64, raw string) (*ImportResult, error) {
	if _, err := s.products.ByID(ctx, productID); err != nil {
		if errors.Is(err, productrepo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	var res ImportResult
	for _, line := range strings.Split(raw, "\n") {
		content := strings.TrimSpace(line)
		if content == "" {
			continue
		}
		added, err := s.repo.InsertItem(ctx, productID, content, ContentHash(content))
		if err != nil {
			return nil, fmt.Errorf("importing stock line: %w", err)
		}
		if added {
			res.Added++
		} else {
			res.Skipped++
		}
	}
	return &res, nil
}

func (s *service) AvailableCount(ctx context.Context, productID int64) (int, error) {
	return s.repo.AvailableCount(ctx, productID)
}

func (s *service) List(ctx context.Context, productID int64) ([]model.StockItem, error) {
	return s.repo.ListByProduct(ctx, productID)
}

func (s *service) Allocate(ctx context.Context, tx database.Tx, productID int64,
	quantity int, orderID int64) ([]model.StockItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	items, err := s.repo.LockAvailable(ctx, tx, productID, quantity)
	if err != nil {
		return nil, err
	}
	if len(items) < quantity {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientStock, quantity, len(items))
	}

	ids := make([]int64, len(items))
	now := time.Now().UTC()
	for i := range items {
		ids[i] = items[i].ID
		items[i].Status = model.StockDelivered
		items[i].OrderID = &orderID
		items[i].DeliveredAt = &now
	}
	if err := s.repo.MarkDelivered(ctx, tx, ids, orderID, now); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.ByID(ctx, id); err != nil {
		if errors.Is(err, stockrepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	ok, err := s.repo.DeleteAvailable(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		// Reserved/delivered items are evidence of a past fulfillment.
		return ErrNotAvailable
	}
	return nil
}
