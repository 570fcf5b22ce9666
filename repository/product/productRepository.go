package productrepo

import (
	"context"
	"database/sql"
	"errors"

	"resellerdesk/model"
)

var ErrNotFound = errors.New("product not found")

type Repo interface {
	Create(ctx context.Context, p *model.Product) error
	ByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)

	CreatePackage(ctx context.Context, p *model.Package) error
	PackageByID(ctx context.Context, id int64) (*model.Package, error)
	ListPackages(ctx context.Context) ([]model.Package, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, p *model.Product) error {
	const q = `
		INSERT INTO products (name, price, provider_code, external_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q, p.Name, p.Price, p.ProviderCode, p.ExternalID).
		Scan(&p.ID, &p.CreatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Product, error) {
	const q = `
		SELECT id, name, price, provider_code, external_id, created_at
		FROM products WHERE id = $1`
	var p model.Product
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.ProviderCode, &p.ExternalID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context) ([]model.Product, error) {
	const q = `
		SELECT id, name, price, provider_code, external_id, created_at
		FROM products ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.ProviderCode, &p.ExternalID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repo) CreatePackage(ctx context.Context, p *model.Package) error {
	const q = `
		INSERT INTO packages (name, price, initial_balance)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q, p.Name, p.Price, p.InitialBalance).
		Scan(&p.ID, &p.CreatedAt)
}

func (r *repo) PackageByID(ctx context.Context, id int64) (*model.Package, error) {
	const q = `
		SELECT id, name, price, initial_balance, created_at
		FROM packages WHERE id = $1`
	var p model.Package
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.InitialBalance, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) ListPackages(ctx context.Context) ([]model.Package, error) {
	const q = `
		SELECT id, name, price, initial_balance, created_at
		FROM packages ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Package
	for rows.Next() {
		var p model.Package
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.InitialBalance, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
