package database

import "errors"

// Migrate creates the schema on startup. Idempotent.
func (d *DB) Migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS resellers (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			phone VARCHAR(30) NOT NULL DEFAULT '',
			password_hash VARCHAR(60) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'reseller',
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			balance DECIMAL(12,2) NOT NULL DEFAULT 0.00,
			telegram_id VARCHAR(64) NOT NULL DEFAULT '',
			telegram_username VARCHAR(64) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,

		`CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(150) NOT NULL,
			price DECIMAL(12,2) NOT NULL,
			provider_code VARCHAR(50) NOT NULL DEFAULT '',
			external_id VARCHAR(100) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,

		`CREATE TABLE IF NOT EXISTS packages (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(150) NOT NULL,
			price DECIMAL(12,2) NOT NULL,
			initial_balance DECIMAL(12,2) NOT NULL DEFAULT 0.00,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,

		`CREATE TABLE IF NOT EXISTS product_stock_items (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products(id),
			content TEXT NOT NULL,
			content_hash CHAR(64) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'available',
			order_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			reserved_at TIMESTAMPTZ,
			delivered_at TIMESTAMPTZ,
			UNIQUE (product_id, content_hash)
		);`,

		`CREATE TABLE IF NOT EXISTS product_orders (
			id BIGSERIAL PRIMARY KEY,
			product_id BIGINT NOT NULL REFERENCES products(id),
			reseller_id BIGINT NOT NULL REFERENCES resellers(id),
			quantity INT NOT NULL,
			price DECIMAL(12,2) NOT NULL,
			total_amount DECIMAL(12,2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			source VARCHAR(20) NOT NULL DEFAULT 'panel',
			external_reference VARCHAR(100) NOT NULL DEFAULT '',
			external_metadata TEXT NOT NULL DEFAULT '',
			admin_note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,

		`CREATE TABLE IF NOT EXISTS package_orders (
			id BIGSERIAL PRIMARY KEY,
			package_id BIGINT NOT NULL REFERENCES packages(id),
			name VARCHAR(100) NOT NULL,
			email VARCHAR(255) NOT NULL,
			phone VARCHAR(30) NOT NULL DEFAULT '',
			initial_balance DECIMAL(12,2) NOT NULL DEFAULT 0.00,
			total_amount DECIMAL(12,2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			form_data TEXT NOT NULL DEFAULT '{}',
			admin_note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,

		`CREATE TABLE IF NOT EXISTS balance_transactions (
			id BIGSERIAL PRIMARY KEY,
			reseller_id BIGINT NOT NULL REFERENCES resellers(id),
			amount DECIMAL(12,2) NOT NULL CHECK (amount > 0),
			kind VARCHAR(10) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,

		`CREATE TABLE IF NOT EXISTS balance_requests (
			id BIGSERIAL PRIMARY KEY,
			reseller_id BIGINT REFERENCES resellers(id),
			package_order_id BIGINT REFERENCES package_orders(id),
			amount DECIMAL(12,2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			admin_note TEXT NOT NULL DEFAULT '',
			processed_by BIGINT,
			processed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,

		`CREATE INDEX IF NOT EXISTS idx_stock_product_status
			ON product_stock_items (product_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_reseller
			ON product_orders (reseller_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tx_reseller
			ON balance_transactions (reseller_id);`,
	}

	var errs []error
	for _, s := range stmts {
		if _, err := d.DB.Exec(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
