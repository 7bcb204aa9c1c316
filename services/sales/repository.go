package main

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SaleRepository defines the persistence operations of the sales service.
type SaleRepository interface {
	// CreateSale appends a sale to the ledger and fills in its ID.
	CreateSale(ctx context.Context, sale *Sale) error

	// GetSaleByAttemptID returns the sale recorded for an attempt, or nil.
	GetSaleByAttemptID(ctx context.Context, attemptID string) (*Sale, error)

	// ListSalesByUsername returns a customer's sales in insertion order.
	ListSalesByUsername(ctx context.Context, username string) ([]Sale, error)

	// CreateReconciliationTask persists a divergence for out-of-band repair.
	CreateReconciliationTask(ctx context.Context, task *ReconciliationTask) error
}

// PostgresSaleRepository implements SaleRepository using PostgreSQL.
type PostgresSaleRepository struct {
	db *pgxpool.Pool
}

// NewSaleRepository creates a new PostgresSaleRepository.
func NewSaleRepository(db *pgxpool.Pool) SaleRepository {
	return &PostgresSaleRepository{db: db}
}

func (r *PostgresSaleRepository) CreateSale(ctx context.Context, sale *Sale) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO sales (attempt_id, username, item_id, quantity, total_price, sale_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, sale.AttemptID, sale.Username, sale.ItemID, sale.Quantity, sale.TotalPrice, sale.SaleDate).Scan(&sale.ID)
}

func (r *PostgresSaleRepository) GetSaleByAttemptID(ctx context.Context, attemptID string) (*Sale, error) {
	var sale Sale
	err := r.db.QueryRow(ctx, `
		SELECT id, attempt_id, username, item_id, quantity, total_price, sale_date
		FROM sales WHERE attempt_id = $1
	`, attemptID).Scan(&sale.ID, &sale.AttemptID, &sale.Username, &sale.ItemID,
		&sale.Quantity, &sale.TotalPrice, &sale.SaleDate)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *PostgresSaleRepository) ListSalesByUsername(ctx context.Context, username string) ([]Sale, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, attempt_id, username, item_id, quantity, total_price, sale_date
		FROM sales WHERE username = $1
		ORDER BY id
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.AttemptID, &sale.Username, &sale.ItemID,
			&sale.Quantity, &sale.TotalPrice, &sale.SaleDate); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (r *PostgresSaleRepository) CreateReconciliationTask(ctx context.Context, task *ReconciliationTask) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO reconciliation_tasks (id, attempt_id, username, item_id, quantity, amount, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`, task.ID, task.AttemptID, task.Username, task.ItemID, task.Quantity, task.Amount, task.Reason)
	return err
}

// EnsureSchema creates the sales tables when they don't exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sales (
			id BIGSERIAL PRIMARY KEY,
			attempt_id TEXT NOT NULL UNIQUE,
			username TEXT NOT NULL,
			item_id BIGINT NOT NULL,
			quantity INT NOT NULL,
			total_price NUMERIC(12, 2) NOT NULL,
			sale_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_sales_username ON sales (username);

		CREATE TABLE IF NOT EXISTS reconciliation_tasks (
			id TEXT PRIMARY KEY,
			attempt_id TEXT NOT NULL,
			username TEXT NOT NULL,
			item_id BIGINT NOT NULL,
			quantity INT NOT NULL,
			amount NUMERIC(12, 2) NOT NULL,
			reason TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}
