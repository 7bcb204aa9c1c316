package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ItemRepository defines the persistence operations of the inventory service.
// Stock deductions run inside a transaction holding a pessimistic row lock so
// the stock check and the write are atomic.
type ItemRepository interface {
	CreateItem(ctx context.Context, item *Item) error
	ListItems(ctx context.Context) ([]Item, error)
	GetItem(ctx context.Context, itemID int64) (*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, itemID int64) error

	BeginTx(ctx context.Context) (Tx, error)
	GetItemForUpdate(ctx context.Context, tx Tx, itemID int64) (*Item, error)
	MovementExists(ctx context.Context, tx Tx, attemptID, movementType string) (bool, error)
	ApplyStockChange(ctx context.Context, tx Tx, itemID int64, newStock int, movement *StockMovement) error
}

// Tx interface for transactions
type Tx interface {
	Commit() error
	Rollback() error
}

// PostgresTx implements the Tx interface.
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *PostgresTx) Rollback() error {
	return t.tx.Rollback(context.Background())
}

// PostgresItemRepository implements ItemRepository using PostgreSQL.
type PostgresItemRepository struct {
	db *pgxpool.Pool
}

// NewItemRepository creates a new PostgresItemRepository.
func NewItemRepository(db *pgxpool.Pool) ItemRepository {
	return &PostgresItemRepository{db: db}
}

const itemColumns = `id, name, category, price, description, stock_count, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Price,
		&item.Description, &item.StockCount, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *PostgresItemRepository) CreateItem(ctx context.Context, item *Item) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO items (name, category, price, description, stock_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, item.Name, item.Category, item.Price, item.Description,
		item.StockCount).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *PostgresItemRepository) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Price,
			&item.Description, &item.StockCount, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostgresItemRepository) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	row := r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, itemID)
	return scanItem(row)
}

func (r *PostgresItemRepository) UpdateItem(ctx context.Context, item *Item) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE items
		SET name = $1, category = $2, price = $3, description = $4,
			stock_count = $5, updated_at = NOW()
		WHERE id = $6
	`, item.Name, item.Category, item.Price, item.Description, item.StockCount, item.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *PostgresItemRepository) DeleteItem(ctx context.Context, itemID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// BeginTx starts a new transaction.
func (r *PostgresItemRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PostgresTx{tx: tx}, nil
}

// GetItemForUpdate fetches the item holding a pessimistic lock
// (SELECT ... FOR UPDATE) until Commit or Rollback.
func (r *PostgresItemRepository) GetItemForUpdate(ctx context.Context, tx Tx, itemID int64) (*Item, error) {
	pgTx := tx.(*PostgresTx).tx
	row := pgTx.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1 FOR UPDATE`, itemID)
	return scanItem(row)
}

// MovementExists checks whether a movement was already applied for the
// attempt ID and type (idempotency).
func (r *PostgresItemRepository) MovementExists(ctx context.Context, tx Tx, attemptID, movementType string) (bool, error) {
	pgTx := tx.(*PostgresTx).tx

	var exists bool
	err := pgTx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM stock_movements
			WHERE attempt_id = $1 AND movement_type = $2
		)
	`, attemptID, movementType).Scan(&exists)
	return exists, err
}

// ApplyStockChange writes the new stock count and the movement ledger row in
// the same transaction.
func (r *PostgresItemRepository) ApplyStockChange(ctx context.Context, tx Tx, itemID int64, newStock int, movement *StockMovement) error {
	pgTx := tx.(*PostgresTx).tx

	_, err := pgTx.Exec(ctx, `
		UPDATE items SET stock_count = $1, updated_at = NOW() WHERE id = $2
	`, newStock, itemID)
	if err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	_, err = pgTx.Exec(ctx, `
		INSERT INTO stock_movements (id, item_id, attempt_id, movement_type, quantity)
		VALUES ($1, $2, $3, $4, $5)
	`, movement.ID, movement.ItemID, movement.AttemptID, movement.Type, movement.Quantity)
	if err != nil {
		return fmt.Errorf("failed to insert movement record: %w", err)
	}
	return nil
}

// EnsureSchema creates the inventory tables when they don't exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS items (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			price NUMERIC(12, 2) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			stock_count INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS stock_movements (
			id TEXT PRIMARY KEY,
			item_id BIGINT NOT NULL,
			attempt_id TEXT NOT NULL,
			movement_type TEXT NOT NULL,
			quantity INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (attempt_id, movement_type)
		);
	`)
	return err
}
