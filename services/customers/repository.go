package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CustomerRepository defines the persistence operations of the customers
// service. Wallet mutations run inside a transaction holding a pessimistic
// row lock so the balance check and the write are atomic.
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, customer *Customer) error
	GetCustomerByUsername(ctx context.Context, username string) (*Customer, error)
	UpdateCustomer(ctx context.Context, customer *Customer) error
	DeleteCustomer(ctx context.Context, username string) error

	BeginTx(ctx context.Context) (Tx, error)
	GetCustomerForUpdate(ctx context.Context, tx Tx, username string) (*Customer, error)
	MovementExists(ctx context.Context, tx Tx, attemptID, movementType string) (bool, error)
	ApplyBalanceChange(ctx context.Context, tx Tx, username string, newBalance decimal.Decimal, movement *WalletMovement) error
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

// PostgresCustomerRepository implements CustomerRepository using PostgreSQL.
type PostgresCustomerRepository struct {
	db *pgxpool.Pool
}

// NewCustomerRepository creates a new PostgresCustomerRepository.
func NewCustomerRepository(db *pgxpool.Pool) CustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

const customerColumns = `id, username, password_hash, first_name, last_name, balance,
	age, address, gender, marital_status, created_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var customer Customer
	err := row.Scan(&customer.ID, &customer.Username, &customer.PasswordHash,
		&customer.FirstName, &customer.LastName, &customer.Balance, &customer.Age,
		&customer.Address, &customer.Gender, &customer.MaritalStatus, &customer.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *PostgresCustomerRepository) CreateCustomer(ctx context.Context, customer *Customer) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO customers (username, password_hash, first_name, last_name, balance,
			age, address, gender, marital_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, customer.Username, customer.PasswordHash, customer.FirstName, customer.LastName,
		customer.Balance, customer.Age, customer.Address, customer.Gender,
		customer.MaritalStatus).Scan(&customer.ID, &customer.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrUsernameTaken
	}
	return err
}

func (r *PostgresCustomerRepository) GetCustomerByUsername(ctx context.Context, username string) (*Customer, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE username = $1`, username)
	return scanCustomer(row)
}

func (r *PostgresCustomerRepository) UpdateCustomer(ctx context.Context, customer *Customer) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE customers
		SET first_name = $1, last_name = $2, age = $3, address = $4,
			gender = $5, marital_status = $6
		WHERE username = $7
	`, customer.FirstName, customer.LastName, customer.Age, customer.Address,
		customer.Gender, customer.MaritalStatus, customer.Username)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (r *PostgresCustomerRepository) DeleteCustomer(ctx context.Context, username string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE username = $1`, username)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// BeginTx starts a new transaction.
func (r *PostgresCustomerRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PostgresTx{tx: tx}, nil
}

// GetCustomerForUpdate fetches the customer holding a pessimistic lock
// (SELECT ... FOR UPDATE) until Commit or Rollback.
func (r *PostgresCustomerRepository) GetCustomerForUpdate(ctx context.Context, tx Tx, username string) (*Customer, error) {
	pgTx := tx.(*PostgresTx).tx
	row := pgTx.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE username = $1 FOR UPDATE`, username)
	return scanCustomer(row)
}

// MovementExists checks whether a movement was already applied for the
// attempt ID and type (idempotency).
func (r *PostgresCustomerRepository) MovementExists(ctx context.Context, tx Tx, attemptID, movementType string) (bool, error) {
	pgTx := tx.(*PostgresTx).tx

	var exists bool
	err := pgTx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM wallet_movements
			WHERE attempt_id = $1 AND movement_type = $2
		)
	`, attemptID, movementType).Scan(&exists)
	return exists, err
}

// ApplyBalanceChange writes the new balance and the movement ledger row in
// the same transaction.
func (r *PostgresCustomerRepository) ApplyBalanceChange(ctx context.Context, tx Tx, username string, newBalance decimal.Decimal, movement *WalletMovement) error {
	pgTx := tx.(*PostgresTx).tx

	_, err := pgTx.Exec(ctx, `
		UPDATE customers SET balance = $1 WHERE username = $2
	`, newBalance, username)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	_, err = pgTx.Exec(ctx, `
		INSERT INTO wallet_movements (id, username, attempt_id, movement_type, amount)
		VALUES ($1, $2, $3, $4, $5)
	`, movement.ID, movement.Username, movement.AttemptID, movement.Type, movement.Amount)
	if err != nil {
		return fmt.Errorf("failed to insert movement record: %w", err)
	}
	return nil
}

// EnsureSchema creates the customers tables when they don't exist yet.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS customers (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			balance NUMERIC(12, 2) NOT NULL DEFAULT 0,
			age INT NOT NULL DEFAULT 0,
			address TEXT NOT NULL DEFAULT '',
			gender TEXT NOT NULL DEFAULT '',
			marital_status BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS wallet_movements (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			attempt_id TEXT NOT NULL,
			movement_type TEXT NOT NULL,
			amount NUMERIC(12, 2) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (attempt_id, movement_type)
		);
	`)
	return err
}
