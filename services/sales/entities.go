package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an immutable row in the append-only sale ledger.
type Sale struct {
	ID         int64           `json:"id"`
	AttemptID  string          `json:"attempt_id"`
	Username   string          `json:"username"`
	ItemID     int64           `json:"item_id"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
	SaleDate   time.Time       `json:"sale_date"`
}

// NewSale creates a new Sale instance
func NewSale(attemptID, username string, itemID int64, quantity int, totalPrice decimal.Decimal) *Sale {
	return &Sale{
		AttemptID:  attemptID,
		Username:   username,
		ItemID:     itemID,
		Quantity:   quantity,
		TotalPrice: totalPrice,
		SaleDate:   time.Now().UTC(),
	}
}

// ProcessSaleRequest is the body of POST /sales. Quantity defaults to 1.
type ProcessSaleRequest struct {
	Username string `json:"username"`
	ItemID   int64  `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// Item is the inventory collaborator's view of a product.
type Item struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	StockCount  int             `json:"stock_count"`
}

// Good is the reshaped list entry returned by GET /goods.
type Good struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Customer is the customers collaborator's view of a buyer.
type Customer struct {
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

// ReconciliationTask records a divergence the saga could not repair on its own:
// a mutation that was applied (or whose outcome is unknown) with no matching
// Sale row. Operators drain these out of band.
type ReconciliationTask struct {
	ID        string          `json:"id"`
	AttemptID string          `json:"attempt_id"`
	Username  string          `json:"username"`
	ItemID    int64           `json:"item_id"`
	Quantity  int             `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
}

// Error taxonomy. Pre-condition failures (invalid input, not found,
// insufficient stock/balance) mean nothing has changed anywhere. The deduction
// failures mean a collaborator accepted the read but rejected or failed the
// write, and are surfaced as a distinct class.
var (
	ErrInvalidRequest         = errors.New("username and item_id are required")
	ErrItemNotFound           = errors.New("item not found")
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrBalanceDeductionFailed = errors.New("failed to deduct balance")
	ErrStockDeductionFailed   = errors.New("failed to deduct stock")
)

// CollaboratorUnavailableError marks a connection failure or timeout against a
// dependency. Timeouts are never treated as success.
type CollaboratorUnavailableError struct {
	Service string
	Err     error
}

func (e *CollaboratorUnavailableError) Error() string {
	return fmt.Sprintf("%s service is not available: %v", e.Service, e.Err)
}

func (e *CollaboratorUnavailableError) Unwrap() error {
	return e.Err
}

// TotalPrice computes price * quantity rounded to the currency's minor-unit
// precision, so the comparison here and the deduction at the customer store
// agree on the amount.
func TotalPrice(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
