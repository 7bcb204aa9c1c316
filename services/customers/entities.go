package main

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Customer owns a wallet balance alongside its profile. Balance is mutated
// only through charge (add) and deduct (subtract) operations and never goes
// negative.
type Customer struct {
	ID            int64           `json:"id"`
	Username      string          `json:"username"`
	PasswordHash  string          `json:"-"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Balance       decimal.Decimal `json:"balance"`
	Age           int             `json:"age"`
	Address       string          `json:"address"`
	Gender        string          `json:"gender"`
	MaritalStatus bool            `json:"marital_status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SetPassword hashes and stores the password.
func (c *Customer) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a password against the stored hash.
func (c *Customer) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
}

// RegisterCustomerRequest is the body of POST /customers. Balance always
// starts at zero.
type RegisterCustomerRequest struct {
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Age           int    `json:"age"`
	Address       string `json:"address"`
	Gender        string `json:"gender"`
	MaritalStatus bool   `json:"marital_status"`
}

// UpdateCustomerRequest carries a partial profile update; nil fields keep
// their current value.
type UpdateCustomerRequest struct {
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	Age           *int    `json:"age"`
	Address       *string `json:"address"`
	Gender        *string `json:"gender"`
	MaritalStatus *bool   `json:"marital_status"`
}

// AmountRequest is the body of the charge/deduct wallet operations. The
// optional attempt ID makes the operation idempotent per saga attempt.
type AmountRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	AttemptID string          `json:"attempt_id"`
}

// WalletMovement is one ledger row of an applied balance change, keyed by the
// attempt that caused it.
type WalletMovement struct {
	ID        string
	Username  string
	AttemptID string
	Type      string
	Amount    decimal.Decimal
}

// Wallet movement types.
const (
	MovementDeducted = "deducted"
	MovementCharged  = "charged"
)

var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
)
