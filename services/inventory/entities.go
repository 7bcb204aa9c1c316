package main

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Item is a product in the inventory. Stock is mutated only by explicit
// deduct operations or administrative updates.
type Item struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	StockCount  int             `json:"stock_count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Valid item categories.
const (
	CategoryFood        = "food"
	CategoryClothes     = "clothes"
	CategoryAccessories = "accessories"
	CategoryElectronics = "electronics"
)

// IsValidCategory reports whether the category is one of the known values.
func IsValidCategory(category string) bool {
	switch category {
	case CategoryFood, CategoryClothes, CategoryAccessories, CategoryElectronics:
		return true
	}
	return false
}

// CreateItemRequest is the body of POST /items.
type CreateItemRequest struct {
	Name        string          `json:"name" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	StockCount  *int            `json:"stock_count" binding:"required"`
}

// UpdateItemRequest carries a partial item update; nil fields keep their
// current value. Setting StockCount here is the administrative stock path.
type UpdateItemRequest struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	StockCount  *int             `json:"stock_count"`
}

// DeductStockRequest is the body of POST /items/:item_id/deduct. The optional
// attempt ID makes the deduct idempotent per saga attempt.
type DeductStockRequest struct {
	Quantity  int    `json:"quantity"`
	AttemptID string `json:"attempt_id"`
}

// StockMovement is one ledger row of an applied stock change, keyed by the
// attempt that caused it.
type StockMovement struct {
	ID        string
	ItemID    int64
	AttemptID string
	Type      string
	Quantity  int
}

// Stock movement types.
const (
	MovementDeducted  = "deducted"
	MovementRestocked = "restocked"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidPrice      = errors.New("price must be greater than zero")
	ErrInvalidStockCount = errors.New("stock count cannot be negative")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("insufficient stock")
)
