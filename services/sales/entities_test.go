package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTotalPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		quantity int
		want     string
	}{
		{"single unit", "12.99", 1, "12.99"},
		{"multiple units", "12.99", 3, "38.97"},
		{"rounds to cents", "0.333", 3, "1"},
		{"no float drift", "0.1", 3, "0.3"},
		{"large quantity", "19.99", 1000, "19990"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TotalPrice(decimal.RequireFromString(tt.price), tt.quantity)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
				"want %s, got %s", tt.want, got)
		})
	}
}

func TestNewSale(t *testing.T) {
	// Arrange
	total := decimal.RequireFromString("38.97")

	// Act
	sale := NewSale("attempt-1", "alice", 7, 3, total)

	// Assert
	assert.Equal(t, "attempt-1", sale.AttemptID)
	assert.Equal(t, "alice", sale.Username)
	assert.Equal(t, int64(7), sale.ItemID)
	assert.Equal(t, 3, sale.Quantity)
	assert.True(t, total.Equal(sale.TotalPrice))
	assert.False(t, sale.SaleDate.IsZero())
}

func TestCollaboratorUnavailableError_Unwrap(t *testing.T) {
	inner := assert.AnError
	err := &CollaboratorUnavailableError{Service: "customers", Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "customers service is not available")
}
