package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

// CustomerUseCaseInterface defines the interface for the use case
type CustomerUseCaseInterface interface {
	Register(ctx context.Context, req RegisterCustomerRequest) (*Customer, error)
	GetCustomer(ctx context.Context, username string) (*Customer, error)
	UpdateCustomer(ctx context.Context, username string, req UpdateCustomerRequest) (*Customer, error)
	DeleteCustomer(ctx context.Context, username string) error
	ChargeWallet(ctx context.Context, username string, req AmountRequest) (decimal.Decimal, error)
	DeductWallet(ctx context.Context, username string, req AmountRequest) (decimal.Decimal, error)
}

// CustomerHandler contains the HTTP handlers of the customers service.
type CustomerHandler struct {
	useCase CustomerUseCaseInterface
	tracer  trace.Tracer
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(useCase CustomerUseCaseInterface, tracer trace.Tracer) *CustomerHandler {
	return &CustomerHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// requireAPIKey guards the inter-service wallet mutations with the shared
// secret every service agrees on.
func requireAPIKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-API-Key") != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// Register handles POST /customers.
func (h *CustomerHandler) Register(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "register_customer")
	defer span.End()

	var req RegisterCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "username and password are required"})
		return
	}

	customer, err := h.useCase.Register(ctx, req)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrUsernameTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to register customer"})
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// GetCustomer handles GET /customers/:username.
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_customer")
	defer span.End()

	customer, err := h.useCase.GetCustomer(ctx, c.Param("username"))
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrCustomerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch customer"})
		return
	}

	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer handles PUT /customers/:username.
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "update_customer")
	defer span.End()

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	customer, err := h.useCase.UpdateCustomer(ctx, c.Param("username"), req)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrCustomerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update customer"})
		return
	}

	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /customers/:username.
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "delete_customer")
	defer span.End()

	if err := h.useCase.DeleteCustomer(ctx, c.Param("username")); err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrCustomerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete customer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}

// ChargeWallet handles POST /customers/:username/charge.
func (h *CustomerHandler) ChargeWallet(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "charge_wallet")
	defer span.End()

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid amount"})
		return
	}

	newBalance, err := h.useCase.ChargeWallet(ctx, c.Param("username"), req)
	if err != nil {
		span.RecordError(err)
		h.walletError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     fmt.Sprintf("Wallet charged successfully. New balance: %s", newBalance),
		"new_balance": newBalance,
	})
}

// DeductWallet handles POST /customers/:username/deduct.
func (h *CustomerHandler) DeductWallet(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "deduct_wallet")
	defer span.End()

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid amount"})
		return
	}

	newBalance, err := h.useCase.DeductWallet(ctx, c.Param("username"), req)
	if err != nil {
		span.RecordError(err)
		h.walletError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     fmt.Sprintf("Amount deducted successfully. New balance: %s", newBalance),
		"new_balance": newBalance,
	})
}

func (h *CustomerHandler) walletError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Customer not found"})
	case errors.Is(err, ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid amount"})
	case errors.Is(err, ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Insufficient balance"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update wallet"})
	}
}

// HealthCheck handles GET /health.
func (h *CustomerHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "customers-service",
	})
}
