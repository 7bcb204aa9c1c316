package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// InventoryUseCaseInterface defines the interface for the use case
type InventoryUseCaseInterface interface {
	CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	GetItem(ctx context.Context, itemID int64) (*Item, error)
	UpdateItem(ctx context.Context, itemID int64, req UpdateItemRequest) (*Item, error)
	DeleteItem(ctx context.Context, itemID int64) error
	DeductStock(ctx context.Context, itemID int64, req DeductStockRequest) (*Item, error)
}

// InventoryHandler contains the HTTP handlers of the inventory service.
type InventoryHandler struct {
	useCase InventoryUseCaseInterface
	tracer  trace.Tracer
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(useCase InventoryUseCaseInterface, tracer trace.Tracer) *InventoryHandler {
	return &InventoryHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// requireAPIKey guards every mutating endpoint with the shared secret.
func requireAPIKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-API-Key") != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func itemIDParam(c *gin.Context) (int64, bool) {
	itemID, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil || itemID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "item_id must be a positive integer"})
		return 0, false
	}
	return itemID, true
}

// CreateItem handles POST /items.
func (h *InventoryHandler) CreateItem(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_item")
	defer span.End()

	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return
	}

	item, err := h.useCase.CreateItem(ctx, req)
	if err != nil {
		span.RecordError(err)
		h.itemError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// ListItems handles GET /items.
func (h *InventoryHandler) ListItems(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_items")
	defer span.End()

	items, err := h.useCase.ListItems(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to fetch items"})
		return
	}
	if items == nil {
		items = []Item{}
	}

	c.JSON(http.StatusOK, items)
}

// GetItem handles GET /items/:item_id.
func (h *InventoryHandler) GetItem(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_item")
	defer span.End()

	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	item, err := h.useCase.GetItem(ctx, itemID)
	if err != nil {
		span.RecordError(err)
		h.itemError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// UpdateItem handles PUT /items/:item_id.
func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "update_item")
	defer span.End()

	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	item, err := h.useCase.UpdateItem(ctx, itemID, req)
	if err != nil {
		span.RecordError(err)
		h.itemError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// DeleteItem handles DELETE /items/:item_id.
func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "delete_item")
	defer span.End()

	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	if err := h.useCase.DeleteItem(ctx, itemID); err != nil {
		span.RecordError(err)
		h.itemError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

// DeductStock handles POST /items/:item_id/deduct.
func (h *InventoryHandler) DeductStock(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "deduct_stock")
	defer span.End()

	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	req := DeductStockRequest{Quantity: 1}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid quantity"})
		return
	}

	item, err := h.useCase.DeductStock(ctx, itemID, req)
	if err != nil {
		span.RecordError(err)
		h.itemError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) itemError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Item not found"})
	case errors.Is(err, ErrInvalidCategory):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category"})
	case errors.Is(err, ErrInvalidPrice), errors.Is(err, ErrInvalidStockCount):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Quantity must be positive"})
	case errors.Is(err, ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Insufficient stock"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

// HealthCheck handles GET /health.
func (h *InventoryHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "inventory-service",
	})
}
