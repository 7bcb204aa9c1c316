package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SaleUseCaseInterface defines the interface for the use case
type SaleUseCaseInterface interface {
	ProcessSale(ctx context.Context, attemptID string, req ProcessSaleRequest) (*Sale, error)
	GetPurchaseHistory(ctx context.Context, username string) ([]Sale, error)
	ListAvailableGoods(ctx context.Context) ([]Good, error)
	GetGoodDetails(ctx context.Context, itemID int64) (*Item, error)
}

// SaleHandler contains the HTTP handlers of the sales service.
type SaleHandler struct {
	useCase SaleUseCaseInterface
	tracer  trace.Tracer
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(useCase SaleUseCaseInterface, tracer trace.Tracer) *SaleHandler {
	return &SaleHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// ProcessSale handles POST /sales. A client-supplied Idempotency-Key header
// becomes the saga's attempt ID, so retries of the same logical purchase never
// double-deduct.
func (h *SaleHandler) ProcessSale(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "process_sale")
	defer span.End()

	var req ProcessSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": ErrInvalidRequest.Error()})
		return
	}

	attemptID := c.GetHeader("Idempotency-Key")
	if attemptID == "" {
		attemptID = uuid.New().String()
	}

	span.SetAttributes(
		attribute.String("attempt_id", attemptID),
		attribute.String("username", req.Username),
		attribute.Int64("item_id", req.ItemID),
	)

	sale, err := h.useCase.ProcessSale(ctx, attemptID, req)
	if err != nil {
		span.RecordError(err)
		c.JSON(statusFromError(err), gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale processed successfully",
		"sale":    sale,
	})
}

// GetPurchaseHistory handles GET /sales/history/:username.
func (h *SaleHandler) GetPurchaseHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_purchase_history")
	defer span.End()

	username := c.Param("username")
	sales, err := h.useCase.GetPurchaseHistory(ctx, username)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to fetch purchase history"})
		return
	}
	if len(sales) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No purchase history found for this user"})
		return
	}

	c.JSON(http.StatusOK, sales)
}

// ListAvailableGoods handles GET /goods.
func (h *SaleHandler) ListAvailableGoods(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_available_goods")
	defer span.End()

	goods, err := h.useCase.ListAvailableGoods(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(statusFromError(err), gin.H{"message": "Unable to fetch goods"})
		return
	}

	c.JSON(http.StatusOK, goods)
}

// GetGoodDetails handles GET /goods/:item_id.
func (h *SaleHandler) GetGoodDetails(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_good_details")
	defer span.End()

	itemID, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil || itemID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "item_id must be a positive integer"})
		return
	}

	item, err := h.useCase.GetGoodDetails(ctx, itemID)
	if err != nil {
		span.RecordError(err)
		c.JSON(statusFromError(err), gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, item)
}

// HealthCheck handles GET /health.
func (h *SaleHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "sales-service",
	})
}

// statusFromError maps the error taxonomy to HTTP status codes. Pre-condition
// failures (400/404) mean nothing changed; 500 means a mutation was applied or
// attempted; 503 means a collaborator could not be reached at all.
func statusFromError(err error) int {
	var unavailable *CollaboratorUnavailableError
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrCustomerNotFound):
		return http.StatusNotFound
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
