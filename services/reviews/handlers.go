package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// ReviewUseCaseInterface defines the interface for the use case
type ReviewUseCaseInterface interface {
	SubmitReview(ctx context.Context, req SubmitReviewRequest) (*Review, error)
	ListProductReviews(ctx context.Context, itemID int64) ([]Review, error)
	UpdateReview(ctx context.Context, reviewID int64, req UpdateReviewRequest) (*Review, error)
	DeleteReview(ctx context.Context, reviewID int64) error
	ModerateReview(ctx context.Context, reviewID int64, action string) (*Review, error)
}

// ReviewHandler contains the HTTP handlers of the reviews service.
type ReviewHandler struct {
	useCase ReviewUseCaseInterface
	tracer  trace.Tracer
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(useCase ReviewUseCaseInterface, tracer trace.Tracer) *ReviewHandler {
	return &ReviewHandler{
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

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

// SubmitReview handles POST /reviews.
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "submit_review")
	defer span.End()

	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required fields"})
		return
	}

	review, err := h.useCase.SubmitReview(ctx, req)
	if err != nil {
		span.RecordError(err)
		h.reviewError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// ListProductReviews handles GET /reviews/product/:item_id.
func (h *ReviewHandler) ListProductReviews(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_product_reviews")
	defer span.End()

	itemID, ok := idParam(c, "item_id")
	if !ok {
		return
	}

	reviews, err := h.useCase.ListProductReviews(ctx, itemID)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to fetch reviews"})
		return
	}
	if len(reviews) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No reviews found for this product"})
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// UpdateReview handles PUT /reviews/:review_id.
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "update_review")
	defer span.End()

	reviewID, ok := idParam(c, "review_id")
	if !ok {
		return
	}

	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	review, err := h.useCase.UpdateReview(ctx, reviewID, req)
	if err != nil {
		span.RecordError(err)
		h.reviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// DeleteReview handles DELETE /reviews/:review_id.
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "delete_review")
	defer span.End()

	reviewID, ok := idParam(c, "review_id")
	if !ok {
		return
	}

	if err := h.useCase.DeleteReview(ctx, reviewID); err != nil {
		span.RecordError(err)
		h.reviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review deleted successfully"})
}

// ModerateReview handles POST /reviews/moderate/:review_id.
func (h *ReviewHandler) ModerateReview(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "moderate_review")
	defer span.End()

	reviewID, ok := idParam(c, "review_id")
	if !ok {
		return
	}

	var req ModerateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	review, err := h.useCase.ModerateReview(ctx, reviewID, req.Action)
	if err != nil {
		span.RecordError(err)
		h.reviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) reviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Review not found"})
	case errors.Is(err, ErrInvalidRating):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Rating must be between 1 and 5"})
	case errors.Is(err, ErrInvalidAction):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Action must be approve or flag"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

// HealthCheck handles GET /health.
func (h *ReviewHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "reviews-service",
	})
}
