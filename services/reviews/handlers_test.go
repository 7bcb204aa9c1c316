package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel/trace/noop"
)

// MockReviewUseCase is a mock implementation of ReviewUseCaseInterface
type MockReviewUseCase struct {
	mock.Mock
}

func (m *MockReviewUseCase) SubmitReview(ctx context.Context, req SubmitReviewRequest) (*Review, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Review), args.Error(1)
}

func (m *MockReviewUseCase) ListProductReviews(ctx context.Context, itemID int64) ([]Review, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Review), args.Error(1)
}

func (m *MockReviewUseCase) UpdateReview(ctx context.Context, reviewID int64, req UpdateReviewRequest) (*Review, error) {
	args := m.Called(ctx, reviewID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Review), args.Error(1)
}

func (m *MockReviewUseCase) DeleteReview(ctx context.Context, reviewID int64) error {
	args := m.Called(ctx, reviewID)
	return args.Error(0)
}

func (m *MockReviewUseCase) ModerateReview(ctx context.Context, reviewID int64, action string) (*Review, error) {
	args := m.Called(ctx, reviewID, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Review), args.Error(1)
}

func setupReviewsRouter(useCase ReviewUseCaseInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewReviewHandler(useCase, noop.NewTracerProvider().Tracer("test"))

	r := gin.New()
	r.POST("/reviews", handler.SubmitReview)
	r.GET("/reviews/product/:item_id", handler.ListProductReviews)
	r.PUT("/reviews/:review_id", handler.UpdateReview)
	r.DELETE("/reviews/:review_id", handler.DeleteReview)

	admin := r.Group("/", requireAPIKey("test_key"))
	admin.POST("/reviews/moderate/:review_id", handler.ModerateReview)
	return r
}

func TestSubmitReviewHandler_Created(t *testing.T) {
	// Arrange
	useCase := new(MockReviewUseCase)
	useCase.On("SubmitReview", mock.Anything, mock.Anything).
		Return(&Review{ID: 1, ItemID: 7, Username: "alice", Rating: 4, Status: StatusPending}, nil)
	router := setupReviewsRouter(useCase)

	body := bytes.NewBufferString(`{"item_id":7,"username":"alice","rating":4,"comment":"solid"}`)
	req := httptest.NewRequest(http.MethodPost, "/reviews", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)
}

func TestSubmitReviewHandler_InvalidRating(t *testing.T) {
	// Arrange
	useCase := new(MockReviewUseCase)
	useCase.On("SubmitReview", mock.Anything, mock.Anything).Return(nil, ErrInvalidRating)
	router := setupReviewsRouter(useCase)

	body := bytes.NewBufferString(`{"item_id":7,"username":"alice","rating":9}`)
	req := httptest.NewRequest(http.MethodPost, "/reviews", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Rating must be between 1 and 5")
}

func TestListProductReviewsHandler_EmptyReturns404(t *testing.T) {
	// Arrange
	useCase := new(MockReviewUseCase)
	useCase.On("ListProductReviews", mock.Anything, int64(7)).Return([]Review{}, nil)
	router := setupReviewsRouter(useCase)

	req := httptest.NewRequest(http.MethodGet, "/reviews/product/7", nil)
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No reviews found for this product")
}

func TestListProductReviewsHandler_ReturnsApproved(t *testing.T) {
	// Arrange
	useCase := new(MockReviewUseCase)
	useCase.On("ListProductReviews", mock.Anything, int64(7)).
		Return([]Review{{ID: 1, ItemID: 7, Username: "alice", Rating: 4, Status: StatusApproved}}, nil)
	router := setupReviewsRouter(useCase)

	req := httptest.NewRequest(http.MethodGet, "/reviews/product/7", nil)
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestModerateReviewHandler_RequiresAPIKey(t *testing.T) {
	// Arrange
	useCase := new(MockReviewUseCase)
	router := setupReviewsRouter(useCase)

	body := bytes.NewBufferString(`{"action":"approve"}`)
	req := httptest.NewRequest(http.MethodPost, "/reviews/moderate/1", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	// Act: no X-API-Key header
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	useCase.AssertNotCalled(t, "ModerateReview", mock.Anything, mock.Anything, mock.Anything)
}

func TestModerateReviewHandler_Approve(t *testing.T) {
	// Arrange
	useCase := new(MockReviewUseCase)
	useCase.On("ModerateReview", mock.Anything, int64(1), "approve").
		Return(&Review{ID: 1, Status: StatusApproved}, nil)
	router := setupReviewsRouter(useCase)

	body := bytes.NewBufferString(`{"action":"approve"}`)
	req := httptest.NewRequest(http.MethodPost, "/reviews/moderate/1", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "test_key")
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"approved"`)
}

func TestDeleteReviewHandler_NotFound(t *testing.T) {
	// Arrange
	useCase := new(MockReviewUseCase)
	useCase.On("DeleteReview", mock.Anything, int64(99)).Return(ErrReviewNotFound)
	router := setupReviewsRouter(useCase)

	req := httptest.NewRequest(http.MethodDelete, "/reviews/99", nil)
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
}
