package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// MockSaleUseCase is a mock implementation of SaleUseCaseInterface
type MockSaleUseCase struct {
	mock.Mock
}

func (m *MockSaleUseCase) ProcessSale(ctx context.Context, attemptID string, req ProcessSaleRequest) (*Sale, error) {
	args := m.Called(ctx, attemptID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Sale), args.Error(1)
}

func (m *MockSaleUseCase) GetPurchaseHistory(ctx context.Context, username string) ([]Sale, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Sale), args.Error(1)
}

func (m *MockSaleUseCase) ListAvailableGoods(ctx context.Context) ([]Good, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Good), args.Error(1)
}

func (m *MockSaleUseCase) GetGoodDetails(ctx context.Context, itemID int64) (*Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Item), args.Error(1)
}

func setupSalesRouter(useCase SaleUseCaseInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewSaleHandler(useCase, noop.NewTracerProvider().Tracer("test"))

	r := gin.New()
	r.POST("/sales", handler.ProcessSale)
	r.GET("/sales/history/:username", handler.GetPurchaseHistory)
	r.GET("/goods", handler.ListAvailableGoods)
	r.GET("/goods/:item_id", handler.GetGoodDetails)
	r.GET("/health", handler.HealthCheck)
	return r
}

func TestProcessSaleHandler_Success(t *testing.T) {
	// Arrange
	useCase := new(MockSaleUseCase)
	useCase.On("ProcessSale", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&Sale{ID: 1, AttemptID: "generated", Username: "alice"}, nil)
	router := setupSalesRouter(useCase)

	body := bytes.NewBufferString(`{"username":"alice","item_id":1,"quantity":2}`)
	req := httptest.NewRequest(http.MethodPost, "/sales", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sale processed successfully")
	useCase.AssertExpectations(t)
}

func TestProcessSaleHandler_ForwardsIdempotencyKey(t *testing.T) {
	// Arrange
	useCase := new(MockSaleUseCase)
	useCase.On("ProcessSale", mock.Anything, "client-key-1", mock.Anything).
		Return(&Sale{ID: 1, AttemptID: "client-key-1"}, nil)
	router := setupSalesRouter(useCase)

	body := bytes.NewBufferString(`{"username":"alice","item_id":1}`)
	req := httptest.NewRequest(http.MethodPost, "/sales", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "client-key-1")
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	useCase.AssertCalled(t, "ProcessSale", mock.Anything, "client-key-1", mock.Anything)
}

func TestProcessSaleHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid request", ErrInvalidRequest, http.StatusBadRequest},
		{"insufficient stock", ErrInsufficientStock, http.StatusBadRequest},
		{"insufficient balance", ErrInsufficientBalance, http.StatusBadRequest},
		{"item not found", ErrItemNotFound, http.StatusNotFound},
		{"customer not found", ErrCustomerNotFound, http.StatusNotFound},
		{"collaborator unavailable", &CollaboratorUnavailableError{Service: "customers", Err: errors.New("refused")}, http.StatusServiceUnavailable},
		{"stock deduction failed", ErrStockDeductionFailed, http.StatusInternalServerError},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useCase := new(MockSaleUseCase)
			useCase.On("ProcessSale", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
				Return(nil, tt.err)
			router := setupSalesRouter(useCase)

			body := bytes.NewBufferString(`{"username":"alice","item_id":1}`)
			req := httptest.NewRequest(http.MethodPost, "/sales", body)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestGetPurchaseHistoryHandler_EmptyReturns404(t *testing.T) {
	// Arrange
	useCase := new(MockSaleUseCase)
	useCase.On("GetPurchaseHistory", mock.Anything, "alice").Return([]Sale{}, nil)
	router := setupSalesRouter(useCase)

	req := httptest.NewRequest(http.MethodGet, "/sales/history/alice", nil)
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No purchase history found for this user")
}

func TestGetPurchaseHistoryHandler_ReturnsSales(t *testing.T) {
	// Arrange
	useCase := new(MockSaleUseCase)
	useCase.On("GetPurchaseHistory", mock.Anything, "alice").
		Return([]Sale{{ID: 1, Username: "alice", ItemID: 7, Quantity: 2}}, nil)
	router := setupSalesRouter(useCase)

	req := httptest.NewRequest(http.MethodGet, "/sales/history/alice", nil)
	w := httptest.NewRecorder()

	// Act
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestGetGoodDetailsHandler_InvalidID(t *testing.T) {
	useCase := new(MockSaleUseCase)
	router := setupSalesRouter(useCase)

	req := httptest.NewRequest(http.MethodGet, "/goods/abc", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	useCase.AssertNotCalled(t, "GetGoodDetails", mock.Anything, mock.Anything)
}

func TestHealthCheckHandler(t *testing.T) {
	router := setupSalesRouter(new(MockSaleUseCase))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sales-service")
}
