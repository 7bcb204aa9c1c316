package main

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockItemRepository is a mock implementation of ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) CreateItem(ctx context.Context, item *Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) ListItems(ctx context.Context) ([]Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Item), args.Error(1)
}

func (m *MockItemRepository) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Item), args.Error(1)
}

func (m *MockItemRepository) UpdateItem(ctx context.Context, item *Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) DeleteItem(ctx context.Context, itemID int64) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockItemRepository) BeginTx(ctx context.Context) (Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Tx), args.Error(1)
}

func (m *MockItemRepository) GetItemForUpdate(ctx context.Context, tx Tx, itemID int64) (*Item, error) {
	args := m.Called(ctx, tx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Item), args.Error(1)
}

func (m *MockItemRepository) MovementExists(ctx context.Context, tx Tx, attemptID, movementType string) (bool, error) {
	args := m.Called(ctx, tx, attemptID, movementType)
	return args.Bool(0), args.Error(1)
}

func (m *MockItemRepository) ApplyStockChange(ctx context.Context, tx Tx, itemID int64, newStock int, movement *StockMovement) error {
	args := m.Called(ctx, tx, itemID, newStock, movement)
	return args.Error(0)
}

// MockTx is a mock implementation of Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func stockedItem(stock int) *Item {
	return &Item{
		ID:         1,
		Name:       "Widget",
		Category:   CategoryElectronics,
		Price:      decimal.RequireFromString("12.99"),
		StockCount: stock,
	}
}

func intPtr(v int) *int { return &v }

func TestCreateItem_Success(t *testing.T) {
	// Arrange
	repo := new(MockItemRepository)
	repo.On("CreateItem", mock.Anything, mock.AnythingOfType("*main.Item")).Return(nil)
	useCase := NewInventoryUseCase(repo, nil)

	// Act
	item, err := useCase.CreateItem(context.Background(), CreateItemRequest{
		Name:       "Widget",
		Category:   CategoryElectronics,
		Price:      decimal.RequireFromString("12.99"),
		StockCount: intPtr(5),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 5, item.StockCount)
	repo.AssertExpectations(t)
}

func TestCreateItem_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateItemRequest
		wantErr error
	}{
		{
			"invalid category",
			CreateItemRequest{Name: "Widget", Category: "toys", Price: decimal.RequireFromString("5"), StockCount: intPtr(1)},
			ErrInvalidCategory,
		},
		{
			"zero price",
			CreateItemRequest{Name: "Widget", Category: CategoryFood, Price: decimal.Zero, StockCount: intPtr(1)},
			ErrInvalidPrice,
		},
		{
			"negative price",
			CreateItemRequest{Name: "Widget", Category: CategoryFood, Price: decimal.RequireFromString("-1"), StockCount: intPtr(1)},
			ErrInvalidPrice,
		},
		{
			"negative stock",
			CreateItemRequest{Name: "Widget", Category: CategoryFood, Price: decimal.RequireFromString("5"), StockCount: intPtr(-1)},
			ErrInvalidStockCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockItemRepository)
			useCase := NewInventoryUseCase(repo, nil)

			item, err := useCase.CreateItem(context.Background(), tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, item)
			repo.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything)
		})
	}
}

func TestIsValidCategory(t *testing.T) {
	assert.True(t, IsValidCategory(CategoryFood))
	assert.True(t, IsValidCategory(CategoryClothes))
	assert.True(t, IsValidCategory(CategoryAccessories))
	assert.True(t, IsValidCategory(CategoryElectronics))
	assert.False(t, IsValidCategory("toys"))
	assert.False(t, IsValidCategory(""))
}

func TestDeductStock_Success(t *testing.T) {
	// Arrange
	repo := new(MockItemRepository)
	tx := new(MockTx)
	tx.On("Commit").Return(nil)
	tx.On("Rollback").Return(nil)
	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetItemForUpdate", mock.Anything, tx, int64(1)).Return(stockedItem(5), nil)
	repo.On("MovementExists", mock.Anything, tx, "attempt-1", MovementDeducted).Return(false, nil)
	repo.On("ApplyStockChange", mock.Anything, tx, int64(1), 2, mock.AnythingOfType("*main.StockMovement")).Return(nil)
	useCase := NewInventoryUseCase(repo, nil)

	// Act
	item, err := useCase.DeductStock(context.Background(), 1, DeductStockRequest{
		Quantity:  3,
		AttemptID: "attempt-1",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, item.StockCount)
	tx.AssertCalled(t, "Commit")
}

func TestDeductStock_SingleUnitScenario(t *testing.T) {
	// Arrange: 5 in stock, one unit sold
	repo := new(MockItemRepository)
	tx := new(MockTx)
	tx.On("Commit").Return(nil)
	tx.On("Rollback").Return(nil)
	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetItemForUpdate", mock.Anything, tx, int64(1)).Return(stockedItem(5), nil)
	repo.On("MovementExists", mock.Anything, tx, "attempt-1", MovementDeducted).Return(false, nil)
	repo.On("ApplyStockChange", mock.Anything, tx, int64(1), 4, mock.AnythingOfType("*main.StockMovement")).Return(nil)
	useCase := NewInventoryUseCase(repo, nil)

	// Act
	item, err := useCase.DeductStock(context.Background(), 1, DeductStockRequest{
		Quantity:  1,
		AttemptID: "attempt-1",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 4, item.StockCount)
}

func TestDeductStock_Insufficient(t *testing.T) {
	// Arrange
	repo := new(MockItemRepository)
	tx := new(MockTx)
	tx.On("Rollback").Return(nil)
	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetItemForUpdate", mock.Anything, tx, int64(1)).Return(stockedItem(2), nil)
	repo.On("MovementExists", mock.Anything, tx, "attempt-1", MovementDeducted).Return(false, nil)
	useCase := NewInventoryUseCase(repo, nil)

	// Act
	item, err := useCase.DeductStock(context.Background(), 1, DeductStockRequest{
		Quantity:  3,
		AttemptID: "attempt-1",
	})

	// Assert
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Nil(t, item)
	repo.AssertNotCalled(t, "ApplyStockChange",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	tx.AssertNotCalled(t, "Commit")
}

func TestDeductStock_ExactStockSucceeds(t *testing.T) {
	// Arrange
	repo := new(MockItemRepository)
	tx := new(MockTx)
	tx.On("Commit").Return(nil)
	tx.On("Rollback").Return(nil)
	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetItemForUpdate", mock.Anything, tx, int64(1)).Return(stockedItem(3), nil)
	repo.On("MovementExists", mock.Anything, tx, "attempt-1", MovementDeducted).Return(false, nil)
	repo.On("ApplyStockChange", mock.Anything, tx, int64(1), 0, mock.AnythingOfType("*main.StockMovement")).Return(nil)
	useCase := NewInventoryUseCase(repo, nil)

	// Act
	item, err := useCase.DeductStock(context.Background(), 1, DeductStockRequest{
		Quantity:  3,
		AttemptID: "attempt-1",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, item.StockCount)
}

func TestDeductStock_InvalidQuantity(t *testing.T) {
	repo := new(MockItemRepository)
	useCase := NewInventoryUseCase(repo, nil)

	_, err := useCase.DeductStock(context.Background(), 1, DeductStockRequest{Quantity: 0})

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	repo.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestDeductStock_IdempotentReplayReturnsCurrentItem(t *testing.T) {
	// Arrange
	repo := new(MockItemRepository)
	tx := new(MockTx)
	tx.On("Rollback").Return(nil)
	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetItemForUpdate", mock.Anything, tx, int64(1)).Return(stockedItem(2), nil)
	repo.On("MovementExists", mock.Anything, tx, "attempt-1", MovementDeducted).Return(true, nil)
	useCase := NewInventoryUseCase(repo, nil)

	// Act
	item, err := useCase.DeductStock(context.Background(), 1, DeductStockRequest{
		Quantity:  3,
		AttemptID: "attempt-1",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, item.StockCount)
	repo.AssertNotCalled(t, "ApplyStockChange",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateItem_AdministrativeStockSet(t *testing.T) {
	// Arrange
	repo := new(MockItemRepository)
	repo.On("GetItem", mock.Anything, int64(1)).Return(stockedItem(2), nil)
	repo.On("UpdateItem", mock.Anything, mock.AnythingOfType("*main.Item")).Return(nil)
	useCase := NewInventoryUseCase(repo, nil)

	// Act
	item, err := useCase.UpdateItem(context.Background(), 1, UpdateItemRequest{
		StockCount: intPtr(50),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 50, item.StockCount)
	assert.Equal(t, "Widget", item.Name)
}

func TestGetItem_NotFound(t *testing.T) {
	repo := new(MockItemRepository)
	repo.On("GetItem", mock.Anything, int64(99)).Return(nil, ErrItemNotFound)
	useCase := NewInventoryUseCase(repo, nil)

	item, err := useCase.GetItem(context.Background(), 99)

	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Nil(t, item)
}
