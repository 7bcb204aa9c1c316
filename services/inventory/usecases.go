package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// InventoryUseCase contains the business logic of the inventory service. The
// cache is optional; a nil cache means every read goes to the database.
type InventoryUseCase struct {
	repository ItemRepository
	cache      *RedisCache
}

// NewInventoryUseCase creates a new InventoryUseCase.
func NewInventoryUseCase(repository ItemRepository, cache *RedisCache) *InventoryUseCase {
	return &InventoryUseCase{
		repository: repository,
		cache:      cache,
	}
}

func validateItem(category string, item *Item) error {
	if !IsValidCategory(category) {
		return ErrInvalidCategory
	}
	if !item.Price.IsPositive() {
		return ErrInvalidPrice
	}
	if item.StockCount < 0 {
		return ErrInvalidStockCount
	}
	return nil
}

// CreateItem adds a product to the inventory.
func (uc *InventoryUseCase) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	item := &Item{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Description: req.Description,
		StockCount:  *req.StockCount,
	}
	if err := validateItem(req.Category, item); err != nil {
		return nil, err
	}

	if err := uc.repository.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	uc.invalidate(ctx, allItemsKey())
	log.Printf("✅ Item created: %d (%s)", item.ID, item.Name)
	return item, nil
}

// ListItems returns all items, served from cache when possible.
func (uc *InventoryUseCase) ListItems(ctx context.Context) ([]Item, error) {
	if uc.cache != nil {
		var items []Item
		if err := uc.cache.Get(ctx, allItemsKey(), &items); err == nil {
			return items, nil
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️  Cache error: %v", err)
		}
	}

	items, err := uc.repository.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, allItemsKey(), items); err != nil {
			log.Printf("⚠️  Failed to cache items: %v", err)
		}
	}
	return items, nil
}

// GetItem returns a single item, served from cache when possible.
func (uc *InventoryUseCase) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	if uc.cache != nil {
		var item Item
		if err := uc.cache.Get(ctx, itemKey(itemID), &item); err == nil {
			return &item, nil
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️  Cache error: %v", err)
		}
	}

	item, err := uc.repository.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, itemKey(itemID), item); err != nil {
			log.Printf("⚠️  Failed to cache item: %v", err)
		}
	}
	return item, nil
}

// UpdateItem applies a partial update, including administrative stock sets.
func (uc *InventoryUseCase) UpdateItem(ctx context.Context, itemID int64, req UpdateItemRequest) (*Item, error) {
	item, err := uc.repository.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.StockCount != nil {
		item.StockCount = *req.StockCount
	}
	if err := validateItem(item.Category, item); err != nil {
		return nil, err
	}

	if err := uc.repository.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	uc.invalidate(ctx, itemKey(itemID), allItemsKey())
	return item, nil
}

// DeleteItem removes an item from the inventory.
func (uc *InventoryUseCase) DeleteItem(ctx context.Context, itemID int64) error {
	if err := uc.repository.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	uc.invalidate(ctx, itemKey(itemID), allItemsKey())
	return nil
}

// DeductStock subtracts a positive quantity from the item's stock using a
// pessimistic lock, rejecting the deduct when stock would go negative.
// Idempotent per attempt ID via the stock movement ledger.
func (uc *InventoryUseCase) DeductStock(ctx context.Context, itemID int64, req DeductStockRequest) (*Item, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	attemptID := req.AttemptID
	if attemptID == "" {
		attemptID = uuid.New().String()
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Pessimistic lock: the stock check and write are atomic per item.
	item, err := uc.repository.GetItemForUpdate(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	exists, err := uc.repository.MovementExists(ctx, tx, attemptID, MovementDeducted)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if exists {
		log.Printf("ℹ️  [IDEMPOTENCY] Deduct movement already processed for attempt %s", attemptID)
		return item, nil
	}

	if item.StockCount < req.Quantity {
		log.Printf("❌ [DEDUCT] Insufficient stock | item=%d stock=%d quantity=%d",
			itemID, item.StockCount, req.Quantity)
		return nil, ErrInsufficientStock
	}

	movement := &StockMovement{
		ID:        uuid.New().String(),
		ItemID:    itemID,
		AttemptID: attemptID,
		Type:      MovementDeducted,
		Quantity:  req.Quantity,
	}
	newStock := item.StockCount - req.Quantity
	if err := uc.repository.ApplyStockChange(ctx, tx, itemID, newStock, movement); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deduct: %w", err)
	}

	uc.invalidate(ctx, itemKey(itemID), allItemsKey())
	item.StockCount = newStock

	log.Printf("✅ [DEDUCT] item=%d quantity=%d new_stock=%d", itemID, req.Quantity, newStock)
	return item, nil
}

func (uc *InventoryUseCase) invalidate(ctx context.Context, keys ...string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, keys...); err != nil {
		log.Printf("⚠️  Failed to invalidate cache: %v", err)
	}
}
