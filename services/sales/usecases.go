package main

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// SaleUseCase contains the business logic of the sales service.
type SaleUseCase struct {
	repository SaleRepository
	customers  CustomerClient
	inventory  InventoryClient
	publisher  EventPublisher
	tracer     trace.Tracer
	salesCount metric.Int64Counter
}

// NewSaleUseCase creates a new SaleUseCase.
func NewSaleUseCase(
	repository SaleRepository,
	customers CustomerClient,
	inventory InventoryClient,
	publisher EventPublisher,
	tracer trace.Tracer,
) *SaleUseCase {
	meter := otel.Meter("sales-service")
	salesCount, err := meter.Int64Counter("sales_processed_total",
		metric.WithDescription("Number of successfully recorded sales"))
	if err != nil {
		log.Printf("⚠️  Failed to create sales counter: %v", err)
	}

	return &SaleUseCase{
		repository: repository,
		customers:  customers,
		inventory:  inventory,
		publisher:  publisher,
		tracer:     tracer,
		salesCount: salesCount,
	}
}

// ProcessSale runs the sale saga for one attempt.
func (uc *SaleUseCase) ProcessSale(ctx context.Context, attemptID string, req ProcessSaleRequest) (*Sale, error) {
	saga := NewSaleSaga(attemptID, uc.customers, uc.inventory, uc.repository, uc.publisher, uc.tracer)

	sale, err := saga.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	if uc.salesCount != nil {
		uc.salesCount.Add(ctx, 1)
	}
	return sale, nil
}

// GetPurchaseHistory lists a customer's sales in insertion order.
func (uc *SaleUseCase) GetPurchaseHistory(ctx context.Context, username string) ([]Sale, error) {
	return uc.repository.ListSalesByUsername(ctx, username)
}

// ListAvailableGoods proxies the inventory listing, reshaped to id/name/price.
func (uc *SaleUseCase) ListAvailableGoods(ctx context.Context) ([]Good, error) {
	items, err := uc.inventory.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	goods := make([]Good, 0, len(items))
	for _, item := range items {
		goods = append(goods, Good{ID: item.ID, Name: item.Name, Price: item.Price})
	}
	return goods, nil
}

// GetGoodDetails proxies a single item detail from the inventory service.
func (uc *SaleUseCase) GetGoodDetails(ctx context.Context, itemID int64) (*Item, error) {
	return uc.inventory.GetItem(ctx, itemID)
}
