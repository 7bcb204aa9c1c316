package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// sagaState enumerates the transitions of one sale attempt.
type sagaState string

const (
	stateStarted         sagaState = "started"
	stateValidated       sagaState = "validated"
	stateStockChecked    sagaState = "stock_checked"
	stateBalanceChecked  sagaState = "balance_checked"
	stateBalanceDeducted sagaState = "balance_deducted"
	stateStockDeducted   sagaState = "stock_deducted"
	stateRecorded        sagaState = "recorded"
)

// SaleSaga executes one sale attempt as an explicit state machine:
//
//	validated -> stock_checked -> balance_checked -> balance_deducted ->
//	stock_deducted -> recorded
//
// Up to balance_checked nothing has mutated and every failure is fully
// recoverable by the caller. From balance_deducted on, a failure triggers the
// compensating wallet credit, and if that also fails (or a mutation outcome is
// unknown after a timeout) a reconciliation task is persisted and published.
// All mutations carry the attempt ID so the stores can deduplicate retries.
type SaleSaga struct {
	attemptID  string
	state      sagaState
	customers  CustomerClient
	inventory  InventoryClient
	repository SaleRepository
	publisher  EventPublisher
	tracer     trace.Tracer
}

// NewSaleSaga creates a saga for a single attempt ID.
func NewSaleSaga(
	attemptID string,
	customers CustomerClient,
	inventory InventoryClient,
	repository SaleRepository,
	publisher EventPublisher,
	tracer trace.Tracer,
) *SaleSaga {
	return &SaleSaga{
		attemptID:  attemptID,
		state:      stateStarted,
		customers:  customers,
		inventory:  inventory,
		repository: repository,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Execute runs the saga to a terminal state.
func (s *SaleSaga) Execute(ctx context.Context, req ProcessSaleRequest) (*Sale, error) {
	ctx, span := s.tracer.Start(ctx, "sale_saga")
	defer span.End()

	if req.Username == "" || req.ItemID <= 0 {
		return nil, ErrInvalidRequest
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		return nil, ErrInvalidRequest
	}
	s.state = stateValidated

	span.SetAttributes(
		attribute.String("attempt_id", s.attemptID),
		attribute.String("username", req.Username),
		attribute.Int64("item_id", req.ItemID),
		attribute.Int("quantity", req.Quantity),
	)

	// Replay of an attempt that already recorded a sale returns it as-is.
	if sale, err := s.repository.GetSaleByAttemptID(ctx, s.attemptID); err != nil {
		return nil, fmt.Errorf("checking attempt idempotency: %w", err)
	} else if sale != nil {
		log.Printf("ℹ️  [IDEMPOTENCY] Attempt %s already recorded as sale %d", s.attemptID, sale.ID)
		return sale, nil
	}

	item, err := s.fetchItem(ctx, req.ItemID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if item.StockCount < req.Quantity {
		return nil, ErrInsufficientStock
	}
	s.state = stateStockChecked

	customer, err := s.fetchCustomer(ctx, req.Username)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	total := TotalPrice(item.Price, req.Quantity)
	if customer.Balance.LessThan(total) {
		return nil, ErrInsufficientBalance
	}
	s.state = stateBalanceChecked
	span.SetAttributes(attribute.String("total_price", total.String()))

	// Mutation phase. A client disconnect must not abandon an in-flight
	// mutation sequence, so the remaining steps run on a cancel-detached
	// context.
	mctx := context.WithoutCancel(ctx)

	if err := s.deductBalance(mctx, req, total); err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.state = stateBalanceDeducted

	if err := s.deductStock(mctx, req, total); err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.state = stateStockDeducted

	sale := NewSale(s.attemptID, req.Username, req.ItemID, req.Quantity, total)
	if err := s.repository.CreateSale(mctx, sale); err != nil {
		// Both deductions applied but the ledger write failed. The sale must
		// not be reported as success; leave a reconciliation trail instead.
		s.recordReconciliation(mctx, req, total,
			fmt.Sprintf("sale record failed after both deductions: %v", err))
		return nil, fmt.Errorf("recording sale: %w", err)
	}
	s.state = stateRecorded

	if err := s.publisher.PublishSaleRecorded(sale); err != nil {
		log.Printf("⚠️  Failed to publish sale.recorded for attempt %s: %v", s.attemptID, err)
	}

	log.Printf("✅ [SAGA] Sale recorded | attempt=%s username=%s item=%d qty=%d total=%s",
		s.attemptID, req.Username, req.ItemID, req.Quantity, total)
	return sale, nil
}

func (s *SaleSaga) fetchItem(ctx context.Context, itemID int64) (*Item, error) {
	ctx, span := s.tracer.Start(ctx, "saga.fetch_item")
	defer span.End()

	item, err := s.inventory.GetItem(ctx, itemID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return item, nil
}

func (s *SaleSaga) fetchCustomer(ctx context.Context, username string) (*Customer, error) {
	ctx, span := s.tracer.Start(ctx, "saga.fetch_customer")
	defer span.End()

	customer, err := s.customers.GetCustomer(ctx, username)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return customer, nil
}

func (s *SaleSaga) deductBalance(ctx context.Context, req ProcessSaleRequest, total decimal.Decimal) error {
	ctx, span := s.tracer.Start(ctx, "saga.deduct_balance")
	defer span.End()

	err := s.customers.DeductBalance(ctx, req.Username, total, s.attemptID)
	if err == nil {
		log.Printf("➡️  [SAGA] Balance deducted | attempt=%s amount=%s", s.attemptID, total)
		return nil
	}
	span.RecordError(err)

	// A rejected deduct changed nothing; a timeout left the outcome unknown.
	var unavailable *CollaboratorUnavailableError
	if errors.As(err, &unavailable) {
		s.recordReconciliation(ctx, req, total,
			fmt.Sprintf("balance deduction outcome unknown: %v", err))
		log.Printf("🚨 [SAGA] Balance deduction outcome unknown | attempt=%s : %v", s.attemptID, err)
		return err
	}
	if errors.Is(err, ErrInsufficientBalance) || errors.Is(err, ErrCustomerNotFound) {
		return err
	}
	log.Printf("🚨 [SAGA] Balance deduction failed | attempt=%s : %v", s.attemptID, err)
	return err
}

func (s *SaleSaga) deductStock(ctx context.Context, req ProcessSaleRequest, total decimal.Decimal) error {
	ctx, span := s.tracer.Start(ctx, "saga.deduct_stock")
	defer span.End()

	err := s.inventory.DeductStock(ctx, req.ItemID, req.Quantity, s.attemptID)
	if err == nil {
		log.Printf("➡️  [SAGA] Stock deducted | attempt=%s item=%d qty=%d", s.attemptID, req.ItemID, req.Quantity)
		return nil
	}
	span.RecordError(err)

	// Balance is already gone. This is the distinct, higher-severity class:
	// compensate the wallet, and record a reconciliation task if that fails
	// too or if the stock outcome is unknown.
	log.Printf("🚨 [SAGA] Stock deduction failed after balance deduction | attempt=%s : %v", s.attemptID, err)

	var unavailable *CollaboratorUnavailableError
	if errors.As(err, &unavailable) {
		s.recordReconciliation(ctx, req, total,
			fmt.Sprintf("stock deduction outcome unknown after balance deduction: %v", err))
	}
	s.compensateBalance(ctx, req, total)

	if errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrInsufficientStock) {
		// The store rejected the write after our read-time check passed (a
		// lost race or concurrent admin change). The wallet was compensated,
		// but the attempt itself is a deduction failure, not a pre-condition
		// one: the caller must know a mutation sequence ran.
		return fmt.Errorf("%w: %v", ErrStockDeductionFailed, err)
	}
	return err
}

// compensateBalance credits back the deducted amount under the same attempt
// ID, so a replayed compensation is a no-op at the store.
func (s *SaleSaga) compensateBalance(ctx context.Context, req ProcessSaleRequest, total decimal.Decimal) {
	ctx, span := s.tracer.Start(ctx, "saga.compensate_balance")
	defer span.End()

	if err := s.customers.ChargeBalance(ctx, req.Username, total, s.attemptID); err != nil {
		span.RecordError(err)
		log.Printf("🚨 [SAGA] Compensation failed, balance remains deducted | attempt=%s : %v", s.attemptID, err)
		s.recordReconciliation(ctx, req, total,
			fmt.Sprintf("compensating credit failed: %v", err))
		return
	}
	log.Printf("↩️  [SAGA] Balance compensated | attempt=%s amount=%s", s.attemptID, total)
}

func (s *SaleSaga) recordReconciliation(ctx context.Context, req ProcessSaleRequest, total decimal.Decimal, reason string) {
	task := &ReconciliationTask{
		ID:        uuid.New().String(),
		AttemptID: s.attemptID,
		Username:  req.Username,
		ItemID:    req.ItemID,
		Quantity:  req.Quantity,
		Amount:    total,
		Reason:    reason,
	}

	if err := s.repository.CreateReconciliationTask(ctx, task); err != nil {
		log.Printf("🚨 [SAGA] Failed to persist reconciliation task | attempt=%s reason=%q : %v",
			s.attemptID, reason, err)
	}
	if err := s.publisher.PublishReconciliation(task); err != nil {
		log.Printf("⚠️  Failed to publish sale.reconciliation for attempt %s: %v", s.attemptID, err)
	}
}
