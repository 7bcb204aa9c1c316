package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerUseCase contains the business logic of the customers service.
type CustomerUseCase struct {
	repository CustomerRepository
}

// NewCustomerUseCase creates a new CustomerUseCase.
func NewCustomerUseCase(repository CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{repository: repository}
}

// Register creates a customer with a hashed password and a zero balance.
func (uc *CustomerUseCase) Register(ctx context.Context, req RegisterCustomerRequest) (*Customer, error) {
	customer := &Customer{
		Username:      req.Username,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Balance:       decimal.Zero,
		Age:           req.Age,
		Address:       req.Address,
		Gender:        req.Gender,
		MaritalStatus: req.MaritalStatus,
	}
	if err := customer.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := uc.repository.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}

	log.Printf("✅ Customer registered: %s", customer.Username)
	return customer, nil
}

// GetCustomer fetches a customer by username.
func (uc *CustomerUseCase) GetCustomer(ctx context.Context, username string) (*Customer, error) {
	return uc.repository.GetCustomerByUsername(ctx, username)
}

// UpdateCustomer applies a partial profile update.
func (uc *CustomerUseCase) UpdateCustomer(ctx context.Context, username string, req UpdateCustomerRequest) (*Customer, error) {
	customer, err := uc.repository.GetCustomerByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		customer.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		customer.LastName = *req.LastName
	}
	if req.Age != nil {
		customer.Age = *req.Age
	}
	if req.Address != nil {
		customer.Address = *req.Address
	}
	if req.Gender != nil {
		customer.Gender = *req.Gender
	}
	if req.MaritalStatus != nil {
		customer.MaritalStatus = *req.MaritalStatus
	}

	if err := uc.repository.UpdateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer removes a customer.
func (uc *CustomerUseCase) DeleteCustomer(ctx context.Context, username string) error {
	return uc.repository.DeleteCustomer(ctx, username)
}

// ChargeWallet adds a positive amount to the wallet. Idempotent per attempt
// ID: a replayed charge (the saga's compensating credit) applies once.
func (uc *CustomerUseCase) ChargeWallet(ctx context.Context, username string, req AmountRequest) (decimal.Decimal, error) {
	return uc.applyMovement(ctx, username, req, MovementCharged)
}

// DeductWallet subtracts a positive amount from the wallet, rejecting the
// operation when the balance would go negative. Idempotent per attempt ID.
func (uc *CustomerUseCase) DeductWallet(ctx context.Context, username string, req AmountRequest) (decimal.Decimal, error) {
	return uc.applyMovement(ctx, username, req, MovementDeducted)
}

func (uc *CustomerUseCase) applyMovement(ctx context.Context, username string, req AmountRequest, movementType string) (decimal.Decimal, error) {
	if !req.Amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	// Attempts without a caller-supplied ID get a fresh one: the movement is
	// still recorded, but never deduplicated across requests.
	attemptID := req.AttemptID
	if attemptID == "" {
		attemptID = uuid.New().String()
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Pessimistic lock: the balance check and write are atomic per customer.
	customer, err := uc.repository.GetCustomerForUpdate(ctx, tx, username)
	if err != nil {
		return decimal.Zero, err
	}

	exists, err := uc.repository.MovementExists(ctx, tx, attemptID, movementType)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if exists {
		log.Printf("ℹ️  [IDEMPOTENCY] %s movement already processed for attempt %s", movementType, attemptID)
		return customer.Balance, nil
	}

	var newBalance decimal.Decimal
	switch movementType {
	case MovementDeducted:
		if customer.Balance.LessThan(req.Amount) {
			log.Printf("❌ [DEDUCT] Insufficient balance | username=%s balance=%s amount=%s",
				username, customer.Balance, req.Amount)
			return decimal.Zero, ErrInsufficientBalance
		}
		newBalance = customer.Balance.Sub(req.Amount)
	case MovementCharged:
		newBalance = customer.Balance.Add(req.Amount)
	default:
		return decimal.Zero, fmt.Errorf("unknown movement type %q", movementType)
	}

	movement := &WalletMovement{
		ID:        uuid.New().String(),
		Username:  username,
		AttemptID: attemptID,
		Type:      movementType,
		Amount:    req.Amount,
	}
	if err := uc.repository.ApplyBalanceChange(ctx, tx, username, newBalance, movement); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit %s: %w", movementType, err)
	}

	log.Printf("✅ [%s] username=%s amount=%s new_balance=%s", movementType, username, req.Amount, newBalance)
	return newBalance, nil
}
