package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// CustomerClient is the customers collaborator contract consumed by the saga.
type CustomerClient interface {
	GetCustomer(ctx context.Context, username string) (*Customer, error)
	DeductBalance(ctx context.Context, username string, amount decimal.Decimal, attemptID string) error
	ChargeBalance(ctx context.Context, username string, amount decimal.Decimal, attemptID string) error
}

// InventoryClient is the inventory collaborator contract consumed by the saga.
type InventoryClient interface {
	ListItems(ctx context.Context) ([]Item, error)
	GetItem(ctx context.Context, itemID int64) (*Item, error)
	DeductStock(ctx context.Context, itemID int64, quantity int, attemptID string) error
}

const collaboratorTimeout = 10 * time.Second

func newRestyClient(baseURL, apiKey string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(collaboratorTimeout).
		SetHeader("X-API-Key", apiKey)
}

// amountRequest is the body of the wallet deduct/charge endpoints.
type amountRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	AttemptID string          `json:"attempt_id,omitempty"`
}

// quantityRequest is the body of the stock deduct endpoint.
type quantityRequest struct {
	Quantity  int    `json:"quantity"`
	AttemptID string `json:"attempt_id,omitempty"`
}

// HTTPCustomerClient implements CustomerClient over the customers service REST API.
type HTTPCustomerClient struct {
	http *resty.Client
}

// NewCustomerClient creates a customers client with a bounded timeout.
func NewCustomerClient(baseURL, apiKey string) *HTTPCustomerClient {
	return &HTTPCustomerClient{http: newRestyClient(baseURL, apiKey)}
}

func (c *HTTPCustomerClient) GetCustomer(ctx context.Context, username string) (*Customer, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&Customer{}).
		Get(fmt.Sprintf("/customers/%s", username))
	if err != nil {
		return nil, &CollaboratorUnavailableError{Service: "customers", Err: err}
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return resp.Result().(*Customer), nil
	case http.StatusNotFound:
		return nil, ErrCustomerNotFound
	default:
		return nil, fmt.Errorf("customers service returned status %d", resp.StatusCode())
	}
}

func (c *HTTPCustomerClient) DeductBalance(ctx context.Context, username string, amount decimal.Decimal, attemptID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(amountRequest{Amount: amount, AttemptID: attemptID}).
		Post(fmt.Sprintf("/customers/%s/deduct", username))
	if err != nil {
		return &CollaboratorUnavailableError{Service: "customers", Err: err}
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrCustomerNotFound
	case http.StatusBadRequest:
		// The store rejected the deduct atomically. A lost balance race is
		// still a pre-condition failure: nothing has changed.
		if containsAny(responseMessage(resp.Body()), []string{"Insufficient balance", "insufficient balance"}) {
			return ErrInsufficientBalance
		}
		return fmt.Errorf("%w: %s", ErrBalanceDeductionFailed, responseMessage(resp.Body()))
	default:
		return fmt.Errorf("%w: customers service returned status %d", ErrBalanceDeductionFailed, resp.StatusCode())
	}
}

func (c *HTTPCustomerClient) ChargeBalance(ctx context.Context, username string, amount decimal.Decimal, attemptID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(amountRequest{Amount: amount, AttemptID: attemptID}).
		Post(fmt.Sprintf("/customers/%s/charge", username))
	if err != nil {
		return &CollaboratorUnavailableError{Service: "customers", Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("failed to charge wallet: customers service returned status %d", resp.StatusCode())
	}
	return nil
}

// HTTPInventoryClient implements InventoryClient over the inventory service REST API.
type HTTPInventoryClient struct {
	http *resty.Client
}

// NewInventoryClient creates an inventory client with a bounded timeout.
func NewInventoryClient(baseURL, apiKey string) *HTTPInventoryClient {
	return &HTTPInventoryClient{http: newRestyClient(baseURL, apiKey)}
}

func (c *HTTPInventoryClient) ListItems(ctx context.Context) ([]Item, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&[]Item{}).
		Get("/items")
	if err != nil {
		return nil, &CollaboratorUnavailableError{Service: "inventory", Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("inventory service returned status %d", resp.StatusCode())
	}
	return *resp.Result().(*[]Item), nil
}

func (c *HTTPInventoryClient) GetItem(ctx context.Context, itemID int64) (*Item, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&Item{}).
		Get(fmt.Sprintf("/items/%d", itemID))
	if err != nil {
		return nil, &CollaboratorUnavailableError{Service: "inventory", Err: err}
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return resp.Result().(*Item), nil
	case http.StatusNotFound:
		return nil, ErrItemNotFound
	default:
		return nil, fmt.Errorf("inventory service returned status %d", resp.StatusCode())
	}
}

func (c *HTTPInventoryClient) DeductStock(ctx context.Context, itemID int64, quantity int, attemptID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(quantityRequest{Quantity: quantity, AttemptID: attemptID}).
		Post(fmt.Sprintf("/items/%d/deduct", itemID))
	if err != nil {
		return &CollaboratorUnavailableError{Service: "inventory", Err: err}
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrItemNotFound
	case http.StatusBadRequest:
		if containsAny(responseMessage(resp.Body()), []string{"Insufficient stock", "insufficient stock"}) {
			return ErrInsufficientStock
		}
		return fmt.Errorf("%w: %s", ErrStockDeductionFailed, responseMessage(resp.Body()))
	default:
		return fmt.Errorf("%w: inventory service returned status %d", ErrStockDeductionFailed, resp.StatusCode())
	}
}

// responseMessage extracts the "message" field of an error body.
func responseMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		return string(body)
	}
	return payload.Message
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
