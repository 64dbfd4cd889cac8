package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// PaymentStatusPaid is the upstream provider's code for a settled order.
const PaymentStatusPaid = "OD"

// Payment polling matches the bounded retry loop the backend expects of
// callers: a fixed interval, a hard attempt cap, then give up.
var (
	paymentPollInterval = 3 * time.Second
	paymentPollAttempts = uint64(20)
)

// ErrPaymentTimeout is returned when an order does not settle within the
// polling window.
var ErrPaymentTimeout = errors.New("payment not confirmed within polling window")

// PaymentOrder is a created payment order awaiting settlement.
type PaymentOrder struct {
	TradeOrderID     string  `json:"trade_order_id"`
	PaymentURL       string  `json:"payment_url"`
	Amount           float64 `json:"amount"`
	SubscriptionType string  `json:"subscription_type"`
}

// PaymentStatus is the settlement state of one order.
type PaymentStatus struct {
	TradeOrderID string `json:"trade_order_id"`
	Status       string `json:"status"`
}

// Paid reports whether the order has settled.
func (s PaymentStatus) Paid() bool {
	return s.Status == PaymentStatusPaid
}

// envelope is the status/data wrapper on payment responses.
type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// CreatePayment opens a payment order for the given subscription type.
func (c *Client) CreatePayment(ctx context.Context, subscriptionType string) (*PaymentOrder, error) {
	path := "/payment/create?subscription_type=" + subscriptionType
	var out envelope[PaymentOrder]
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, fmt.Errorf("create payment: %s", out.Message)
	}
	return &out.Data, nil
}

// QueryPayment fetches the current settlement state of an order.
func (c *Client) QueryPayment(ctx context.Context, tradeOrderID string) (*PaymentStatus, error) {
	var out envelope[PaymentStatus]
	if err := c.doJSON(ctx, http.MethodGet, "/payment/query/"+tradeOrderID, nil, &out); err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, fmt.Errorf("query payment: %s", out.Message)
	}
	if out.Data.TradeOrderID == "" {
		out.Data.TradeOrderID = tradeOrderID
	}
	return &out.Data, nil
}

// AwaitPayment polls an order until it settles, the attempt cap is
// reached, or ctx is cancelled. Transient query failures count as
// attempts rather than aborting the wait.
func (c *Client) AwaitPayment(ctx context.Context, tradeOrderID string) (*PaymentStatus, error) {
	var last *PaymentStatus
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(paymentPollInterval), paymentPollAttempts),
		ctx,
	)
	err := backoff.Retry(func() error {
		status, err := c.QueryPayment(ctx, tradeOrderID)
		if err != nil {
			return err
		}
		last = status
		if !status.Paid() {
			return ErrPaymentTimeout
		}
		return nil
	}, policy)
	if err != nil {
		if ctx.Err() != nil {
			return last, ctx.Err()
		}
		if errors.Is(err, ErrPaymentTimeout) {
			return last, ErrPaymentTimeout
		}
		return last, fmt.Errorf("await payment: %w", err)
	}
	return last, nil
}
