// Package gateway encapsulates calls to external payment providers behind a
// provider-neutral contract. Providers are stateless; every call is keyed by
// the externally visible order identifier.
package gateway

import (
	"context"
)

// OrderStatus is the normalized transaction state. Only OrderCharged counts
// as a successful payment; OrderPending means the payer has not completed
// checkout yet.
type OrderStatus string

const (
	OrderCharged OrderStatus = "charged"
	OrderPending OrderStatus = "pending"
	OrderFailed  OrderStatus = "failed"
)

// RefundOutcome is the normalized refund state reported by a provider.
// Pending and Success are both acceptable outcomes for a refund request;
// anything else aborts before any local record is written.
type RefundOutcome string

const (
	RefundPending RefundOutcome = "pending"
	RefundSuccess RefundOutcome = "success"
	RefundFailed  RefundOutcome = "failed"
)

// CreateSessionInput describes a hosted-payment session request
type CreateSessionInput struct {
	OrderID       string
	Amount        float64
	Currency      string
	ReturnURL     string
	CustomerName  string
	CustomerEmail string
}

// Session is the gateway's handle for a hosted checkout
type Session struct {
	SessionID   string
	RedirectURL string
}

// OrderState is the authoritative transaction state for an order.
// RawStatus keeps the provider's own vocabulary for diagnostics.
type OrderState struct {
	OrderID       string
	Status        OrderStatus
	RawStatus     string
	Amount        float64
	TransactionID string
}

// RefundInput describes an online reversal. OrderID is the original order
// identifier (provider-internal ids may not resolve for refunds);
// IdempotencyKey must be fresh per refund attempt.
type RefundInput struct {
	OrderID        string
	Amount         float64
	IdempotencyKey string
	Reason         string
}

// RefundResult reports the provider's answer to a refund request
type RefundResult struct {
	Status    RefundOutcome
	RawStatus string
}

// Gateway is the contract every provider implements. Calls are synchronous
// with no internal retry; financial operations must not silently retry.
type Gateway interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*Session, error)
	OrderStatus(ctx context.Context, orderID string) (*OrderState, error)
	Refund(ctx context.Context, in RefundInput) (*RefundResult, error)
}
