package gateway

import (
	"context"
	"strconv"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"

	"schoolpay_backend/internal/apperr"
)

// MidtransGateway adapts Midtrans Snap/Core API to the provider contract.
// The server key plays the apiKey role; Midtrans has no separate merchant id
// in requests.
type MidtransGateway struct {
	snapClient snap.Client
	coreClient coreapi.Client
}

func NewMidtransGateway(serverKey string, production bool) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	var s snap.Client
	s.New(serverKey, env)

	var c coreapi.Client
	c.New(serverKey, env)

	return &MidtransGateway{snapClient: s, coreClient: c}
}

func (g *MidtransGateway) CreateSession(_ context.Context, in CreateSessionInput) (*Session, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  in.OrderID,
			GrossAmt: int64(in.Amount),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: in.CustomerName,
			Email: in.CustomerEmail,
		},
		Callbacks: &snap.Callbacks{Finish: in.ReturnURL},
	}

	resp, err := g.snapClient.CreateTransaction(req)
	if err != nil {
		return nil, apperr.Gateway("gateway_error", "midtrans create transaction failed: %v", err)
	}
	return &Session{SessionID: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

func (g *MidtransGateway) OrderStatus(_ context.Context, orderID string) (*OrderState, error) {
	resp, err := g.coreClient.CheckTransaction(orderID)
	if err != nil {
		return nil, apperr.Gateway("gateway_error", "midtrans status check failed: %v", err)
	}

	amount, _ := strconv.ParseFloat(resp.GrossAmount, 64)
	state := &OrderState{
		OrderID:       resp.OrderID,
		RawStatus:     resp.TransactionStatus,
		Amount:        amount,
		TransactionID: resp.TransactionID,
	}
	switch resp.TransactionStatus {
	case "settlement", "capture":
		state.Status = OrderCharged
	case "pending", "authorize":
		state.Status = OrderPending
	default: // deny, expire, cancel, failure
		state.Status = OrderFailed
	}
	return state, nil
}

func (g *MidtransGateway) Refund(_ context.Context, in RefundInput) (*RefundResult, error) {
	req := &coreapi.RefundReq{
		RefundKey: in.IdempotencyKey,
		Amount:    int64(in.Amount),
		Reason:    in.Reason,
	}

	resp, err := g.coreClient.RefundTransaction(in.OrderID, req)
	if err != nil {
		return nil, apperr.Gateway("gateway_error", "midtrans refund failed: %v", err)
	}

	result := &RefundResult{RawStatus: resp.TransactionStatus}
	switch resp.TransactionStatus {
	case "refund", "partial_refund", "settlement":
		result.Status = RefundSuccess
	case "pending":
		result.Status = RefundPending
	default:
		result.Status = RefundFailed
	}
	return result, nil
}
