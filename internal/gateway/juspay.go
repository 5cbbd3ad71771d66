package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"schoolpay_backend/internal/apperr"
	"schoolpay_backend/internal/models"
)

// JuspayGateway talks to a Juspay-style hosted-checkout API: HTTP Basic
// auth (merchantId:apiKey or apiKey: depending on the configured style)
// plus an x-merchantid header on every call.
type JuspayGateway struct {
	baseURL    string
	merchantID string
	apiKey     string
	authStyle  models.GatewayAuthStyle
	client     *http.Client
}

func NewJuspayGateway(creds Credentials) *JuspayGateway {
	return &JuspayGateway{
		baseURL:    creds.BaseURL,
		merchantID: creds.MerchantID,
		apiKey:     creds.APIKey,
		authStyle:  creds.AuthStyle,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *JuspayGateway) makeRequest(ctx context.Context, method, endpoint string, payload interface{}, out interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-merchantid", g.merchantID)
	if g.authStyle == models.GatewayAuthKeyOnly {
		req.SetBasicAuth(g.apiKey, "")
	} else {
		req.SetBasicAuth(g.merchantID, g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return apperr.Gateway("gateway_unreachable", "gateway request failed").Wrap(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperr.Gateway("gateway_error", "gateway returned status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return apperr.Gateway("gateway_malformed_response", "gateway returned an unreadable body").Wrap(err)
		}
	}
	return nil
}

type juspaySessionResponse struct {
	ID           string `json:"id"`
	OrderID      string `json:"order_id"`
	Status       string `json:"status"`
	PaymentLinks struct {
		Web string `json:"web"`
	} `json:"payment_links"`
}

func (g *JuspayGateway) CreateSession(ctx context.Context, in CreateSessionInput) (*Session, error) {
	payload := map[string]interface{}{
		"order_id":               in.OrderID,
		"amount":                 in.Amount,
		"currency":               in.Currency,
		"return_url":             in.ReturnURL,
		"customer_email":         in.CustomerEmail,
		"customer_name":          in.CustomerName,
		"payment_page_client_id": g.merchantID,
	}

	var resp juspaySessionResponse
	if err := g.makeRequest(ctx, http.MethodPost, "/session", payload, &resp); err != nil {
		return nil, err
	}
	if resp.PaymentLinks.Web == "" {
		return nil, apperr.Gateway("gateway_malformed_response", "gateway session response is missing the redirect link")
	}
	return &Session{SessionID: resp.ID, RedirectURL: resp.PaymentLinks.Web}, nil
}

type juspayOrderResponse struct {
	OrderID string  `json:"order_id"`
	Status  string  `json:"status"`
	Amount  float64 `json:"amount"`
	TxnID   string  `json:"txn_id"`
}

func (g *JuspayGateway) OrderStatus(ctx context.Context, orderID string) (*OrderState, error) {
	var resp juspayOrderResponse
	if err := g.makeRequest(ctx, http.MethodGet, "/orders/"+orderID, nil, &resp); err != nil {
		return nil, err
	}

	state := &OrderState{
		OrderID:       resp.OrderID,
		RawStatus:     resp.Status,
		Amount:        resp.Amount,
		TransactionID: resp.TxnID,
	}
	switch resp.Status {
	case "CHARGED":
		state.Status = OrderCharged
	case "NEW", "PENDING_VBV", "AUTHORIZING":
		state.Status = OrderPending
	default:
		state.Status = OrderFailed
	}
	return state, nil
}

type juspayRefundResponse struct {
	Status string `json:"status"`
}

func (g *JuspayGateway) Refund(ctx context.Context, in RefundInput) (*RefundResult, error) {
	payload := map[string]interface{}{
		"unique_request_id": in.IdempotencyKey,
		"amount":            in.Amount,
	}

	var resp juspayRefundResponse
	if err := g.makeRequest(ctx, http.MethodPost, "/orders/"+in.OrderID+"/refunds", payload, &resp); err != nil {
		return nil, err
	}

	result := &RefundResult{RawStatus: resp.Status}
	switch resp.Status {
	case "PENDING":
		result.Status = RefundPending
	case "SUCCESS", "CHARGED":
		result.Status = RefundSuccess
	default:
		result.Status = RefundFailed
	}
	return result, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
