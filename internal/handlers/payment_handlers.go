package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"schoolpay_backend/internal/apperr"
	"schoolpay_backend/internal/middleware"
	"schoolpay_backend/internal/services"
)

// PaymentHandler exposes the reconciliation engine over HTTP: order
// creation, verification, refunds and ledger reads.
type PaymentHandler struct {
	orders   *services.OrderService
	verifier *services.VerificationService
	refunds  *services.RefundService
	ledger   *services.LedgerService
	validate *validator.Validate
}

func NewPaymentHandler(orders *services.OrderService, verifier *services.VerificationService, refunds *services.RefundService, ledger *services.LedgerService) *PaymentHandler {
	return &PaymentHandler{
		orders:   orders,
		verifier: verifier,
		refunds:  refunds,
		ledger:   ledger,
		validate: validator.New(),
	}
}

// CreateOrder handles POST /api/payments/orders
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return apperr.Unauthorized("session_missing", "please log in to continue")
	}

	var in services.CreateOrderInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid_body", "request body could not be parsed")
	}
	if err := h.validate.Struct(in); err != nil {
		return apperr.Validation("invalid_body", "%s", err.Error())
	}

	result, err := h.orders.CreateOrder(c.Request().Context(), principal, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, result)
}

// Verify handles POST /api/payments/verify
func (h *PaymentHandler) Verify(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return apperr.Unauthorized("session_missing", "please log in to continue")
	}

	var in services.VerifyInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid_body", "request body could not be parsed")
	}
	if err := h.validate.Struct(in); err != nil {
		return apperr.Validation("invalid_body", "%s", err.Error())
	}

	result, err := h.verifier.Verify(c.Request().Context(), principal, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, result)
}

// CreateRefund handles POST /api/payments/:id/refunds
func (h *PaymentHandler) CreateRefund(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return apperr.Unauthorized("session_missing", "please log in to continue")
	}

	paymentID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var in services.RefundInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid_body", "request body could not be parsed")
	}
	in.PaymentID = paymentID
	if err := h.validate.Struct(in); err != nil {
		return apperr.Validation("invalid_body", "%s", err.Error())
	}

	result, err := h.refunds.Refund(c.Request().Context(), principal, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, result)
}

// ListRefunds handles GET /api/payments/:id/refunds
func (h *PaymentHandler) ListRefunds(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return apperr.Unauthorized("session_missing", "please log in to continue")
	}

	paymentID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	refunds, err := h.refunds.ListRefunds(c.Request().Context(), principal, paymentID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, refunds)
}

// GetStudentFee handles GET /api/students/:id/fee
func (h *PaymentHandler) GetStudentFee(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return apperr.Unauthorized("session_missing", "please log in to continue")
	}

	studentID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	fee, err := h.ledger.GetStudentFee(c.Request().Context(), principal, studentID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fee)
}

// AdmitStudentFee handles POST /api/students/:id/fee
func (h *PaymentHandler) AdmitStudentFee(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return apperr.Unauthorized("session_missing", "please log in to continue")
	}

	studentID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var in services.AdmitFeeInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid_body", "request body could not be parsed")
	}
	if err := h.validate.Struct(in); err != nil {
		return apperr.Validation("invalid_body", "%s", err.Error())
	}

	fee, err := h.ledger.AdmitStudentFee(c.Request().Context(), principal, studentID, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, fee)
}

// ListStudentPayments handles GET /api/students/:id/payments
func (h *PaymentHandler) ListStudentPayments(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return apperr.Unauthorized("session_missing", "please log in to continue")
	}

	studentID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	payments, err := h.ledger.ListStudentPayments(c.Request().Context(), principal, studentID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, payments)
}
