package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"schoolpay_backend/internal/apperr"
	"schoolpay_backend/internal/middleware"
	"schoolpay_backend/internal/services"
)

// ExtraFeeHandler manages fee-schedule rules; every change propagates to
// the matched ledgers inside the service transaction.
type ExtraFeeHandler struct {
	extraFees *services.ExtraFeeService
	validate  *validator.Validate
}

func NewExtraFeeHandler(extraFees *services.ExtraFeeService) *ExtraFeeHandler {
	return &ExtraFeeHandler{extraFees: extraFees, validate: validator.New()}
}

// Create handles POST /api/extra-fees
func (h *ExtraFeeHandler) Create(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return apperr.Unauthorized("session_missing", "please log in to continue")
	}

	var in services.ExtraFeeInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid_body", "request body could not be parsed")
	}
	if err := h.validate.Struct(in); err != nil {
		return apperr.Validation("invalid_body", "%s", err.Error())
	}

	fee, err := h.extraFees.Create(c.Request().Context(), principal, in)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, fee)
}

type updateExtraFeeRequest struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// Update handles PUT /api/extra-fees/:id
func (h *ExtraFeeHandler) Update(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return apperr.Unauthorized("session_missing", "please log in to continue")
	}

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var in updateExtraFeeRequest
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid_body", "request body could not be parsed")
	}
	if err := h.validate.Struct(in); err != nil {
		return apperr.Validation("invalid_body", "%s", err.Error())
	}

	fee, err := h.extraFees.Update(c.Request().Context(), principal, id, in.Name, in.Amount)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fee)
}

// Delete handles DELETE /api/extra-fees/:id
func (h *ExtraFeeHandler) Delete(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return apperr.Unauthorized("session_missing", "please log in to continue")
	}

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.extraFees.Delete(c.Request().Context(), principal, id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]interface{}{"deleted": id})
}

// List handles GET /api/extra-fees
func (h *ExtraFeeHandler) List(c echo.Context) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return apperr.Unauthorized("session_missing", "please log in to continue")
	}

	fees, err := h.extraFees.List(c.Request().Context(), principal)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fees)
}
