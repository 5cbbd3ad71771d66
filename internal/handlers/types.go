package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"schoolpay_backend/internal/apperr"
)

// dataEnvelope is the success counterpart of the error envelope
type dataEnvelope struct {
	Data interface{} `json:"data"`
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, dataEnvelope{Data: data})
}

// pathID parses a :param path segment as an unsigned id
func pathID(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	val, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || val == 0 {
		return 0, apperr.Validation("invalid_id", "%s must be a positive integer", name)
	}
	return uint(val), nil
}
