package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"schoolpay_backend/internal/apperr"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// CustomErrorHandler renders every error as a stable machine-readable JSON
// envelope. apperr errors keep their taxonomy code; everything else
// collapses to a generic code so internals never leak to callers.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := errorBody{Code: "internal_error", Message: "Something went wrong. Please try again later."}

	if appErr, ok := apperr.As(err); ok {
		status = appErr.Status
		body.Code = appErr.Code
		body.Message = appErr.Message
	} else if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch status {
		case http.StatusNotFound:
			body.Code = "not_found"
			body.Message = "The requested resource does not exist."
		case http.StatusMethodNotAllowed:
			body.Code = "method_not_allowed"
			body.Message = "The method is not allowed for this resource."
		case http.StatusBadRequest:
			body.Code = "bad_request"
			body.Message = "The request could not be processed."
		}
		if msg, ok := he.Message.(string); ok && msg != "" {
			body.Message = msg
		}
	}

	c.Logger().Error(err)

	if jsonErr := c.JSON(status, errorEnvelope{Error: body}); jsonErr != nil {
		c.Logger().Error(jsonErr)
	}
}
