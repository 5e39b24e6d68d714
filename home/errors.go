package home

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/qolzam/telar-turnstile/internal/turnstile"
)

// Error codes returned by the home handlers
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeTurnstileUnavailable = "TURNSTILE_UNAVAILABLE"
	CodeTurnstileBadResponse = "TURNSTILE_BAD_RESPONSE"
	CodeRequestCanceled      = "REQUEST_CANCELED"
	CodeSystemError          = "SYSTEM_ERROR"
)

// ErrorResponse represents the standardized error response format
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classifyVerifyError maps a verification error to its status and response body
func classifyVerifyError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, turnstile.ErrCanceled):
		return http.StatusServiceUnavailable, ErrorResponse{
			Code:    CodeRequestCanceled,
			Message: "Verification was canceled",
		}
	case errors.Is(err, turnstile.ErrTransport):
		return http.StatusBadGateway, ErrorResponse{
			Code:    CodeTurnstileUnavailable,
			Message: "Turnstile verification service is unavailable",
		}
	case errors.Is(err, turnstile.ErrDecode):
		return http.StatusBadGateway, ErrorResponse{
			Code:    CodeTurnstileBadResponse,
			Message: "Turnstile verification service returned an unexpected response",
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Code:    CodeSystemError,
			Message: "An unexpected error occurred",
		}
	}
}

// HandleInvalidRequestError handles invalid request errors with 400 Bad Request
func HandleInvalidRequestError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
		Code:    CodeInvalidRequest,
		Message: message,
	})
}
