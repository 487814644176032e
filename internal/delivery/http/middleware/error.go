package middleware

import (
	"errors"
	"net/http"

	"github.com/LavaJover/shvark-settlement-service/internal/delivery/http/dto/dispute/response"
	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadyAccepted),
		errors.Is(err, domain.ErrNotYourTurn),
		errors.Is(err, domain.ErrNoProposal),
		errors.Is(err, domain.ErrSettled),
		errors.Is(err, domain.ErrNotEligible),
		errors.Is(err, domain.ErrInvitationConsumed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Error(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := StatusFor(err)
		message := err.Error()

		var he *echo.HTTPError
		var ve validator.ValidationErrors
		switch {
		case errors.As(err, &he):
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		case errors.As(err, &ve):
			code = http.StatusBadRequest
		}

		if code >= http.StatusInternalServerError {
			logger.Error("api is returning an error",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			message = http.StatusText(code)
		} else {
			logger.Debug("request rejected",
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, response.ErrorResponse{Error: message})
	}
}
