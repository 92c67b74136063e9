package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/pkg/logger"
)

// errorMapper traduce errores de dominio a status y cuerpo HTTP.
type errorMapper struct {
	log *logger.Logger
}

func newErrorMapper(log *logger.Logger) errorMapper {
	if log == nil {
		log = logger.Nop()
	}
	return errorMapper{log: log.Named("http")}
}

func (m errorMapper) write(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(dto.InsufficientStockResponse{
			Code:        "INSUFFICIENT_STOCK",
			Message:     err.Error(),
			ProductName: insufficient.ProductName,
			Requested:   insufficient.Requested,
			Available:   insufficient.Available,
		})
	}

	status, code := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		m.log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Int("status", status).Msg("petición fallida")
		msg = "error interno"
	} else {
		m.log.Warn().Err(err).Str("method", c.Method()).Str("path", c.Path()).Int("status", status).Msg("petición rechazada")
	}
	if status == fiber.StatusServiceUnavailable {
		c.Set(fiber.HeaderRetryAfter, "1")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrProductHasMovements):
		return fiber.StatusConflict, "HAS_MOVEMENTS"
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrTransient):
		return fiber.StatusServiceUnavailable, "RETRYABLE"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func badQuery(c *fiber.Ctx, param string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetro inválido: " + param})
}
