package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/stock-engine/internal/application/dto"
	"github.com/jhoicas/stock-engine/internal/domain"
)

// writeError traduce un error del motor a su respuesta HTTP.
// InsufficientStock y LockTimeout llevan la línea afectada cuando se conoce.
func writeError(c *fiber.Ctx, err error) error {
	resp := dto.ErrorResponse{Message: err.Error()}
	var se *domain.StockError
	if errors.As(err, &se) {
		resp.ProductID = se.ProductID
		resp.BranchID = se.BranchID
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		status, resp.Code = fiber.StatusConflict, "INSUFFICIENT_STOCK"
		if se != nil {
			resp.Available, resp.Requested = &se.Available, &se.Requested
		}
	case errors.Is(err, domain.ErrInvalidReference):
		status, resp.Code = fiber.StatusBadRequest, "INVALID_REFERENCE"
	case errors.Is(err, domain.ErrEmptyBatch):
		status, resp.Code = fiber.StatusBadRequest, "EMPTY_BATCH"
	case errors.Is(err, domain.ErrInvalidInput):
		status, resp.Code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrLockTimeout):
		status, resp.Code = fiber.StatusServiceUnavailable, "LOCK_TIMEOUT"
		c.Set(fiber.HeaderRetryAfter, "1")
	case errors.Is(err, domain.ErrNotFound):
		status, resp.Code = fiber.StatusNotFound, "NOT_FOUND"
	default:
		resp.Code = "INTERNAL"
		resp.Message = "error interno"
		log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	}
	return c.Status(status).JSON(resp)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
