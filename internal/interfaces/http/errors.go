package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// Orden relevante: el primero que coincide con errors.Is gana.
var errorMappings = []errorMapping{
	{domain.ErrInvalidArgument, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrProductNotFound, fiber.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{domain.ErrRecordNotFound, fiber.StatusNotFound, "RECORD_NOT_FOUND"},
	{domain.ErrMovementNotFound, fiber.StatusNotFound, "MOVEMENT_NOT_FOUND"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrDuplicateRecord, fiber.StatusConflict, "DUPLICATE_RECORD"},
	{domain.ErrContention, fiber.StatusConflict, "CONTENTION"},
	{domain.ErrTransferAborted, fiber.StatusInternalServerError, "TRANSFER_ABORTED"},
	{domain.ErrStorageUnavailable, fiber.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
}

// writeError traduce errores de dominio a status + dto.ErrorResponse.
// Los 5xx se registran en el log.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			status, code = m.status, m.code
			break
		}
	}
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Int("status", status).Msg("error en petición")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func validation(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
}
