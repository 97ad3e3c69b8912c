package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// retryAfterSeconds sugerido al cliente ante contención de locks.
const retryAfterSeconds = "1"

// writeError traduce los errores de dominio a status + código estable.
func writeError(c *fiber.Ctx, err error) error {
	var (
		qErr   *domain.QuantityError
		refErr *domain.UnknownReferenceError
		insErr *domain.InsufficientStockError
		stErr  *domain.StocktakeStateError
	)
	switch {
	case errors.As(err, &qErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: qErr.Error()})
	case errors.Is(err, domain.ErrInvalidQuantityPrecision):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.As(err, &refErr):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "UNKNOWN_REFERENCE", Message: refErr.Error()})
	case errors.Is(err, domain.ErrUnknownWarehouseOrPart):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "UNKNOWN_REFERENCE", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.As(err, &insErr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: insErr.Error()})
	case errors.As(err, &stErr):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "STOCKTAKE_STATE", Message: stErr.Error()})
	case errors.Is(err, domain.ErrStocktakeState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "STOCKTAKE_STATE", Message: err.Error()})
	case domain.IsRetryable(err):
		c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "CONCURRENT_MODIFICATION", Message: "modificación concurrente, reintentar", Retryable: true,
		})
	}
	log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

// page lee limit/offset de la query.
func page(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p
}
