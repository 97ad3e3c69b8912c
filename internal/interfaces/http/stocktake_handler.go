package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

// StocktakeHandler maneja tomas físicas y ajustes manuales (protegido).
type StocktakeHandler struct {
	rec *app.ReconciliationEngine
}

// NewStocktakeHandler construye el handler.
func NewStocktakeHandler(rec *app.ReconciliationEngine) *StocktakeHandler {
	return &StocktakeHandler{rec: rec}
}

// Create godoc
// @Summary      Programar toma física
// @Description  Toma una foto del stock esperado de la bodega.
// @Tags         stocktakes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStocktakeRequest  true  "warehouse_id, scheduled_date"
// @Success      201   {object}  dto.StocktakeResponse
// @Router       /api/inventory/stocktakes [post]
func (h *StocktakeHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateStocktakeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	scheduled := time.Now().UTC()
	if in.ScheduledDate != nil {
		scheduled = *in.ScheduledDate
	}
	st, err := h.rec.Create(c.UserContext(), in.WarehouseID, scheduled, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStocktakeResponse(st))
}

// GetByID godoc
// @Summary      Obtener toma física
// @Tags         stocktakes
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la toma"
// @Success      200  {object}  dto.StocktakeResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocktakes/{id} [get]
func (h *StocktakeHandler) GetByID(c *fiber.Ctx) error {
	st, err := h.rec.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStocktakeResponse(st))
}

// RecordCount godoc
// @Summary      Registrar conteo de una parte
// @Tags         stocktakes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordCountRequest  true  "actual_quantity"
// @Success      200  {object}  dto.StocktakeResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocktakes/{id}/items/{part_id} [put]
func (h *StocktakeHandler) RecordCount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.RecordCountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	st, err := h.rec.RecordCount(c.UserContext(), c.Params("id"), c.Params("part_id"), in.ActualQuantity, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStocktakeResponse(st))
}

// Complete godoc
// @Summary      Completar toma física
// @Description  Aplica un ajuste por cada diferencia. Repetir sobre una toma completada no vuelve a ajustar.
// @Tags         stocktakes
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CompleteStocktakeResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocktakes/{id}/complete [post]
func (h *StocktakeHandler) Complete(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	res, err := h.rec.Complete(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.CompleteStocktakeResponse{
		Stocktake:        toStocktakeResponse(res.Stocktake),
		Adjustments:      toAdjustmentResponses(res.Adjustments),
		AlreadyCompleted: res.AlreadyCompleted,
	})
}

// Cancel godoc
// @Summary      Cancelar toma física
// @Tags         stocktakes
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StocktakeResponse
// @Router       /api/inventory/stocktakes/{id}/cancel [post]
func (h *StocktakeHandler) Cancel(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	st, err := h.rec.Cancel(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStocktakeResponse(st))
}

// Report godoc
// @Summary      Informe PDF de diferencias
// @Tags         stocktakes
// @Security     Bearer
// @Produce      application/pdf
// @Success      200
// @Router       /api/inventory/stocktakes/{id}/report.pdf [get]
func (h *StocktakeHandler) Report(c *fiber.Ctx) error {
	id := c.Params("id")
	out, err := h.rec.Report(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+reportFilename(id)+`"`)
	return c.Send(out)
}

// reportFilename deja solo letras ASCII, dígitos, '-' y '_' del id.
func reportFilename(id string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, id)
	if clean == "" {
		clean = "informe"
	}
	return "toma-" + clean + ".pdf"
}

// Adjust godoc
// @Summary      Ajuste manual con motivo
// @Tags         stocktakes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "warehouse_id, part_id, delta, reason"
// @Success      201  {object}  dto.AdjustmentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *StocktakeHandler) Adjust(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	adj, err := h.rec.Adjust(c.UserContext(), app.AdjustInput{
		WarehouseID: in.WarehouseID,
		PartID:      in.PartID,
		Delta:       in.Delta,
		Reason:      in.Reason,
		Actor:       userID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAdjustmentResponse(adj))
}
