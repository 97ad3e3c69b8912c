package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// InventoryHandler maneja movimientos y saldos (protegido).
type InventoryHandler struct {
	ledger     *app.TransactionLedger
	projection *app.InventoryProjection
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *app.TransactionLedger, projection *app.InventoryProjection) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, projection: projection}
}

// AppendTransaction godoc
// @Summary      Registrar movimiento en el libro mayor
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AppendTransactionRequest  true  "type, part_id, from/to_warehouse_id según el tipo, quantity"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions [post]
func (h *InventoryHandler) AppendTransaction(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.AppendTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.ledger.Append(c.UserContext(), app.AppendInput{
		Type:          entity.LedgerEntryType(in.Type),
		PartID:        in.PartID,
		FromWarehouse: in.FromWarehouseID,
		ToWarehouse:   in.ToWarehouseID,
		Quantity:      in.Quantity,
		Actor:         userID,
		Reference:     in.Reference,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransactionResponse{
		Entry:    toLedgerEntryResponse(res.Entry),
		Balances: toBalanceResponses(res.Balances),
		Alerts:   toAlertChangeResponses(res.Alerts),
	})
}

// ListTransactions godoc
// @Summary      Historial de movimientos (más reciente primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Origen o destino"
// @Param        part_id       query  string  false  "Parte"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.LedgerListResponse
// @Router       /api/inventory/transactions [get]
func (h *InventoryHandler) ListTransactions(c *fiber.Ctx) error {
	p := page(c)
	entries, err := h.ledger.History(c.UserContext(), repository.LedgerFilter{
		WarehouseID: c.Query("warehouse_id"),
		PartID:      c.Query("part_id"),
		Limit:       p.Limit,
		Offset:      p.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, toLedgerEntryResponse(e))
	}
	return c.JSON(dto.LedgerListResponse{Items: items, Page: dto.PageResponse{Limit: p.Limit, Offset: p.Offset}})
}

// GetBalance godoc
// @Summary      Saldo de una parte en una bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  path  string  true  "Bodega"
// @Param        part_id       path  string  true  "Parte"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/balances/{warehouse_id}/{part_id} [get]
func (h *InventoryHandler) GetBalance(c *fiber.Ctx) error {
	b, err := h.projection.GetBalance(c.UserContext(), c.Params("warehouse_id"), c.Params("part_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toBalanceResponse(b))
}

// ListBalances godoc
// @Summary      Listar saldos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id     query  string  false  "Bodega"
// @Param        part_id          query  string  false  "Parte"
// @Param        below_threshold  query  bool    false  "Solo filas bajo el umbral"
// @Success      200  {object}  dto.BalanceListResponse
// @Router       /api/inventory/balances [get]
func (h *InventoryHandler) ListBalances(c *fiber.Ctx) error {
	p := page(c)
	list, err := h.projection.ListBalances(c.UserContext(), repository.BalanceFilter{
		WarehouseID:    c.Query("warehouse_id"),
		PartID:         c.Query("part_id"),
		BelowThreshold: c.QueryBool("below_threshold", false),
		Limit:          p.Limit,
		Offset:         p.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.BalanceListResponse{Items: toBalanceResponses(list), Page: dto.PageResponse{Limit: p.Limit, Offset: p.Offset}})
}

// SetThreshold godoc
// @Summary      Fijar umbral mínimo de una fila
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SetThresholdRequest  true  "minimum_threshold"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/balances/{warehouse_id}/{part_id}/threshold [put]
func (h *InventoryHandler) SetThreshold(c *fiber.Ctx) error {
	var in dto.SetThresholdRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	b, err := h.projection.SetThreshold(c.UserContext(), c.Params("warehouse_id"), c.Params("part_id"), in.MinimumThreshold)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toBalanceResponse(b))
}

// Verify godoc
// @Summary      Verificar el saldo reproduciendo el libro mayor
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  inventory.Verification
// @Router       /api/inventory/balances/{warehouse_id}/{part_id}/verify [get]
func (h *InventoryHandler) Verify(c *fiber.Ctx) error {
	v, err := h.projection.Verify(c.UserContext(), c.Params("warehouse_id"), c.Params("part_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(v)
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Filas bajo su umbral mínimo con la cantidad sugerida hasta el stock ideal.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por bodega. Vacío = todas."
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Router       /api/inventory/balances/replenishment [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.projection.Replenishment(c.UserContext(), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": toReplenishmentDTOs(list),
	})
}
