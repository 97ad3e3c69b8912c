package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-ledger/internal/application/dto"
	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

// AlertHandler lista y resuelve alertas (protegido).
type AlertHandler struct {
	alerts *app.AlertEngine
}

// NewAlertHandler construye el handler.
func NewAlertHandler(alerts *app.AlertEngine) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// ListActive godoc
// @Summary      Alertas activas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega. Vacío = todas."
// @Success      200  {array}  dto.AlertResponse
// @Router       /api/inventory/alerts [get]
func (h *AlertHandler) ListActive(c *fiber.Ctx) error {
	list, err := h.alerts.ListActive(c.UserContext(), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.AlertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAlertResponse(a))
	}
	return c.JSON(out)
}

// Resolve godoc
// @Summary      Resolver alerta
// @Description  Resolver una alerta ya resuelta no la modifica.
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ResolveAlertRequest  false  "notes"
// @Success      200  {object}  dto.AlertResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.ResolveAlertRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	a, err := h.alerts.Resolve(c.UserContext(), c.Params("id"), userID, in.Notes)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toAlertResponse(a))
}
