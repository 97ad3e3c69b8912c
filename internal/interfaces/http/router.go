package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine         *app.Engine
	JWTSecret      string
	JWTIssuer      string
	ServiceName    string
	MetricsHandler nethttp.Handler // nil = sin /metrics
}

// Router registra las rutas de la API.
func Router(fa *fiber.App, deps RouterDeps) {
	fa.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.MetricsHandler != nil {
		fa.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	// Rutas protegidas (requieren Bearer Token)
	inv := fa.Group("/api/inventory", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	inventoryHandler := NewInventoryHandler(deps.Engine.Ledger, deps.Engine.Projection)
	inv.Post("/transactions", inventoryHandler.AppendTransaction)
	inv.Get("/transactions", inventoryHandler.ListTransactions)
	inv.Get("/balances", inventoryHandler.ListBalances)
	inv.Get("/balances/replenishment", inventoryHandler.GetReplenishmentList)
	inv.Get("/balances/:warehouse_id/:part_id", inventoryHandler.GetBalance)
	inv.Put("/balances/:warehouse_id/:part_id/threshold", inventoryHandler.SetThreshold)
	inv.Get("/balances/:warehouse_id/:part_id/verify", inventoryHandler.Verify)

	stocktakeHandler := NewStocktakeHandler(deps.Engine.Reconciliation)
	inv.Post("/stocktakes", stocktakeHandler.Create)
	inv.Get("/stocktakes/:id", stocktakeHandler.GetByID)
	inv.Put("/stocktakes/:id/items/:part_id", stocktakeHandler.RecordCount)
	inv.Post("/stocktakes/:id/complete", stocktakeHandler.Complete)
	inv.Post("/stocktakes/:id/cancel", stocktakeHandler.Cancel)
	inv.Get("/stocktakes/:id/report.pdf", stocktakeHandler.Report)
	inv.Post("/adjustments", stocktakeHandler.Adjust)

	alertHandler := NewAlertHandler(deps.Engine.Alerts)
	inv.Get("/alerts", alertHandler.ListActive)
	inv.Post("/alerts/:id/resolve", alertHandler.Resolve)
}
