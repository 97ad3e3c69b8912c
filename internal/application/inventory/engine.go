package inventory

import (
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// Config parámetros del motor.
type Config struct {
	BulkScale            int32
	ExcessMultiple       decimal.Decimal
	DiscrepancyTolerance decimal.Decimal
}

// Engine agrupa los servicios del motor de consistencia de inventario.
type Engine struct {
	Enforcer       *ConsistencyEnforcer
	Alerts         *AlertEngine
	Ledger         *TransactionLedger
	Projection     *InventoryProjection
	Reconciliation *ReconciliationEngine
}

// NewEngine construye y conecta todos los servicios.
func NewEngine(deps Deps, cfg Config) *Engine {
	deps = deps.withDefaults()
	enforcer := NewConsistencyEnforcer(deps.Now)
	alerts := NewAlertEngine(deps, inventory.NewAlertRules(cfg.ExcessMultiple, cfg.DiscrepancyTolerance))
	ledger := NewTransactionLedger(deps, inventory.NewQuantityPolicy(cfg.BulkScale), enforcer, alerts)
	return &Engine{
		Enforcer:       enforcer,
		Alerts:         alerts,
		Ledger:         ledger,
		Projection:     NewInventoryProjection(ledger, enforcer, alerts),
		Reconciliation: NewReconciliationEngine(ledger, alerts),
	}
}
