package inventory

import (
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DefaultExcessMultiple múltiplo del umbral mínimo por encima del cual hay exceso.
var DefaultExcessMultiple = decimal.NewFromInt(3)

// BalanceAlertKinds tipos de alerta derivados del balance, en orden de evaluación.
// DISCREPANCY no se deriva del balance: la levanta la conciliación.
var BalanceAlertKinds = []entity.AlertKind{entity.AlertStockout, entity.AlertLowStock, entity.AlertExcess}

// AlertCondition condición vigente para un tipo de alerta.
type AlertCondition struct {
	Kind      entity.AlertKind
	Severity  entity.AlertSeverity
	Value     decimal.Decimal
	Threshold decimal.Decimal
	Message   string
}

// AlertRules reglas de umbral.
type AlertRules struct {
	ExcessMultiple       decimal.Decimal
	DiscrepancyTolerance decimal.Decimal
}

// NewAlertRules construye las reglas aplicando valores por defecto.
func NewAlertRules(excessMultiple, tolerance decimal.Decimal) AlertRules {
	if !excessMultiple.IsPositive() {
		excessMultiple = DefaultExcessMultiple
	}
	if tolerance.IsNegative() {
		tolerance = decimal.Zero
	}
	return AlertRules{ExcessMultiple: excessMultiple, DiscrepancyTolerance: tolerance}
}

// Conditions devuelve las condiciones que se cumplen para el balance, indexadas por tipo.
func (r AlertRules) Conditions(b *entity.Balance) map[entity.AlertKind]AlertCondition {
	out := make(map[entity.AlertKind]AlertCondition, 2)
	stock, minimum := b.CurrentStock, b.MinimumThreshold

	if stock.IsZero() {
		out[entity.AlertStockout] = AlertCondition{
			Kind: entity.AlertStockout, Severity: entity.SeverityCritical,
			Value: stock, Threshold: minimum,
			Message: "sin existencias",
		}
	}
	if stock.IsPositive() && stock.LessThan(minimum) {
		out[entity.AlertLowStock] = AlertCondition{
			Kind: entity.AlertLowStock, Severity: entity.SeverityWarning,
			Value: stock, Threshold: minimum,
			Message: fmt.Sprintf("stock %s por debajo del mínimo %s", stock, minimum),
		}
	}
	if minimum.IsPositive() {
		limit := minimum.Mul(r.ExcessMultiple)
		if stock.GreaterThan(limit) {
			out[entity.AlertExcess] = AlertCondition{
				Kind: entity.AlertExcess, Severity: entity.SeverityInfo,
				Value: stock, Threshold: limit,
				Message: fmt.Sprintf("stock %s supera %s (%sx mínimo)", stock, limit, r.ExcessMultiple),
			}
		}
	}
	return out
}

// Discrepancy devuelve la condición DISCREPANCY si |delta| supera la tolerancia.
func (r AlertRules) Discrepancy(delta decimal.Decimal) (AlertCondition, bool) {
	if delta.Abs().LessThanOrEqual(r.DiscrepancyTolerance) {
		return AlertCondition{}, false
	}
	return AlertCondition{
		Kind: entity.AlertDiscrepancy, Severity: entity.SeverityWarning,
		Value: delta, Threshold: r.DiscrepancyTolerance,
		Message: fmt.Sprintf("diferencia de conteo %s supera la tolerancia %s", delta, r.DiscrepancyTolerance),
	}, true
}
