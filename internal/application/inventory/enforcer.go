package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ConsistencyEnforcer es el único escritor de balances. Siempre se ejecuta dentro de la
// transacción del llamador y bloquea las filas en orden (bodega, parte) para que dos
// movimientos cruzados (A→B y B→A) nunca se bloqueen mutuamente.
type ConsistencyEnforcer struct {
	now func() time.Time
}

// NewConsistencyEnforcer construye el enforcer. now nil usa time.Now en UTC.
func NewConsistencyEnforcer(now func() time.Time) *ConsistencyEnforcer {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ConsistencyEnforcer{now: now}
}

// Apply fusiona los deltas por fila, bloquea cada fila en orden, verifica que ningún
// balance quede negativo y persiste todos los balances. Ante el primer balance negativo
// (en orden de llave) aborta todo el lote con *domain.InsufficientStockError sin escribir nada.
func (e *ConsistencyEnforcer) Apply(ctx context.Context, balances repository.BalanceRepository, deltas []entity.BalanceDelta) ([]*entity.Balance, error) {
	merged := make(map[entity.BalanceKey]decimal.Decimal, len(deltas))
	for _, d := range deltas {
		if d.WarehouseID == "" || d.PartID == "" {
			return nil, fmt.Errorf("%w: delta sin bodega o parte", domain.ErrInvalidInput)
		}
		merged[d.Key()] = merged[d.Key()].Add(d.Amount)
	}
	keys := make([]entity.BalanceKey, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	now := e.now()
	out := make([]*entity.Balance, 0, len(keys))
	for _, k := range keys {
		b, err := balances.LockForUpdate(ctx, k)
		if err != nil {
			return nil, err
		}
		delta := merged[k]
		next := b.CurrentStock.Add(delta)
		if next.IsNegative() {
			return nil, &domain.InsufficientStockError{
				WarehouseID: k.WarehouseID,
				PartID:      k.PartID,
				Available:   b.CurrentStock.String(),
				Requested:   delta.Neg().String(),
			}
		}
		b.CurrentStock = next
		b.LastUpdated = now
		out = append(out, b)
	}
	for _, b := range out {
		if err := balances.Upsert(ctx, b); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SetThreshold bloquea la fila (materializándola si falta) y fija el umbral mínimo.
func (e *ConsistencyEnforcer) SetThreshold(ctx context.Context, balances repository.BalanceRepository, key entity.BalanceKey, threshold decimal.Decimal) (*entity.Balance, error) {
	if threshold.IsNegative() {
		return nil, fmt.Errorf("%w: umbral negativo", domain.ErrInvalidInput)
	}
	b, err := balances.LockForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}
	b.MinimumThreshold = threshold
	b.LastUpdated = e.now()
	if err := balances.Upsert(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}
