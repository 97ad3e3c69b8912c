package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// idealStockFactor stock ideal = umbral mínimo * factor.
var idealStockFactor = decimal.NewFromFloat(1.5)

// Verification resultado de reproducir el libro mayor sobre una fila de balance.
type Verification struct {
	WarehouseID string          `json:"warehouse_id"`
	PartID      string          `json:"part_id"`
	Stored      decimal.Decimal `json:"stored"`
	Replayed    decimal.Decimal `json:"replayed"`
	Entries     int             `json:"entries"`
	Consistent  bool            `json:"consistent"`
}

// ReplenishmentSuggestion fila bajo su umbral mínimo con la cantidad sugerida de reposición.
type ReplenishmentSuggestion struct {
	WarehouseID      string          `json:"warehouse_id"`
	PartID           string          `json:"part_id"`
	CurrentStock     decimal.Decimal `json:"current_stock"`
	MinimumThreshold decimal.Decimal `json:"minimum_threshold"`
	IdealStock       decimal.Decimal `json:"ideal_stock"`
	SuggestedQty     decimal.Decimal `json:"suggested_qty"`
	Priority         int             `json:"priority"` // 1 = mayor déficit
}

// InventoryProjection lecturas del balance (la proyección del libro mayor) y fijación de umbrales.
type InventoryProjection struct {
	ledger   *TransactionLedger
	enforcer *ConsistencyEnforcer
	alerts   *AlertEngine
}

// NewInventoryProjection construye la proyección sobre el libro mayor.
func NewInventoryProjection(ledger *TransactionLedger, enforcer *ConsistencyEnforcer, alerts *AlertEngine) *InventoryProjection {
	return &InventoryProjection{ledger: ledger, enforcer: enforcer, alerts: alerts}
}

// GetBalance devuelve el balance de la fila. Si nunca hubo movimientos pero bodega y parte
// existen, devuelve un balance en cero; si alguna no existe, *domain.UnknownReferenceError.
func (p *InventoryProjection) GetBalance(ctx context.Context, warehouseID, partID string) (*entity.Balance, error) {
	key := entity.BalanceKey{WarehouseID: warehouseID, PartID: partID}
	b, err := p.ledger.deps.Repos.Balances.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if b != nil {
		return b, nil
	}
	if _, err := p.ledger.lookupWarehouse(ctx, warehouseID, false); err != nil {
		return nil, err
	}
	if _, err := p.ledger.lookupPart(ctx, partID); err != nil {
		return nil, err
	}
	return &entity.Balance{WarehouseID: warehouseID, PartID: partID, CurrentStock: decimal.Zero, MinimumThreshold: decimal.Zero}, nil
}

// ListBalances lista balances paginados.
func (p *InventoryProjection) ListBalances(ctx context.Context, f repository.BalanceFilter) ([]*entity.Balance, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return p.ledger.deps.Repos.Balances.List(ctx, f)
}

// SetThreshold fija el umbral mínimo de la fila y reevalúa sus alertas.
func (p *InventoryProjection) SetThreshold(ctx context.Context, warehouseID, partID string, threshold decimal.Decimal) (*entity.Balance, error) {
	part, err := p.ledger.lookupPart(ctx, partID)
	if err != nil {
		return nil, err
	}
	if _, err := p.ledger.lookupWarehouse(ctx, warehouseID, true); err != nil {
		return nil, err
	}
	if err := p.ledger.policy.Validate(partID, threshold, part.Category, inventory.ModeAbsolute); err != nil {
		return nil, err
	}
	key := entity.BalanceKey{WarehouseID: warehouseID, PartID: partID}
	var b *entity.Balance
	err = p.ledger.deps.TxRunner.Run(ctx, func(r Repos) error {
		var err error
		b, err = p.enforcer.SetThreshold(ctx, r.Balances, key, threshold)
		return err
	})
	if err != nil {
		if domain.IsRetryable(err) {
			p.ledger.deps.Metrics.IncConflict("set_threshold")
		}
		return nil, err
	}
	if p.alerts != nil {
		if _, err := p.alerts.Evaluate(ctx, b); err != nil {
			p.ledger.deps.Logger.Error().Err(err).Str("warehouse_id", warehouseID).Str("part_id", partID).
				Msg("evaluación de alertas tras umbral")
		}
	}
	return b, nil
}

// Verify reproduce todos los movimientos de la fila y compara con el balance almacenado.
// Balance y movimientos se leen en una misma transacción con la fila bloqueada.
func (p *InventoryProjection) Verify(ctx context.Context, warehouseID, partID string) (*Verification, error) {
	if _, err := p.ledger.lookupWarehouse(ctx, warehouseID, false); err != nil {
		return nil, err
	}
	if _, err := p.ledger.lookupPart(ctx, partID); err != nil {
		return nil, err
	}
	key := entity.BalanceKey{WarehouseID: warehouseID, PartID: partID}
	var (
		b       *entity.Balance
		entries []*entity.LedgerEntry
	)
	err := p.ledger.deps.TxRunner.Run(ctx, func(r Repos) error {
		var err error
		if b, err = r.Balances.Get(ctx, key); err != nil {
			return err
		}
		if b != nil {
			if b, err = r.Balances.LockForUpdate(ctx, key); err != nil {
				return err
			}
		}
		if entries, err = r.Ledger.ListByPair(ctx, key); err != nil {
			return fmt.Errorf("reproducir libro mayor: %w", err)
		}
		if b == nil && len(entries) > 0 {
			// la fila se creó entre las dos lecturas
			if b, err = r.Balances.LockForUpdate(ctx, key); err != nil {
				return err
			}
			if entries, err = r.Ledger.ListByPair(ctx, key); err != nil {
				return fmt.Errorf("reproducir libro mayor: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = &entity.Balance{WarehouseID: warehouseID, PartID: partID, CurrentStock: decimal.Zero, MinimumThreshold: decimal.Zero}
	}
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.DeltaFor(key))
	}
	v := &Verification{
		WarehouseID: warehouseID,
		PartID:      partID,
		Stored:      b.CurrentStock,
		Replayed:    sum,
		Entries:     len(entries),
		Consistent:  sum.Equal(b.CurrentStock) && !sum.IsNegative(),
	}
	if !v.Consistent {
		p.ledger.deps.Logger.Error().
			Str("warehouse_id", warehouseID).Str("part_id", partID).
			Str("stored", b.CurrentStock.String()).Str("replayed", sum.String()).
			Msg("balance inconsistente con el libro mayor")
	}
	return v, nil
}

// Replenishment devuelve las filas bajo su umbral con la cantidad sugerida hasta el stock ideal
// (umbral * 1.5, redondeado hacia arriba a la escala de la parte), mayor déficit primero.
// warehouseID vacío considera todas las bodegas.
func (p *InventoryProjection) Replenishment(ctx context.Context, warehouseID string) ([]ReplenishmentSuggestion, error) {
	rows, err := p.ledger.deps.Repos.Balances.List(ctx, repository.BalanceFilter{
		WarehouseID:    warehouseID,
		BelowThreshold: true,
		Limit:          500,
	})
	if err != nil {
		return nil, err
	}
	out := make([]ReplenishmentSuggestion, 0, len(rows))
	for _, b := range rows {
		part, err := p.ledger.lookupPart(ctx, b.PartID)
		if err != nil {
			return nil, err
		}
		ideal := b.MinimumThreshold.Mul(idealStockFactor).RoundCeil(p.ledger.policy.Scale(part.Category))
		suggested := ideal.Sub(b.CurrentStock)
		if !suggested.IsPositive() {
			continue
		}
		out = append(out, ReplenishmentSuggestion{
			WarehouseID:      b.WarehouseID,
			PartID:           b.PartID,
			CurrentStock:     b.CurrentStock,
			MinimumThreshold: b.MinimumThreshold,
			IdealStock:       ideal,
			SuggestedQty:     suggested,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		di := out[i].MinimumThreshold.Sub(out[i].CurrentStock)
		dj := out[j].MinimumThreshold.Sub(out[j].CurrentStock)
		return di.GreaterThan(dj)
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}
