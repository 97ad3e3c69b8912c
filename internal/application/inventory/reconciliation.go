package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// CompletionResult resultado de finalizar una toma física.
type CompletionResult struct {
	Stocktake        *entity.Stocktake
	Adjustments      []*entity.Adjustment
	AlreadyCompleted bool
}

// AdjustInput ajuste manual sin toma física.
type AdjustInput struct {
	WarehouseID string
	PartID      string
	Delta       decimal.Decimal
	Reason      string
	Actor       string
}

// ReconciliationEngine gestiona tomas físicas: snapshot del balance esperado, conteos y la
// conciliación final, que emite movimientos ADJUSTMENT por el libro mayor.
type ReconciliationEngine struct {
	ledger *TransactionLedger
	alerts *AlertEngine
}

// NewReconciliationEngine construye el motor de conciliación.
func NewReconciliationEngine(ledger *TransactionLedger, alerts *AlertEngine) *ReconciliationEngine {
	return &ReconciliationEngine{ledger: ledger, alerts: alerts}
}

// Create programa una toma sobre una bodega activa y toma el snapshot de todas las filas con stock.
func (e *ReconciliationEngine) Create(ctx context.Context, warehouseID string, scheduled time.Time, actor string) (*entity.Stocktake, error) {
	if actor == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	if _, err := e.ledger.lookupWarehouse(ctx, warehouseID, true); err != nil {
		return nil, err
	}
	now := e.ledger.deps.Now()
	if scheduled.IsZero() {
		scheduled = now
	}
	st := &entity.Stocktake{
		ID:            uuid.New().String(),
		WarehouseID:   warehouseID,
		Status:        entity.StocktakePlanned,
		ScheduledDate: scheduled,
		ScheduledBy:   actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := e.ledger.deps.TxRunner.Run(ctx, func(r Repos) error {
		stocked, err := r.Balances.ListStocked(ctx, warehouseID)
		if err != nil {
			return err
		}
		st.Items = make([]entity.StocktakeItem, 0, len(stocked))
		for _, b := range stocked {
			st.Items = append(st.Items, entity.StocktakeItem{
				StocktakeID:      st.ID,
				PartID:           b.PartID,
				ExpectedQuantity: b.CurrentStock,
			})
		}
		return r.Stocktakes.Create(ctx, st)
	})
	if err != nil {
		return nil, err
	}
	e.ledger.deps.Metrics.IncStocktake(st.Status)
	e.ledger.deps.Logger.Info().
		Str("stocktake_id", st.ID).
		Str("warehouse_id", warehouseID).
		Int("items", len(st.Items)).
		Msg("toma física creada")
	return st, nil
}

// RecordCount registra (o sobrescribe) el conteo de una parte. El primer conteo pasa la toma
// de PLANNED a IN_PROGRESS. Una parte ausente del snapshot se agrega con esperado 0.
func (e *ReconciliationEngine) RecordCount(ctx context.Context, stocktakeID, partID string, actual decimal.Decimal, actor string) (*entity.Stocktake, error) {
	if actor == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	part, err := e.ledger.lookupPart(ctx, partID)
	if err != nil {
		return nil, err
	}
	if err := e.ledger.policy.Validate(partID, actual, part.Category, inventory.ModeAbsolute); err != nil {
		return nil, err
	}
	var st *entity.Stocktake
	err = e.ledger.deps.TxRunner.Run(ctx, func(r Repos) error {
		var err error
		st, err = e.loadForUpdate(ctx, r, stocktakeID)
		if err != nil {
			return err
		}
		if !inventory.AcceptsCounts(st.Status) {
			return &domain.StocktakeStateError{StocktakeID: st.ID, Status: string(st.Status), Operation: "registrar conteo"}
		}
		now := e.ledger.deps.Now()
		if st.Status == entity.StocktakePlanned {
			st.Status = entity.StocktakeInProgress
			st.StartedAt = &now
			st.UpdatedAt = now
			if err := r.Stocktakes.UpdateStatus(ctx, st); err != nil {
				return err
			}
		}
		item := st.Item(partID)
		if item == nil {
			st.Items = append(st.Items, entity.StocktakeItem{
				StocktakeID:      st.ID,
				PartID:           partID,
				ExpectedQuantity: decimal.Zero,
			})
			item = &st.Items[len(st.Items)-1]
		}
		qty := actual
		item.ActualQuantity = &qty
		item.CountedBy = actor
		item.CountedAt = &now
		return r.Stocktakes.UpsertItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Complete concilia la toma: por cada ítem contado con diferencia emite un ADJUSTMENT
// (referencia = id de la toma) y su registro de ajuste, y marca la toma COMPLETED, todo en una
// unidad de trabajo. Cualquier fallo aborta la finalización completa. Sobre una toma ya
// completada devuelve los ajustes guardados sin volver a aplicarlos.
func (e *ReconciliationEngine) Complete(ctx context.Context, stocktakeID, actor string) (*CompletionResult, error) {
	if actor == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	res := &CompletionResult{}
	var (
		entries  []*entity.LedgerEntry
		balances []*entity.Balance
	)
	err := e.ledger.deps.TxRunner.Run(ctx, func(r Repos) error {
		res.Adjustments, entries, balances = nil, nil, nil
		st, err := e.loadForUpdate(ctx, r, stocktakeID)
		if err != nil {
			return err
		}
		res.Stocktake = st
		if st.Status == entity.StocktakeCompleted {
			res.AlreadyCompleted = true
			res.Adjustments, err = r.Adjustments.ListByStocktake(ctx, st.ID)
			return err
		}
		if !inventory.CanComplete(st) {
			return &domain.StocktakeStateError{StocktakeID: st.ID, Status: string(st.Status), Operation: "finalizar"}
		}

		items := append([]entity.StocktakeItem(nil), st.Items...)
		sort.Slice(items, func(i, j int) bool { return items[i].PartID < items[j].PartID })
		for _, it := range items {
			delta := it.Difference()
			if !it.Counted() || delta.IsZero() {
				continue
			}
			entry, bs, err := e.ledger.AppendInTx(ctx, r, AppendInput{
				Type:        entity.LedgerAdjustment,
				PartID:      it.PartID,
				ToWarehouse: st.WarehouseID,
				Quantity:    delta,
				Actor:       actor,
				Reference:   st.ID,
			})
			if err != nil {
				return err
			}
			adj := newAdjustment(entry, bs[0], "toma física "+st.ID, st.ID)
			if err := r.Adjustments.Create(ctx, adj); err != nil {
				return err
			}
			res.Adjustments = append(res.Adjustments, adj)
			entries = append(entries, entry)
			balances = append(balances, bs...)
		}

		now := e.ledger.deps.Now()
		st.Status = entity.StocktakeCompleted
		st.CompletedBy = actor
		st.CompletedAt = &now
		st.UpdatedAt = now
		return r.Stocktakes.UpdateStatus(ctx, st)
	})
	if err != nil {
		if domain.IsRetryable(err) {
			e.ledger.deps.Metrics.IncConflict("complete_stocktake")
		}
		e.ledger.deps.Logger.Warn().Err(err).Str("stocktake_id", stocktakeID).Msg("finalización de toma rechazada")
		return nil, err
	}
	if res.AlreadyCompleted {
		return res, nil
	}

	e.ledger.deps.Metrics.IncStocktake(entity.StocktakeCompleted)
	e.ledger.deps.Logger.Info().
		Str("stocktake_id", stocktakeID).
		Int("adjustments", len(res.Adjustments)).
		Str("actor", actor).
		Msg("toma física finalizada")

	e.ledger.afterCommit(ctx, entries, balances)
	if e.alerts != nil {
		for _, adj := range res.Adjustments {
			key := entity.BalanceKey{WarehouseID: adj.WarehouseID, PartID: adj.PartID}
			if _, err := e.alerts.RaiseDiscrepancy(ctx, key, adj.Delta); err != nil {
				e.ledger.deps.Logger.Error().Err(err).Str("stocktake_id", stocktakeID).Str("part_id", adj.PartID).
					Msg("alerta de discrepancia")
			}
		}
	}
	return res, nil
}

// Cancel descarta la toma y sus ítems. No emite nada al libro mayor.
func (e *ReconciliationEngine) Cancel(ctx context.Context, stocktakeID, actor string) (*entity.Stocktake, error) {
	if actor == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	var st *entity.Stocktake
	err := e.ledger.deps.TxRunner.Run(ctx, func(r Repos) error {
		var err error
		st, err = e.loadForUpdate(ctx, r, stocktakeID)
		if err != nil {
			return err
		}
		if !inventory.CanTransition(st.Status, entity.StocktakeCancelled) {
			return &domain.StocktakeStateError{StocktakeID: st.ID, Status: string(st.Status), Operation: "cancelar"}
		}
		if err := r.Stocktakes.DeleteItems(ctx, st.ID); err != nil {
			return err
		}
		now := e.ledger.deps.Now()
		st.Status = entity.StocktakeCancelled
		st.CancelledBy = actor
		st.CancelledAt = &now
		st.UpdatedAt = now
		st.Items = nil
		return r.Stocktakes.UpdateStatus(ctx, st)
	})
	if err != nil {
		return nil, err
	}
	e.ledger.deps.Metrics.IncStocktake(entity.StocktakeCancelled)
	e.ledger.deps.Logger.Info().Str("stocktake_id", st.ID).Str("actor", actor).Msg("toma física cancelada")
	return st, nil
}

// Get devuelve la toma con sus ítems.
func (e *ReconciliationEngine) Get(ctx context.Context, stocktakeID string) (*entity.Stocktake, error) {
	st, err := e.ledger.deps.Repos.Stocktakes.GetByID(ctx, stocktakeID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	return st, nil
}

// Report genera el informe de diferencias de la toma.
func (e *ReconciliationEngine) Report(ctx context.Context, stocktakeID string) ([]byte, error) {
	if e.ledger.deps.Renderer == nil {
		return nil, fmt.Errorf("generador de informes no configurado")
	}
	st, err := e.Get(ctx, stocktakeID)
	if err != nil {
		return nil, err
	}
	wh, err := e.ledger.lookupWarehouse(ctx, st.WarehouseID, false)
	if err != nil {
		return nil, err
	}
	adjs, err := e.ledger.deps.Repos.Adjustments.ListByStocktake(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	return e.ledger.deps.Renderer.RenderStocktake(StocktakeReport{
		Stocktake:   st,
		Warehouse:   wh,
		Adjustments: adjs,
		GeneratedAt: e.ledger.deps.Now(),
	})
}

// Adjust corrección manual: ADJUSTMENT en el libro mayor más su registro de ajuste, sin toma física.
func (e *ReconciliationEngine) Adjust(ctx context.Context, in AdjustInput) (*entity.Adjustment, error) {
	if in.Reason == "" {
		return nil, fmt.Errorf("%w: motivo requerido", domain.ErrInvalidInput)
	}
	var (
		adj      *entity.Adjustment
		entry    *entity.LedgerEntry
		balances []*entity.Balance
	)
	err := e.ledger.deps.TxRunner.Run(ctx, func(r Repos) error {
		var err error
		entry, balances, err = e.ledger.AppendInTx(ctx, r, AppendInput{
			Type:        entity.LedgerAdjustment,
			PartID:      in.PartID,
			ToWarehouse: in.WarehouseID,
			Quantity:    in.Delta,
			Actor:       in.Actor,
			Reference:   in.Reason,
		})
		if err != nil {
			return err
		}
		adj = newAdjustment(entry, balances[0], in.Reason, "")
		return r.Adjustments.Create(ctx, adj)
	})
	if err != nil {
		if domain.IsRetryable(err) {
			e.ledger.deps.Metrics.IncConflict("adjust")
		}
		return nil, err
	}
	e.ledger.deps.Logger.Info().
		Str("adjustment_id", adj.ID).
		Str("warehouse_id", adj.WarehouseID).
		Str("part_id", adj.PartID).
		Str("delta", adj.Delta.String()).
		Str("actor", adj.Actor).
		Msg("ajuste manual")
	e.ledger.afterCommit(ctx, []*entity.LedgerEntry{entry}, balances)
	return adj, nil
}

func (e *ReconciliationEngine) loadForUpdate(ctx context.Context, r Repos, id string) (*entity.Stocktake, error) {
	st, err := r.Stocktakes.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	return st, nil
}

func newAdjustment(entry *entity.LedgerEntry, after *entity.Balance, reason, stocktakeID string) *entity.Adjustment {
	return &entity.Adjustment{
		ID:               uuid.New().String(),
		WarehouseID:      entry.ToWarehouse,
		PartID:           entry.PartID,
		Delta:            entry.Quantity,
		PreviousQuantity: after.CurrentStock.Sub(entry.Quantity),
		NewQuantity:      after.CurrentStock,
		Reason:           reason,
		Actor:            entry.Actor,
		StocktakeID:      stocktakeID,
		LedgerEntryID:    entry.ID,
		CreatedAt:        entry.Timestamp,
	}
}
