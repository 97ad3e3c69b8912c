package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var (
	_ repository.BalanceRepository    = (*BalanceRepo)(nil)
	_ repository.LedgerRepository     = (*LedgerRepo)(nil)
	_ repository.StocktakeRepository  = (*StocktakeRepo)(nil)
	_ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)
	_ repository.AlertRepository      = (*AlertRepo)(nil)
	_ repository.PartRepository       = (*PartRepo)(nil)
	_ repository.WarehouseRepository  = (*WarehouseRepo)(nil)
)

// ─── Balances ────────────────────────────────────────────────────────────────

// BalanceRepo balances en memoria.
type BalanceRepo struct{ v view }

func (t *tx) balance(k entity.BalanceKey) (entity.Balance, bool) {
	if b, ok := t.balances[k]; ok {
		return b, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	b, ok := t.s.balances[k]
	return b, ok
}

// Get devuelve nil si la fila no existe.
func (r *BalanceRepo) Get(_ context.Context, key entity.BalanceKey) (*entity.Balance, error) {
	var out *entity.Balance
	err := r.v.do(func(t *tx) error {
		if b, ok := t.balance(key); ok {
			out = &b
		}
		return nil
	})
	return out, err
}

// LockForUpdate bloquea la fila; si no existe devuelve un balance en cero (se crea al hacer Upsert).
func (r *BalanceRepo) LockForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error) {
	var out *entity.Balance
	err := r.v.do(func(t *tx) error {
		if err := t.lock(ctx, balanceLockKey(key)); err != nil {
			return err
		}
		b, ok := t.balance(key)
		if !ok {
			b = entity.Balance{WarehouseID: key.WarehouseID, PartID: key.PartID, CurrentStock: decimal.Zero, MinimumThreshold: decimal.Zero}
		}
		out = &b
		return nil
	})
	return out, err
}

// Upsert escribe la fila. Rechaza stock negativo como lo haría el CHECK de la tabla.
func (r *BalanceRepo) Upsert(ctx context.Context, b *entity.Balance) error {
	if b.CurrentStock.IsNegative() {
		return fmt.Errorf("upsert balance %s/%s: current_stock >= 0 violado", b.WarehouseID, b.PartID)
	}
	return r.v.do(func(t *tx) error {
		if err := t.lock(ctx, balanceLockKey(b.Key())); err != nil {
			return err
		}
		t.balances[b.Key()] = *b
		return nil
	})
}

// List filtra y ordena por (bodega, parte).
func (r *BalanceRepo) List(_ context.Context, f repository.BalanceFilter) ([]*entity.Balance, error) {
	var out []*entity.Balance
	err := r.v.do(func(t *tx) error {
		for _, b := range t.allBalances() {
			if f.WarehouseID != "" && b.WarehouseID != f.WarehouseID {
				continue
			}
			if f.PartID != "" && b.PartID != f.PartID {
				continue
			}
			if f.BelowThreshold && !b.CurrentStock.LessThan(b.MinimumThreshold) {
				continue
			}
			out = append(out, b)
		}
		out = paginate(out, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

// ListStocked filas de la bodega con stock positivo.
func (r *BalanceRepo) ListStocked(_ context.Context, warehouseID string) ([]*entity.Balance, error) {
	var out []*entity.Balance
	err := r.v.do(func(t *tx) error {
		for _, b := range t.allBalances() {
			if b.WarehouseID == warehouseID && b.CurrentStock.IsPositive() {
				out = append(out, b)
			}
		}
		return nil
	})
	return out, err
}

func (t *tx) allBalances() []*entity.Balance {
	t.s.mu.RLock()
	merged := make(map[entity.BalanceKey]entity.Balance, len(t.s.balances)+len(t.balances))
	for k, b := range t.s.balances {
		merged[k] = b
	}
	t.s.mu.RUnlock()
	for k, b := range t.balances {
		merged[k] = b
	}
	out := make([]*entity.Balance, 0, len(merged))
	for _, b := range merged {
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

// ─── Libro mayor ─────────────────────────────────────────────────────────────

// LedgerRepo libro mayor en memoria (solo inserción).
type LedgerRepo struct{ v view }

// Append agrega el movimiento.
func (r *LedgerRepo) Append(_ context.Context, e *entity.LedgerEntry) error {
	return r.v.do(func(t *tx) error {
		t.ledger = append(t.ledger, *e)
		return nil
	})
}

// GetByID devuelve nil si no existe.
func (r *LedgerRepo) GetByID(_ context.Context, id string) (*entity.LedgerEntry, error) {
	var out *entity.LedgerEntry
	err := r.v.do(func(t *tx) error {
		for _, e := range t.allEntries() {
			if e.ID == id {
				out = e
				return nil
			}
		}
		return nil
	})
	return out, err
}

// List movimientos más recientes primero.
func (r *LedgerRepo) List(_ context.Context, f repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	var out []*entity.LedgerEntry
	err := r.v.do(func(t *tx) error {
		all := t.allEntries()
		for i := len(all) - 1; i >= 0; i-- {
			e := all[i]
			if f.PartID != "" && e.PartID != f.PartID {
				continue
			}
			if f.WarehouseID != "" && e.FromWarehouse != f.WarehouseID && e.ToWarehouse != f.WarehouseID {
				continue
			}
			out = append(out, e)
		}
		out = paginate(out, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

// ListByPair movimientos que tocan la fila, en orden cronológico.
func (r *LedgerRepo) ListByPair(_ context.Context, key entity.BalanceKey) ([]*entity.LedgerEntry, error) {
	var out []*entity.LedgerEntry
	err := r.v.do(func(t *tx) error {
		for _, e := range t.allEntries() {
			if e.PartID != key.PartID {
				continue
			}
			if e.FromWarehouse == key.WarehouseID || e.ToWarehouse == key.WarehouseID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

func (t *tx) allEntries() []*entity.LedgerEntry {
	t.s.mu.RLock()
	out := make([]*entity.LedgerEntry, 0, len(t.s.ledger)+len(t.ledger))
	for i := range t.s.ledger {
		e := t.s.ledger[i]
		out = append(out, &e)
	}
	t.s.mu.RUnlock()
	for i := range t.ledger {
		e := t.ledger[i]
		out = append(out, &e)
	}
	return out
}

// ─── Tomas físicas ───────────────────────────────────────────────────────────

// StocktakeRepo tomas físicas en memoria.
type StocktakeRepo struct{ v view }

func cloneStocktake(st *entity.Stocktake) *entity.Stocktake {
	c := *st
	c.Items = append([]entity.StocktakeItem(nil), st.Items...)
	return &c
}

// working devuelve la copia de trabajo de la tx (la crea desde el estado confirmado).
func (t *tx) working(id string) *entity.Stocktake {
	if st, ok := t.stocktakes[id]; ok {
		return st
	}
	t.s.mu.RLock()
	st, ok := t.s.stocktakes[id]
	t.s.mu.RUnlock()
	if !ok {
		return nil
	}
	c := cloneStocktake(st)
	t.stocktakes[id] = c
	return c
}

func (t *tx) readStocktake(id string) *entity.Stocktake {
	if st, ok := t.stocktakes[id]; ok {
		return cloneStocktake(st)
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if st, ok := t.s.stocktakes[id]; ok {
		return cloneStocktake(st)
	}
	return nil
}

// Create inserta la toma con sus ítems.
func (r *StocktakeRepo) Create(ctx context.Context, st *entity.Stocktake) error {
	return r.v.do(func(t *tx) error {
		if t.readStocktake(st.ID) != nil {
			return fmt.Errorf("crear toma %s: ya existe", st.ID)
		}
		if err := t.lock(ctx, stocktakeLockKey(st.ID)); err != nil {
			return err
		}
		t.stocktakes[st.ID] = cloneStocktake(st)
		return nil
	})
}

// GetByID devuelve nil si no existe.
func (r *StocktakeRepo) GetByID(_ context.Context, id string) (*entity.Stocktake, error) {
	var out *entity.Stocktake
	err := r.v.do(func(t *tx) error {
		out = t.readStocktake(id)
		return nil
	})
	return out, err
}

// GetForUpdate bloquea la toma hasta el fin de la transacción.
func (r *StocktakeRepo) GetForUpdate(ctx context.Context, id string) (*entity.Stocktake, error) {
	var out *entity.Stocktake
	err := r.v.do(func(t *tx) error {
		if err := t.lock(ctx, stocktakeLockKey(id)); err != nil {
			return err
		}
		out = t.readStocktake(id)
		return nil
	})
	return out, err
}

// UpdateStatus persiste estado y auditoría (no toca los ítems).
func (r *StocktakeRepo) UpdateStatus(ctx context.Context, st *entity.Stocktake) error {
	return r.v.do(func(t *tx) error {
		if err := t.lock(ctx, stocktakeLockKey(st.ID)); err != nil {
			return err
		}
		w := t.working(st.ID)
		if w == nil {
			return domain.ErrNotFound
		}
		items := w.Items
		*w = *st
		w.Items = items
		return nil
	})
}

// UpsertItem inserta o reemplaza el ítem de la parte.
func (r *StocktakeRepo) UpsertItem(ctx context.Context, item *entity.StocktakeItem) error {
	return r.v.do(func(t *tx) error {
		if err := t.lock(ctx, stocktakeLockKey(item.StocktakeID)); err != nil {
			return err
		}
		w := t.working(item.StocktakeID)
		if w == nil {
			return domain.ErrNotFound
		}
		if existing := w.Item(item.PartID); existing != nil {
			*existing = *item
			return nil
		}
		w.Items = append(w.Items, *item)
		return nil
	})
}

// DeleteItems elimina todos los ítems de la toma.
func (r *StocktakeRepo) DeleteItems(ctx context.Context, stocktakeID string) error {
	return r.v.do(func(t *tx) error {
		if err := t.lock(ctx, stocktakeLockKey(stocktakeID)); err != nil {
			return err
		}
		w := t.working(stocktakeID)
		if w == nil {
			return domain.ErrNotFound
		}
		w.Items = nil
		return nil
	})
}

// ─── Ajustes ─────────────────────────────────────────────────────────────────

// AdjustmentRepo ajustes en memoria.
type AdjustmentRepo struct{ v view }

// Create agrega el ajuste.
func (r *AdjustmentRepo) Create(_ context.Context, a *entity.Adjustment) error {
	return r.v.do(func(t *tx) error {
		t.adjustments = append(t.adjustments, *a)
		return nil
	})
}

// ListByStocktake ajustes de la toma en orden de creación.
func (r *AdjustmentRepo) ListByStocktake(_ context.Context, stocktakeID string) ([]*entity.Adjustment, error) {
	var out []*entity.Adjustment
	err := r.v.do(func(t *tx) error {
		t.s.mu.RLock()
		all := append(append([]entity.Adjustment(nil), t.s.adjustments...), t.adjustments...)
		t.s.mu.RUnlock()
		for i := range all {
			if all[i].StocktakeID == stocktakeID {
				a := all[i]
				out = append(out, &a)
			}
		}
		return nil
	})
	return out, err
}

// ─── Alertas ─────────────────────────────────────────────────────────────────

// AlertRepo alertas en memoria. Las operaciones sobre (bodega, parte, tipo) se serializan
// con un lock, lo que equivale al índice único parcial de alertas activas.
type AlertRepo struct{ v view }

func (t *tx) allAlerts() []entity.Alert {
	t.s.mu.RLock()
	order := append([]string(nil), t.s.alertOrder...)
	committed := make(map[string]entity.Alert, len(t.s.alerts))
	for id, a := range t.s.alerts {
		committed[id] = a
	}
	t.s.mu.RUnlock()
	for _, id := range t.alertOrder {
		if _, ok := committed[id]; !ok {
			order = append(order, id)
		}
	}
	out := make([]entity.Alert, 0, len(order))
	for _, id := range order {
		if a, ok := t.alerts[id]; ok {
			out = append(out, a)
			continue
		}
		out = append(out, committed[id])
	}
	return out
}

func (t *tx) activeAlert(key entity.BalanceKey, kind entity.AlertKind) *entity.Alert {
	for _, a := range t.allAlerts() {
		if a.IsActive && a.WarehouseID == key.WarehouseID && a.PartID == key.PartID && a.Kind == kind {
			return &a
		}
	}
	return nil
}

func (t *tx) alertByID(id string) *entity.Alert {
	if a, ok := t.alerts[id]; ok {
		return &a
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if a, ok := t.s.alerts[id]; ok {
		return &a
	}
	return nil
}

// Insert devuelve domain.ErrDuplicateAlertSuppressed si ya hay una activa del mismo tipo.
func (r *AlertRepo) Insert(ctx context.Context, a *entity.Alert) error {
	key := entity.BalanceKey{WarehouseID: a.WarehouseID, PartID: a.PartID}
	return r.v.do(func(t *tx) error {
		if err := t.lock(ctx, alertLockKey(key, a.Kind)); err != nil {
			return err
		}
		if t.activeAlert(key, a.Kind) != nil {
			return domain.ErrDuplicateAlertSuppressed
		}
		t.alerts[a.ID] = *a
		t.alertOrder = append(t.alertOrder, a.ID)
		return nil
	})
}

// GetActive devuelve la alerta activa del tipo, o nil.
func (r *AlertRepo) GetActive(ctx context.Context, key entity.BalanceKey, kind entity.AlertKind) (*entity.Alert, error) {
	var out *entity.Alert
	err := r.v.do(func(t *tx) error {
		if err := t.lock(ctx, alertLockKey(key, kind)); err != nil {
			return err
		}
		out = t.activeAlert(key, kind)
		return nil
	})
	return out, err
}

// GetByID devuelve nil si no existe.
func (r *AlertRepo) GetByID(_ context.Context, id string) (*entity.Alert, error) {
	var out *entity.Alert
	err := r.v.do(func(t *tx) error {
		out = t.alertByID(id)
		return nil
	})
	return out, err
}

// GetByIDForUpdate toma el lock de (bodega, parte, tipo) de la alerta y la relee.
func (r *AlertRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Alert, error) {
	var out *entity.Alert
	err := r.v.do(func(t *tx) error {
		a := t.alertByID(id)
		if a == nil {
			return nil
		}
		key := entity.BalanceKey{WarehouseID: a.WarehouseID, PartID: a.PartID}
		if err := t.lock(ctx, alertLockKey(key, a.Kind)); err != nil {
			return err
		}
		out = t.alertByID(id)
		return nil
	})
	return out, err
}

// Update reemplaza la alerta.
func (r *AlertRepo) Update(ctx context.Context, a *entity.Alert) error {
	key := entity.BalanceKey{WarehouseID: a.WarehouseID, PartID: a.PartID}
	return r.v.do(func(t *tx) error {
		if err := t.lock(ctx, alertLockKey(key, a.Kind)); err != nil {
			return err
		}
		t.alerts[a.ID] = *a
		return nil
	})
}

// ListActive alertas activas, más recientes primero.
func (r *AlertRepo) ListActive(_ context.Context, warehouseID string) ([]*entity.Alert, error) {
	var out []*entity.Alert
	err := r.v.do(func(t *tx) error {
		all := t.allAlerts()
		for i := len(all) - 1; i >= 0; i-- {
			a := all[i]
			if !a.IsActive || (warehouseID != "" && a.WarehouseID != warehouseID) {
				continue
			}
			out = append(out, &a)
		}
		return nil
	})
	return out, err
}

// ─── Maestros ────────────────────────────────────────────────────────────────

// PartRepo maestro de partes en memoria.
type PartRepo struct{ s *Store }

// GetByID devuelve nil si no existe.
func (r *PartRepo) GetByID(_ context.Context, id string) (*entity.Part, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.parts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// WarehouseRepo maestro de bodegas en memoria.
type WarehouseRepo struct{ s *Store }

// GetByID devuelve nil si no existe.
func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return nil
		}
		in = in[offset:]
	}
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
