// Package memory implementa el almacenamiento del motor en memoria, con transacciones
// de escritura diferida y bloqueo de filas con espera acotada, para pruebas y modo desarrollo.
package memory

import (
	"context"
	"sync"
	"time"

	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// DefaultLockTimeout espera máxima por un lock de fila.
const DefaultLockTimeout = 5 * time.Second

var _ app.TxRunner = (*Store)(nil)

// Store estado confirmado más la tabla de locks de filas.
type Store struct {
	mu          sync.RWMutex
	parts       map[string]entity.Part
	warehouses  map[string]entity.Warehouse
	balances    map[entity.BalanceKey]entity.Balance
	ledger      []entity.LedgerEntry
	stocktakes  map[string]*entity.Stocktake
	adjustments []entity.Adjustment
	alerts      map[string]entity.Alert
	alertOrder  []string

	locks       *lockTable
	lockTimeout time.Duration
}

// NewStore crea un store vacío. lockTimeout <= 0 usa DefaultLockTimeout.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		parts:       make(map[string]entity.Part),
		warehouses:  make(map[string]entity.Warehouse),
		balances:    make(map[entity.BalanceKey]entity.Balance),
		stocktakes:  make(map[string]*entity.Stocktake),
		alerts:      make(map[string]entity.Alert),
		locks:       &lockTable{sems: make(map[string]chan struct{})},
		lockTimeout: lockTimeout,
	}
}

// AddPart registra una parte en el maestro.
func (s *Store) AddPart(p entity.Part) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parts[p.ID] = p
}

// AddWarehouse registra una bodega en el maestro.
func (s *Store) AddWarehouse(w entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warehouses[w.ID] = w
}

// Run ejecuta fn dentro de una transacción: las escrituras se aplican solo si fn no devuelve error.
// Los locks de fila tomados dentro de fn se liberan al terminar.
func (s *Store) Run(ctx context.Context, fn func(r app.Repos) error) error {
	t := s.begin()
	defer t.release()
	if err := fn(view{s: s, t: t}.repos()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.commit()
	return nil
}

// Repos devuelve repositorios en modo autocommit (cada llamada es su propia transacción).
func (s *Store) Repos() app.Repos {
	return view{s: s}.repos()
}

// Parts devuelve el maestro de partes.
func (s *Store) Parts() *PartRepo { return &PartRepo{s: s} }

// Warehouses devuelve el maestro de bodegas.
func (s *Store) Warehouses() *WarehouseRepo { return &WarehouseRepo{s: s} }

// lockTable un semáforo de capacidad 1 por fila.
type lockTable struct {
	mu   sync.Mutex
	sems map[string]chan struct{}
}

func (lt *lockTable) sem(key string) chan struct{} {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	ch, ok := lt.sems[key]
	if !ok {
		ch = make(chan struct{}, 1)
		lt.sems[key] = ch
	}
	return ch
}

// tx escrituras pendientes y locks tomados por una transacción.
type tx struct {
	s           *Store
	held        map[string]chan struct{}
	balances    map[entity.BalanceKey]entity.Balance
	ledger      []entity.LedgerEntry
	stocktakes  map[string]*entity.Stocktake
	adjustments []entity.Adjustment
	alerts      map[string]entity.Alert
	alertOrder  []string
}

func (s *Store) begin() *tx {
	return &tx{
		s:          s,
		held:       make(map[string]chan struct{}),
		balances:   make(map[entity.BalanceKey]entity.Balance),
		stocktakes: make(map[string]*entity.Stocktake),
		alerts:     make(map[string]entity.Alert),
	}
}

// lock toma el lock de la fila o devuelve *domain.ConflictError al vencer la espera.
func (t *tx) lock(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	sem := t.s.locks.sem(key)
	timer := time.NewTimer(t.s.lockTimeout)
	defer timer.Stop()
	select {
	case sem <- struct{}{}:
		t.held[key] = sem
		return nil
	case <-timer.C:
		return &domain.ConflictError{Resource: key, Cause: context.DeadlineExceeded}
	case <-ctx.Done():
		return &domain.ConflictError{Resource: key, Cause: ctx.Err()}
	}
}

func (t *tx) release() {
	for k, sem := range t.held {
		<-sem
		delete(t.held, k)
	}
}

func (t *tx) commit() {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, b := range t.balances {
		s.balances[k] = b
	}
	s.ledger = append(s.ledger, t.ledger...)
	for id, st := range t.stocktakes {
		s.stocktakes[id] = st
	}
	s.adjustments = append(s.adjustments, t.adjustments...)
	for _, id := range t.alertOrder {
		if _, ok := s.alerts[id]; !ok {
			s.alertOrder = append(s.alertOrder, id)
		}
	}
	for id, a := range t.alerts {
		s.alerts[id] = a
	}
}

// view repositorios sobre una tx; t nil = autocommit.
type view struct {
	s *Store
	t *tx
}

func (v view) repos() app.Repos {
	return app.Repos{
		Balances:    &BalanceRepo{v: v},
		Ledger:      &LedgerRepo{v: v},
		Stocktakes:  &StocktakeRepo{v: v},
		Adjustments: &AdjustmentRepo{v: v},
		Alerts:      &AlertRepo{v: v},
	}
}

func (v view) do(fn func(t *tx) error) error {
	if v.t != nil {
		return fn(v.t)
	}
	t := v.s.begin()
	defer t.release()
	if err := fn(t); err != nil {
		return err
	}
	t.commit()
	return nil
}

func balanceLockKey(k entity.BalanceKey) string { return "b:" + k.WarehouseID + "|" + k.PartID }
func stocktakeLockKey(id string) string         { return "s:" + id }
func alertLockKey(k entity.BalanceKey, kind entity.AlertKind) string {
	return "a:" + k.WarehouseID + "|" + k.PartID + "|" + string(kind)
}
