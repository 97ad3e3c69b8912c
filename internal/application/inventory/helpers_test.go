package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

// recordingPublisher guarda lo publicado para las aserciones.
type recordingPublisher struct {
	mu      sync.Mutex
	entries []*entity.LedgerEntry
	changes []app.AlertChange
}

func (p *recordingPublisher) PublishLedgerEntries(_ context.Context, entries ...*entity.LedgerEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entries...)
	return nil
}

func (p *recordingPublisher) PublishAlertChanges(_ context.Context, changes ...app.AlertChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, changes...)
	return nil
}

type fixture struct {
	engine *app.Engine
	store  *memory.Store
	pub    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, app.Config{}, 2*time.Second)
}

func newFixtureWith(t *testing.T, cfg app.Config, lockTimeout time.Duration) *fixture {
	t.Helper()
	store := memory.NewStore(lockTimeout)
	for _, id := range []string{"X", "Y", "Z"} {
		store.AddPart(entity.Part{ID: id, SKU: "SKU-" + id, Name: "Parte " + id, Category: entity.PartCategoryDiscrete, UnitMeasure: "UND"})
	}
	store.AddPart(entity.Part{ID: "G", SKU: "SKU-G", Name: "Grasa", Category: entity.PartCategoryBulk, UnitMeasure: "KG"})
	for _, id := range []string{"A", "B", "C"} {
		store.AddWarehouse(entity.Warehouse{ID: id, OrganizationID: "org", Name: "Bodega " + id, Active: true})
	}
	store.AddWarehouse(entity.Warehouse{ID: "OLD", OrganizationID: "org", Name: "Cerrada", Active: false})

	pub := &recordingPublisher{}
	engine := app.NewEngine(app.Deps{
		TxRunner:   store,
		Repos:      store.Repos(),
		Parts:      store.Parts(),
		Warehouses: store.Warehouses(),
		Publisher:  pub,
		Logger:     zerolog.Nop(),
	}, cfg)
	return &fixture{engine: engine, store: store, pub: pub}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// receive registra una entrada de mercancía.
func (f *fixture) receive(t *testing.T, warehouseID, partID, qty string) {
	t.Helper()
	_, err := f.engine.Ledger.Append(context.Background(), app.AppendInput{
		Type: entity.LedgerCreation, PartID: partID, ToWarehouse: warehouseID, Quantity: dec(qty), Actor: "seed",
	})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, warehouseID, partID string) decimal.Decimal {
	t.Helper()
	b, err := f.engine.Projection.GetBalance(context.Background(), warehouseID, partID)
	require.NoError(t, err)
	return b.CurrentStock
}

func (f *fixture) assertConsistent(t *testing.T, warehouseID, partID string) {
	t.Helper()
	v, err := f.engine.Projection.Verify(context.Background(), warehouseID, partID)
	require.NoError(t, err)
	require.True(t, v.Consistent, "balance %s/%s: almacenado %s, reproducido %s", warehouseID, partID, v.Stored, v.Replayed)
}
