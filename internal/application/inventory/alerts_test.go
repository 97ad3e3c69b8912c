package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

func activeKinds(t *testing.T, f *fixture, warehouseID string) []entity.AlertKind {
	t.Helper()
	alerts, err := f.engine.Alerts.ListActive(context.Background(), warehouseID)
	require.NoError(t, err)
	kinds := make([]entity.AlertKind, 0, len(alerts))
	for _, a := range alerts {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}

func TestAlerts_BajoMinimoSeLevantaYSeResuelveSola(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, "C", "Z", "10")
	_, err := f.engine.Projection.SetThreshold(ctx, "C", "Z", dec("5"))
	require.NoError(t, err)

	res, err := f.engine.Ledger.Append(ctx, app.AppendInput{
		Type: entity.LedgerConsumption, PartID: "Z", FromWarehouse: "C", Quantity: dec("8"), Actor: "u1",
	})
	require.NoError(t, err)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, app.AlertRaised, res.Alerts[0].Action)

	alerts, err := f.engine.Alerts.ListActive(ctx, "C")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, entity.AlertLowStock, alerts[0].Kind)
	assert.Equal(t, "Z", alerts[0].PartID)
	assert.True(t, alerts[0].CurrentValue.Equal(dec("2")))
	lowID := alerts[0].ID

	res, err = f.engine.Ledger.Append(ctx, app.AppendInput{
		Type: entity.LedgerCreation, PartID: "Z", ToWarehouse: "C", Quantity: dec("4"), Actor: "u1",
	})
	require.NoError(t, err)
	assert.Empty(t, activeKinds(t, f, "C"))
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, app.AlertResolved, res.Alerts[0].Action)

	resolved, err := f.store.Repos().Alerts.GetByID(ctx, lowID)
	require.NoError(t, err)
	assert.False(t, resolved.IsActive)
	assert.Equal(t, app.SystemActor, resolved.ResolvedBy)
}

func TestAlerts_CondicionRepetidaRefrescaSinDuplicar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, "C", "Z", "4")
	_, err := f.engine.Projection.SetThreshold(ctx, "C", "Z", dec("5"))
	require.NoError(t, err)

	res, err := f.engine.Ledger.Append(ctx, app.AppendInput{
		Type: entity.LedgerConsumption, PartID: "Z", FromWarehouse: "C", Quantity: dec("1"), Actor: "u1",
	})
	require.NoError(t, err)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, app.AlertRefreshed, res.Alerts[0].Action)

	alerts, err := f.engine.Alerts.ListActive(ctx, "C")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].CurrentValue.Equal(dec("3")))
}

func TestAlerts_AgotadoYExceso(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, "C", "Z", "2")
	_, err := f.engine.Projection.SetThreshold(ctx, "C", "Z", dec("1"))
	require.NoError(t, err)

	_, err = f.engine.Ledger.Append(ctx, app.AppendInput{
		Type: entity.LedgerConsumption, PartID: "Z", FromWarehouse: "C", Quantity: dec("2"), Actor: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, []entity.AlertKind{entity.AlertStockout}, activeKinds(t, f, "C"))

	f.receive(t, "C", "Z", "4")
	assert.Equal(t, []entity.AlertKind{entity.AlertExcess}, activeKinds(t, f, "C"))
}

func TestAlerts_ResolverManualEsIdempotente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ch, err := f.engine.Alerts.RaiseDiscrepancy(ctx, entity.BalanceKey{WarehouseID: "A", PartID: "Y"}, dec("-2"))
	require.NoError(t, err)
	require.NotNil(t, ch)

	first, err := f.engine.Alerts.Resolve(ctx, ch.Alert.ID, "supervisor", "recontado")
	require.NoError(t, err)
	assert.False(t, first.IsActive)
	assert.Equal(t, "supervisor", first.ResolvedBy)

	second, err := f.engine.Alerts.Resolve(ctx, ch.Alert.ID, "otro", "otra nota")
	require.NoError(t, err)
	assert.Equal(t, "supervisor", second.ResolvedBy)
	assert.Equal(t, first.ResolvedAt, second.ResolvedAt)

	_, err = f.engine.Alerts.Resolve(ctx, "missing", "supervisor", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAlerts_ResolverConcurrenteCierraUnaSolaVez(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	key := entity.BalanceKey{WarehouseID: "A", PartID: "Y"}

	for round := 0; round < 200; round++ {
		ch, err := f.engine.Alerts.RaiseDiscrepancy(ctx, key, dec("-1"))
		require.NoError(t, err)
		require.NotNil(t, ch)
		id := ch.Alert.ID

		actors := []string{"ana", "luis"}
		results := make([]*entity.Alert, len(actors))
		errs := make([]error, len(actors))
		var wg sync.WaitGroup
		for i, actor := range actors {
			wg.Add(1)
			go func(i int, actor string) {
				defer wg.Done()
				results[i], errs[i] = f.engine.Alerts.Resolve(ctx, id, actor, "recontado por "+actor)
			}(i, actor)
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		assert.Equal(t, results[0].ResolvedBy, results[1].ResolvedBy)

		stored, err := f.store.Repos().Alerts.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, results[0].ResolvedBy, stored.ResolvedBy)

		resolvedEvents := 0
		f.pub.mu.Lock()
		for _, c := range f.pub.changes {
			if c.Alert.ID == id && c.Action == app.AlertResolved {
				resolvedEvents++
			}
		}
		f.pub.mu.Unlock()
		require.Equal(t, 1, resolvedEvents, "ronda %d", round)
	}
}

func TestAlerts_DiscrepanciaDentroDeTolerancia(t *testing.T) {
	f := newFixtureWith(t, app.Config{DiscrepancyTolerance: dec("2")}, 0)
	ch, err := f.engine.Alerts.RaiseDiscrepancy(context.Background(), entity.BalanceKey{WarehouseID: "A", PartID: "Y"}, dec("2"))
	require.NoError(t, err)
	assert.Nil(t, ch)
}

func TestAlerts_DiscrepanciaNoSeResuelveSola(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.Alerts.RaiseDiscrepancy(ctx, entity.BalanceKey{WarehouseID: "A", PartID: "Y"}, dec("3"))
	require.NoError(t, err)

	f.receive(t, "A", "Y", "5")
	assert.Equal(t, []entity.AlertKind{entity.AlertDiscrepancy}, activeKinds(t, f, "A"))
}

func TestAlerts_SePublicanLosCambios(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "C", "Z", "1")
	_, err := f.engine.Ledger.Append(context.Background(), app.AppendInput{
		Type: entity.LedgerConsumption, PartID: "Z", FromWarehouse: "C", Quantity: dec("1"), Actor: "u1",
	})
	require.NoError(t, err)

	f.pub.mu.Lock()
	defer f.pub.mu.Unlock()
	require.NotEmpty(t, f.pub.changes)
	last := f.pub.changes[len(f.pub.changes)-1]
	assert.Equal(t, entity.AlertStockout, last.Alert.Kind)
	assert.Equal(t, app.AlertRaised, last.Action)
}
