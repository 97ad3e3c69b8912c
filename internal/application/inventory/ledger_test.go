package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// ─── Escenarios ──────────────────────────────────────────────────────────────

func TestAppend_TrasladoMueveStockEntreBodegas(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "A", "X", "150")

	res, err := f.engine.Ledger.Append(context.Background(), app.AppendInput{
		Type: entity.LedgerTransfer, PartID: "X", FromWarehouse: "A", ToWarehouse: "B", Quantity: dec("50"), Actor: "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.LedgerTransfer, res.Entry.Type)
	require.Len(t, res.Balances, 2)
	assert.Equal(t, "A", res.Balances[0].WarehouseID, "balances en orden de lock")
	assert.True(t, f.stock(t, "A", "X").Equal(dec("100")))
	assert.True(t, f.stock(t, "B", "X").Equal(dec("50")))

	transfers, err := f.engine.Ledger.History(context.Background(), repository.LedgerFilter{WarehouseID: "B"})
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, res.Entry.ID, transfers[0].ID)

	f.assertConsistent(t, "A", "X")
	f.assertConsistent(t, "B", "X")
}

func TestAppend_ConsumoMayorAlStockFalla(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "A", "X", "150")

	_, err := f.engine.Ledger.Append(context.Background(), app.AppendInput{
		Type: entity.LedgerConsumption, PartID: "X", FromWarehouse: "A", Quantity: dec("200"), Actor: "u1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "A", stockErr.WarehouseID)
	assert.Equal(t, "X", stockErr.PartID)
	assert.Equal(t, "150", stockErr.Available)

	assert.True(t, f.stock(t, "A", "X").Equal(dec("150")))
	entries, err := f.engine.Ledger.History(context.Background(), repository.LedgerFilter{PartID: "X"})
	require.NoError(t, err)
	assert.Len(t, entries, 1, "solo la entrada inicial")
	f.assertConsistent(t, "A", "X")
}

// ─── Validación ──────────────────────────────────────────────────────────────

func TestAppend_PrecisionDiscreta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Ledger.Append(ctx, app.AppendInput{
		Type: entity.LedgerCreation, PartID: "X", ToWarehouse: "A", Quantity: dec("2.5"), Actor: "u1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantityPrecision)
	assert.True(t, f.stock(t, "A", "X").IsZero())

	_, err = f.engine.Ledger.Append(ctx, app.AppendInput{
		Type: entity.LedgerCreation, PartID: "X", ToWarehouse: "A", Quantity: dec("2"), Actor: "u1",
	})
	require.NoError(t, err)
	assert.True(t, f.stock(t, "A", "X").Equal(dec("2")))

	_, err = f.engine.Ledger.Append(ctx, app.AppendInput{
		Type: entity.LedgerCreation, PartID: "G", ToWarehouse: "A", Quantity: dec("2.125"), Actor: "u1",
	})
	require.NoError(t, err, "granel admite hasta 3 decimales")
}

func TestAppend_ValidaFormaYReferencias(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		in   app.AppendInput
		want error
	}{
		{"tipo desconocido", app.AppendInput{Type: "SALE", PartID: "X", ToWarehouse: "A", Quantity: dec("1"), Actor: "u"}, domain.ErrInvalidInput},
		{"sin actor", app.AppendInput{Type: entity.LedgerCreation, PartID: "X", ToWarehouse: "A", Quantity: dec("1")}, domain.ErrInvalidInput},
		{"entrada sin destino", app.AppendInput{Type: entity.LedgerCreation, PartID: "X", Quantity: dec("1"), Actor: "u"}, domain.ErrInvalidInput},
		{"consumo sin origen", app.AppendInput{Type: entity.LedgerConsumption, PartID: "X", Quantity: dec("1"), Actor: "u"}, domain.ErrInvalidInput},
		{"traslado misma bodega", app.AppendInput{Type: entity.LedgerTransfer, PartID: "X", FromWarehouse: "A", ToWarehouse: "A", Quantity: dec("1"), Actor: "u"}, domain.ErrInvalidInput},
		{"parte desconocida", app.AppendInput{Type: entity.LedgerCreation, PartID: "NOPE", ToWarehouse: "A", Quantity: dec("1"), Actor: "u"}, domain.ErrUnknownWarehouseOrPart},
		{"bodega desconocida", app.AppendInput{Type: entity.LedgerCreation, PartID: "X", ToWarehouse: "Q", Quantity: dec("1"), Actor: "u"}, domain.ErrUnknownWarehouseOrPart},
		{"bodega inactiva", app.AppendInput{Type: entity.LedgerCreation, PartID: "X", ToWarehouse: "OLD", Quantity: dec("1"), Actor: "u"}, domain.ErrUnknownWarehouseOrPart},
		{"magnitud negativa", app.AppendInput{Type: entity.LedgerCreation, PartID: "X", ToWarehouse: "A", Quantity: dec("-1"), Actor: "u"}, domain.ErrInvalidQuantityPrecision},
		{"ajuste en cero", app.AppendInput{Type: entity.LedgerAdjustment, PartID: "X", ToWarehouse: "A", Quantity: dec("0"), Actor: "u"}, domain.ErrInvalidQuantityPrecision},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.Ledger.Append(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	entries, err := f.engine.Ledger.History(context.Background(), repository.LedgerFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries, "ningún rechazo deja rastro en el libro mayor")
}

func TestAppend_AjusteConSigno(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "A", "X", "10")

	_, err := f.engine.Ledger.Append(context.Background(), app.AppendInput{
		Type: entity.LedgerAdjustment, PartID: "X", ToWarehouse: "A", Quantity: dec("-3"), Actor: "u1",
	})
	require.NoError(t, err)
	assert.True(t, f.stock(t, "A", "X").Equal(dec("7")))

	_, err = f.engine.Ledger.Append(context.Background(), app.AppendInput{
		Type: entity.LedgerAdjustment, PartID: "X", ToWarehouse: "A", Quantity: dec("-8"), Actor: "u1",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	f.assertConsistent(t, "A", "X")
}

func TestAppend_PublicaElMovimiento(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "A", "X", "5")

	f.pub.mu.Lock()
	defer f.pub.mu.Unlock()
	require.Len(t, f.pub.entries, 1)
	assert.Equal(t, entity.LedgerCreation, f.pub.entries[0].Type)
}

// ─── Concurrencia ────────────────────────────────────────────────────────────

func TestAppend_TrasladosCruzadosSinDeadlock(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "A", "X", "100")
	f.receive(t, "B", "X", "100")

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.engine.Ledger.Append(context.Background(), app.AppendInput{
				Type: entity.LedgerTransfer, PartID: "X", FromWarehouse: "A", ToWarehouse: "B", Quantity: dec("1"), Actor: "u1",
			})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := f.engine.Ledger.Append(context.Background(), app.AppendInput{
				Type: entity.LedgerTransfer, PartID: "X", FromWarehouse: "B", ToWarehouse: "A", Quantity: dec("1"), Actor: "u2",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.True(t, f.stock(t, "A", "X").Equal(dec("100")))
	assert.True(t, f.stock(t, "B", "X").Equal(dec("100")))
	f.assertConsistent(t, "A", "X")
	f.assertConsistent(t, "B", "X")
}

func TestAppend_ConsumosConcurrentesNuncaDejanNegativo(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "A", "X", "10")

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Ledger.Append(context.Background(), app.AppendInput{
				Type: entity.LedgerConsumption, PartID: "X", FromWarehouse: "A", Quantity: dec("1"), Actor: "u1",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, domain.ErrInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 15, rejected)
	assert.True(t, f.stock(t, "A", "X").IsZero())
	f.assertConsistent(t, "A", "X")
}

func TestAppend_TimeoutDeLockEsReintentable(t *testing.T) {
	f := newFixtureWith(t, app.Config{}, 30*time.Millisecond)
	f.receive(t, "A", "X", "10")
	ctx := context.Background()

	locked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = f.store.Run(ctx, func(r app.Repos) error {
			_, err := r.Balances.LockForUpdate(ctx, entity.BalanceKey{WarehouseID: "A", PartID: "X"})
			close(locked)
			<-release
			return err
		})
	}()
	<-locked

	_, err := f.engine.Ledger.Append(ctx, app.AppendInput{
		Type: entity.LedgerConsumption, PartID: "X", FromWarehouse: "A", Quantity: dec("1"), Actor: "u1",
	})
	close(release)

	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
	assert.True(t, f.stock(t, "A", "X").Equal(dec("10")), "sin estado parcial")
}
