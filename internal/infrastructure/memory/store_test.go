package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
)

var keyA = entity.BalanceKey{WarehouseID: "A", PartID: "X"}

func TestStore_RollbackDescartaEscrituras(t *testing.T) {
	s := memory.NewStore(time.Second)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Run(ctx, func(r app.Repos) error {
		b, err := r.Balances.LockForUpdate(ctx, keyA)
		require.NoError(t, err)
		b.CurrentStock = decimal.NewFromInt(10)
		require.NoError(t, r.Balances.Upsert(ctx, b))
		require.NoError(t, r.Ledger.Append(ctx, &entity.LedgerEntry{ID: "e1", PartID: "X", ToWarehouse: "A"}))

		got, err := r.Balances.Get(ctx, keyA)
		require.NoError(t, err)
		assert.True(t, got.CurrentStock.Equal(decimal.NewFromInt(10)), "la tx ve sus propias escrituras")
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Repos().Balances.Get(ctx, keyA)
	require.NoError(t, err)
	assert.Nil(t, got)
	entries, err := s.Repos().Ledger.List(ctx, repository.LedgerFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_LockTimeoutDevuelveConflicto(t *testing.T) {
	s := memory.NewStore(50 * time.Millisecond)
	ctx := context.Background()

	locked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx, func(r app.Repos) error {
			_, err := r.Balances.LockForUpdate(ctx, keyA)
			close(locked)
			<-done
			return err
		})
	}()
	<-locked

	err := s.Run(ctx, func(r app.Repos) error {
		_, err := r.Balances.LockForUpdate(ctx, keyA)
		return err
	})
	close(done)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.True(t, domain.IsRetryable(err))
}

func TestStore_LockSeLiberaAlTerminar(t *testing.T) {
	s := memory.NewStore(50 * time.Millisecond)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		err := s.Run(ctx, func(r app.Repos) error {
			_, err := r.Balances.LockForUpdate(ctx, keyA)
			return err
		})
		require.NoError(t, err)
	}
}

func TestStore_NoPermiteStockNegativo(t *testing.T) {
	s := memory.NewStore(time.Second)
	err := s.Repos().Balances.Upsert(context.Background(), &entity.Balance{
		WarehouseID: "A", PartID: "X", CurrentStock: decimal.NewFromInt(-1),
	})
	assert.Error(t, err)
}

func TestAlertRepo_UnaActivaPorTipo(t *testing.T) {
	s := memory.NewStore(time.Second)
	ctx := context.Background()
	alerts := s.Repos().Alerts

	first := &entity.Alert{ID: "a1", WarehouseID: "A", PartID: "X", Kind: entity.AlertLowStock, IsActive: true}
	require.NoError(t, alerts.Insert(ctx, first))

	dup := &entity.Alert{ID: "a2", WarehouseID: "A", PartID: "X", Kind: entity.AlertLowStock, IsActive: true}
	assert.ErrorIs(t, alerts.Insert(ctx, dup), domain.ErrDuplicateAlertSuppressed)

	other := &entity.Alert{ID: "a3", WarehouseID: "A", PartID: "X", Kind: entity.AlertExcess, IsActive: true}
	require.NoError(t, alerts.Insert(ctx, other))

	first.IsActive = false
	require.NoError(t, alerts.Update(ctx, first))
	require.NoError(t, alerts.Insert(ctx, dup), "resuelta la anterior, se puede volver a levantar")

	active, err := alerts.ListActive(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, active, 2)
}
