package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

// newTestPool levanta PostgreSQL en un contenedor, aplica migraciones y siembra maestros.
// Solo corre con INTEGRATION_TESTS definido y fuera de -short.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() || os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("pruebas de integración deshabilitadas (definir INTEGRATION_TESTS)")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("inventory_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 8}, "inventario-ledger-test", time.Second)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(pool))
	require.NoError(t, postgres.Migrate(pool), "migrar dos veces no falla")

	_, err = pool.Exec(ctx, `
		INSERT INTO parts (id, sku, name, category, unit_measure) VALUES
			('X', 'SKU-X', 'Parte X', 'DISCRETE', 'UND'),
			('G', 'SKU-G', 'Grasa', 'BULK', 'KG');
		INSERT INTO warehouses (id, organization_id, name, active) VALUES
			('A', 'org', 'Bodega A', true),
			('B', 'org', 'Bodega B', true),
			('OLD', 'org', 'Cerrada', false);`)
	require.NoError(t, err)
	return pool
}

func newPgEngine(pool *pgxpool.Pool, lockTimeout time.Duration) *app.Engine {
	return app.NewEngine(app.Deps{
		TxRunner:   postgres.NewTxRunner(pool, lockTimeout),
		Repos:      postgres.NewRepos(pool),
		Parts:      postgres.NewPartRepository(pool),
		Warehouses: postgres.NewWarehouseRepository(pool),
		Logger:     zerolog.Nop(),
	}, app.Config{})
}

func TestPostgres_MovimientosYVerificacion(t *testing.T) {
	pool := newTestPool(t)
	engine := newPgEngine(pool, time.Second)
	ctx := context.Background()
	d := decimal.RequireFromString

	_, err := engine.Ledger.Append(ctx, app.AppendInput{Type: entity.LedgerCreation, PartID: "X", ToWarehouse: "A", Quantity: d("150"), Actor: "seed"})
	require.NoError(t, err)
	_, err = engine.Ledger.Append(ctx, app.AppendInput{Type: entity.LedgerTransfer, PartID: "X", FromWarehouse: "A", ToWarehouse: "B", Quantity: d("50"), Actor: "u1"})
	require.NoError(t, err)
	_, err = engine.Ledger.Append(ctx, app.AppendInput{Type: entity.LedgerConsumption, PartID: "X", FromWarehouse: "A", Quantity: d("200"), Actor: "u1"})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	a, err := engine.Projection.GetBalance(ctx, "A", "X")
	require.NoError(t, err)
	assert.True(t, a.CurrentStock.Equal(d("100")))
	for _, wh := range []string{"A", "B"} {
		v, err := engine.Projection.Verify(ctx, wh, "X")
		require.NoError(t, err)
		assert.True(t, v.Consistent, wh)
	}
}

func TestPostgres_TrasladosCruzadosSinDeadlock(t *testing.T) {
	pool := newTestPool(t)
	engine := newPgEngine(pool, 2*time.Second)
	ctx := context.Background()
	d := decimal.RequireFromString

	for _, wh := range []string{"A", "B"} {
		_, err := engine.Ledger.Append(ctx, app.AppendInput{Type: entity.LedgerCreation, PartID: "X", ToWarehouse: wh, Quantity: d("50"), Actor: "seed"})
		require.NoError(t, err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := engine.Ledger.Append(ctx, app.AppendInput{Type: entity.LedgerTransfer, PartID: "X", FromWarehouse: "A", ToWarehouse: "B", Quantity: d("1"), Actor: "u1"})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := engine.Ledger.Append(ctx, app.AppendInput{Type: entity.LedgerTransfer, PartID: "X", FromWarehouse: "B", ToWarehouse: "A", Quantity: d("1"), Actor: "u2"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	for _, wh := range []string{"A", "B"} {
		b, err := engine.Projection.GetBalance(ctx, wh, "X")
		require.NoError(t, err)
		assert.True(t, b.CurrentStock.Equal(d("50")), wh)
	}
}

func TestPostgres_LockTimeoutEsConflicto(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	runner := postgres.NewTxRunner(pool, 100*time.Millisecond)
	key := entity.BalanceKey{WarehouseID: "A", PartID: "X"}

	locked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = runner.Run(ctx, func(r app.Repos) error {
			_, err := r.Balances.LockForUpdate(ctx, key)
			close(locked)
			<-release
			return err
		})
	}()
	<-locked

	err := runner.Run(ctx, func(r app.Repos) error {
		_, err := r.Balances.LockForUpdate(ctx, key)
		return err
	})
	close(release)
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}

func TestPostgres_AlertaActivaUnica(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := postgres.NewAlertRepository(pool)
	now := time.Now().UTC()

	mk := func(id string) *entity.Alert {
		return &entity.Alert{
			ID: id, WarehouseID: "A", PartID: "X", Kind: entity.AlertLowStock, Severity: entity.SeverityWarning,
			CurrentValue: decimal.NewFromInt(1), ThresholdValue: decimal.NewFromInt(5), IsActive: true,
			CreatedAt: now, UpdatedAt: now,
		}
	}
	require.NoError(t, repo.Insert(ctx, mk("a1")))
	assert.ErrorIs(t, repo.Insert(ctx, mk("a2")), domain.ErrDuplicateAlertSuppressed)

	active, err := repo.GetActive(ctx, entity.BalanceKey{WarehouseID: "A", PartID: "X"}, entity.AlertLowStock)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "a1", active.ID)
}

func TestPostgres_ResolverConcurrenteCierraUnaSolaVez(t *testing.T) {
	pool := newTestPool(t)
	engine := newPgEngine(pool, time.Second)
	ctx := context.Background()

	ch, err := engine.Alerts.RaiseDiscrepancy(ctx, entity.BalanceKey{WarehouseID: "A", PartID: "X"}, decimal.NewFromInt(-2))
	require.NoError(t, err)
	require.NotNil(t, ch)

	actors := []string{"ana", "luis", "eva", "tom"}
	results := make([]*entity.Alert, len(actors))
	var wg sync.WaitGroup
	for i, actor := range actors {
		wg.Add(1)
		go func(i int, actor string) {
			defer wg.Done()
			al, err := engine.Alerts.Resolve(ctx, ch.Alert.ID, actor, "")
			assert.NoError(t, err)
			results[i] = al
		}(i, actor)
	}
	wg.Wait()

	var stored string
	require.NoError(t, pool.QueryRow(ctx, `SELECT resolved_by FROM alerts WHERE id = $1`, ch.Alert.ID).Scan(&stored))
	for _, al := range results {
		require.NotNil(t, al)
		assert.Equal(t, stored, al.ResolvedBy)
	}
}

func TestPostgres_TomaFisicaCompleta(t *testing.T) {
	pool := newTestPool(t)
	engine := newPgEngine(pool, time.Second)
	ctx := context.Background()
	d := decimal.RequireFromString

	_, err := engine.Ledger.Append(ctx, app.AppendInput{Type: entity.LedgerCreation, PartID: "G", ToWarehouse: "A", Quantity: d("5.5"), Actor: "seed"})
	require.NoError(t, err)
	st, err := engine.Reconciliation.Create(ctx, "A", time.Now(), "auditor")
	require.NoError(t, err)
	_, err = engine.Reconciliation.RecordCount(ctx, st.ID, "G", d("5.25"), "c1")
	require.NoError(t, err)
	res, err := engine.Reconciliation.Complete(ctx, st.ID, "auditor")
	require.NoError(t, err)
	require.Len(t, res.Adjustments, 1)
	assert.True(t, res.Adjustments[0].Delta.Equal(d("-0.25")))

	again, err := engine.Reconciliation.Complete(ctx, st.ID, "auditor")
	require.NoError(t, err)
	assert.True(t, again.AlreadyCompleted)
	require.Len(t, again.Adjustments, 1)
	assert.Equal(t, res.Adjustments[0].ID, again.Adjustments[0].ID)
}
