package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

// Ensure TxRunner implements inventory.TxRunner.
var _ app.TxRunner = (*TxRunner)(nil)

// DefaultLockTimeout espera máxima por un lock de fila dentro de una transacción.
const DefaultLockTimeout = 5 * time.Second

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. lockTimeout <= 0 usa DefaultLockTimeout.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción con lock_timeout local, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. Timeout de lock, deadlock y fallo de serialización se devuelven como
// *domain.ConflictError; no se reintenta.
func (r *TxRunner) Run(ctx context.Context, fn func(repos app.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// SET no admite parámetros; el valor es un entero en milisegundos.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", r.lockTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}

	if err := fn(NewRepos(tx)); err != nil {
		return mapError("transaction", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit", fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// NewRepos construye los repositorios del motor sobre un pool o una tx.
func NewRepos(q Querier) app.Repos {
	return app.Repos{
		Balances:    NewBalanceRepository(q),
		Ledger:      NewLedgerRepository(q),
		Stocktakes:  NewStocktakeRepository(q),
		Adjustments: NewAdjustmentRepository(q),
		Alerts:      NewAlertRepository(q),
	}
}
