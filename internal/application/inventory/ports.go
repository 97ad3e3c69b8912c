package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
)

// Repos repositorios atados a una misma transacción (o a la conexión, fuera de ella).
type Repos struct {
	Balances    repository.BalanceRepository
	Ledger      repository.LedgerRepository
	Stocktakes  repository.StocktakeRepository
	Adjustments repository.AdjustmentRepository
	Alerts      repository.AlertRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; en otro caso Commit. La espera por locks está acotada:
// al vencer devuelve un error que cumple errors.Is(err, domain.ErrConcurrentModification).
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

// EventPublisher publica hechos ya confirmados (movimientos y cambios de alertas).
type EventPublisher interface {
	PublishLedgerEntries(ctx context.Context, entries ...*entity.LedgerEntry) error
	PublishAlertChanges(ctx context.Context, changes ...AlertChange) error
}

// Metrics puerto de métricas del motor.
type Metrics interface {
	ObserveAppend(entryType entity.LedgerEntryType, outcome string, elapsed time.Duration)
	IncAlert(kind entity.AlertKind, action AlertAction)
	IncStocktake(status entity.StocktakeStatus)
	IncConflict(operation string)
}

// StocktakeReport datos del informe de diferencias de una toma física.
type StocktakeReport struct {
	Stocktake   *entity.Stocktake
	Warehouse   *entity.Warehouse
	Adjustments []*entity.Adjustment
	GeneratedAt time.Time
}

// ReportRenderer genera el documento del informe de la toma (PDF).
type ReportRenderer interface {
	RenderStocktake(r StocktakeReport) ([]byte, error)
}

// Deps dependencias compartidas por los servicios del motor.
type Deps struct {
	TxRunner   TxRunner
	Repos      Repos // lecturas fuera de transacción
	Parts      repository.PartRepository
	Warehouses repository.WarehouseRepository
	Publisher  EventPublisher
	Metrics    Metrics
	Renderer   ReportRenderer
	Logger     zerolog.Logger
	Now        func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Publisher == nil {
		d.Publisher = NopPublisher{}
	}
	if d.Metrics == nil {
		d.Metrics = NopMetrics{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// NopPublisher descarta los eventos.
type NopPublisher struct{}

func (NopPublisher) PublishLedgerEntries(context.Context, ...*entity.LedgerEntry) error { return nil }
func (NopPublisher) PublishAlertChanges(context.Context, ...AlertChange) error          { return nil }

// NopMetrics no registra nada.
type NopMetrics struct{}

func (NopMetrics) ObserveAppend(entity.LedgerEntryType, string, time.Duration) {}
func (NopMetrics) IncAlert(entity.AlertKind, AlertAction)                      {}
func (NopMetrics) IncStocktake(entity.StocktakeStatus)                         {}
func (NopMetrics) IncConflict(string)                                          {}
