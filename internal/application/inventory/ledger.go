package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// AppendInput entrada para registrar un movimiento en el libro mayor.
// CREATION: ToWarehouse. CONSUMPTION: FromWarehouse. TRANSFER: ambas y distintas.
// ADJUSTMENT: ToWarehouse y Quantity con signo (delta distinto de cero).
type AppendInput struct {
	Type          entity.LedgerEntryType
	PartID        string
	FromWarehouse string
	ToWarehouse   string
	Quantity      decimal.Decimal
	Actor         string
	Reference     string
}

// AppendResult movimiento confirmado con los balances resultantes.
type AppendResult struct {
	Entry    *entity.LedgerEntry
	Balances []*entity.Balance
	Alerts   []AlertChange
}

// TransactionLedger registra movimientos de forma transaccional: valida, aplica los deltas
// con bloqueo de filas (SELECT FOR UPDATE) e inserta el movimiento, todo en una misma transacción.
type TransactionLedger struct {
	deps     Deps
	policy   inventory.QuantityPolicy
	enforcer *ConsistencyEnforcer
	alerts   *AlertEngine
}

// NewTransactionLedger construye el libro mayor.
func NewTransactionLedger(deps Deps, policy inventory.QuantityPolicy, enforcer *ConsistencyEnforcer, alerts *AlertEngine) *TransactionLedger {
	return &TransactionLedger{deps: deps.withDefaults(), policy: policy, enforcer: enforcer, alerts: alerts}
}

// Append valida el movimiento y lo aplica en una unidad de trabajo. Nunca reintenta:
// ante contención devuelve un error con domain.IsRetryable(err) == true y nada queda escrito.
// Tras el commit evalúa alertas y publica el movimiento; esos fallos solo se registran.
func (l *TransactionLedger) Append(ctx context.Context, in AppendInput) (*AppendResult, error) {
	start := time.Now()
	entry, err := l.prepare(ctx, in)
	if err != nil {
		l.deps.Metrics.ObserveAppend(in.Type, outcome(err), time.Since(start))
		return nil, err
	}

	var balances []*entity.Balance
	err = l.deps.TxRunner.Run(ctx, func(r Repos) error {
		var err error
		balances, err = l.appendInTx(ctx, r, entry)
		return err
	})
	l.deps.Metrics.ObserveAppend(entry.Type, outcome(err), time.Since(start))
	if err != nil {
		l.logFailure("append", entry, err)
		return nil, err
	}

	l.deps.Logger.Info().
		Str("entry_id", entry.ID).
		Str("type", string(entry.Type)).
		Str("part_id", entry.PartID).
		Str("from", entry.FromWarehouse).
		Str("to", entry.ToWarehouse).
		Str("quantity", entry.Quantity.String()).
		Str("actor", entry.Actor).
		Msg("movimiento registrado")

	res := &AppendResult{Entry: entry, Balances: balances}
	res.Alerts = l.afterCommit(ctx, []*entity.LedgerEntry{entry}, balances)
	return res, nil
}

// AppendInTx valida y aplica el movimiento usando los repositorios de la transacción del llamador.
// No evalúa alertas ni publica: eso queda a cargo del llamador tras su commit.
func (l *TransactionLedger) AppendInTx(ctx context.Context, r Repos, in AppendInput) (*entity.LedgerEntry, []*entity.Balance, error) {
	entry, err := l.prepare(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	balances, err := l.appendInTx(ctx, r, entry)
	if err != nil {
		return nil, nil, err
	}
	return entry, balances, nil
}

// History lista movimientos por bodega y/o parte, los más recientes primero.
func (l *TransactionLedger) History(ctx context.Context, f repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return l.deps.Repos.Ledger.List(ctx, f)
}

func (l *TransactionLedger) appendInTx(ctx context.Context, r Repos, entry *entity.LedgerEntry) ([]*entity.Balance, error) {
	balances, err := l.enforcer.Apply(ctx, r.Balances, entry.Deltas())
	if err != nil {
		return nil, err
	}
	if err := r.Ledger.Append(ctx, entry); err != nil {
		return nil, err
	}
	return balances, nil
}

// prepare valida forma, referencias y cantidad antes de tocar cualquier fila.
func (l *TransactionLedger) prepare(ctx context.Context, in AppendInput) (*entity.LedgerEntry, error) {
	if !in.Type.IsValid() {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Type)
	}
	if in.PartID == "" {
		return nil, fmt.Errorf("%w: part_id requerido", domain.ErrInvalidInput)
	}
	if in.Actor == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	mode := inventory.ModeMovement
	switch in.Type {
	case entity.LedgerCreation, entity.LedgerAdjustment:
		if in.ToWarehouse == "" || in.FromWarehouse != "" {
			return nil, fmt.Errorf("%w: %s requiere solo bodega destino", domain.ErrInvalidInput, in.Type)
		}
		if in.Type == entity.LedgerAdjustment {
			mode = inventory.ModeSignedDelta
		}
	case entity.LedgerConsumption:
		if in.FromWarehouse == "" || in.ToWarehouse != "" {
			return nil, fmt.Errorf("%w: CONSUMPTION requiere solo bodega origen", domain.ErrInvalidInput)
		}
	case entity.LedgerTransfer:
		if in.FromWarehouse == "" || in.ToWarehouse == "" {
			return nil, fmt.Errorf("%w: TRANSFER requiere bodega origen y destino", domain.ErrInvalidInput)
		}
		if in.FromWarehouse == in.ToWarehouse {
			return nil, fmt.Errorf("%w: origen y destino iguales", domain.ErrInvalidInput)
		}
	}

	part, err := l.lookupPart(ctx, in.PartID)
	if err != nil {
		return nil, err
	}
	for _, wh := range []string{in.FromWarehouse, in.ToWarehouse} {
		if wh == "" {
			continue
		}
		if _, err := l.lookupWarehouse(ctx, wh, true); err != nil {
			return nil, err
		}
	}
	if err := l.policy.Validate(part.ID, in.Quantity, part.Category, mode); err != nil {
		return nil, err
	}

	return &entity.LedgerEntry{
		ID:            uuid.New().String(),
		Type:          in.Type,
		PartID:        in.PartID,
		FromWarehouse: in.FromWarehouse,
		ToWarehouse:   in.ToWarehouse,
		Quantity:      in.Quantity,
		Actor:         in.Actor,
		Timestamp:     l.deps.Now(),
		Reference:     in.Reference,
	}, nil
}

func (l *TransactionLedger) lookupPart(ctx context.Context, id string) (*entity.Part, error) {
	part, err := l.deps.Parts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar parte: %w", err)
	}
	if part == nil {
		return nil, &domain.UnknownReferenceError{PartID: id, Reason: "no existe"}
	}
	return part, nil
}

// lookupWarehouse con requireActive rechaza también las bodegas inactivas.
func (l *TransactionLedger) lookupWarehouse(ctx context.Context, id string, requireActive bool) (*entity.Warehouse, error) {
	wh, err := l.deps.Warehouses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar bodega: %w", err)
	}
	if wh == nil {
		return nil, &domain.UnknownReferenceError{WarehouseID: id, Reason: "no existe"}
	}
	if requireActive && !wh.Active {
		return nil, &domain.UnknownReferenceError{WarehouseID: id, Reason: "inactiva"}
	}
	return wh, nil
}

// afterCommit evalúa alertas de los balances tocados y publica los movimientos.
func (l *TransactionLedger) afterCommit(ctx context.Context, entries []*entity.LedgerEntry, balances []*entity.Balance) []AlertChange {
	var changes []AlertChange
	if l.alerts != nil {
		for _, b := range balances {
			ch, err := l.alerts.Evaluate(ctx, b)
			if err != nil {
				l.deps.Logger.Error().Err(err).
					Str("warehouse_id", b.WarehouseID).
					Str("part_id", b.PartID).
					Msg("evaluación de alertas tras commit")
				continue
			}
			changes = append(changes, ch...)
		}
	}
	if len(entries) > 0 {
		if err := l.deps.Publisher.PublishLedgerEntries(ctx, entries...); err != nil {
			l.deps.Logger.Error().Err(err).Int("entries", len(entries)).Msg("publicar movimientos")
		}
	}
	return changes
}

func (l *TransactionLedger) logFailure(op string, entry *entity.LedgerEntry, err error) {
	ev := l.deps.Logger.Warn()
	if domain.IsRetryable(err) {
		l.deps.Metrics.IncConflict(op)
	} else if outcome(err) == "error" {
		ev = l.deps.Logger.Error()
	}
	ev.Err(err).
		Str("op", op).
		Str("type", string(entry.Type)).
		Str("part_id", entry.PartID).
		Str("from", entry.FromWarehouse).
		Str("to", entry.ToWarehouse).
		Msg("movimiento rechazado")
}

// outcome clasifica el resultado para métricas.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrConcurrentModification):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidQuantityPrecision),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnknownWarehouseOrPart):
		return "rejected"
	}
	return "error"
}
