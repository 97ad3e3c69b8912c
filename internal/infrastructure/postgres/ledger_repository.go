package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const ledgerColumns = `id, type, part_id, from_warehouse, to_warehouse, quantity, actor, "timestamp", reference`

// LedgerRepo libro mayor sobre PostgreSQL (usable con pool o tx). Solo inserta.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

func scanEntry(row pgx.Row) (*entity.LedgerEntry, error) {
	var (
		e                   entity.LedgerEntry
		from, to, reference *string
	)
	if err := row.Scan(&e.ID, &e.Type, &e.PartID, &from, &to, &e.Quantity, &e.Actor, &e.Timestamp, &reference); err != nil {
		return nil, err
	}
	e.FromWarehouse = fromNull(from)
	e.ToWarehouse = fromNull(to)
	e.Reference = fromNull(reference)
	return &e, nil
}

// Append persiste un movimiento.
func (r *LedgerRepo) Append(ctx context.Context, e *entity.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.Type, e.PartID, nullString(e.FromWarehouse), nullString(e.ToWarehouse),
		e.Quantity, e.Actor, e.Timestamp, nullString(e.Reference),
	)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *LedgerRepo) GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE id = $1`
	e, err := scanEntry(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return e, nil
}

// List movimientos filtrados, los más recientes primero.
func (r *LedgerRepo) List(ctx context.Context, f repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	var (
		conds []string
		args  []any
	)
	if f.WarehouseID != "" {
		args = append(args, f.WarehouseID)
		conds = append(conds, fmt.Sprintf("(from_warehouse = $%d OR to_warehouse = $%d)", len(args), len(args)))
	}
	if f.PartID != "" {
		args = append(args, f.PartID)
		conds = append(conds, fmt.Sprintf("part_id = $%d", len(args)))
	}
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY seq DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return r.list(ctx, query, args...)
}

// ListByPair todos los movimientos que tocan la fila, en orden de inserción.
func (r *LedgerRepo) ListByPair(ctx context.Context, key entity.BalanceKey) ([]*entity.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + ` FROM ledger_entries
		WHERE part_id = $2 AND (from_warehouse = $1 OR to_warehouse = $1)
		ORDER BY seq`
	return r.list(ctx, query, key.WarehouseID, key.PartID)
}

func (r *LedgerRepo) list(ctx context.Context, query string, args ...any) ([]*entity.LedgerEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()
	var out []*entity.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
