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

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

const balanceColumns = `warehouse_id, part_id, current_stock, minimum_threshold, last_updated`

// BalanceRepo implementación de BalanceRepository sobre PostgreSQL (usable con pool o tx).
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador de balances. Pasar pool o tx (Querier).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

func scanBalance(row pgx.Row) (*entity.Balance, error) {
	var b entity.Balance
	if err := row.Scan(&b.WarehouseID, &b.PartID, &b.CurrentStock, &b.MinimumThreshold, &b.LastUpdated); err != nil {
		return nil, err
	}
	return &b, nil
}

// Get obtiene el balance de una fila; nil si no existe.
func (r *BalanceRepo) Get(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE warehouse_id = $1 AND part_id = $2`
	b, err := scanBalance(r.q.QueryRow(ctx, query, key.WarehouseID, key.PartID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

// LockForUpdate materializa la fila si falta (ON CONFLICT DO NOTHING) y la bloquea (SELECT FOR UPDATE),
// así la primera entrada de una parte en una bodega también queda serializada.
func (r *BalanceRepo) LockForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error) {
	insert := `
		INSERT INTO balances (warehouse_id, part_id, current_stock, minimum_threshold, last_updated)
		VALUES ($1, $2, 0, 0, now())
		ON CONFLICT (warehouse_id, part_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, key.WarehouseID, key.PartID); err != nil {
		return nil, mapError(lockResource(key), fmt.Errorf("materializar balance: %w", err))
	}
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE warehouse_id = $1 AND part_id = $2 FOR UPDATE`
	b, err := scanBalance(r.q.QueryRow(ctx, query, key.WarehouseID, key.PartID))
	if err != nil {
		return nil, mapError(lockResource(key), fmt.Errorf("get balance for update: %w", err))
	}
	return b, nil
}

// Upsert inserta o actualiza stock y umbral de la fila.
func (r *BalanceRepo) Upsert(ctx context.Context, b *entity.Balance) error {
	query := `
		INSERT INTO balances (warehouse_id, part_id, current_stock, minimum_threshold, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (warehouse_id, part_id)
		DO UPDATE SET current_stock = EXCLUDED.current_stock,
		              minimum_threshold = EXCLUDED.minimum_threshold,
		              last_updated = EXCLUDED.last_updated`
	_, err := r.q.Exec(ctx, query, b.WarehouseID, b.PartID, b.CurrentStock, b.MinimumThreshold, b.LastUpdated)
	if err != nil {
		return mapError(lockResource(b.Key()), fmt.Errorf("upsert balance: %w", err))
	}
	return nil
}

// List filtra balances ordenados por (bodega, parte).
func (r *BalanceRepo) List(ctx context.Context, f repository.BalanceFilter) ([]*entity.Balance, error) {
	var (
		conds []string
		args  []any
	)
	if f.WarehouseID != "" {
		args = append(args, f.WarehouseID)
		conds = append(conds, fmt.Sprintf("warehouse_id = $%d", len(args)))
	}
	if f.PartID != "" {
		args = append(args, f.PartID)
		conds = append(conds, fmt.Sprintf("part_id = $%d", len(args)))
	}
	if f.BelowThreshold {
		conds = append(conds, "current_stock < minimum_threshold")
	}
	query := `SELECT ` + balanceColumns + ` FROM balances`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY warehouse_id, part_id"
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

// ListStocked balances de la bodega con stock positivo.
func (r *BalanceRepo) ListStocked(ctx context.Context, warehouseID string) ([]*entity.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE warehouse_id = $1 AND current_stock > 0 ORDER BY part_id`
	return r.list(ctx, query, warehouseID)
}

func (r *BalanceRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Balance, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()
	var out []*entity.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func lockResource(key entity.BalanceKey) string {
	return "balance " + key.WarehouseID + "/" + key.PartID
}
