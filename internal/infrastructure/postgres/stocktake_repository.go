package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.StocktakeRepository  = (*StocktakeRepo)(nil)
	_ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)
)

const stocktakeColumns = `id, warehouse_id, status, scheduled_date, scheduled_by, started_at,
	completed_by, completed_at, cancelled_by, cancelled_at, created_at, updated_at`

// StocktakeRepo tomas físicas sobre PostgreSQL (usable con pool o tx).
type StocktakeRepo struct {
	q Querier
}

// NewStocktakeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStocktakeRepository(q Querier) *StocktakeRepo {
	return &StocktakeRepo{q: q}
}

// Create inserta la cabecera y sus ítems.
func (r *StocktakeRepo) Create(ctx context.Context, st *entity.Stocktake) error {
	query := `
		INSERT INTO stocktakes (` + stocktakeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		st.ID, st.WarehouseID, st.Status, st.ScheduledDate, st.ScheduledBy, st.StartedAt,
		nullString(st.CompletedBy), st.CompletedAt, nullString(st.CancelledBy), st.CancelledAt,
		st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stocktake: %w", err)
	}
	for i := range st.Items {
		st.Items[i].StocktakeID = st.ID
		if err := r.UpsertItem(ctx, &st.Items[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetByID obtiene la toma con sus ítems; nil si no existe.
func (r *StocktakeRepo) GetByID(ctx context.Context, id string) (*entity.Stocktake, error) {
	return r.get(ctx, `SELECT `+stocktakeColumns+` FROM stocktakes WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID bloqueando la cabecera (SELECT FOR UPDATE).
func (r *StocktakeRepo) GetForUpdate(ctx context.Context, id string) (*entity.Stocktake, error) {
	st, err := r.get(ctx, `SELECT `+stocktakeColumns+` FROM stocktakes WHERE id = $1 FOR UPDATE`, id)
	return st, mapError("stocktake "+id, err)
}

func (r *StocktakeRepo) get(ctx context.Context, query, id string) (*entity.Stocktake, error) {
	var (
		st                       entity.Stocktake
		completedBy, cancelledBy *string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&st.ID, &st.WarehouseID, &st.Status, &st.ScheduledDate, &st.ScheduledBy, &st.StartedAt,
		&completedBy, &st.CompletedAt, &cancelledBy, &st.CancelledAt, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stocktake: %w", err)
	}
	st.CompletedBy = fromNull(completedBy)
	st.CancelledBy = fromNull(cancelledBy)

	items, err := r.items(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	st.Items = items
	return &st, nil
}

func (r *StocktakeRepo) items(ctx context.Context, stocktakeID string) ([]entity.StocktakeItem, error) {
	query := `
		SELECT stocktake_id, part_id, expected_quantity, actual_quantity, counted_by, counted_at
		FROM stocktake_items WHERE stocktake_id = $1 ORDER BY part_id`
	rows, err := r.q.Query(ctx, query, stocktakeID)
	if err != nil {
		return nil, fmt.Errorf("list stocktake items: %w", err)
	}
	defer rows.Close()
	var out []entity.StocktakeItem
	for rows.Next() {
		var (
			it        entity.StocktakeItem
			countedBy *string
		)
		if err := rows.Scan(&it.StocktakeID, &it.PartID, &it.ExpectedQuantity, &it.ActualQuantity, &countedBy, &it.CountedAt); err != nil {
			return nil, fmt.Errorf("scan stocktake item: %w", err)
		}
		it.CountedBy = fromNull(countedBy)
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpdateStatus persiste estado y campos de auditoría.
func (r *StocktakeRepo) UpdateStatus(ctx context.Context, st *entity.Stocktake) error {
	query := `
		UPDATE stocktakes
		SET status = $2, started_at = $3, completed_by = $4, completed_at = $5,
		    cancelled_by = $6, cancelled_at = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		st.ID, st.Status, st.StartedAt, nullString(st.CompletedBy), st.CompletedAt,
		nullString(st.CancelledBy), st.CancelledAt, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update stocktake: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpsertItem inserta o reemplaza el ítem (stocktake_id, part_id).
func (r *StocktakeRepo) UpsertItem(ctx context.Context, it *entity.StocktakeItem) error {
	query := `
		INSERT INTO stocktake_items (stocktake_id, part_id, expected_quantity, actual_quantity, counted_by, counted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (stocktake_id, part_id)
		DO UPDATE SET actual_quantity = EXCLUDED.actual_quantity,
		              counted_by = EXCLUDED.counted_by,
		              counted_at = EXCLUDED.counted_at`
	_, err := r.q.Exec(ctx, query,
		it.StocktakeID, it.PartID, it.ExpectedQuantity, it.ActualQuantity, nullString(it.CountedBy), it.CountedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert stocktake item: %w", err)
	}
	return nil
}

// DeleteItems elimina los ítems de la toma.
func (r *StocktakeRepo) DeleteItems(ctx context.Context, stocktakeID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stocktake_items WHERE stocktake_id = $1`, stocktakeID); err != nil {
		return fmt.Errorf("delete stocktake items: %w", err)
	}
	return nil
}

// AdjustmentRepo ajustes sobre PostgreSQL.
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

// Create persiste un ajuste.
func (r *AdjustmentRepo) Create(ctx context.Context, a *entity.Adjustment) error {
	query := `
		INSERT INTO adjustments (id, warehouse_id, part_id, delta, previous_quantity, new_quantity,
		                         reason, actor, stocktake_id, ledger_entry_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.WarehouseID, a.PartID, a.Delta, a.PreviousQuantity, a.NewQuantity,
		a.Reason, a.Actor, nullString(a.StocktakeID), a.LedgerEntryID, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create adjustment: %w", err)
	}
	return nil
}

// ListByStocktake ajustes de la toma en orden de creación.
func (r *AdjustmentRepo) ListByStocktake(ctx context.Context, stocktakeID string) ([]*entity.Adjustment, error) {
	query := `
		SELECT id, warehouse_id, part_id, delta, previous_quantity, new_quantity,
		       reason, actor, stocktake_id, ledger_entry_id, created_at
		FROM adjustments WHERE stocktake_id = $1 ORDER BY created_at, part_id`
	rows, err := r.q.Query(ctx, query, stocktakeID)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()
	var out []*entity.Adjustment
	for rows.Next() {
		var (
			a  entity.Adjustment
			st *string
		)
		if err := rows.Scan(&a.ID, &a.WarehouseID, &a.PartID, &a.Delta, &a.PreviousQuantity, &a.NewQuantity,
			&a.Reason, &a.Actor, &st, &a.LedgerEntryID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		a.StocktakeID = fromNull(st)
		out = append(out, &a)
	}
	return out, rows.Err()
}
