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

var _ repository.AlertRepository = (*AlertRepo)(nil)

const alertColumns = `id, warehouse_id, part_id, kind, severity, current_value, threshold_value, message,
	is_active, created_at, updated_at, resolved_at, resolved_by, resolution_notes`

// AlertRepo alertas sobre PostgreSQL. La unicidad de la alerta activa la garantiza el
// índice único parcial uq_alerts_active.
type AlertRepo struct {
	q Querier
}

// NewAlertRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

func scanAlert(row pgx.Row) (*entity.Alert, error) {
	var (
		a                 entity.Alert
		resolvedBy, notes *string
	)
	if err := row.Scan(&a.ID, &a.WarehouseID, &a.PartID, &a.Kind, &a.Severity, &a.CurrentValue, &a.ThresholdValue,
		&a.Message, &a.IsActive, &a.CreatedAt, &a.UpdatedAt, &a.ResolvedAt, &resolvedBy, &notes); err != nil {
		return nil, err
	}
	a.ResolvedBy = fromNull(resolvedBy)
	a.ResolutionNotes = fromNull(notes)
	return &a, nil
}

// Insert crea la alerta; si ya hay una activa del mismo tipo devuelve domain.ErrDuplicateAlertSuppressed.
func (r *AlertRepo) Insert(ctx context.Context, a *entity.Alert) error {
	query := `
		INSERT INTO alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (warehouse_id, part_id, kind) WHERE is_active DO NOTHING`
	tag, err := r.q.Exec(ctx, query,
		a.ID, a.WarehouseID, a.PartID, a.Kind, a.Severity, a.CurrentValue, a.ThresholdValue, a.Message,
		a.IsActive, a.CreatedAt, a.UpdatedAt, a.ResolvedAt, nullString(a.ResolvedBy), nullString(a.ResolutionNotes),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAlertSuppressed
		}
		return fmt.Errorf("insert alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateAlertSuppressed
	}
	return nil
}

// GetActive devuelve la alerta activa del tipo (bloqueada para update), o nil.
func (r *AlertRepo) GetActive(ctx context.Context, key entity.BalanceKey, kind entity.AlertKind) (*entity.Alert, error) {
	query := `
		SELECT ` + alertColumns + ` FROM alerts
		WHERE warehouse_id = $1 AND part_id = $2 AND kind = $3 AND is_active
		FOR UPDATE`
	a, err := scanAlert(r.q.QueryRow(ctx, query, key.WarehouseID, key.PartID, kind))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("alert", fmt.Errorf("get active alert: %w", err))
	}
	return a, nil
}

// GetByID obtiene una alerta por ID.
func (r *AlertRepo) GetByID(ctx context.Context, id string) (*entity.Alert, error) {
	a, err := scanAlert(r.q.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return a, nil
}

// GetByIDForUpdate obtiene la alerta con SELECT ... FOR UPDATE.
func (r *AlertRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Alert, error) {
	a, err := scanAlert(r.q.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("alert "+id, fmt.Errorf("get alert for update: %w", err))
	}
	return a, nil
}

// Update reemplaza los campos mutables de la alerta.
func (r *AlertRepo) Update(ctx context.Context, a *entity.Alert) error {
	query := `
		UPDATE alerts
		SET severity = $2, current_value = $3, threshold_value = $4, message = $5, is_active = $6,
		    updated_at = $7, resolved_at = $8, resolved_by = $9, resolution_notes = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		a.ID, a.Severity, a.CurrentValue, a.ThresholdValue, a.Message, a.IsActive,
		a.UpdatedAt, a.ResolvedAt, nullString(a.ResolvedBy), nullString(a.ResolutionNotes),
	)
	if err != nil {
		return mapError("alert "+a.ID, fmt.Errorf("update alert: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListActive alertas activas, más recientes primero. warehouseID vacío = todas.
func (r *AlertRepo) ListActive(ctx context.Context, warehouseID string) ([]*entity.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE is_active`
	var args []any
	if warehouseID != "" {
		query += ` AND warehouse_id = $1`
		args = append(args, warehouseID)
	}
	query += ` ORDER BY created_at DESC, id`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}
	defer rows.Close()
	var out []*entity.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
