package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// SystemActor actor registrado en resoluciones automáticas.
const SystemActor = "system"

// AlertAction qué le ocurrió a una alerta en una evaluación.
type AlertAction string

const (
	AlertRaised    AlertAction = "RAISED"
	AlertRefreshed AlertAction = "REFRESHED"
	AlertResolved  AlertAction = "RESOLVED"
)

// AlertChange cambio producido sobre una alerta.
type AlertChange struct {
	Action AlertAction
	Alert  *entity.Alert
}

// AlertEngine levanta, refresca y resuelve alertas de umbral sobre los balances.
// Es el único escritor de alertas.
type AlertEngine struct {
	deps  Deps
	rules inventory.AlertRules
}

// NewAlertEngine construye el motor de alertas.
func NewAlertEngine(deps Deps, rules inventory.AlertRules) *AlertEngine {
	return &AlertEngine{deps: deps.withDefaults(), rules: rules}
}

// Rules devuelve las reglas de umbral vigentes.
func (a *AlertEngine) Rules() inventory.AlertRules { return a.rules }

// Evaluate compara el balance con las reglas: levanta las condiciones nuevas, refresca las que
// siguen vigentes y resuelve (actor "system") las que ya no se cumplen. DISCREPANCY no se toca.
func (a *AlertEngine) Evaluate(ctx context.Context, b *entity.Balance) ([]AlertChange, error) {
	conds := a.rules.Conditions(b)
	var changes []AlertChange
	err := a.deps.TxRunner.Run(ctx, func(r Repos) error {
		changes = changes[:0]
		for _, kind := range inventory.BalanceAlertKinds {
			var (
				ch  *AlertChange
				err error
			)
			if cond, ok := conds[kind]; ok {
				ch, err = a.raise(ctx, r, b.Key(), cond)
			} else {
				ch, err = a.autoResolve(ctx, r, b.Key(), kind)
			}
			if err != nil {
				return err
			}
			if ch != nil {
				changes = append(changes, *ch)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("evaluar alertas %s/%s: %w", b.WarehouseID, b.PartID, err)
	}
	a.emit(ctx, changes)
	return changes, nil
}

// RaiseDiscrepancy levanta (o refresca) la alerta DISCREPANCY si |delta| supera la tolerancia.
// Devuelve nil si el delta está dentro de la tolerancia.
func (a *AlertEngine) RaiseDiscrepancy(ctx context.Context, key entity.BalanceKey, delta decimal.Decimal) (*AlertChange, error) {
	cond, ok := a.rules.Discrepancy(delta)
	if !ok {
		return nil, nil
	}
	var ch *AlertChange
	err := a.deps.TxRunner.Run(ctx, func(r Repos) error {
		var err error
		ch, err = a.raise(ctx, r, key, cond)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("levantar discrepancia %s/%s: %w", key.WarehouseID, key.PartID, err)
	}
	if ch != nil {
		a.emit(ctx, []AlertChange{*ch})
	}
	return ch, nil
}

// Resolve cierra manualmente una alerta. Sobre una alerta ya resuelta no hace nada.
func (a *AlertEngine) Resolve(ctx context.Context, alertID, actor, notes string) (*entity.Alert, error) {
	if actor == "" {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrInvalidInput)
	}
	var (
		out     *entity.Alert
		changed bool
	)
	err := a.deps.TxRunner.Run(ctx, func(r Repos) error {
		al, err := r.Alerts.GetByIDForUpdate(ctx, alertID)
		if err != nil {
			return err
		}
		if al == nil {
			return domain.ErrNotFound
		}
		out = al
		if !al.IsActive {
			return nil
		}
		a.close(al, actor, notes)
		changed = true
		return r.Alerts.Update(ctx, al)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		a.emit(ctx, []AlertChange{{Action: AlertResolved, Alert: out}})
	}
	return out, nil
}

// ListActive lista las alertas activas; warehouseID vacío devuelve todas.
func (a *AlertEngine) ListActive(ctx context.Context, warehouseID string) ([]*entity.Alert, error) {
	return a.deps.Repos.Alerts.ListActive(ctx, warehouseID)
}

func (a *AlertEngine) raise(ctx context.Context, r Repos, key entity.BalanceKey, cond inventory.AlertCondition) (*AlertChange, error) {
	now := a.deps.Now()
	al := &entity.Alert{
		ID:             uuid.New().String(),
		WarehouseID:    key.WarehouseID,
		PartID:         key.PartID,
		Kind:           cond.Kind,
		Severity:       cond.Severity,
		CurrentValue:   cond.Value,
		ThresholdValue: cond.Threshold,
		Message:        cond.Message,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := r.Alerts.Insert(ctx, al)
	if err == nil {
		return &AlertChange{Action: AlertRaised, Alert: al}, nil
	}
	if !errors.Is(err, domain.ErrDuplicateAlertSuppressed) {
		return nil, err
	}
	existing, err := r.Alerts.GetActive(ctx, key, cond.Kind)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		// resuelta entre el insert y la lectura
		return nil, nil
	}
	existing.Severity = cond.Severity
	existing.CurrentValue = cond.Value
	existing.ThresholdValue = cond.Threshold
	existing.Message = cond.Message
	existing.UpdatedAt = now
	if err := r.Alerts.Update(ctx, existing); err != nil {
		return nil, err
	}
	return &AlertChange{Action: AlertRefreshed, Alert: existing}, nil
}

func (a *AlertEngine) autoResolve(ctx context.Context, r Repos, key entity.BalanceKey, kind entity.AlertKind) (*AlertChange, error) {
	existing, err := r.Alerts.GetActive(ctx, key, kind)
	if err != nil || existing == nil {
		return nil, err
	}
	a.close(existing, SystemActor, "condición despejada")
	if err := r.Alerts.Update(ctx, existing); err != nil {
		return nil, err
	}
	return &AlertChange{Action: AlertResolved, Alert: existing}, nil
}

func (a *AlertEngine) close(al *entity.Alert, actor, notes string) {
	now := a.deps.Now()
	al.IsActive = false
	al.ResolvedAt = &now
	al.ResolvedBy = actor
	al.ResolutionNotes = notes
	al.UpdatedAt = now
}

// emit registra métricas y publica; los fallos solo se registran en el log.
func (a *AlertEngine) emit(ctx context.Context, changes []AlertChange) {
	if len(changes) == 0 {
		return
	}
	for _, ch := range changes {
		a.deps.Metrics.IncAlert(ch.Alert.Kind, ch.Action)
		a.deps.Logger.Info().
			Str("alert_id", ch.Alert.ID).
			Str("warehouse_id", ch.Alert.WarehouseID).
			Str("part_id", ch.Alert.PartID).
			Str("kind", string(ch.Alert.Kind)).
			Str("action", string(ch.Action)).
			Msg("alerta")
	}
	if err := a.deps.Publisher.PublishAlertChanges(ctx, changes...); err != nil {
		a.deps.Logger.Error().Err(err).Int("changes", len(changes)).Msg("publicar cambios de alertas")
	}
}
