// Package messaging publica en Kafka los hechos confirmados del motor de inventario.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/segmentio/kafka-go"
)

var _ app.EventPublisher = (*KafkaPublisher)(nil)

// Tipos de evento (header "event_type").
const (
	EventLedgerEntry = "inventory.ledger_entry"
	EventAlertChange = "inventory.alert"
)

// Writer lo que el publicador necesita de *kafka.Writer.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// LedgerEntryEvent carga publicada por cada movimiento confirmado.
type LedgerEntryEvent struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	PartID        string    `json:"part_id"`
	FromWarehouse string    `json:"from_warehouse,omitempty"`
	ToWarehouse   string    `json:"to_warehouse,omitempty"`
	Quantity      string    `json:"quantity"`
	Actor         string    `json:"actor"`
	Timestamp     time.Time `json:"timestamp"`
	Reference     string    `json:"reference,omitempty"`
}

// AlertEvent carga publicada por cada cambio de alerta.
type AlertEvent struct {
	Action       string    `json:"action"`
	AlertID      string    `json:"alert_id"`
	WarehouseID  string    `json:"warehouse_id"`
	PartID       string    `json:"part_id"`
	Kind         string    `json:"kind"`
	Severity     string    `json:"severity"`
	CurrentValue string    `json:"current_value"`
	Threshold    string    `json:"threshold_value"`
	Message      string    `json:"message"`
	IsActive     bool      `json:"is_active"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// KafkaPublisher publica movimientos y alertas en un único tópico. La llave del mensaje es la
// parte, así todos los eventos de una parte quedan en la misma partición y en orden.
type KafkaPublisher struct {
	w Writer
}

// NewKafkaWriter construye el writer de kafka-go para los brokers y el tópico.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafka.RequireAll,
	}
}

// NewKafkaPublisher construye el publicador sobre un writer.
func NewKafkaPublisher(w Writer) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

// PublishLedgerEntries publica un mensaje por movimiento.
func (p *KafkaPublisher) PublishLedgerEntries(ctx context.Context, entries ...*entity.LedgerEntry) error {
	msgs := make([]kafka.Message, 0, len(entries))
	for _, e := range entries {
		payload, err := json.Marshal(LedgerEntryEvent{
			ID:            e.ID,
			Type:          string(e.Type),
			PartID:        e.PartID,
			FromWarehouse: e.FromWarehouse,
			ToWarehouse:   e.ToWarehouse,
			Quantity:      e.Quantity.String(),
			Actor:         e.Actor,
			Timestamp:     e.Timestamp,
			Reference:     e.Reference,
		})
		if err != nil {
			return fmt.Errorf("serializar movimiento %s: %w", e.ID, err)
		}
		msgs = append(msgs, message(e.PartID, EventLedgerEntry, payload, e.Timestamp))
	}
	return p.write(ctx, msgs)
}

// PublishAlertChanges publica un mensaje por cambio de alerta.
func (p *KafkaPublisher) PublishAlertChanges(ctx context.Context, changes ...app.AlertChange) error {
	msgs := make([]kafka.Message, 0, len(changes))
	for _, ch := range changes {
		a := ch.Alert
		payload, err := json.Marshal(AlertEvent{
			Action:       string(ch.Action),
			AlertID:      a.ID,
			WarehouseID:  a.WarehouseID,
			PartID:       a.PartID,
			Kind:         string(a.Kind),
			Severity:     string(a.Severity),
			CurrentValue: a.CurrentValue.String(),
			Threshold:    a.ThresholdValue.String(),
			Message:      a.Message,
			IsActive:     a.IsActive,
			UpdatedAt:    a.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("serializar alerta %s: %w", a.ID, err)
		}
		msgs = append(msgs, message(a.PartID, EventAlertChange, payload, a.UpdatedAt))
	}
	return p.write(ctx, msgs)
}

// Close cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

func (p *KafkaPublisher) write(ctx context.Context, msgs []kafka.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func message(key, eventType string, payload []byte, at time.Time) kafka.Message {
	return kafka.Message{
		Key:     []byte(key),
		Value:   payload,
		Time:    at,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(eventType)}},
	}
}
