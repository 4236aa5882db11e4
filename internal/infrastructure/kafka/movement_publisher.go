// Package kafka publica los movimientos confirmados del libro de inventario.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MessageWriter subconjunto de *kafka.Writer usado por el publicador.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// MovementEvent cuerpo JSON publicado por cada movimiento.
type MovementEvent struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"productId"`
	SourceStoreID *string   `json:"sourceStoreId"`
	TargetStoreID *string   `json:"targetStoreId"`
	Quantity      int64     `json:"quantity"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
}

// MovementPublisher escribe en el topic configurado con clave productId,
// así los movimientos de un producto quedan ordenados en la misma partición.
type MovementPublisher struct {
	writer MessageWriter
}

// NewWriter writer de kafka-go con balanceo por hash de la clave: misma clave, misma partición.
func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewMovementPublisher(w MessageWriter) *MovementPublisher {
	return &MovementPublisher{writer: w}
}

func (p *MovementPublisher) Publish(ctx context.Context, m *entity.MovementRecord) error {
	msg, err := EncodeMovement(ctx, m)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publicar movimiento %s: %w", m.ID, err)
	}
	return nil
}

func (p *MovementPublisher) Close() error {
	return p.writer.Close()
}

// EncodeMovement arma el mensaje e inyecta el contexto de traza en los headers.
func EncodeMovement(ctx context.Context, m *entity.MovementRecord) (kafkago.Message, error) {
	ev := MovementEvent{
		ID:        m.ID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		Type:      string(m.Type),
		Timestamp: m.Timestamp.UTC(),
	}
	if m.SourceStoreID != "" {
		s := m.SourceStoreID
		ev.SourceStoreID = &s
	}
	if m.TargetStoreID != "" {
		s := m.TargetStoreID
		ev.TargetStoreID = &s
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serializar movimiento: %w", err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := make([]kafkago.Header, 0, len(carrier)+1)
	headers = append(headers, kafkago.Header{Key: "movement-type", Value: []byte(m.Type)})
	for k, v := range carrier {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
	}

	return kafkago.Message{
		Key:     []byte(m.ProductID),
		Value:   value,
		Headers: headers,
		Time:    m.Timestamp,
	}, nil
}
