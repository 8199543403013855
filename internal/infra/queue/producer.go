package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// CallResultPayload é o desfecho de uma ligação, publicado quando o
// acompanhamento chega num estado terminal.
type CallResultPayload struct {
	LeadID          string `json:"lead_id"`
	CallID          string `json:"call_id"`
	Status          string `json:"status"`
	DurationSeconds int    `json:"duration_seconds"`
	Summary         string `json:"summary,omitempty"`
	ErrorMessage    string `json:"error_message,omitempty"`
	AnsweredBy      string `json:"answered_by,omitempty"`
	RecordingURL    string `json:"recording_url,omitempty"`
	HasAnalysis     bool   `json:"has_analysis"`
}

type ResultProducerInterface interface {
	PublishCallResult(ctx context.Context, payload CallResultPayload) error
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Conn: conn,
		Ch:   ch,
	}
}

func (p *RabbitMQProducer) PublishCallResult(ctx context.Context, payload CallResultPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}

	return nil
}
