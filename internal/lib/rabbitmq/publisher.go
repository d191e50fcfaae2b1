package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/instatools/billing/internal/models"
)

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AuditPublisher отправляет записи аудита биллинга в очередь billing.audit.
type AuditPublisher struct {
	ch *amqp.Channel
}

// NewAuditPublisher создаёт публикатор поверх открытого канала.
func NewAuditPublisher(ch *amqp.Channel) *AuditPublisher {
	return &AuditPublisher{ch: ch}
}

// Publish отправляет одну запись аудита.
func (p *AuditPublisher) Publish(record models.AuditRecord) error {
	return PublishMessage(p.ch, "", "billing.audit", record)
}
