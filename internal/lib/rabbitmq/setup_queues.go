package rabbitmq

import "github.com/streadway/amqp"

// QueueConfig описывает очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetAuditQueues возвращает очереди журнала аудита биллинга.
func GetAuditQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "billing.audit", RoutingKey: "billing.audit"},
	}
}

// DeclareAuditQueues объявляет устойчивые очереди аудита на канале.
func DeclareAuditQueues(ch *amqp.Channel) error {
	for _, q := range GetAuditQueues() {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return err
		}
	}
	return nil
}
