package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/contractforge-auth/internal/models"
)

// Channel — часть amqp.Channel, необходимая для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch Channel, exchange string, routingkey string, message any) error {
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

// EmailPublisher ставит письма в очередь вместо прямой отправки по SMTP.
type EmailPublisher struct {
	mu         sync.Mutex // amqp.Channel не предназначен для конкурентной публикации
	ch         Channel
	exchange   string
	routingKey string
}

// NewEmailPublisher создаёт издателя писем.
func NewEmailPublisher(ch Channel, exchange, routingKey string) *EmailPublisher {
	return &EmailPublisher{ch: ch, exchange: exchange, routingKey: routingKey}
}

// Notify публикует письмо в очередь.
func (p *EmailPublisher) Notify(ctx context.Context, msg models.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return PublishMessage(p.ch, p.exchange, p.routingKey, msg)
}
