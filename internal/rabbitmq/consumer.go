package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/contractforge-auth/internal/lib/sl"
)

// Consumer — часть amqp.Channel, необходимая для чтения очереди.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Handler обрабатывает тело сообщения. Ошибка возвращает сообщение в очередь.
type Handler func(ctx context.Context, body []byte) error

const maxInFlight = 10

// ConsumerMessage читает сообщения из очереди и обрабатывает их не более чем
// в maxInFlight горутинах. Возвращаемая функция блокируется до остановки
// чтения (по отмене ctx или закрытию канала доставки) и завершения всех
// начатых обработчиков.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch Consumer, queueName string, handler Handler) (wait func(), err error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var wg sync.WaitGroup
	done := make(chan struct{})
	sem := make(chan struct{}, maxInFlight)

	go func() {
		defer close(done)
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				wg.Add(1)
				go func(d amqp.Delivery) {
					defer func() {
						<-sem
						wg.Done()
					}()
					if err := handler(ctx, d.Body); err != nil {
						log.Warn("message handling failed, requeueing", sl.Err(err))
						if nackErr := d.Nack(false, true); nackErr != nil {
							log.Error("failed to nack message", sl.Err(nackErr))
						}
						return
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Error("failed to ack message", sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		<-done
		wg.Wait()
	}, nil
}
