package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

func RetryQueue(queue string) string { return queue + ".retry" }
func DeadQueue(queue string) string  { return queue + ".dlq" }

func dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbit dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbit channel: %w", err)
	}
	return conn, ch, nil
}

// declareTopology must be identical on both sides; RabbitMQ refuses a
// redeclare with different arguments.
func declareTopology(ch *amqp.Channel, queue string) error {
	for _, q := range queueSpecs(queue) {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args); err != nil {
			return fmt.Errorf("declare %s: %w", q.name, err)
		}
	}
	return nil
}

type queueSpec struct {
	name string
	args amqp.Table
}

func queueSpecs(queue string) []queueSpec {
	return []queueSpec{
		// DLQ
		{name: DeadQueue(queue)},
		// retry: message TTL -> dead-letter back to main queue
		{name: RetryQueue(queue), args: amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": queue,
		}},
		// main: dead-letter to DLQ on reject/nack(requeue=false)
		{name: queue, args: amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": DeadQueue(queue),
		}},
	}
}
