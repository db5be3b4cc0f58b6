package queue

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

// AMQPQueue publishes and consumes send jobs over a durable RabbitMQ queue.
type AMQPQueue struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	queueName string
	log       zerolog.Logger
}

func NewAMQPQueue(url, queueName string, log zerolog.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}

	return &AMQPQueue{conn: conn, ch: ch, queueName: queueName, log: log}, nil
}

func (q *AMQPQueue) PublishSend(job SendJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.ch.Publish(
		"",
		q.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume runs handler for every delivery. Failed jobs are requeued with an
// incremented x-retry-count header up to maxRetries, then acked and dropped;
// the handler is expected to have marked the row failed by then.
func (q *AMQPQueue) Consume(handler func(SendJob, int) error, maxRetries int) error {
	msgs, err := q.ch.Consume(
		q.queueName,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	for d := range msgs {
		var job SendJob
		if err := json.Unmarshal(d.Body, &job); err != nil {
			q.log.Warn().Err(err).Msg("dropping invalid job payload")
			d.Ack(false)
			continue
		}

		retryCount := retryCountFrom(d.Headers)
		if err := handler(job, retryCount); err != nil {
			if retryCount < maxRetries {
				q.log.Warn().Err(err).
					Int("email_id", job.EmailID).
					Int("attempt", retryCount+1).
					Msg("send failed, requeueing")
				q.republish(d.Body, retryCount+1)
				d.Ack(false)
				continue
			}
			q.log.Error().Err(err).
				Int("email_id", job.EmailID).
				Msg("send permanently failed")
		}
		d.Ack(false)
	}
	return nil
}

// republish re-enqueues the body with the bumped retry header. A plain Nack
// would lose the count.
func (q *AMQPQueue) republish(body []byte, retryCount int) {
	err := q.ch.Publish("", q.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{"x-retry-count": int32(retryCount)},
		Body:         body,
	})
	if err != nil {
		q.log.Error().Err(err).Msg("failed to requeue job")
	}
}

func retryCountFrom(headers amqp.Table) int {
	raw, ok := headers["x-retry-count"]
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (q *AMQPQueue) Close() error {
	q.ch.Close()
	return q.conn.Close()
}

var _ Queue = (*AMQPQueue)(nil)
