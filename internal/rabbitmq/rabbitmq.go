package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ecom_stationery/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQClient struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	queue      amqp.Queue
	expiration string
}

// New dials the broker and declares the queue. Published messages expire
// after messageTTL since a code that sat in the queue past its lifetime is
// useless.
func New(urlForConn string, queueName string, messageTTL time.Duration) (*RabbitMQClient, error) {
	const op = "rabbitmq.New"

	conn, err := amqp.Dial(urlForConn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q, err := ch.QueueDeclare(
		queueName, true, false, false, false, nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RabbitMQClient{
		conn:       conn,
		channel:    ch,
		queue:      q,
		expiration: strconv.FormatInt(messageTTL.Milliseconds(), 10),
	}, nil
}

// SendMessage publishes an OTP for out-of-band delivery.
func (r *RabbitMQClient) SendMessage(ctx context.Context, msg models.OTPMessage) error {
	const op = "rabbitmq.SendMessage"

	body, err := Encode(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		"",
		r.queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Expiration:   r.expiration,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// StartReading consumes the queue until ctx is done, handing each body to
// handle. A message is acked after handle returns nil and requeued
// otherwise.
func (r *RabbitMQClient) StartReading(ctx context.Context, handle func(body []byte) error) error {
	const op = "rabbitmq.StartReading"

	if err := r.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	deliveries, err := r.channel.ConsumeWithContext(
		ctx, r.queue.Name, "", false, false, false, false, nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("%s: delivery channel closed", op)
			}

			if err := handle(d.Body); err != nil {
				_ = d.Nack(false, !d.Redelivered)
				continue
			}

			_ = d.Ack(false)
		}
	}
}

func (r *RabbitMQClient) Close() {
	_ = r.channel.Close()
	_ = r.conn.Close()
}

func Encode(msg models.OTPMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func Decode(body []byte) (models.OTPMessage, error) {
	var msg models.OTPMessage

	if err := json.Unmarshal(body, &msg); err != nil {
		return models.OTPMessage{}, err
	}

	if msg.To == "" || msg.Code == "" {
		return models.OTPMessage{}, fmt.Errorf("incomplete otp message")
	}

	return msg, nil
}
