package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"feedmaker/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Notification публикуется после записи ленты на диск.
type Notification struct {
	Channel string    `json:"channel"`
	Path    string    `json:"path"`
	Items   int       `json:"items"`
	BuiltAt time.Time `json:"built_at"`
}

// Producer
type Producer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewProducer(url string) (*Producer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Producer{conn, ch}, nil
}

func declare(ch *amqp.Channel, queueName string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
}

func (p *Producer) Publish(ctx context.Context, queueName, contentType string, body []byte) error {
	if _, err := declare(p.ch, queueName); err != nil {
		return err
	}

	return p.ch.PublishWithContext(
		ctx,
		"",        // exchange
		queueName, // routing key (имя очереди)
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  contentType,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// RequestRebuild ставит в очередь пересборку канала.
func (p *Producer) RequestRebuild(ctx context.Context, queueName, channel string) error {
	return p.Publish(ctx, queueName, "text/plain", []byte(channel))
}

func (p *Producer) Close() {
	p.ch.Close()
	p.conn.Close()
}

// Notifier отправляет уведомления о публикации лент в очередь Queue.
type Notifier struct {
	Producer *Producer
	Queue    string
}

func (n *Notifier) Notify(ctx context.Context, msg Notification) error {
	if n == nil || n.Producer == nil {
		return errors.New("notifier is not configured")
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return n.Producer.Publish(ctx, n.Queue, "application/json", body)
}

// Consumer
type Consumer struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	workers int
}

func NewConsumer(url, queue string, workers int) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if workers < 1 {
		workers = 1
	}
	if err := ch.Qos(workers, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Consumer{
		conn:    conn,
		ch:      ch,
		queue:   queue,
		workers: workers,
	}, nil
}

// Consume запускает workers обработчиков. Успешно обработанные сообщения
// подтверждаются, остальные возвращаются в очередь.
func (c *Consumer) Consume(handler func([]byte) error) error {
	log := logger.Component("queue").WithField("queue", c.queue)

	q, err := declare(c.ch, c.queue)
	if err != nil {
		return err
	}

	log.Infof("Consuming queue (messages: %d)", q.Messages)

	msgs, err := c.ch.Consume(
		q.Name,
		"",    // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return err
	}

	for i := 0; i < c.workers; i++ {
		go func() {
			for msg := range msgs {
				if err := handler(msg.Body); err == nil {
					msg.Ack(false)
				} else {
					msg.Nack(false, !msg.Redelivered)
					log.Errorf("Task failed: %v", err)
				}
			}
		}()
	}
	return nil
}

func (c *Consumer) Close() {
	c.ch.Close()
	c.conn.Close()
}
