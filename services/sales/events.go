package main

import (
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	SaleRecordedQueue   = "sale.recorded"
	ReconciliationQueue = "sale.reconciliation"
)

// EventPublisher emits sale lifecycle events. Reconciliation events are the
// operator-facing signal that a saga left the stores diverged.
type EventPublisher interface {
	PublishSaleRecorded(sale *Sale) error
	PublishReconciliation(task *ReconciliationTask) error
}

// RabbitMQPublisher implements EventPublisher over a RabbitMQ channel.
type RabbitMQPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitMQPublisher connects to the broker and declares the durable queues.
func NewRabbitMQPublisher(url string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	for _, queue := range []string{SaleRecordedQueue, ReconciliationQueue} {
		_, err := channel.QueueDeclare(
			queue,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			channel.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
		}
	}

	log.Println("✅ Connected to RabbitMQ")
	return &RabbitMQPublisher{conn: conn, channel: channel}, nil
}

func (p *RabbitMQPublisher) PublishSaleRecorded(sale *Sale) error {
	return p.publish(SaleRecordedQueue, sale)
}

func (p *RabbitMQPublisher) PublishReconciliation(task *ReconciliationTask) error {
	return p.publish(ReconciliationQueue, task)
}

func (p *RabbitMQPublisher) publish(queue string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.Publish(
		"",    // exchange
		queue, // routing key (queue name)
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Close closes the channel and connection.
func (p *RabbitMQPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// LogPublisher is the fallback used when no broker is configured: events are
// still visible in the service log.
type LogPublisher struct{}

func (LogPublisher) PublishSaleRecorded(sale *Sale) error {
	log.Printf("📤 [EVENT] sale.recorded | attempt=%s username=%s item=%d total=%s",
		sale.AttemptID, sale.Username, sale.ItemID, sale.TotalPrice)
	return nil
}

func (LogPublisher) PublishReconciliation(task *ReconciliationTask) error {
	log.Printf("🚨 [EVENT] sale.reconciliation | attempt=%s username=%s item=%d amount=%s reason=%q",
		task.AttemptID, task.Username, task.ItemID, task.Amount, task.Reason)
	return nil
}
