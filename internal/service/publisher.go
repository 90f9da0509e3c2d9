// Package service provides the RabbitMQ publisher for seat events. Errors
// are logged and returned so the booking core can ignore them without
// interrupting the request that committed the change.
package service

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/predator49/train-reservation/internal/queue"
)

// Publisher sends SeatEvents to a durable queue over one lazily opened
// connection. A failed publish drops the connection; the next call dials
// again.
type Publisher struct {
	url       string
	queueName string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher does not dial; the first Publish does.
func NewPublisher(url, queueName string) *Publisher {
	if queueName == "" {
		queueName = queue.SeatEventsQueue
	}
	return &Publisher{url: url, queueName: queueName}
}

// Publish marshals ev and sends it as a persistent message, routed to the
// queue through the default exchange.
func (p *Publisher) Publish(ctx context.Context, ev queue.SeatEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Type:         string(ev.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key = queue name
		false,       // mandatory
		false,       // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		p.resetLocked()
		return err
	}
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	return err
}

func (p *Publisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.resetLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		_ = conn.Close()
		return err
	}
	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(p.queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		_ = conn.Close()
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) resetLocked() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}
