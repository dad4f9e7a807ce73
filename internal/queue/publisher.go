package queue

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes persistent JSON messages to the cinema_events
// topic exchange.  Publishing is fire-and-forget from the engine's
// perspective: a crash between a database commit and the publish loses
// the event, which consumers must tolerate by being idempotent.
type Publisher struct {
	conn *amqp.Connection

	mu sync.Mutex // amqp channels are not safe for concurrent publish
	ch *amqp.Channel
}

// NewPublisher dials the broker, declares the topology and returns a
// ready Publisher.  Channels are serialized behind a mutex; the
// connection itself is shared.
func NewPublisher(uri string) (*Publisher, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := DeclareTopology(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

// Publish marshals event and sends it to cinema_events under the given
// routing key.  Messages are marked persistent and stamped with a fresh
// message ID so consumers can deduplicate.  Errors are logged and
// returned; callers decide whether to ignore them.
func (p *Publisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("publisher: marshal %s failed: %v", routingKey, err)
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    uuid.NewString(),
		Type:         routingKey,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, EventsExchange, routingKey, false, false, pub)
	p.mu.Unlock()
	if err != nil {
		log.Printf("publisher: publish %s failed: %v", routingKey, err)
		return err
	}
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
