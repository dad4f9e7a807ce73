package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one delivery.  Returning an error routes the
// message through the retry/DLQ machinery; returning nil acknowledges
// it.
type Handler func(ctx context.Context, routingKey string, body []byte) error

// Consume attaches a handler to the named queue and keeps it attached
// through broker restarts with a reconnect loop.  A failed handler
// never blocks the queue: the message is republished to cinema_retry
// (or cinema_dlq once the retry budget is spent) and the original is
// acknowledged.  Consume returns only when ctx is cancelled.
func Consume(ctx context.Context, uri, queueName string, policy RetryPolicy, h Handler) error {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		conn, err := amqp.Dial(uri)
		if err != nil {
			log.Printf("consumer[%s]: dial failed: %v; retrying in %s", queueName, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(ctx, conn, queueName, policy, h); err != nil {
			log.Printf("consumer[%s]: loop ended: %v; reconnecting", queueName, err)
		}
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		time.Sleep(2 * time.Second)
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queueName string, policy RetryPolicy, h Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := DeclareTopology(ch); err != nil {
		return err
	}
	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("consumer[%s]: set QoS failed: %v", queueName, err)
	}

	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := h(ctx, d.RoutingKey, d.Body); err != nil {
				log.Printf("consumer[%s]: handle %s failed: %v", queueName, d.RoutingKey, err)
				if routeErr := routeFailure(ctx, ch, d, err, policy); routeErr != nil {
					log.Printf("consumer[%s]: failure routing failed: %v", queueName, routeErr)
					_ = d.Nack(false, false) // drop rather than hot-loop
					continue
				}
			}
			_ = d.Ack(false)
		}
	}
}

// LogSales is the default handler bound to email_notification_queue in
// development: it appends each confirmed payment to logs/sales.log so
// the end-to-end flow is observable without a real mail service.
func LogSales(_ context.Context, routingKey string, body []byte) error {
	if routingKey != RKPaymentConfirmed {
		return nil
	}
	var ev PaymentConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "sales.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Payment confirmed | reservation_id=%s | user_id=%s | seat_id=%s | amount=%s\n",
		ev.Timestamp, ev.ReservationID, ev.UserID, ev.SeatID, ev.Amount)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
