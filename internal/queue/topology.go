package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange names.  cinema_retry has no consumer: messages parked there
// expire per-message and dead-letter back into cinema_events with their
// original routing key, which is what causes redelivery.
const (
	EventsExchange = "cinema_events"
	RetryExchange  = "cinema_retry"
	DLQExchange    = "cinema_dlq"
)

// Default queue names bound to the topology.  All durable.
const (
	ReservationCreatedQueue = "reservation_created_queue"
	EmailNotificationQueue  = "email_notification_queue"
	AnalyticsQueue          = "analytics_queue"
	SeatReleasedQueue       = "seat_released_queue"
	RetryQueue              = "cinema_retry_queue"
	DLQQueue                = "cinema_dlq_queue"
)

// DeclareTopology declares the three exchanges, the default queues and
// their bindings on the given channel.  Every declaration is idempotent
// so any replica may run it at startup.
func DeclareTopology(ch *amqp.Channel) error {
	for _, ex := range []string{EventsExchange, RetryExchange, DLQExchange} {
		if err := ch.ExchangeDeclare(
			ex,      // name
			"topic", // type
			true,    // durable
			false,   // autoDelete
			false,   // internal
			false,   // noWait
			nil,     // args
		); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex, err)
		}
	}

	bindings := []struct {
		queue    string
		exchange string
		key      string
		args     amqp.Table
	}{
		{ReservationCreatedQueue, EventsExchange, RKReservationCreated, nil},
		{EmailNotificationQueue, EventsExchange, RKPaymentConfirmed, nil},
		{AnalyticsQueue, EventsExchange, "#", nil},
		{SeatReleasedQueue, EventsExchange, RKSeatReleased, nil},
		// The retry queue dead-letters expired messages back into
		// cinema_events; the absence of x-dead-letter-routing-key keeps
		// the original routing key on redelivery.
		{RetryQueue, RetryExchange, "#", amqp.Table{"x-dead-letter-exchange": EventsExchange}},
		{DLQQueue, DLQExchange, "#", nil},
	}
	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, b.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(b.queue, b.key, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", b.queue, err)
		}
	}
	return nil
}
