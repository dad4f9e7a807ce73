package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Headers stamped on every retry hop.
const (
	headerRetryCount      = "x-retry-count"
	headerOriginalExch    = "x-original-exchange"
	headerOriginalRouting = "x-original-routing-key"
	headerLastError       = "x-last-error"
)

// RetryPolicy controls how consumer failures are redelivered.  A failed
// message is parked on cinema_retry with a per-message TTL and
// dead-letters back to cinema_events; after MaxRetries attempts it is
// diverted to cinema_dlq instead.
type RetryPolicy struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries int
}

// Delay returns the park duration for a message that has already been
// retried n times: min(MaxDelay, BaseDelay * 2^n).
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	d := p.BaseDelay
	for i := 0; i < n; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// retryCount reads x-retry-count from a delivery's headers, tolerating
// the integer types brokers and clients produce.
func retryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch v := headers[headerRetryCount].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

// routeFailure republishes a failed delivery to the retry exchange, or
// to the DLQ once the retry budget is spent.  Original message
// properties (content type, encoding, correlation and message IDs,
// timestamp, type, app ID) are copied unchanged; the x-* bookkeeping
// headers are set or updated per hop.
func routeFailure(ctx context.Context, ch *amqp.Channel, d amqp.Delivery, handlerErr error, policy RetryPolicy) error {
	n := retryCount(d.Headers)

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[headerRetryCount] = int32(n + 1)
	if _, ok := headers[headerOriginalExch]; !ok {
		headers[headerOriginalExch] = d.Exchange
	}
	if _, ok := headers[headerOriginalRouting]; !ok {
		headers[headerOriginalRouting] = d.RoutingKey
	}
	headers[headerLastError] = handlerErr.Error()

	pub := amqp.Publishing{
		Headers:         headers,
		ContentType:     d.ContentType,
		ContentEncoding: d.ContentEncoding,
		DeliveryMode:    amqp.Persistent,
		CorrelationId:   d.CorrelationId,
		MessageId:       d.MessageId,
		Timestamp:       d.Timestamp,
		Type:            d.Type,
		AppId:           d.AppId,
		Body:            d.Body,
	}

	if n >= policy.MaxRetries {
		if err := ch.PublishWithContext(ctx, DLQExchange, d.RoutingKey, false, false, pub); err != nil {
			return fmt.Errorf("publish to dlq: %w", err)
		}
		return nil
	}

	pub.Expiration = strconv.FormatInt(policy.Delay(n).Milliseconds(), 10)
	if err := ch.PublishWithContext(ctx, RetryExchange, d.RoutingKey, false, false, pub); err != nil {
		return fmt.Errorf("publish to retry: %w", err)
	}
	return nil
}
