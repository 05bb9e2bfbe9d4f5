package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "meetup.events"

	appID       = "meetup-service"
	confirmWait = 2 * time.Second
)

var (
	ErrMissingRoutingKey = errors.New("missing routingKey")
	ErrMissingMessageID  = errors.New("missing messageID")
	ErrNack              = errors.New("publish nack")
	ErrConfirmTimeout    = errors.New("publish confirm timeout")
)

// Publisher implements notify.Publisher over a durable topic exchange in
// confirm mode. Publishes are serialized so each one is matched with its own
// confirmation. A closed channel is re-dialed on the next publish.
type Publisher struct {
	url      string
	exchange string

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	confirms <-chan amqp.Confirmation
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	p := &Publisher{url: url, exchange: exchange}
	if err := p.dial(); err != nil {
		return nil, fmt.Errorf("rabbitmq: %w", err)
	}
	return p, nil
}

func (p *Publisher) dial() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	setup := func() error {
		if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
			return err
		}
		return ch.Confirm(false)
	}
	if err := setup(); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	p.conn, p.ch = conn, ch
	p.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	return nil
}

// channel returns a live channel, reconnecting if the broker dropped it.
// Callers hold p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	if err := p.dial(); err != nil {
		return nil, fmt.Errorf("rabbitmq reconnect: %w", err)
	}
	return p.ch, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ch != nil {
		errs = append(errs, ignoreClosed(p.ch.Close()))
		p.ch = nil
	}
	if p.conn != nil {
		errs = append(errs, ignoreClosed(p.conn.Close()))
		p.conn = nil
	}
	return errors.Join(errs...)
}

func ignoreClosed(err error) error {
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}

// PublishEvent sends body under routingKey and blocks until the broker
// confirms it. Unrouted messages are dropped by the broker, not reported.
func (p *Publisher) PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error {
	if routingKey == "" {
		return ErrMissingRoutingKey
	}
	if strings.TrimSpace(messageID) == "" {
		return ErrMissingMessageID
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		AppId:        appID,
		MessageId:    messageID,
		Type:         routingKey,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	timer := time.NewTimer(confirmWait)
	defer timer.Stop()
	select {
	case conf, ok := <-p.confirms:
		switch {
		case !ok:
			return amqp.ErrClosed
		case !conf.Ack:
			return ErrNack
		}
		return nil
	case <-timer.C:
		return ErrConfirmTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
