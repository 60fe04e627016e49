package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/ride-guardian/internal/models"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitNotifier publishes to a topic exchange with routing key
// ride.safety.<event type>, e.g. ride.safety.emergency_action.
type RabbitNotifier struct {
	conn     *amqp.Connection
	ch       publisher
	exchange string
	timeout  time.Duration
}

func NewRabbitNotifier(url, exchange string) (*RabbitNotifier, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Heartbeat: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("dispatch.NewRabbitNotifier: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("dispatch.NewRabbitNotifier: channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("dispatch.NewRabbitNotifier: declare %s: %w", exchange, err)
	}
	return &RabbitNotifier{conn: conn, ch: ch, exchange: exchange, timeout: 2 * time.Second}, nil
}

func RoutingKey(t models.EventType) string {
	return "ride.safety." + strings.ToLower(string(t))
}

func (r *RabbitNotifier) Notify(ctx context.Context, rideID string, ev models.SafetyEvent) error {
	body, err := json.Marshal(Envelope{RideID: rideID, Event: ev})
	if err != nil {
		return err
	}
	timeout := r.timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.ch.PublishWithContext(ctx, r.exchange, RoutingKey(ev.Type), false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: rideID,
		Body:          body,
		Timestamp:     ev.Timestamp,
	})
}

func (r *RabbitNotifier) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}
