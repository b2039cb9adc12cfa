package queue

import (
    "context"
    "encoding/json"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// BookingQueueName is the durable queue all booking events are routed to.
const BookingQueueName = "booking.events"

// Publisher sends booking events to RabbitMQ.  A connection is dialled per
// publish so a broker outage never leaves a broken connection behind;
// failures are logged and returned so callers can ignore them without
// interrupting the request.
type Publisher struct {
    url     string
    queue   string
    timeout time.Duration
    log     *zap.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
    if log == nil {
        log = zap.NewNop()
    }
    return &Publisher{url: url, queue: BookingQueueName, timeout: 5 * time.Second, log: log}
}

// Publish marshals ev and publishes it as a persistent message.
func (p *Publisher) Publish(ctx context.Context, ev BookingEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        p.log.Error("rabbitmq: marshal event failed", zap.Error(err))
        return err
    }

    conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.timeout)})
    if err != nil {
        p.log.Warn("rabbitmq: dial failed", zap.Error(err), zap.String("event", ev.Type))
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn("rabbitmq: channel open failed", zap.Error(err))
        return err
    }
    defer func() { _ = ch.Close() }()

    // durable so messages survive broker restarts
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        p.log.Warn("rabbitmq: queue declare failed", zap.Error(err))
        return err
    }

    ctx, cancel := context.WithTimeout(ctx, p.timeout)
    defer cancel()
    if err := ch.PublishWithContext(ctx, "", p.queue, false, false, newPublishing(ev, body)); err != nil {
        p.log.Warn("rabbitmq: publish failed", zap.Error(err), zap.String("event", ev.Type))
        return err
    }
    p.log.Debug("rabbitmq: event published", zap.String("event", ev.Type), zap.String("booking_id", ev.BookingID))
    return nil
}

func newPublishing(ev BookingEvent, body []byte) amqp.Publishing {
    return amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    uuid.NewString(),
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
}
