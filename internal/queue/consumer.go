package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Consumer reads booking events and appends one audit line per event to
// a log file.  Run keeps reconnecting until its context is cancelled.
type Consumer struct {
    url     string
    queue   string
    logPath string
    log     *zap.Logger
}

// NewConsumer returns a Consumer writing to logPath (logs/booking.log when
// empty).
func NewConsumer(url, logPath string, log *zap.Logger) *Consumer {
    if logPath == "" {
        logPath = filepath.Join("logs", "booking.log")
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &Consumer{url: url, queue: BookingQueueName, logPath: logPath, log: log}
}

// Run connects to the broker and consumes messages, reconnecting with
// exponential backoff capped at 30s.  It returns ctx.Err() once ctx is
// done.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("booking-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.Warn("booking-consumer: consume loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn("booking-consumer: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
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
            if err := c.handleMessage(d.Body); err != nil {
                c.log.Error("booking-consumer: handle message failed", zap.Error(err), zap.String("message_id", d.MessageId))
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handleMessage(body []byte) error {
    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.BookingID == "" {
        return errors.New("event without type or booking id")
    }
    if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(auditLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    c.log.Info("booking event", zap.String("event", ev.Type), zap.String("booking_id", ev.BookingID))
    return nil
}

func auditLine(ev BookingEvent) string {
    seats := "[" + strings.Join(ev.Seats, ",") + "]"
    line := fmt.Sprintf("[%s] %s | booking_id=%s | user_id=%s | movie_id=%s | cinema_id=%s | showtime=%s %s | seats=%s | total=%.2f | booking=%s | payment=%s",
        ev.OccurredAt, ev.Type, ev.BookingID, ev.UserID, ev.MovieID, ev.CinemaID, ev.ShowDate, ev.ShowTime,
        seats, ev.TotalAmount, ev.BookingStatus, ev.PaymentStatus)
    if ev.Previous != "" {
        line += " | previous=" + ev.Previous
    }
    return line + "\n"
}
