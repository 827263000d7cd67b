package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/telemetry"
)

// Worker delivers messages queued by a broker-backed Mailer.
type Worker struct {
	mailer  Mailer
	store   LogStore
	logger  *logging.Logger
	metrics *telemetry.Metrics
	timeout time.Duration
	now     func() time.Time
}

// NewWorker creates a Worker delivering through mailer. store may be nil.
func NewWorker(mailer Mailer, store LogStore, logger *logging.Logger, metrics *telemetry.Metrics, timeout time.Duration) *Worker {
	if logger == nil {
		logger = logging.Nop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Worker{
		mailer:  mailer,
		store:   store,
		logger:  logger.Named("mail-worker"),
		metrics: metrics,
		timeout: timeout,
		now:     time.Now,
	}
}

// Handle decodes and delivers one queued message, completing the queued
// email log entry written by the publishing side. Malformed payloads return
// ErrInvalidMessage and are not retried.
func (w *Worker) Handle(ctx context.Context, payload []byte) error {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.To == "" || msg.Subject == "" {
		return fmt.Errorf("%w: missing recipient or subject", ErrInvalidMessage)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	outcome, err := w.mailer.Deliver(ctx, msg)
	if err != nil {
		outcome = OutcomeFailed
	}
	w.metrics.Notification(string(msg.Kind), string(outcome))
	if w.store != nil {
		if rerr := w.store.CompleteEmail(ctx, newLogEntry(msg, outcome, err, w.now().UTC())); rerr != nil {
			w.logger.Warn(ctx, "record email log", zap.String("id", msg.ID), zap.Error(rerr))
		}
	}
	if err != nil {
		return err
	}
	w.logger.Info(ctx, "queued email delivered",
		zap.String("id", msg.ID),
		zap.String("kind", string(msg.Kind)),
		logging.MaskedEmail("to", msg.To),
	)
	return nil
}

// ConsumeNATS delivers messages from subject in queue group until ctx is
// done, then drains the subscription.
func (w *Worker) ConsumeNATS(ctx context.Context, nc *nats.Conn, subject, queue string) error {
	// Messages received while draining still get delivered.
	hctx := context.WithoutCancel(ctx)
	sub, err := nc.QueueSubscribe(subject, queue, func(m *nats.Msg) {
		if err := w.Handle(hctx, m.Data); err != nil {
			w.logger.Error(hctx, "deliver queued email", zap.String("subject", m.Subject), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	if err := nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("flush subscription: %w", err)
	}
	w.logger.Info(ctx, "consuming from NATS", zap.String("subject", subject), zap.String("queue", queue))

	<-ctx.Done()
	if err := sub.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("drain subscription: %w", err)
	}
	return nil
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// ConsumeKafka delivers messages from r until ctx is done. Offsets are
// committed on read, so a failed delivery is logged and not retried.
func (w *Worker) ConsumeKafka(ctx context.Context, r messageReader) error {
	w.logger.Info(ctx, "consuming from Kafka")
	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("kafka read: %w", err)
		}
		if err := w.Handle(ctx, m.Value); err != nil {
			w.logger.Error(ctx, "deliver queued email",
				zap.String("topic", m.Topic),
				zap.Int64("offset", m.Offset),
				zap.Error(err),
			)
		}
	}
}
