package notify

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
)

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *logging.Logger
}

func NewLogMailer(logger *logging.Logger) *LogMailer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Deliver(ctx context.Context, msg Message) (Outcome, error) {
	m.logger.Info(ctx, "email written to log",
		zap.String("kind", string(msg.Kind)),
		logging.MaskedEmail("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return OutcomeSent, nil
}

// NATSPublisher queues messages on a NATS subject for a mail worker.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

func NewNATSPublisher(nc *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{nc: nc, subject: subject}
}

// Deliver publishes msg and flushes so broker errors surface here.
func (p *NATSPublisher) Deliver(ctx context.Context, msg Message) (Outcome, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("encode message: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return OutcomeFailed, fmt.Errorf("nats publish: %w", err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return OutcomeFailed, fmt.Errorf("nats flush: %w", err)
	}
	return OutcomeQueued, nil
}

// ConnectNATS dials NATS with reconnect settings suited to a long-running service.
func ConnectNATS(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// KafkaConfig configures the Kafka producer and consumer.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string
	Username string
	Password string
	TLS      bool
}

func (c KafkaConfig) tlsConfig() *tls.Config {
	if !c.TLS {
		return nil
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

// NewKafkaWriter builds a synchronous writer that waits for all replicas.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	transport := &kafka.Transport{TLS: cfg.tlsConfig()}
	if cfg.Username != "" {
		transport.SASL = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Transport:    transport,
		WriteTimeout: 10 * time.Second,
	}
}

// NewKafkaReader builds a consumer-group reader with committed offsets.
func NewKafkaReader(cfg KafkaConfig) *kafka.Reader {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
		TLS:       cfg.tlsConfig(),
	}
	if cfg.Username != "" {
		dialer.SASLMechanism = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		Dialer:   dialer,
	})
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher queues messages on a Kafka topic for a mail worker.
type KafkaPublisher struct {
	w messageWriter
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

func (p *KafkaPublisher) Deliver(ctx context.Context, msg Message) (Outcome, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("encode message: %w", err)
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.To),
		Value: data,
		Time:  msg.CreatedAt,
	})
	if err != nil {
		return OutcomeFailed, fmt.Errorf("kafka write: %w", err)
	}
	return OutcomeQueued, nil
}
