package main

import (
	"fmt"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/config"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/notify"
)

// newMailer builds the Mailer selected by email.transport. With nats or
// kafka the API only enqueues and auditionctl mail-worker delivers.
func newMailer(cfg *config.Config, logger *logging.Logger) (notify.Mailer, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Email.Transport {
	case notify.TransportSMTP:
		m, err := notify.NewSMTPMailer(notify.SMTPConfigFrom(cfg.Email))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid smtp settings: %w", err)
		}
		return m, noop, nil

	case notify.TransportLog, "":
		return notify.NewLogMailer(logger), noop, nil

	case notify.TransportNATS:
		nc, err := notify.ConnectNATS(cfg.Queue.NATSURL, "auditiond")
		if err != nil {
			return nil, nil, err
		}
		return notify.NewNATSPublisher(nc, cfg.Queue.NATSSubject), func() error {
			return nc.Drain()
		}, nil

	case notify.TransportKafka:
		w := notify.NewKafkaWriter(notify.KafkaConfigFrom(cfg.Queue))
		return notify.NewKafkaPublisher(w), w.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown email transport %q", cfg.Email.Transport)
	}
}
