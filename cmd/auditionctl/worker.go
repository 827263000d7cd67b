package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/config"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/logging"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/notify"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/storage"
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/telemetry"
)

var (
	workerSource  string
	workerLogOnly bool
)

func init() {
	mailWorkerCmd.Flags().StringVar(&workerSource, "source", "", "Queue to consume: nats or kafka (defaults to email.transport)")
	mailWorkerCmd.Flags().BoolVar(&workerLogOnly, "log-only", false, "Log messages instead of sending them over SMTP")
	rootCmd.AddCommand(mailWorkerCmd)
}

var mailWorkerCmd = &cobra.Command{
	Use:   "mail-worker",
	Short: "Deliver email queued by auditiond",
	Long: `Consume email queued on NATS or Kafka by auditiond and deliver it over
SMTP, recording each attempt in email_logs.

Examples:
  # Consume from the transport auditiond is configured with
  auditionctl mail-worker

  # Consume from Kafka and only log what would be sent
  auditionctl mail-worker --source kafka --log-only`,
	Args: cobra.NoArgs,
	RunE: runMailWorker,
}

func runMailWorker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	source := workerSource
	if source == "" {
		source = cfg.Email.Transport
	}
	if source != notify.TransportNATS && source != notify.TransportKafka {
		return fmt.Errorf("--source must be nats or kafka, got %q", source)
	}

	logger, err := newLogger(cfg, "mail-worker")
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mailer, err := workerMailer(cfg, logger, workerLogOnly)
	if err != nil {
		return err
	}

	db, err := storage.Open(ctx, storage.OptionsFrom(cfg.Database), logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.Close(db)
	}()

	w := notify.NewWorker(mailer, storage.NewEmailLogs(db), logger, telemetry.New(prometheus.DefaultRegisterer), cfg.Email.SendTimeout)
	logger.Info(ctx, "mail worker started", zap.String("source", source))

	switch source {
	case notify.TransportNATS:
		nc, err := notify.ConnectNATS(cfg.Queue.NATSURL, "auditionctl-mail-worker")
		if err != nil {
			return err
		}
		defer nc.Close()
		return w.ConsumeNATS(ctx, nc, cfg.Queue.NATSSubject, cfg.Queue.NATSGroup)
	default:
		r := notify.NewKafkaReader(notify.KafkaConfigFrom(cfg.Queue))
		defer func() {
			_ = r.Close()
		}()
		return w.ConsumeKafka(ctx, r)
	}
}

// workerMailer delivers over SMTP unless logOnly is set.
func workerMailer(cfg *config.Config, logger *logging.Logger, logOnly bool) (notify.Mailer, error) {
	if logOnly {
		return notify.NewLogMailer(logger), nil
	}
	m, err := notify.NewSMTPMailer(notify.SMTPConfigFrom(cfg.Email))
	if err != nil {
		return nil, fmt.Errorf("mail worker needs smtp settings: %w", err)
	}
	return m, nil
}
