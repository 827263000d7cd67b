package notify

import (
	"github.com/MOFOSGANG/HUAUDITIONS-2026/internal/config"
)

// Transports accepted by config.EmailConfig.Transport.
const (
	TransportSMTP  = "smtp"
	TransportLog   = "log"
	TransportNATS  = "nats"
	TransportKafka = "kafka"
)

// SMTPConfigFrom maps the email config section to an SMTPConfig.
func SMTPConfigFrom(cfg config.EmailConfig) SMTPConfig {
	return SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword.Value(),
		From:     cfg.From,
		FromName: cfg.FromName,
		Timeout:  cfg.SendTimeout,
	}
}

// KafkaConfigFrom maps the queue config section to a KafkaConfig.
func KafkaConfigFrom(cfg config.QueueConfig) KafkaConfig {
	return KafkaConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.KafkaGroup,
		Username: cfg.KafkaUsername,
		Password: cfg.KafkaPassword.Value(),
		TLS:      cfg.KafkaTLS,
	}
}
