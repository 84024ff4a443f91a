package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeOutbox runs the event outbox drain worker.
	ServiceModeOutbox ServiceMode = "outbox"
	// ServiceModeMailer runs the email delivery retry worker.
	ServiceModeMailer ServiceMode = "mailer"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeOutbox,
		ServiceModeMailer,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeOutbox, ServiceModeMailer:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, outbox, mailer)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// OutboxConfig contains outbox drain worker configuration.
type OutboxConfig struct {
	// PollInterval is the outbox drain tick interval.
	PollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`

	// BatchSize is the maximum number of pending events claimed per tick.
	BatchSize int `env:"OUTBOX_BATCH_SIZE" envDefault:"10"`
}

// Sanitize applies guardrails to outbox configuration values.
func (o *OutboxConfig) Sanitize() {
	// Enforce a minimum interval to prevent excessive database load
	if o.PollInterval < 500*time.Millisecond {
		o.PollInterval = 500 * time.Millisecond
	}
	if o.BatchSize < 1 {
		o.BatchSize = 1
	}
	if o.BatchSize > 100 {
		o.BatchSize = 100
	}
}

// MailerConfig contains mailer worker configuration.
type MailerConfig struct {
	// RetryInterval is the failed-email sweep tick interval.
	RetryInterval time.Duration `env:"MAILER_RETRY_INTERVAL" envDefault:"30s"`

	// BatchSize is the maximum number of failed emails claimed per sweep.
	BatchSize int `env:"MAILER_BATCH_SIZE" envDefault:"10"`

	// Concurrency is the number of emails delivered in parallel per batch.
	Concurrency int `env:"MAILER_CONCURRENCY" envDefault:"2"`
}

// Sanitize applies guardrails to mailer configuration values.
func (m *MailerConfig) Sanitize() {
	if m.RetryInterval < 5*time.Second {
		m.RetryInterval = 5 * time.Second
	}
	if m.BatchSize < 1 {
		m.BatchSize = 1
	}
	if m.BatchSize > 100 {
		m.BatchSize = 100
	}
	if m.Concurrency < 1 {
		m.Concurrency = 1
	}
}
