package config

import (
	"strings"
	"time"
)

const defaultMailFrom = "repairs@example.com"

// MailRelayConfig controls the outbound email relay webhook.
// When disabled (or left without a webhook URL), the mailer logs
// deliveries instead of posting them, which is the development default.
type MailRelayConfig struct {
	Enabled    bool          `env:"ENABLED"      envDefault:"false"`
	WebhookURL string        `env:"WEBHOOK_URL"`
	From       string        `env:"FROM"`
	Timeout    time.Duration `env:"TIMEOUT"      envDefault:"5s"`
	RetryLimit int           `env:"RETRY_LIMIT"  envDefault:"3"`
}

// Sanitize normalises relay configuration values and enforces safe defaults.
func (c *MailRelayConfig) Sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	if c.From = strings.TrimSpace(c.From); c.From == "" {
		c.From = defaultMailFrom
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}
	if c.WebhookURL == "" {
		c.Enabled = false
	}
}

// IsEnabled returns true when relay delivery is active after sanitisation.
func (c *MailRelayConfig) IsEnabled() bool {
	return c.Enabled && c.WebhookURL != ""
}
