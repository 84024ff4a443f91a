package model

import (
	"errors"
	"strings"
	"time"
)

// MaxEmailRetries is the cap on retry sweep attempts for a failed email. Rows
// that exhaust the cap stay failed permanently.
const MaxEmailRetries = 3

// EmailNotification is the durable record of an attempted or sent email tied
// to a Notification row. Rendering and storage are decoupled from transport;
// the retry sweep reconciles failed rows.
type EmailNotification struct {
	ID             string         `json:"id"                   db:"id"`
	NotificationID string         `json:"notification_id"      db:"notification_id"`
	RecipientEmail string         `json:"recipient_email"      db:"recipient_email"`
	RecipientType  RecipientType  `json:"recipient_type"       db:"recipient_type"`
	RecipientID    string         `json:"recipient_id"         db:"recipient_id"`
	EmailType      EventType      `json:"email_type"           db:"email_type"`
	Subject        string         `json:"subject"              db:"subject"`
	Content        string         `json:"content"              db:"content"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"      db:"delivery_status"`
	RetryCount     int            `json:"retry_count"          db:"retry_count"`
	LastError      *string        `json:"last_error,omitempty" db:"last_error"`
	CreatedAt      time.Time      `json:"created_at"           db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"           db:"updated_at"`
}

// DeliveryStatus tracks whether an email was handed to the transport.
type DeliveryStatus string

const (
	DeliveryStatusPending  DeliveryStatus = "pending"
	DeliveryStatusSent     DeliveryStatus = "sent"
	DeliveryStatusFailed   DeliveryStatus = "failed"
	DeliveryStatusRetrying DeliveryStatus = "retrying"
)

// Valid returns true when the delivery status is one of the supported values.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryStatusPending, DeliveryStatusSent, DeliveryStatusFailed, DeliveryStatusRetrying:
		return true
	default:
		return false
	}
}

// String returns the string representation of the delivery status.
func (s DeliveryStatus) String() string {
	return string(s)
}

// CreateEmailNotificationRequest represents a request to persist a new email record.
type CreateEmailNotificationRequest struct {
	NotificationID string        `json:"notification_id"`
	RecipientEmail string        `json:"recipient_email"`
	RecipientType  RecipientType `json:"recipient_type"`
	RecipientID    string        `json:"recipient_id"`
	EmailType      EventType     `json:"email_type"`
	Subject        string        `json:"subject"`
	Content        string        `json:"content"`
}

// Normalize normalizes the CreateEmailNotificationRequest fields.
func (r *CreateEmailNotificationRequest) Normalize() {
	r.NotificationID = strings.TrimSpace(r.NotificationID)
	r.RecipientEmail = strings.TrimSpace(strings.ToLower(r.RecipientEmail))
	r.RecipientID = strings.TrimSpace(r.RecipientID)
	r.Subject = strings.TrimSpace(r.Subject)
}

// Validate validates the CreateEmailNotificationRequest fields.
func (r *CreateEmailNotificationRequest) Validate() error {
	if r.NotificationID == "" {
		return errors.New("notification_id is required")
	}
	if r.RecipientEmail == "" {
		return errors.New("recipient_email is required")
	}
	if !strings.Contains(r.RecipientEmail, "@") {
		return errors.New("recipient_email is not a valid address")
	}
	if !r.RecipientType.Valid() {
		return errors.New("invalid recipient_type")
	}
	if r.RecipientID == "" {
		return errors.New("recipient_id is required")
	}
	if !r.EmailType.Valid() {
		return errors.New("invalid email_type")
	}
	if r.Subject == "" {
		return errors.New("subject is required")
	}
	if r.Content == "" {
		return errors.New("content is required")
	}
	return nil
}
