package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Notification is an in-app record of a lifecycle event, scoped to exactly
// one recipient. It is mutated only to flip the read flag.
type Notification struct {
	ID            string        `json:"id"                   db:"id"`
	RecipientType RecipientType `json:"recipient_type"       db:"recipient_type"`
	RecipientID   string        `json:"recipient_id"         db:"recipient_id"`
	Type          EventType     `json:"type"                 db:"type"`
	Title         string        `json:"title"                db:"title"`
	Message       string        `json:"message"              db:"message"`
	RequestID     *string       `json:"request_id,omitempty" db:"request_id"`
	Priority      Priority      `json:"priority"             db:"priority"`
	Read          bool          `json:"read"                 db:"read"`
	ReadAt        *time.Time    `json:"read_at,omitempty"    db:"read_at"`
	CreatedAt     time.Time     `json:"created_at"           db:"created_at"`
}

// RecipientType identifies which portal a notification belongs to.
type RecipientType string

const (
	RecipientTypeAdmin    RecipientType = "admin"
	RecipientTypeUser     RecipientType = "user"
	RecipientTypeEmployee RecipientType = "employee"
)

// Valid returns true if the recipient type is one of the supported values.
func (t RecipientType) Valid() bool {
	switch t {
	case RecipientTypeAdmin, RecipientTypeUser, RecipientTypeEmployee:
		return true
	default:
		return false
	}
}

// String returns the string representation of the recipient type.
func (t RecipientType) String() string {
	return string(t)
}

// Priority represents a notification's urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Valid returns true if the priority is one of the supported values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

func normalizePriority(p Priority) Priority {
	normalized := Priority(strings.ToLower(strings.TrimSpace(string(p))))
	if normalized == "" {
		return PriorityNormal
	}
	return normalized
}

// CreateNotificationRequest represents a request to create a new notification.
type CreateNotificationRequest struct {
	RecipientType RecipientType `json:"recipient_type"`
	RecipientID   string        `json:"recipient_id"`
	Type          EventType     `json:"type"`
	Title         string        `json:"title"`
	Message       string        `json:"message"`
	RequestID     *string       `json:"request_id,omitempty"`
	Priority      Priority      `json:"priority,omitempty"`
}

// Normalize normalizes the CreateNotificationRequest fields.
func (r *CreateNotificationRequest) Normalize() {
	r.RecipientID = strings.TrimSpace(r.RecipientID)
	r.Title = strings.TrimSpace(r.Title)
	r.Message = strings.TrimSpace(r.Message)
	r.Priority = normalizePriority(r.Priority)
}

// Validate validates the CreateNotificationRequest fields.
func (r *CreateNotificationRequest) Validate() error {
	if !r.RecipientType.Valid() {
		return errors.New("invalid recipient_type")
	}
	if r.RecipientID == "" {
		return errors.New("recipient_id is required")
	}
	if !r.Type.Valid() {
		return errors.New("invalid type")
	}
	if r.Title == "" {
		return errors.New("title is required")
	}
	if utf8.RuneCountInString(r.Title) > 255 {
		return errors.New("title cannot exceed 255 characters")
	}
	if r.Message == "" {
		return errors.New("message is required")
	}
	if !r.Priority.Valid() {
		return errors.New("invalid priority")
	}
	return nil
}

// NotificationListOptions represents options for listing notifications.
type NotificationListOptions struct {
	RecipientType RecipientType `json:"recipient_type"`
	RecipientID   string        `json:"recipient_id"`
	UnreadOnly    bool          `json:"unread_only,omitempty"`
	Limit         int           `json:"limit,omitempty"`
	Offset        int           `json:"offset,omitempty"`
}
