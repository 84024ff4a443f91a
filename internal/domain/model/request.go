//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// RepairRequest represents a customer-submitted repair job tracked through
// its status lifecycle.
type RepairRequest struct {
	ID           string        `json:"id"                      db:"id"`
	CustomerID   string        `json:"customer_id"             db:"customer_id"`
	DeviceType   string        `json:"device_type"             db:"device_type"`
	Brand        string        `json:"brand"                   db:"brand"`
	Model        string        `json:"model"                   db:"model"`
	SerialNumber *string       `json:"serial_number,omitempty" db:"serial_number"`
	Issue        string        `json:"issue"                   db:"issue"`
	ServiceType  string        `json:"service_type"            db:"service_type"`
	Status       RequestStatus `json:"status"                  db:"status"`
	AssignedTo   *string       `json:"assigned_to,omitempty"   db:"assigned_to"`
	RejectedBy   *string       `json:"rejected_by,omitempty"   db:"rejected_by"`
	HoldReason   *string       `json:"hold_reason,omitempty"   db:"hold_reason"`
	CancelReason *string       `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CreatedAt    time.Time     `json:"created_at"              db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"              db:"updated_at"`
}

// RequestStatus represents the lifecycle state of a repair request.
type RequestStatus string

const (
	RequestStatusPending             RequestStatus = "pending"
	RequestStatusPendingConfirmation RequestStatus = "pending-confirmation"
	RequestStatusAssigned            RequestStatus = "assigned"
	RequestStatusInProgress          RequestStatus = "in-progress"
	RequestStatusOnHold              RequestStatus = "on_hold"
	RequestStatusCompleted           RequestStatus = "completed"
	RequestStatusCancelled           RequestStatus = "cancelled"
)

// Valid returns true if the request status is one of the supported values.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusPendingConfirmation, RequestStatusAssigned,
		RequestStatusInProgress, RequestStatusOnHold, RequestStatusCompleted, RequestStatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the request status.
func (s RequestStatus) String() string {
	return string(s)
}

// Terminal returns true when no further transitions are allowed from the status.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// requestTransitions enumerates every allowed status transition. Transitions
// not listed here are rejected before any row is touched; repositories also
// guard the same move with a conditional UPDATE so concurrent actors cannot
// race past this table.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending: {
		RequestStatusAssigned,
		RequestStatusCancelled,
	},
	RequestStatusAssigned: {
		RequestStatusPendingConfirmation,
		RequestStatusInProgress,
		RequestStatusPending, // employee rejection returns the request for reassignment
		RequestStatusCancelled,
	},
	RequestStatusPendingConfirmation: {
		RequestStatusInProgress,
		RequestStatusCancelled,
	},
	RequestStatusInProgress: {
		RequestStatusCompleted,
		RequestStatusOnHold,
		RequestStatusCancelled,
	},
	RequestStatusOnHold: {
		RequestStatusInProgress,
		RequestStatusCancelled,
	},
}

// CanTransitionTo reports whether moving from the current status to the
// target status is allowed.
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// CreateRepairRequest represents a customer submission of a new repair request.
type CreateRepairRequest struct {
	CustomerID   string  `json:"customer_id"`
	DeviceType   string  `json:"device_type"`
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	SerialNumber *string `json:"serial_number,omitempty"`
	Issue        string  `json:"issue"`
	ServiceType  string  `json:"service_type"`
}

// Normalize normalizes the CreateRepairRequest fields.
func (r *CreateRepairRequest) Normalize() {
	r.CustomerID = strings.TrimSpace(r.CustomerID)
	r.DeviceType = strings.TrimSpace(r.DeviceType)
	r.Brand = strings.TrimSpace(r.Brand)
	r.Model = strings.TrimSpace(r.Model)
	r.Issue = strings.TrimSpace(r.Issue)
	r.ServiceType = strings.TrimSpace(r.ServiceType)
	if r.SerialNumber != nil {
		trimmed := strings.TrimSpace(*r.SerialNumber)
		if trimmed == "" {
			r.SerialNumber = nil
		} else {
			r.SerialNumber = &trimmed
		}
	}
}

// Validate validates the CreateRepairRequest fields.
func (r *CreateRepairRequest) Validate() error {
	if r.CustomerID == "" {
		return errors.New("customer_id is required")
	}
	if r.DeviceType == "" {
		return errors.New("device_type is required")
	}
	if r.Issue == "" {
		return errors.New("issue is required")
	}
	if utf8.RuneCountInString(r.Issue) > 2000 {
		return errors.New("issue cannot exceed 2000 characters")
	}
	if r.ServiceType == "" {
		return errors.New("service_type is required")
	}
	return nil
}

// CancelRequestInput carries the admin-supplied cancellation form.
type CancelRequestInput struct {
	Title   string `json:"title"`
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

// Normalize normalizes the CancelRequestInput fields.
func (i *CancelRequestInput) Normalize() {
	i.Title = strings.TrimSpace(i.Title)
	i.Reason = strings.TrimSpace(i.Reason)
	i.Details = strings.TrimSpace(i.Details)
}

// Validate validates the CancelRequestInput fields.
func (i *CancelRequestInput) Validate() error {
	if i.Title == "" {
		return errors.New("title is required")
	}
	if i.Reason == "" {
		return errors.New("reason is required")
	}
	if i.Details == "" {
		return errors.New("details is required")
	}
	return nil
}

// HoldRequestInput carries the reason for placing an in-progress request on hold.
type HoldRequestInput struct {
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

// Normalize normalizes the HoldRequestInput fields.
func (i *HoldRequestInput) Normalize() {
	i.Reason = strings.TrimSpace(i.Reason)
	i.Details = strings.TrimSpace(i.Details)
}

// Validate validates the HoldRequestInput fields.
func (i *HoldRequestInput) Validate() error {
	if i.Reason == "" {
		return errors.New("reason is required")
	}
	return nil
}

// RequestListOptions represents options for listing repair requests.
type RequestListOptions struct {
	CustomerID *string `json:"customer_id,omitempty"`
	AssignedTo *string `json:"assigned_to,omitempty"`
	Status     *string `json:"status,omitempty"`
	Limit      int     `json:"limit,omitempty"`
	Offset     int     `json:"offset,omitempty"`
}
