package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventType identifies a request lifecycle transition for notification and
// email dispatch purposes.
type EventType string

const (
	EventRequestCreated   EventType = "request_created"
	EventRequestAssigned  EventType = "request_assigned"
	EventRequestAccepted  EventType = "request_accepted"
	EventRequestRejected  EventType = "request_rejected"
	EventRequestStarted   EventType = "request_started"
	EventRequestOnHold    EventType = "request_on_hold"
	EventRequestCompleted EventType = "request_completed"
	EventRequestCancelled EventType = "request_cancelled"
)

// Valid returns true if the event type is one of the supported values.
func (t EventType) Valid() bool {
	switch t {
	case EventRequestCreated, EventRequestAssigned, EventRequestAccepted, EventRequestRejected,
		EventRequestStarted, EventRequestOnHold, EventRequestCompleted, EventRequestCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}

// RequestEvent is the closed set of lifecycle events flowing through the
// outbox. Each concrete type carries exactly the fields its notification and
// email templates need; there is no loose payload bag.
type RequestEvent interface {
	EventType() EventType
	RequestRef() string
}

// RequestCreatedEvent fires when a customer submits a new request. Admins are notified.
type RequestCreatedEvent struct {
	RequestID    string `json:"request_id"`
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	ServiceType  string `json:"service_type"`
}

func (RequestCreatedEvent) EventType() EventType { return EventRequestCreated }
func (e RequestCreatedEvent) RequestRef() string { return e.RequestID }

// RequestAssignedEvent fires when an admin assigns an employee. The customer
// and the assigned employee are notified.
type RequestAssignedEvent struct {
	RequestID    string `json:"request_id"`
	CustomerID   string `json:"customer_id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	ServiceType  string `json:"service_type"`
}

func (RequestAssignedEvent) EventType() EventType { return EventRequestAssigned }
func (e RequestAssignedEvent) RequestRef() string { return e.RequestID }

// RequestAcceptedEvent fires when the assigned employee accepts the work.
// The customer and admins are notified.
type RequestAcceptedEvent struct {
	RequestID    string `json:"request_id"`
	CustomerID   string `json:"customer_id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
}

func (RequestAcceptedEvent) EventType() EventType { return EventRequestAccepted }
func (e RequestAcceptedEvent) RequestRef() string { return e.RequestID }

// RequestRejectedEvent fires when the assigned employee rejects the work and
// the request returns to pending. Admins are notified so they can reassign.
type RequestRejectedEvent struct {
	RequestID    string `json:"request_id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Reason       string `json:"reason"`
}

func (RequestRejectedEvent) EventType() EventType { return EventRequestRejected }
func (e RequestRejectedEvent) RequestRef() string { return e.RequestID }

// RequestStartedEvent fires when work begins. The customer is notified.
type RequestStartedEvent struct {
	RequestID    string `json:"request_id"`
	CustomerID   string `json:"customer_id"`
	EmployeeName string `json:"employee_name"`
}

func (RequestStartedEvent) EventType() EventType { return EventRequestStarted }
func (e RequestStartedEvent) RequestRef() string { return e.RequestID }

// RequestOnHoldEvent fires when in-progress work is paused with a reason.
// The customer and admins are notified.
type RequestOnHoldEvent struct {
	RequestID  string `json:"request_id"`
	CustomerID string `json:"customer_id"`
	Reason     string `json:"reason"`
	Details    string `json:"details"`
}

func (RequestOnHoldEvent) EventType() EventType { return EventRequestOnHold }
func (e RequestOnHoldEvent) RequestRef() string { return e.RequestID }

// RequestCompletedEvent fires when work finishes and the payment split is
// recorded. The customer, the employee, and admins are notified.
type RequestCompletedEvent struct {
	RequestID    string  `json:"request_id"`
	CustomerID   string  `json:"customer_id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	TotalAmount  float64 `json:"total_amount"`
}

func (RequestCompletedEvent) EventType() EventType { return EventRequestCompleted }
func (e RequestCompletedEvent) RequestRef() string { return e.RequestID }

// RequestCancelledEvent fires when an admin cancels a request. The customer
// is always notified; the formerly assigned employee is notified when present.
type RequestCancelledEvent struct {
	RequestID  string  `json:"request_id"`
	CustomerID string  `json:"customer_id"`
	EmployeeID *string `json:"employee_id,omitempty"`
	Reason     string  `json:"reason"`
}

func (RequestCancelledEvent) EventType() EventType { return EventRequestCancelled }
func (e RequestCancelledEvent) RequestRef() string { return e.RequestID }

// EncodeEvent serializes a lifecycle event payload for the outbox row.
func EncodeEvent(ev RequestEvent) ([]byte, error) {
	if ev == nil {
		return nil, errors.New("event is required")
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", ev.EventType(), err)
	}
	return data, nil
}

// DecodeEvent deserializes an outbox payload back into its concrete event type.
func DecodeEvent(eventType EventType, payload []byte) (RequestEvent, error) {
	var (
		ev  RequestEvent
		err error
	)
	switch eventType {
	case EventRequestCreated:
		ev, err = decodeInto[RequestCreatedEvent](payload)
	case EventRequestAssigned:
		ev, err = decodeInto[RequestAssignedEvent](payload)
	case EventRequestAccepted:
		ev, err = decodeInto[RequestAcceptedEvent](payload)
	case EventRequestRejected:
		ev, err = decodeInto[RequestRejectedEvent](payload)
	case EventRequestStarted:
		ev, err = decodeInto[RequestStartedEvent](payload)
	case EventRequestOnHold:
		ev, err = decodeInto[RequestOnHoldEvent](payload)
	case EventRequestCompleted:
		ev, err = decodeInto[RequestCompletedEvent](payload)
	case EventRequestCancelled:
		ev, err = decodeInto[RequestCancelledEvent](payload)
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s event: %w", eventType, err)
	}
	return ev, nil
}

func decodeInto[T RequestEvent](payload []byte) (RequestEvent, error) {
	var ev T
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// DispatchStatus tracks whether an outbox row was drained.
type DispatchStatus string

const (
	DispatchStatusPending    DispatchStatus = "pending"
	DispatchStatusDispatched DispatchStatus = "dispatched"
	DispatchStatusFailed     DispatchStatus = "failed"
)

// Valid returns true when the dispatch status is one of the supported values.
func (s DispatchStatus) Valid() bool {
	switch s {
	case DispatchStatusPending, DispatchStatusDispatched, DispatchStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the dispatch status.
func (s DispatchStatus) String() string {
	return string(s)
}

// MaxDispatchAttempts is the cap on drain attempts for an outbox row. Rows
// that fail this many times stay failed with the last error recorded.
const MaxDispatchAttempts = 3

// RequestEventRecord is an outbox row. It is written in the same transaction
// as the lifecycle mutation it describes and drained asynchronously.
type RequestEventRecord struct {
	ID             string          `json:"id"                       db:"id"`
	RequestID      string          `json:"request_id"               db:"request_id"`
	EventType      EventType       `json:"event_type"               db:"event_type"`
	Payload        json.RawMessage `json:"payload"                  db:"payload"`
	DispatchStatus DispatchStatus  `json:"dispatch_status"          db:"dispatch_status"`
	DispatchError  *string         `json:"dispatch_error,omitempty" db:"dispatch_error"`
	Attempts       int             `json:"attempts"                 db:"attempts"`
	CreatedAt      time.Time       `json:"created_at"               db:"created_at"`
	DispatchedAt   *time.Time      `json:"dispatched_at,omitempty"  db:"dispatched_at"`
}
