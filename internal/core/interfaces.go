// Package core defines the repository and dispatch ports consumed by the
// service layer. Implementations live in internal/data and internal/service;
// mocks are generated into internal/mocks.
package core

import (
	"context"

	"github.com/fixpoint/repair-api/internal/domain/model"
)

// CreateRequestParams groups parameters for RequestRepository.Create so the
// outbox event row is written in the same transaction as the request row. The
// repository stamps the generated request id onto Event before persisting it.
type CreateRequestParams struct {
	Request *model.CreateRepairRequest
	Event   model.RequestCreatedEvent
}

// AssignRequestParams groups parameters for RequestRepository.Assign.
type AssignRequestParams struct {
	RequestID  string
	EmployeeID string
	Event      model.RequestEvent
}

// TransitionRequestParams groups parameters for RequestRepository.Transition.
// From is the expected current status; the repository performs a conditional
// UPDATE so a concurrent transition loses cleanly instead of overwriting.
type TransitionRequestParams struct {
	RequestID string
	From      model.RequestStatus
	To        model.RequestStatus

	// ClearAssignee clears assigned_to (rejection, cancellation).
	ClearAssignee bool
	RejectedBy    *string
	HoldReason    *string
	CancelReason  *string

	// EmployeeID/EmployeeStatus optionally flip an employee's availability in
	// the same transaction (busy on accept, free on completion/cancellation).
	EmployeeID     *string
	EmployeeStatus *model.EmployeeStatus

	Event model.RequestEvent
}

// CompleteRequestParams groups parameters for RequestRepository.Complete.
type CompleteRequestParams struct {
	RequestID  string
	EmployeeID string
	Completion *model.CreateWorkCompletionRequest
	Event      model.RequestEvent
}

// RequestRepository provides persistence for repair requests. Every mutation
// that fires a lifecycle event persists the outbox row atomically with it.
type RequestRepository interface {
	Create(ctx context.Context, params CreateRequestParams) (*model.RepairRequest, error)
	GetByID(ctx context.Context, id string) (*model.RepairRequest, error)
	List(ctx context.Context, opts *model.RequestListOptions) ([]*model.RepairRequest, error)
	Assign(ctx context.Context, params AssignRequestParams) (*model.RepairRequest, error)
	Transition(ctx context.Context, params TransitionRequestParams) (*model.RepairRequest, error)
	Complete(ctx context.Context, params CompleteRequestParams) (*model.WorkCompletion, error)
	GetCompletion(ctx context.Context, requestID string) (*model.WorkCompletion, error)
}

// ListAssignableParams groups parameters for EmployeeRepository.ListAssignable.
type ListAssignableParams struct {
	// ExcludeID filters out the employee who last rejected the request.
	ExcludeID *string
	Limit     int
}

// UpdateEmployeeStatusParams groups parameters for EmployeeRepository.UpdateStatus.
type UpdateEmployeeStatusParams struct {
	ID     string
	Status model.EmployeeStatus
}

// EmployeeRepository provides persistence for employees.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	List(ctx context.Context, limit, offset int) ([]*model.Employee, error)
	ListAssignable(ctx context.Context, params ListAssignableParams) ([]*model.Employee, error)
	UpdateStatus(ctx context.Context, params UpdateEmployeeStatusParams) (*model.Employee, error)
}

// CustomerRepository provides customer lookups for recipient resolution.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*model.Customer, error)
}

// AdminRepository provides admin lookups for recipient resolution.
type AdminRepository interface {
	List(ctx context.Context) ([]*model.Admin, error)
}

// RecipientParams identifies one notification recipient.
type RecipientParams struct {
	RecipientType model.RecipientType
	RecipientID   string
}

// MarkReadParams groups parameters for NotificationRepository.MarkRead. The
// recipient fields scope the update so one portal cannot flip another's rows.
type MarkReadParams struct {
	NotificationID string
	Recipient      RecipientParams
}

// NotificationRepository provides persistence for in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, req *model.CreateNotificationRequest) (*model.Notification, error)
	List(ctx context.Context, opts *model.NotificationListOptions) ([]*model.Notification, error)
	CountUnread(ctx context.Context, recipient RecipientParams) (int, error)
	MarkRead(ctx context.Context, params MarkReadParams) (*model.Notification, error)
}

// MarkEmailFailedParams groups parameters for EmailRepository.MarkFailed.
type MarkEmailFailedParams struct {
	ID      string
	Message string
}

// EmailRepository provides persistence for email delivery records.
type EmailRepository interface {
	Create(ctx context.Context, req *model.CreateEmailNotificationRequest) (*model.EmailNotification, error)
	MarkSent(ctx context.Context, id string) (*model.EmailNotification, error)
	MarkFailed(ctx context.Context, params MarkEmailFailedParams) (*model.EmailNotification, error)
	// ClaimRetryBatch selects up to limit failed rows under the retry cap,
	// marking each retrying and incrementing retry_count in the same statement.
	ClaimRetryBatch(ctx context.Context, limit int) ([]*model.EmailNotification, error)
}

// MarkEventFailedParams groups parameters for OutboxRepository.MarkFailed.
type MarkEventFailedParams struct {
	ID      string
	Message string
}

// OutboxRepository drains the durable lifecycle-event rows written by
// RequestRepository mutations.
type OutboxRepository interface {
	ClaimPending(ctx context.Context, limit int) ([]*model.RequestEventRecord, error)
	MarkDispatched(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, params MarkEventFailedParams) error
}

// NotifyOutcome summarizes a notification fan-out. Per-recipient lookup
// failures reduce the count but do not produce an error.
type NotifyOutcome struct {
	RecipientCount int
}

// EventNotifier fans one lifecycle event out to notification rows and a
// single email dispatch call.
type EventNotifier interface {
	HandleEvent(ctx context.Context, ev model.RequestEvent) (NotifyOutcome, error)
}

// EmailRecipient is one resolved recipient of an event's email.
type EmailRecipient struct {
	RecipientType  model.RecipientType
	RecipientID    string
	Name           string
	Email          string
	NotificationID string
}

// DispatchBatch carries one event and every resolved recipient for it, so a
// single rendered template pair is reused across the batch.
type DispatchBatch struct {
	Event      model.RequestEvent
	Recipients []EmailRecipient
}

// DispatchResult summarizes an email dispatch batch.
type DispatchResult struct {
	Sent   int
	Failed int
}

// EmailDispatcher persists and sends the email records for one event batch.
type EmailDispatcher interface {
	Dispatch(ctx context.Context, batch DispatchBatch) (DispatchResult, error)
}

// EmailMessage is the transport-level shape handed to a Sender.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
}

// EmailSender hands a rendered message to a transport. The recording sender
// accepts everything; the mail relay sender posts to a webhook.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}
