package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fixpoint/repair-api/internal/core"
	"github.com/fixpoint/repair-api/internal/domain/model"
)

// NotifierServiceOptions groups dependencies for NotifierService.
type NotifierServiceOptions struct {
	Notifications core.NotificationRepository
	Customers     core.CustomerRepository
	Employees     core.EmployeeRepository
	Admins        core.AdminRepository
	Dispatcher    core.EmailDispatcher
	Logger        *slog.Logger
}

// NotifierService fans one lifecycle event out to in-app notification rows and
// a single email dispatch call. A failed recipient lookup is logged and
// skipped; it never aborts the rest of the batch.
type NotifierService struct {
	notifications core.NotificationRepository
	customers     core.CustomerRepository
	employees     core.EmployeeRepository
	admins        core.AdminRepository
	dispatcher    core.EmailDispatcher
	logger        *slog.Logger
}

// NewNotifierService constructs a new NotifierService.
func NewNotifierService(opts NotifierServiceOptions) *NotifierService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NotifierService{
		notifications: opts.Notifications,
		customers:     opts.Customers,
		employees:     opts.Employees,
		admins:        opts.Admins,
		dispatcher:    opts.Dispatcher,
		logger:        logger.With("component", "notifier_service"),
	}
}

// eventCopy is the static per-event-type notification text table.
type eventCopy struct {
	Title    string
	Message  string
	Priority model.Priority
}

var eventCopies = map[model.EventType]eventCopy{
	model.EventRequestCreated: {
		Title:    "New repair request",
		Message:  "A new repair request was submitted and needs assignment.",
		Priority: model.PriorityHigh,
	},
	model.EventRequestAssigned: {
		Title:    "Repair request assigned",
		Message:  "A technician was assigned to the repair request.",
		Priority: model.PriorityNormal,
	},
	model.EventRequestAccepted: {
		Title:    "Repair request accepted",
		Message:  "The technician accepted the repair request.",
		Priority: model.PriorityNormal,
	},
	model.EventRequestRejected: {
		Title:    "Assignment declined",
		Message:  "The technician declined the repair request. It needs reassignment.",
		Priority: model.PriorityHigh,
	},
	model.EventRequestStarted: {
		Title:    "Repair in progress",
		Message:  "Work on the repair request has started.",
		Priority: model.PriorityNormal,
	},
	model.EventRequestOnHold: {
		Title:    "Repair on hold",
		Message:  "The repair request was put on hold.",
		Priority: model.PriorityHigh,
	},
	model.EventRequestCompleted: {
		Title:    "Repair completed",
		Message:  "The repair request was completed.",
		Priority: model.PriorityNormal,
	},
	model.EventRequestCancelled: {
		Title:    "Repair request cancelled",
		Message:  "The repair request was cancelled.",
		Priority: model.PriorityHigh,
	},
}

// HandleEvent resolves the event's recipient categories, writes one
// notification row per recipient, and makes one email dispatch call covering
// all of them.
func (s *NotifierService) HandleEvent(ctx context.Context, ev model.RequestEvent) (core.NotifyOutcome, error) {
	copyText, ok := eventCopies[ev.EventType()]
	if !ok {
		return core.NotifyOutcome{}, fmt.Errorf("no notification copy for event type %q", ev.EventType())
	}

	recipients := s.resolveRecipients(ctx, ev)
	if len(recipients) == 0 {
		s.logger.WarnContext(ctx, "event resolved no recipients",
			"event_type", ev.EventType(),
			"request_id", ev.RequestRef(),
		)
		return core.NotifyOutcome{}, nil
	}

	requestID := ev.RequestRef()
	emailRecipients := make([]core.EmailRecipient, 0, len(recipients))
	for _, r := range recipients {
		notification, err := s.notifications.Create(ctx, &model.CreateNotificationRequest{
			RecipientType: r.RecipientType,
			RecipientID:   r.RecipientID,
			Type:          ev.EventType(),
			Title:         copyText.Title,
			Message:       copyText.Message,
			RequestID:     &requestID,
			Priority:      copyText.Priority,
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "create notification failed, skipping recipient",
				"event_type", ev.EventType(),
				"recipient_type", r.RecipientType,
				"recipient_id", r.RecipientID,
				"error", err,
			)
			continue
		}
		r.NotificationID = notification.ID
		emailRecipients = append(emailRecipients, r)
	}

	if len(emailRecipients) > 0 {
		result, err := s.dispatcher.Dispatch(ctx, core.DispatchBatch{
			Event:      ev,
			Recipients: emailRecipients,
		})
		if err != nil {
			return core.NotifyOutcome{}, fmt.Errorf("dispatch emails: %w", err)
		}
		s.logger.InfoContext(ctx, "event fanned out",
			"event_type", ev.EventType(),
			"request_id", requestID,
			"recipients", len(emailRecipients),
			"emails_sent", result.Sent,
			"emails_failed", result.Failed,
		)
	}

	return core.NotifyOutcome{RecipientCount: len(emailRecipients)}, nil
}

// resolveRecipients maps each event type to its recipient categories and
// resolves names and addresses from the recipient tables.
func (s *NotifierService) resolveRecipients(ctx context.Context, ev model.RequestEvent) []core.EmailRecipient {
	var out []core.EmailRecipient

	switch e := ev.(type) {
	case model.RequestCreatedEvent:
		out = s.appendAdmins(ctx, out, ev)
	case model.RequestAssignedEvent:
		out = s.appendCustomer(ctx, out, ev, e.CustomerID)
		out = s.appendEmployee(ctx, out, ev, e.EmployeeID)
	case model.RequestAcceptedEvent:
		out = s.appendCustomer(ctx, out, ev, e.CustomerID)
		out = s.appendAdmins(ctx, out, ev)
	case model.RequestRejectedEvent:
		out = s.appendAdmins(ctx, out, ev)
	case model.RequestStartedEvent:
		out = s.appendCustomer(ctx, out, ev, e.CustomerID)
	case model.RequestOnHoldEvent:
		out = s.appendCustomer(ctx, out, ev, e.CustomerID)
		out = s.appendAdmins(ctx, out, ev)
	case model.RequestCompletedEvent:
		out = s.appendCustomer(ctx, out, ev, e.CustomerID)
		out = s.appendAdmins(ctx, out, ev)
		out = s.appendEmployee(ctx, out, ev, e.EmployeeID)
	case model.RequestCancelledEvent:
		// Cancellation notifies exactly the request's customer. The formerly
		// assigned employee stays on the event payload but is not a recipient.
		out = s.appendCustomer(ctx, out, ev, e.CustomerID)
	}

	return out
}

func (s *NotifierService) appendCustomer(ctx context.Context, out []core.EmailRecipient, ev model.RequestEvent, customerID string) []core.EmailRecipient {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		s.logLookupFailure(ctx, ev, model.RecipientTypeUser, customerID, err)
		return out
	}
	return append(out, core.EmailRecipient{
		RecipientType: model.RecipientTypeUser,
		RecipientID:   customer.ID,
		Name:          customer.Name,
		Email:         customer.Email,
	})
}

func (s *NotifierService) appendEmployee(ctx context.Context, out []core.EmailRecipient, ev model.RequestEvent, employeeID string) []core.EmailRecipient {
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		s.logLookupFailure(ctx, ev, model.RecipientTypeEmployee, employeeID, err)
		return out
	}
	return append(out, core.EmailRecipient{
		RecipientType: model.RecipientTypeEmployee,
		RecipientID:   employee.ID,
		Name:          employee.Name,
		Email:         employee.Email,
	})
}

func (s *NotifierService) appendAdmins(ctx context.Context, out []core.EmailRecipient, ev model.RequestEvent) []core.EmailRecipient {
	admins, err := s.admins.List(ctx)
	if err != nil {
		s.logLookupFailure(ctx, ev, model.RecipientTypeAdmin, "", err)
		return out
	}
	for _, admin := range admins {
		out = append(out, core.EmailRecipient{
			RecipientType: model.RecipientTypeAdmin,
			RecipientID:   admin.ID,
			Name:          admin.Name,
			Email:         admin.Email,
		})
	}
	return out
}

func (s *NotifierService) logLookupFailure(ctx context.Context, ev model.RequestEvent, recipientType model.RecipientType, recipientID string, err error) {
	s.logger.WarnContext(ctx, "recipient lookup failed, skipping",
		"event_type", ev.EventType(),
		"request_id", ev.RequestRef(),
		"recipient_type", recipientType,
		"recipient_id", recipientID,
		"error", err,
	)
}
