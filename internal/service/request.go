package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fixpoint/repair-api/internal/core"
	"github.com/fixpoint/repair-api/internal/data"
	"github.com/fixpoint/repair-api/internal/domain/model"
	apperrors "github.com/fixpoint/repair-api/internal/errors"
)

// RequestServiceOptions groups dependencies for RequestService.
type RequestServiceOptions struct {
	Requests  core.RequestRepository
	Employees core.EmployeeRepository
	Customers core.CustomerRepository
	Logger    *slog.Logger
}

// RequestService orchestrates the repair request lifecycle. Every mutation
// builds the lifecycle event the repository persists atomically with the row
// change; the outbox drainer fans it out later.
type RequestService struct {
	requests  core.RequestRepository
	employees core.EmployeeRepository
	customers core.CustomerRepository
	logger    *slog.Logger
}

// NewRequestService constructs a new RequestService.
func NewRequestService(opts RequestServiceOptions) *RequestService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestService{
		requests:  opts.Requests,
		employees: opts.Employees,
		customers: opts.Customers,
		logger:    logger.With("component", "request_service"),
	}
}

// Submit creates a new repair request in pending state on behalf of a customer.
func (s *RequestService) Submit(ctx context.Context, req *model.CreateRepairRequest) (*model.RepairRequest, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	customer, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, mapLifecycleError(err)
	}

	request, err := s.requests.Create(ctx, core.CreateRequestParams{
		Request: req,
		Event: model.RequestCreatedEvent{
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			ServiceType:  req.ServiceType,
		},
	})
	if err != nil {
		return nil, mapLifecycleError(err)
	}

	s.logger.InfoContext(ctx, "repair request submitted",
		"request_id", request.ID,
		"customer_id", customer.ID,
		"service_type", request.ServiceType,
	)
	return request, nil
}

// GetByID retrieves a repair request.
func (s *RequestService) GetByID(ctx context.Context, id string) (*model.RepairRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, mapLifecycleError(err)
	}
	return request, nil
}

// List returns a page of repair requests matching the options.
func (s *RequestService) List(ctx context.Context, opts *model.RequestListOptions) ([]*model.RepairRequest, error) {
	return s.requests.List(ctx, opts)
}

// ListAssignable returns employees eligible for assignment to a request:
// currently free and not the one who last rejected it.
func (s *RequestService) ListAssignable(ctx context.Context, requestID string, limit int) ([]*model.Employee, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, mapLifecycleError(err)
	}
	return s.employees.ListAssignable(ctx, core.ListAssignableParams{
		ExcludeID: request.RejectedBy,
		Limit:     limit,
	})
}

// Assign assigns a free employee to a pending request. The employee who last
// rejected the request is not eligible.
func (s *RequestService) Assign(ctx context.Context, requestID, employeeID string) (*model.RepairRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, mapLifecycleError(err)
	}
	if request.Status != model.RequestStatusPending {
		return nil, apperrors.Conflictf("Repair request is %s, not pending", request.Status)
	}
	if request.RejectedBy != nil && *request.RejectedBy == employeeID {
		return nil, apperrors.Validation("Employee previously rejected this request")
	}

	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, mapLifecycleError(err)
	}
	if employee.Status != model.EmployeeStatusFree {
		return nil, apperrors.Conflictf("Employee is %s, not free", employee.Status)
	}

	updated, err := s.requests.Assign(ctx, core.AssignRequestParams{
		RequestID:  requestID,
		EmployeeID: employeeID,
		Event: model.RequestAssignedEvent{
			RequestID:    requestID,
			CustomerID:   request.CustomerID,
			EmployeeID:   employee.ID,
			EmployeeName: employee.Name,
			ServiceType:  request.ServiceType,
		},
	})
	if err != nil {
		return nil, mapLifecycleError(err)
	}

	s.logger.InfoContext(ctx, "repair request assigned",
		"request_id", requestID,
		"employee_id", employeeID,
	)
	return updated, nil
}

// Accept records the assigned employee accepting the work. When confirmFirst
// is set the request parks in pending-confirmation; otherwise work starts
// immediately. Either way the employee flips to busy.
func (s *RequestService) Accept(ctx context.Context, requestID, employeeID string, confirmFirst bool) (*model.RepairRequest, error) {
	request, employee, err := s.loadAssigned(ctx, requestID, employeeID)
	if err != nil {
		return nil, err
	}

	target := model.RequestStatusInProgress
	if confirmFirst {
		target = model.RequestStatusPendingConfirmation
	}

	busy := model.EmployeeStatusBusy
	updated, err := s.requests.Transition(ctx, core.TransitionRequestParams{
		RequestID:      requestID,
		From:           model.RequestStatusAssigned,
		To:             target,
		EmployeeID:     &employee.ID,
		EmployeeStatus: &busy,
		Event: model.RequestAcceptedEvent{
			RequestID:    requestID,
			CustomerID:   request.CustomerID,
			EmployeeID:   employee.ID,
			EmployeeName: employee.Name,
		},
	})
	if err != nil {
		return nil, mapLifecycleError(err)
	}

	s.logger.InfoContext(ctx, "repair request accepted",
		"request_id", requestID,
		"employee_id", employeeID,
		"status", updated.Status,
	)
	return updated, nil
}

// Reject returns an assigned request to the pending pool and records the
// rejecting employee so reassignment can exclude them.
func (s *RequestService) Reject(ctx context.Context, requestID, employeeID, reason string) (*model.RepairRequest, error) {
	_, employee, err := s.loadAssigned(ctx, requestID, employeeID)
	if err != nil {
		return nil, err
	}

	updated, err := s.requests.Transition(ctx, core.TransitionRequestParams{
		RequestID:     requestID,
		From:          model.RequestStatusAssigned,
		To:            model.RequestStatusPending,
		ClearAssignee: true,
		RejectedBy:    &employee.ID,
		Event: model.RequestRejectedEvent{
			RequestID:    requestID,
			EmployeeID:   employee.ID,
			EmployeeName: employee.Name,
			Reason:       reason,
		},
	})
	if err != nil {
		return nil, mapLifecycleError(err)
	}

	s.logger.InfoContext(ctx, "repair request rejected",
		"request_id", requestID,
		"employee_id", employeeID,
	)
	return updated, nil
}

// Start moves a request into in-progress. It covers both the
// pending-confirmation entry point and resuming from on_hold.
func (s *RequestService) Start(ctx context.Context, requestID, employeeID string) (*model.RepairRequest, error) {
	request, employee, err := s.loadOwned(ctx, requestID, employeeID)
	if err != nil {
		return nil, err
	}

	switch request.Status {
	case model.RequestStatusPendingConfirmation, model.RequestStatusAssigned, model.RequestStatusOnHold:
	default:
		return nil, apperrors.Conflictf("Repair request is %s and cannot be started", request.Status)
	}

	params := core.TransitionRequestParams{
		RequestID: requestID,
		From:      request.Status,
		To:        model.RequestStatusInProgress,
		Event: model.RequestStartedEvent{
			RequestID:    requestID,
			CustomerID:   request.CustomerID,
			EmployeeName: employee.Name,
		},
	}
	// Starting straight from assigned skips the accept step, so the busy flip
	// happens here instead.
	if request.Status == model.RequestStatusAssigned {
		busy := model.EmployeeStatusBusy
		params.EmployeeID = &employee.ID
		params.EmployeeStatus = &busy
	}

	updated, err := s.requests.Transition(ctx, params)
	if err != nil {
		return nil, mapLifecycleError(err)
	}

	s.logger.InfoContext(ctx, "repair request started",
		"request_id", requestID,
		"employee_id", employeeID,
	)
	return updated, nil
}

// Hold pauses an in-progress request with a reason. An empty employeeID is a
// dispatcher hold: admins may pause any request, so no ownership is enforced.
func (s *RequestService) Hold(ctx context.Context, requestID, employeeID string, input model.HoldRequestInput) (*model.RepairRequest, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var request *model.RepairRequest
	var err error
	if employeeID == "" {
		request, err = s.requests.GetByID(ctx, requestID)
		if err != nil {
			return nil, mapLifecycleError(err)
		}
	} else {
		request, _, err = s.loadOwned(ctx, requestID, employeeID)
		if err != nil {
			return nil, err
		}
	}
	if request.Status != model.RequestStatusInProgress {
		return nil, apperrors.Conflictf("Repair request is %s, not in-progress", request.Status)
	}

	updated, err := s.requests.Transition(ctx, core.TransitionRequestParams{
		RequestID:  requestID,
		From:       model.RequestStatusInProgress,
		To:         model.RequestStatusOnHold,
		HoldReason: &input.Reason,
		Event: model.RequestOnHoldEvent{
			RequestID:  requestID,
			CustomerID: request.CustomerID,
			Reason:     input.Reason,
			Details:    input.Details,
		},
	})
	if err != nil {
		return nil, mapLifecycleError(err)
	}

	s.logger.InfoContext(ctx, "repair request put on hold",
		"request_id", requestID,
		"reason", input.Reason,
	)
	return updated, nil
}

// Complete finishes an in-progress request. The repository records the work
// completion with the payment split and frees the employee in one transaction.
func (s *RequestService) Complete(ctx context.Context, requestID, employeeID string, completion *model.CreateWorkCompletionRequest) (*model.WorkCompletion, error) {
	completion.Normalize()
	if err := completion.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	request, employee, err := s.loadOwned(ctx, requestID, employeeID)
	if err != nil {
		return nil, err
	}
	if request.Status != model.RequestStatusInProgress {
		return nil, apperrors.Conflictf("Repair request is %s, not in-progress", request.Status)
	}

	result, err := s.requests.Complete(ctx, core.CompleteRequestParams{
		RequestID:  requestID,
		EmployeeID: employeeID,
		Completion: completion,
		Event: model.RequestCompletedEvent{
			RequestID:    requestID,
			CustomerID:   request.CustomerID,
			EmployeeID:   employee.ID,
			EmployeeName: employee.Name,
			TotalAmount:  completion.TotalPaymentAmount,
		},
	})
	if err != nil {
		return nil, mapLifecycleError(err)
	}

	s.logger.InfoContext(ctx, "repair request completed",
		"request_id", requestID,
		"employee_id", employeeID,
		"total_amount", completion.TotalPaymentAmount,
	)
	return result, nil
}

// GetCompletion retrieves the work completion attached to a request.
func (s *RequestService) GetCompletion(ctx context.Context, requestID string) (*model.WorkCompletion, error) {
	completion, err := s.requests.GetCompletion(ctx, requestID)
	if err != nil {
		return nil, mapLifecycleError(err)
	}
	return completion, nil
}

// Cancel cancels a request from any non-terminal state. A busy assignee is
// freed in the same transaction.
func (s *RequestService) Cancel(ctx context.Context, requestID string, input model.CancelRequestInput) (*model.RepairRequest, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, mapLifecycleError(err)
	}
	if request.Status.Terminal() {
		return nil, apperrors.Conflictf("Repair request is already %s", request.Status)
	}

	params := core.TransitionRequestParams{
		RequestID:     requestID,
		From:          request.Status,
		To:            model.RequestStatusCancelled,
		ClearAssignee: true,
		CancelReason:  &input.Reason,
		Event: model.RequestCancelledEvent{
			RequestID:  requestID,
			CustomerID: request.CustomerID,
			EmployeeID: request.AssignedTo,
			Reason:     input.Reason,
		},
	}
	// An assignee who accepted is busy on this request; release them.
	if request.AssignedTo != nil && busyStatus(request.Status) {
		free := model.EmployeeStatusFree
		params.EmployeeID = request.AssignedTo
		params.EmployeeStatus = &free
	}

	updated, err := s.requests.Transition(ctx, params)
	if err != nil {
		return nil, mapLifecycleError(err)
	}

	s.logger.InfoContext(ctx, "repair request cancelled",
		"request_id", requestID,
		"reason", input.Reason,
	)
	return updated, nil
}

// loadAssigned fetches the request and employee, requiring the request to be
// assigned to that employee and still awaiting their response.
func (s *RequestService) loadAssigned(ctx context.Context, requestID, employeeID string) (*model.RepairRequest, *model.Employee, error) {
	request, employee, err := s.loadOwned(ctx, requestID, employeeID)
	if err != nil {
		return nil, nil, err
	}
	if request.Status != model.RequestStatusAssigned {
		return nil, nil, apperrors.Conflictf("Repair request is %s, not assigned", request.Status)
	}
	return request, employee, nil
}

// loadOwned fetches the request and employee, requiring the request to be
// assigned to that employee.
func (s *RequestService) loadOwned(ctx context.Context, requestID, employeeID string) (*model.RepairRequest, *model.Employee, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, mapLifecycleError(err)
	}
	if request.AssignedTo == nil || *request.AssignedTo != employeeID {
		return nil, nil, apperrors.Conflict("Repair request is not assigned to this employee")
	}

	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, nil, mapLifecycleError(err)
	}
	return request, employee, nil
}

// busyStatus reports whether a request status implies its assignee accepted
// the work and is therefore busy.
func busyStatus(status model.RequestStatus) bool {
	switch status {
	case model.RequestStatusPendingConfirmation, model.RequestStatusInProgress, model.RequestStatusOnHold:
		return true
	default:
		return false
	}
}

// mapLifecycleError translates data-layer sentinels into the AppError taxonomy
// the HTTP layer renders.
func mapLifecycleError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, data.ErrRequestNotFound):
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, "Repair request not found")
	case errors.Is(err, data.ErrRequestConflict):
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, "Repair request changed concurrently")
	case errors.Is(err, data.ErrCompletionNotFound):
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, "Work completion not found")
	case errors.Is(err, data.ErrEmployeeNotFound):
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, "Employee not found")
	case errors.Is(err, data.ErrCustomerNotFound):
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, "Customer not found")
	default:
		return fmt.Errorf("request lifecycle: %w", err)
	}
}
