// Package httpx provides HTTP handlers and utilities for the repair request API.
package httpx

import (
	"errors"
	"net/http"

	domainauth "github.com/fixpoint/repair-api/internal/domain/auth"
	"github.com/fixpoint/repair-api/internal/domain/model"
	"github.com/fixpoint/repair-api/internal/service"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// RequestHandlers provides HTTP handlers for repair request operations.
type RequestHandlers struct {
	Svc *service.RequestService
}

// Submit handles HTTP requests to create a new repair request.
// POST /api/requests.
func (h *RequestHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRepairRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	// Customers always submit for themselves; only admins may submit on
	// behalf of another customer.
	session := GetSessionFromContext(r.Context())
	if session != nil && session.Role != domainauth.RoleAdmin {
		req.CustomerID = session.UserID
	}

	request, err := h.Svc.Submit(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, request)
}

// List handles HTTP requests to list repair requests.
// GET /api/requests?status=<status>&limit=<n>&offset=<n>.
func (h *RequestHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := &model.RequestListOptions{
		Limit:  limit,
		Offset: offset,
	}
	if status := r.URL.Query().Get("status"); status != "" {
		if !model.RequestStatus(status).Valid() {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_status",
				Err:     errors.New("unknown status filter"),
			})
			return
		}
		opts.Status = &status
	}

	// Non-admin portals only see their own requests.
	session := GetSessionFromContext(r.Context())
	switch {
	case session == nil:
	case session.Role == domainauth.RoleEmployee:
		opts.AssignedTo = &session.UserID
	case session.Role != domainauth.RoleAdmin:
		opts.CustomerID = &session.UserID
	}

	requests, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, requests)
}

// GetByID handles HTTP requests to retrieve a single repair request.
// GET /api/requests/{id}.
func (h *RequestHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if requestID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("request id is required")},
		)
		return
	}

	request, err := h.Svc.GetByID(r.Context(), requestID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if !canViewRequest(GetSessionFromContext(r.Context()), request) {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "insufficient_permissions",
			Err:     errors.New("insufficient permissions"),
		})
		return
	}
	WriteJSON(w, http.StatusOK, request)
}

// GetCompletion handles HTTP requests to retrieve a request's work completion.
// GET /api/requests/{id}/completion.
func (h *RequestHandlers) GetCompletion(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if requestID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("request id is required")},
		)
		return
	}

	request, err := h.Svc.GetByID(r.Context(), requestID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if !canViewRequest(GetSessionFromContext(r.Context()), request) {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "insufficient_permissions",
			Err:     errors.New("insufficient permissions"),
		})
		return
	}

	completion, err := h.Svc.GetCompletion(r.Context(), requestID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, completion)
}

// ListAssignable handles HTTP requests to list employees eligible for a request.
// GET /api/requests/{id}/assignable-employees.
func (h *RequestHandlers) ListAssignable(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("id")
	if requestID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("request id is required")},
		)
		return
	}
	limit, _ := ParseLimitOffset(r, defaultListLimit, maxListLimit)

	employees, err := h.Svc.ListAssignable(r.Context(), requestID, limit)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, employees)
}

// canViewRequest reports whether a session may read the given request.
// Admins see everything; customers their own submissions; employees the
// requests assigned to them.
func canViewRequest(session *domainauth.Session, request *model.RepairRequest) bool {
	if session == nil {
		// Auth middleware is absent (tests, internal wiring); do not filter.
		return true
	}
	switch session.Role {
	case domainauth.RoleAdmin:
		return true
	case domainauth.RoleEmployee:
		return request.AssignedTo != nil && *request.AssignedTo == session.UserID
	case domainauth.RoleUser:
		return request.CustomerID == session.UserID
	default:
		return false
	}
}
