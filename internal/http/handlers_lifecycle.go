package httpx

import (
	"errors"
	"net/http"

	domainauth "github.com/fixpoint/repair-api/internal/domain/auth"
	"github.com/fixpoint/repair-api/internal/domain/model"
)

// Lifecycle handlers drive a repair request through its state machine.
// Admin operations (assign, cancel) name their targets in the request body;
// employee operations act as the signed-in employee, taken from the session.

type assignRequestBody struct {
	EmployeeID string `json:"employee_id"`
}

// Assign handles HTTP requests to assign an employee to a repair request.
// POST /api/requests/{id}/assign.
func (h *RequestHandlers) Assign(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathRequestID(w, r)
	if !ok {
		return
	}

	var body assignRequestBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	if body.EmployeeID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_request",
			Err:     errors.New("employee_id is required"),
		})
		return
	}

	request, err := h.Svc.Assign(r.Context(), requestID, body.EmployeeID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, request)
}

type acceptRequestBody struct {
	ConfirmFirst bool `json:"confirm_first"`
}

// Accept handles HTTP requests for an employee to accept an assignment.
// POST /api/requests/{id}/accept.
func (h *RequestHandlers) Accept(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathRequestID(w, r)
	if !ok {
		return
	}
	employeeID, ok := sessionEmployeeID(w, r)
	if !ok {
		return
	}

	var body acceptRequestBody
	if r.ContentLength != 0 && !DecodeJSON(w, r, &body) {
		return
	}

	request, err := h.Svc.Accept(r.Context(), requestID, employeeID, body.ConfirmFirst)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, request)
}

type rejectRequestBody struct {
	Reason string `json:"reason"`
}

// Reject handles HTTP requests for an employee to decline an assignment.
// POST /api/requests/{id}/reject.
func (h *RequestHandlers) Reject(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathRequestID(w, r)
	if !ok {
		return
	}
	employeeID, ok := sessionEmployeeID(w, r)
	if !ok {
		return
	}

	var body rejectRequestBody
	if r.ContentLength != 0 && !DecodeJSON(w, r, &body) {
		return
	}

	request, err := h.Svc.Reject(r.Context(), requestID, employeeID, body.Reason)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, request)
}

// Start handles HTTP requests for an employee to begin work on a request.
// POST /api/requests/{id}/start.
func (h *RequestHandlers) Start(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathRequestID(w, r)
	if !ok {
		return
	}
	employeeID, ok := sessionEmployeeID(w, r)
	if !ok {
		return
	}

	request, err := h.Svc.Start(r.Context(), requestID, employeeID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, request)
}

// Hold handles HTTP requests to put in-progress work on hold. The assigned
// employee and admins may hold; an admin hold skips the ownership check.
// POST /api/requests/{id}/hold.
func (h *RequestHandlers) Hold(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathRequestID(w, r)
	if !ok {
		return
	}
	session, ok := sessionActor(w, r)
	if !ok {
		return
	}
	employeeID := session.UserID
	if session.Role == domainauth.RoleAdmin {
		employeeID = ""
	}

	var input model.HoldRequestInput
	if !DecodeJSON(w, r, &input) {
		return
	}

	request, err := h.Svc.Hold(r.Context(), requestID, employeeID, input)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, request)
}

// Complete handles HTTP requests for an employee to close out work with a
// completion record.
// POST /api/requests/{id}/complete.
func (h *RequestHandlers) Complete(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathRequestID(w, r)
	if !ok {
		return
	}
	employeeID, ok := sessionEmployeeID(w, r)
	if !ok {
		return
	}

	var completion model.CreateWorkCompletionRequest
	if !DecodeJSON(w, r, &completion) {
		return
	}

	record, err := h.Svc.Complete(r.Context(), requestID, employeeID, &completion)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, record)
}

// Cancel handles HTTP requests to cancel a repair request.
// POST /api/requests/{id}/cancel.
func (h *RequestHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathRequestID(w, r)
	if !ok {
		return
	}

	var input model.CancelRequestInput
	if !DecodeJSON(w, r, &input) {
		return
	}

	request, err := h.Svc.Cancel(r.Context(), requestID, input)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, request)
}

// pathRequestID extracts the {id} path value, writing a 400 when it is absent.
func pathRequestID(w http.ResponseWriter, r *http.Request) (string, bool) {
	requestID := r.PathValue("id")
	if requestID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("request id is required")},
		)
		return "", false
	}
	return requestID, true
}

// sessionEmployeeID resolves the acting employee from the session.
func sessionEmployeeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	session, ok := sessionActor(w, r)
	if !ok {
		return "", false
	}
	return session.UserID, true
}

// sessionActor resolves the signed-in principal. Lifecycle routes sit behind
// RequireRole so a missing session means broken wiring, not a client mistake;
// still answer with 401 rather than panic.
func sessionActor(w http.ResponseWriter, r *http.Request) (*domainauth.Session, bool) {
	session, ok := GetUserSessionFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return nil, false
	}
	return session, true
}
