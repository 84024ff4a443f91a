package httpx

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fixpoint/repair-api/internal/core"
	"github.com/fixpoint/repair-api/internal/data"
	domainauth "github.com/fixpoint/repair-api/internal/domain/auth"
	"github.com/fixpoint/repair-api/internal/domain/model"
	"github.com/fixpoint/repair-api/internal/mocks"
	"github.com/fixpoint/repair-api/internal/service"
)

const (
	testRequestID  = "request-123"
	testCustomerID = "customer-123"
	testEmployeeID = "employee-123"
)

type requestHandlerMocks struct {
	requests  *mocks.MockRequestRepository
	employees *mocks.MockEmployeeRepository
	customers *mocks.MockCustomerRepository
}

func newRequestHandlers(t *testing.T) (requestHandlerMocks, *RequestHandlers) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := requestHandlerMocks{
		requests:  mocks.NewMockRequestRepository(ctrl),
		employees: mocks.NewMockEmployeeRepository(ctrl),
		customers: mocks.NewMockCustomerRepository(ctrl),
	}
	svc := service.NewRequestService(service.RequestServiceOptions{
		Requests:  m.requests,
		Employees: m.employees,
		Customers: m.customers,
	})
	return m, &RequestHandlers{Svc: svc}
}

func sessionContext(ctx context.Context, role domainauth.Role, userID string) context.Context {
	return SetSessionInContext(ctx, &domainauth.Session{
		ID:        "session-1",
		UserID:    userID,
		Role:      role,
		ExpiresAt: time.Now().Add(time.Hour),
	})
}

func handlerRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	return r
}

func notFoundRequestErr() error {
	// Repositories surface the sentinel; the service maps it to a 404.
	return data.ErrRequestNotFound
}

func customerFixture() *model.Customer {
	return &model.Customer{ID: testCustomerID, Name: "Ada Fields", Email: "ada.fields@example.com"}
}

func requestFixture(status model.RequestStatus) *model.RepairRequest {
	return &model.RepairRequest{
		ID:          testRequestID,
		CustomerID:  testCustomerID,
		DeviceType:  "laptop",
		Brand:       "Lenovo",
		Model:       "T14",
		Issue:       "does not power on",
		ServiceType: "diagnostics",
		Status:      status,
	}
}

func assignedFixture(status model.RequestStatus) *model.RepairRequest {
	r := requestFixture(status)
	assignee := testEmployeeID
	r.AssignedTo = &assignee
	return r
}

func TestRequestHandlers_Submit(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	m.customers.EXPECT().GetByID(gomock.Any(), testCustomerID).Return(customerFixture(), nil)
	m.requests.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.CreateRequestParams) (*model.RepairRequest, error) {
			assert.Equal(t, testCustomerID, params.Request.CustomerID)
			assert.Equal(t, "laptop", params.Request.DeviceType)
			return requestFixture(model.RequestStatusPending), nil
		})

	body := `{"device_type":"laptop","brand":"Lenovo","model":"T14","issue":"does not power on","service_type":"diagnostics"}`
	r := handlerRequest(t, http.MethodPost, "/api/requests", body)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleUser, testCustomerID))
	w := httptest.NewRecorder()

	h.Submit(w, r)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), testRequestID)
}

func TestRequestHandlers_Submit_AdminOnBehalf(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	m.customers.EXPECT().GetByID(gomock.Any(), testCustomerID).Return(customerFixture(), nil)
	m.requests.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(requestFixture(model.RequestStatusPending), nil)

	body := `{"customer_id":"customer-123","device_type":"laptop","issue":"does not power on","service_type":"diagnostics"}`
	r := handlerRequest(t, http.MethodPost, "/api/requests", body)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleAdmin, "admin-1"))
	w := httptest.NewRecorder()

	h.Submit(w, r)

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestRequestHandlers_Submit_InvalidJSON(t *testing.T) {
	t.Parallel()
	_, h := newRequestHandlers(t)

	r := handlerRequest(t, http.MethodPost, "/api/requests", `{"device_type":`)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleUser, testCustomerID))
	w := httptest.NewRecorder()

	h.Submit(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_json")
}

func TestRequestHandlers_Submit_ValidationError(t *testing.T) {
	t.Parallel()
	_, h := newRequestHandlers(t)

	r := handlerRequest(t, http.MethodPost, "/api/requests", `{"device_type":"laptop"}`)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleUser, testCustomerID))
	w := httptest.NewRecorder()

	h.Submit(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation")
}

func TestRequestHandlers_List_CustomerScoped(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	m.requests.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts *model.RequestListOptions) ([]*model.RepairRequest, error) {
			require.NotNil(t, opts.CustomerID)
			assert.Equal(t, testCustomerID, *opts.CustomerID)
			assert.Nil(t, opts.AssignedTo)
			return []*model.RepairRequest{requestFixture(model.RequestStatusPending)}, nil
		})

	r := handlerRequest(t, http.MethodGet, "/api/requests", "")
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleUser, testCustomerID))
	w := httptest.NewRecorder()

	h.List(w, r)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequestHandlers_List_EmployeeScoped(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	m.requests.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts *model.RequestListOptions) ([]*model.RepairRequest, error) {
			require.NotNil(t, opts.AssignedTo)
			assert.Equal(t, testEmployeeID, *opts.AssignedTo)
			return nil, nil
		})

	r := handlerRequest(t, http.MethodGet, "/api/requests", "")
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleEmployee, testEmployeeID))
	w := httptest.NewRecorder()

	h.List(w, r)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequestHandlers_List_StatusFilter(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	m.requests.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, opts *model.RequestListOptions) ([]*model.RepairRequest, error) {
			require.NotNil(t, opts.Status)
			assert.Equal(t, "pending", *opts.Status)
			assert.Nil(t, opts.CustomerID)
			return nil, nil
		})

	r := handlerRequest(t, http.MethodGet, "/api/requests?status=pending", "")
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleAdmin, "admin-1"))
	w := httptest.NewRecorder()

	h.List(w, r)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequestHandlers_List_UnknownStatus(t *testing.T) {
	t.Parallel()
	_, h := newRequestHandlers(t)

	r := handlerRequest(t, http.MethodGet, "/api/requests?status=bogus", "")
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleAdmin, "admin-1"))
	w := httptest.NewRecorder()

	h.List(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_status")
}

func TestRequestHandlers_GetByID_NotFound(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	m.requests.EXPECT().GetByID(gomock.Any(), "missing").
		Return(nil, notFoundRequestErr())

	r := handlerRequest(t, http.MethodGet, "/api/requests/missing", "")
	r.SetPathValue("id", "missing")
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleAdmin, "admin-1"))
	w := httptest.NewRecorder()

	h.GetByID(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestHandlers_GetByID_ForbiddenForOtherCustomer(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	m.requests.EXPECT().GetByID(gomock.Any(), testRequestID).
		Return(requestFixture(model.RequestStatusPending), nil)

	r := handlerRequest(t, http.MethodGet, "/api/requests/"+testRequestID, "")
	r.SetPathValue("id", testRequestID)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleUser, "customer-999"))
	w := httptest.NewRecorder()

	h.GetByID(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestHandlers_GetByID_AssignedEmployee(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	m.requests.EXPECT().GetByID(gomock.Any(), testRequestID).
		Return(assignedFixture(model.RequestStatusAssigned), nil)

	r := handlerRequest(t, http.MethodGet, "/api/requests/"+testRequestID, "")
	r.SetPathValue("id", testRequestID)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleEmployee, testEmployeeID))
	w := httptest.NewRecorder()

	h.GetByID(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestHandlers_Assign(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	m.requests.EXPECT().GetByID(gomock.Any(), testRequestID).
		Return(requestFixture(model.RequestStatusPending), nil)
	m.employees.EXPECT().GetByID(gomock.Any(), testEmployeeID).
		Return(&model.Employee{ID: testEmployeeID, Name: "Ray Ortega", Status: model.EmployeeStatusFree}, nil)
	m.requests.EXPECT().Assign(gomock.Any(), gomock.Any()).
		Return(assignedFixture(model.RequestStatusAssigned), nil)

	r := handlerRequest(t, http.MethodPost, "/api/requests/"+testRequestID+"/assign", `{"employee_id":"employee-123"}`)
	r.SetPathValue("id", testRequestID)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleAdmin, "admin-1"))
	w := httptest.NewRecorder()

	h.Assign(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"assigned"`)
}

func TestRequestHandlers_Assign_MissingEmployeeID(t *testing.T) {
	t.Parallel()
	_, h := newRequestHandlers(t)

	r := handlerRequest(t, http.MethodPost, "/api/requests/"+testRequestID+"/assign", `{}`)
	r.SetPathValue("id", testRequestID)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleAdmin, "admin-1"))
	w := httptest.NewRecorder()

	h.Assign(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandlers_Accept_UsesSessionEmployee(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	m.requests.EXPECT().GetByID(gomock.Any(), testRequestID).
		Return(assignedFixture(model.RequestStatusAssigned), nil)
	m.employees.EXPECT().GetByID(gomock.Any(), testEmployeeID).
		Return(&model.Employee{ID: testEmployeeID, Name: "Ray Ortega", Status: model.EmployeeStatusFree}, nil)
	m.requests.EXPECT().Transition(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.TransitionRequestParams) (*model.RepairRequest, error) {
			require.NotNil(t, params.EmployeeID)
			assert.Equal(t, testEmployeeID, *params.EmployeeID)
			assert.Equal(t, model.RequestStatusInProgress, params.To)
			return assignedFixture(model.RequestStatusInProgress), nil
		})

	r := handlerRequest(t, http.MethodPost, "/api/requests/"+testRequestID+"/accept", `{"confirm_first":false}`)
	r.SetPathValue("id", testRequestID)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleEmployee, testEmployeeID))
	w := httptest.NewRecorder()

	h.Accept(w, r)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequestHandlers_Accept_EmptyBody(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	m.requests.EXPECT().GetByID(gomock.Any(), testRequestID).
		Return(assignedFixture(model.RequestStatusAssigned), nil)
	m.employees.EXPECT().GetByID(gomock.Any(), testEmployeeID).
		Return(&model.Employee{ID: testEmployeeID, Name: "Ray Ortega", Status: model.EmployeeStatusFree}, nil)
	m.requests.EXPECT().Transition(gomock.Any(), gomock.Any()).
		Return(assignedFixture(model.RequestStatusInProgress), nil)

	r := handlerRequest(t, http.MethodPost, "/api/requests/"+testRequestID+"/accept", "")
	r.SetPathValue("id", testRequestID)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleEmployee, testEmployeeID))
	w := httptest.NewRecorder()

	h.Accept(w, r)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequestHandlers_Accept_NotAssignedToCaller(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	m.requests.EXPECT().GetByID(gomock.Any(), testRequestID).
		Return(assignedFixture(model.RequestStatusAssigned), nil)

	r := handlerRequest(t, http.MethodPost, "/api/requests/"+testRequestID+"/accept", "")
	r.SetPathValue("id", testRequestID)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleEmployee, "employee-999"))
	w := httptest.NewRecorder()

	h.Accept(w, r)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRequestHandlers_Hold_MissingReason(t *testing.T) {
	t.Parallel()
	_, h := newRequestHandlers(t)

	r := handlerRequest(t, http.MethodPost, "/api/requests/"+testRequestID+"/hold", `{}`)
	r.SetPathValue("id", testRequestID)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleEmployee, testEmployeeID))
	w := httptest.NewRecorder()

	h.Hold(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandlers_Hold_AdminOnAnyAssignee(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	// The request is assigned to an employee, yet the admin may hold it; no
	// employee lookup happens for an admin actor.
	m.requests.EXPECT().GetByID(gomock.Any(), testRequestID).
		Return(assignedFixture(model.RequestStatusInProgress), nil)
	m.requests.EXPECT().Transition(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.TransitionRequestParams) (*model.RepairRequest, error) {
			assert.Equal(t, model.RequestStatusOnHold, params.To)
			return assignedFixture(model.RequestStatusOnHold), nil
		})

	body := `{"reason":"customer unreachable","details":"voicemail left twice"}`
	r := handlerRequest(t, http.MethodPost, "/api/requests/"+testRequestID+"/hold", body)
	r.SetPathValue("id", testRequestID)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleAdmin, "admin-1"))
	w := httptest.NewRecorder()

	h.Hold(w, r)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequestHandlers_Complete(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	m.requests.EXPECT().GetByID(gomock.Any(), testRequestID).
		Return(assignedFixture(model.RequestStatusInProgress), nil)
	m.employees.EXPECT().GetByID(gomock.Any(), testEmployeeID).
		Return(&model.Employee{ID: testEmployeeID, Name: "Ray Ortega", Status: model.EmployeeStatusBusy}, nil)
	m.requests.EXPECT().Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params core.CompleteRequestParams) (*model.WorkCompletion, error) {
			assert.Equal(t, "Replaced power supply", params.Completion.Title)
			return &model.WorkCompletion{ID: "completion-1", RequestID: testRequestID}, nil
		})

	body := `{"title":"Replaced power supply","total_payment_amount":120.50,"payment_method":"card"}`
	r := handlerRequest(t, http.MethodPost, "/api/requests/"+testRequestID+"/complete", body)
	r.SetPathValue("id", testRequestID)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleEmployee, testEmployeeID))
	w := httptest.NewRecorder()

	h.Complete(w, r)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "completion-1")
}

func TestRequestHandlers_Cancel_Conflict(t *testing.T) {
	t.Parallel()
	m, h := newRequestHandlers(t)

	m.requests.EXPECT().GetByID(gomock.Any(), testRequestID).
		Return(requestFixture(model.RequestStatusCompleted), nil)

	body := `{"title":"Customer withdrew","reason":"no longer needed","details":"called in"}`
	r := handlerRequest(t, http.MethodPost, "/api/requests/"+testRequestID+"/cancel", body)
	r.SetPathValue("id", testRequestID)
	r = r.WithContext(sessionContext(r.Context(), domainauth.RoleAdmin, "admin-1"))
	w := httptest.NewRecorder()

	h.Cancel(w, r)

	assert.Equal(t, http.StatusConflict, w.Code)
}
