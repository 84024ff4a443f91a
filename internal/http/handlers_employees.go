package httpx

import (
	"errors"
	"net/http"

	"github.com/fixpoint/repair-api/internal/service"
)

// EmployeeHandlers provides admin-facing HTTP handlers for the employee roster.
type EmployeeHandlers struct {
	Svc *service.EmployeeService
}

// List handles HTTP requests to list employees.
// GET /api/employees?limit=<n>&offset=<n>.
func (h *EmployeeHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)

	employees, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, employees)
}

// GetByID handles HTTP requests to fetch a single employee.
// GET /api/employees/{id}.
func (h *EmployeeHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	employeeID := r.PathValue("id")
	if employeeID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("employee id is required")},
		)
		return
	}

	employee, err := h.Svc.GetByID(r.Context(), employeeID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, employee)
}
