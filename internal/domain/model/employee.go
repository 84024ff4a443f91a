package model

import "time"

// Employee represents a repair technician who can be assigned requests.
type Employee struct {
	ID        string         `json:"id"         db:"id"`
	Name      string         `json:"name"       db:"name"`
	Email     string         `json:"email"      db:"email"`
	Status    EmployeeStatus `json:"status"     db:"status"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// EmployeeStatus represents an employee's availability.
type EmployeeStatus string

const (
	EmployeeStatusFree    EmployeeStatus = "free"
	EmployeeStatusBusy    EmployeeStatus = "busy"
	EmployeeStatusOffline EmployeeStatus = "offline"
)

// Valid returns true if the employee status is one of the supported values.
func (s EmployeeStatus) Valid() bool {
	switch s {
	case EmployeeStatusFree, EmployeeStatusBusy, EmployeeStatusOffline:
		return true
	default:
		return false
	}
}

// String returns the string representation of the employee status.
func (s EmployeeStatus) String() string {
	return string(s)
}

// Assignable reports whether the employee can accept new work.
func (s EmployeeStatus) Assignable() bool {
	return s == EmployeeStatusFree
}
