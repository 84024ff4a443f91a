package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// Repair request repository sentinels.
	ErrRequestNotFound = errors.New("repair request not found")
	// ErrRequestConflict is returned when a conditional status update matches
	// no row because another actor transitioned the request first.
	ErrRequestConflict = errors.New("repair request status changed concurrently")

	// Completion sentinels.
	ErrCompletionNotFound = errors.New("work completion not found")

	// Directory sentinels.
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrCustomerNotFound = errors.New("customer not found")

	// Notification sentinels.
	ErrNotificationNotFound = errors.New("notification not found")
	ErrEmailNotFound        = errors.New("email notification not found")
)
