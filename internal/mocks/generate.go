// Package mocks provides mock implementations for testing the repair request system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockRequestRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(request, nil)
package mocks

// Generate mock for RequestRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=request_repository_mock.go github.com/fixpoint/repair-api/internal/core RequestRepository

// Generate mock for EmployeeRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=employee_repository_mock.go github.com/fixpoint/repair-api/internal/core EmployeeRepository

// Generate mocks for the recipient lookup repositories from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=recipient_repositories_mock.go github.com/fixpoint/repair-api/internal/core CustomerRepository,AdminRepository

// Generate mock for NotificationRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=notification_repository_mock.go github.com/fixpoint/repair-api/internal/core NotificationRepository

// Generate mock for EmailRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=email_repository_mock.go github.com/fixpoint/repair-api/internal/core EmailRepository

// Generate mock for OutboxRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=outbox_repository_mock.go github.com/fixpoint/repair-api/internal/core OutboxRepository

// Generate mocks for the dispatch ports from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=dispatch_mock.go github.com/fixpoint/repair-api/internal/core EventNotifier,EmailDispatcher,EmailSender
