// Package testutil provides testing utilities and helpers for the repair request system.
package testutil

import (
	"github.com/fixpoint/repair-api/internal/domain/model"
)

// RepairRequestBuilder provides a fluent interface for building CreateRepairRequest objects for testing.
type RepairRequestBuilder struct {
	req *model.CreateRepairRequest
}

// NewRepairRequest creates a new RepairRequestBuilder with sensible defaults.
func NewRepairRequest(customerID string) *RepairRequestBuilder {
	return &RepairRequestBuilder{
		req: &model.CreateRepairRequest{
			CustomerID:  customerID,
			DeviceType:  "laptop",
			Brand:       "Lenovo",
			Model:       "ThinkPad X1",
			Issue:       "Does not power on",
			ServiceType: "diagnostics",
		},
	}
}

// WithDeviceType sets the device type.
func (b *RepairRequestBuilder) WithDeviceType(deviceType string) *RepairRequestBuilder {
	b.req.DeviceType = deviceType
	return b
}

// WithBrand sets the brand.
func (b *RepairRequestBuilder) WithBrand(brand string) *RepairRequestBuilder {
	b.req.Brand = brand
	return b
}

// WithModel sets the model.
func (b *RepairRequestBuilder) WithModel(deviceModel string) *RepairRequestBuilder {
	b.req.Model = deviceModel
	return b
}

// WithSerialNumber sets the serial number.
func (b *RepairRequestBuilder) WithSerialNumber(serialNumber string) *RepairRequestBuilder {
	b.req.SerialNumber = &serialNumber
	return b
}

// WithIssue sets the issue description.
func (b *RepairRequestBuilder) WithIssue(issue string) *RepairRequestBuilder {
	b.req.Issue = issue
	return b
}

// WithServiceType sets the service type.
func (b *RepairRequestBuilder) WithServiceType(serviceType string) *RepairRequestBuilder {
	b.req.ServiceType = serviceType
	return b
}

// Build returns the constructed CreateRepairRequest.
func (b *RepairRequestBuilder) Build() *model.CreateRepairRequest {
	return b.req
}

// CompletionBuilder provides a fluent interface for building CreateWorkCompletionRequest objects for testing.
type CompletionBuilder struct {
	req *model.CreateWorkCompletionRequest
}

// NewCompletion creates a new CompletionBuilder with sensible defaults.
func NewCompletion() *CompletionBuilder {
	return &CompletionBuilder{
		req: &model.CreateWorkCompletionRequest{
			Title:              "Replaced power supply",
			Details:            "Swapped the failed PSU and verified boot.",
			TotalPaymentAmount: 120.00,
			PaymentMethod:      "card",
			PaymentStatus:      "paid",
		},
	}
}

// WithTitle sets the completion title.
func (b *CompletionBuilder) WithTitle(title string) *CompletionBuilder {
	b.req.Title = title
	return b
}

// WithDetails sets the completion details.
func (b *CompletionBuilder) WithDetails(details string) *CompletionBuilder {
	b.req.Details = details
	return b
}

// WithAmount sets the total payment amount.
func (b *CompletionBuilder) WithAmount(amount float64) *CompletionBuilder {
	b.req.TotalPaymentAmount = amount
	return b
}

// WithPaymentMethod sets the payment method.
func (b *CompletionBuilder) WithPaymentMethod(method string) *CompletionBuilder {
	b.req.PaymentMethod = method
	return b
}

// WithPaymentStatus sets the payment status.
func (b *CompletionBuilder) WithPaymentStatus(status string) *CompletionBuilder {
	b.req.PaymentStatus = status
	return b
}

// Build returns the constructed CreateWorkCompletionRequest.
func (b *CompletionBuilder) Build() *model.CreateWorkCompletionRequest {
	return b.req
}

// NotificationBuilder provides a fluent interface for building CreateNotificationRequest objects for testing.
type NotificationBuilder struct {
	req *model.CreateNotificationRequest
}

// NewNotification creates a new NotificationBuilder with sensible defaults.
func NewNotification(recipientType model.RecipientType, recipientID string) *NotificationBuilder {
	return &NotificationBuilder{
		req: &model.CreateNotificationRequest{
			RecipientType: recipientType,
			RecipientID:   recipientID,
			Type:          model.EventRequestCreated,
			Title:         "New repair request",
			Message:       "A new repair request was submitted.",
			Priority:      model.PriorityNormal,
		},
	}
}

// WithType sets the notification event type.
func (b *NotificationBuilder) WithType(eventType model.EventType) *NotificationBuilder {
	b.req.Type = eventType
	return b
}

// WithTitle sets the notification title.
func (b *NotificationBuilder) WithTitle(title string) *NotificationBuilder {
	b.req.Title = title
	return b
}

// WithMessage sets the notification message.
func (b *NotificationBuilder) WithMessage(message string) *NotificationBuilder {
	b.req.Message = message
	return b
}

// WithRequestID sets the related request id.
func (b *NotificationBuilder) WithRequestID(requestID string) *NotificationBuilder {
	b.req.RequestID = &requestID
	return b
}

// WithPriority sets the notification priority.
func (b *NotificationBuilder) WithPriority(priority model.Priority) *NotificationBuilder {
	b.req.Priority = priority
	return b
}

// Build returns the constructed CreateNotificationRequest.
func (b *NotificationBuilder) Build() *model.CreateNotificationRequest {
	return b.req
}
