package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEmailNotificationRequest_Normalize(t *testing.T) {
	req := CreateEmailNotificationRequest{
		NotificationID: " n1 ",
		RecipientEmail: "  Alex.Carter@Example.COM ",
		RecipientType:  RecipientTypeUser,
		RecipientID:    " u1 ",
		EmailType:      EventRequestCompleted,
		Subject:        "  Repair complete  ",
		Content:        "<p>done</p>",
	}
	req.Normalize()

	assert.Equal(t, "alex.carter@example.com", req.RecipientEmail)
	assert.Equal(t, "Repair complete", req.Subject)
	require.NoError(t, req.Validate())
}

func TestCreateEmailNotificationRequest_Validate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateEmailNotificationRequest)
		wantErr string
	}{
		{"missing notification", func(r *CreateEmailNotificationRequest) { r.NotificationID = "" }, "notification_id is required"},
		{"missing email", func(r *CreateEmailNotificationRequest) { r.RecipientEmail = "" }, "recipient_email is required"},
		{
			"invalid email",
			func(r *CreateEmailNotificationRequest) { r.RecipientEmail = "not-an-address" },
			"recipient_email is not a valid address",
		},
		{"bad recipient type", func(r *CreateEmailNotificationRequest) { r.RecipientType = "robot" }, "invalid recipient_type"},
		{"missing recipient id", func(r *CreateEmailNotificationRequest) { r.RecipientID = "" }, "recipient_id is required"},
		{"bad email type", func(r *CreateEmailNotificationRequest) { r.EmailType = "nope" }, "invalid email_type"},
		{"missing subject", func(r *CreateEmailNotificationRequest) { r.Subject = "" }, "subject is required"},
		{"missing content", func(r *CreateEmailNotificationRequest) { r.Content = "" }, "content is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := CreateEmailNotificationRequest{
				NotificationID: "n1",
				RecipientEmail: "alex@example.com",
				RecipientType:  RecipientTypeUser,
				RecipientID:    "u1",
				EmailType:      EventRequestCompleted,
				Subject:        "s",
				Content:        "c",
			}
			tt.mutate(&req)
			err := req.Validate()
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestDeliveryStatus_Valid(t *testing.T) {
	for _, s := range []DeliveryStatus{
		DeliveryStatusPending, DeliveryStatusSent, DeliveryStatusFailed, DeliveryStatusRetrying,
	} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, DeliveryStatus("bounced").Valid())
}
