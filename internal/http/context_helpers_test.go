package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/fixpoint/repair-api/internal/domain/auth"
	"github.com/fixpoint/repair-api/internal/domain/model"
)

func TestGetUserSessionFromContext(t *testing.T) {
	// No session
	if s, ok := GetUserSessionFromContext(context.Background()); assert.False(t, ok) {
		assert.Nil(t, s)
	}

	// With session
	sess := &domainauth.Session{ID: "abc", Role: domainauth.RoleUser}
	ctx := SetSessionInContext(context.Background(), sess)
	s, ok := GetUserSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, sess, s)
}

func TestSetSessionInContext_Nil(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, SetSessionInContext(ctx, nil))
}

func TestRecipientFromSession(t *testing.T) {
	tests := []struct {
		name     string
		session  *domainauth.Session
		wantType model.RecipientType
		wantID   string
		wantOK   bool
	}{
		{"nil session", nil, "", "", false},
		{"guest", &domainauth.Session{UserID: "u1", Role: domainauth.RoleGuest}, "", "", false},
		{"user", &domainauth.Session{UserID: "u1", Role: domainauth.RoleUser}, model.RecipientTypeUser, "u1", true},
		{
			"employee",
			&domainauth.Session{UserID: "e1", Role: domainauth.RoleEmployee},
			model.RecipientTypeEmployee,
			"e1",
			true,
		},
		{"admin", &domainauth.Session{UserID: "a1", Role: domainauth.RoleAdmin}, model.RecipientTypeAdmin, "a1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotID, gotOK := recipientFromSession(tt.session)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantID, gotID)
			assert.Equal(t, tt.wantOK, gotOK)
		})
	}
}
