package httpx

import (
	"context"

	domainauth "github.com/fixpoint/repair-api/internal/domain/auth"
	"github.com/fixpoint/repair-api/internal/domain/model"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetUserSessionFromContext returns the user session from context and a boolean indicating presence.
func GetUserSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// GetSessionFromContext retrieves the session from the request context.
// Maintained for convenience; prefer GetUserSessionFromContext when you need presence info.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if s, ok := GetUserSessionFromContext(ctx); ok {
		return s
	}
	return nil
}

// recipientFromSession maps a session's role to the recipient identity used by
// the notification endpoints. The session user id doubles as the recipient row
// id for all three portals.
func recipientFromSession(s *domainauth.Session) (model.RecipientType, string, bool) {
	if s == nil {
		return "", "", false
	}
	switch s.Role {
	case domainauth.RoleAdmin:
		return model.RecipientTypeAdmin, s.UserID, true
	case domainauth.RoleEmployee:
		return model.RecipientTypeEmployee, s.UserID, true
	case domainauth.RoleUser:
		return model.RecipientTypeUser, s.UserID, true
	default:
		return "", "", false
	}
}
