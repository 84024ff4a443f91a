package httpx

import (
	"errors"
	"net/http"

	"github.com/fixpoint/repair-api/internal/core"
	"github.com/fixpoint/repair-api/internal/domain/model"
	"github.com/fixpoint/repair-api/internal/service"
)

// NotificationHandlers provides HTTP handlers for the in-app notification feed.
// Every endpoint is scoped to the signed-in recipient; there is no cross-portal
// access by design of the repository layer.
type NotificationHandlers struct {
	Svc *service.NotificationService
}

// List handles HTTP requests to list the caller's notifications.
// GET /api/notifications?unread_only=true&limit=<n>&offset=<n>.
func (h *NotificationHandlers) List(w http.ResponseWriter, r *http.Request) {
	recipientType, recipientID, ok := sessionRecipient(w, r)
	if !ok {
		return
	}

	limit, offset := ParseLimitOffset(r, defaultListLimit, maxListLimit)
	opts := &model.NotificationListOptions{
		RecipientType: recipientType,
		RecipientID:   recipientID,
		UnreadOnly:    r.URL.Query().Get("unread_only") == "true",
		Limit:         limit,
		Offset:        offset,
	}

	notifications, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, notifications)
}

// CountUnread handles HTTP requests for the caller's unread badge count.
// GET /api/notifications/unread-count.
func (h *NotificationHandlers) CountUnread(w http.ResponseWriter, r *http.Request) {
	recipientType, recipientID, ok := sessionRecipient(w, r)
	if !ok {
		return
	}

	count, err := h.Svc.CountUnread(r.Context(), core.RecipientParams{
		RecipientType: recipientType,
		RecipientID:   recipientID,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

// MarkRead handles HTTP requests to acknowledge a single notification.
// POST /api/notifications/{id}/read.
func (h *NotificationHandlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	recipientType, recipientID, ok := sessionRecipient(w, r)
	if !ok {
		return
	}

	notificationID := r.PathValue("id")
	if notificationID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_path",
			Err:     errors.New("notification id is required"),
		})
		return
	}

	notification, err := h.Svc.MarkRead(r.Context(), core.MarkReadParams{
		NotificationID: notificationID,
		Recipient: core.RecipientParams{
			RecipientType: recipientType,
			RecipientID:   recipientID,
		},
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, notification)
}

// sessionRecipient resolves the caller's recipient identity from the session.
func sessionRecipient(w http.ResponseWriter, r *http.Request) (model.RecipientType, string, bool) {
	session := GetSessionFromContext(r.Context())
	recipientType, recipientID, ok := recipientFromSession(session)
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return "", "", false
	}
	return recipientType, recipientID, true
}
