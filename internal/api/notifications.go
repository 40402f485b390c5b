package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/erazemk/zascita/internal/model"
	"github.com/erazemk/zascita/internal/store"
)

// NotificationsHandler handles notification endpoints.
type NotificationsHandler struct {
	Store *store.Store
	Stats *statsCache
	Log   *zap.Logger
}

type createNotificationRequest struct {
	UserID  string `json:"userId" validate:"required"`
	Type    string `json:"type" validate:"omitempty,oneof=INFO WARNING ALERT"`
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message"`
}

// List handles GET /api/notifications. Only the caller's notifications
// are returned; ?unread=true drops read ones.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	unread := r.URL.Query().Get("unread") == "true"

	list, err := h.Store.ListNotifications(r.Context(), claims.UserID, unread)
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	jsonResponse(w, http.StatusOK, list)
}

// Create handles POST /api/notifications.
func (h *NotificationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	n, err := h.Store.CreateNotification(r.Context(), model.Notification{
		UserID:  req.UserID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
	})
	if err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsNotifications)

	h.Log.Info("notification sent", zap.String("user", GetClaims(r.Context()).Username), zap.String("recipient", n.UserID), zap.String("type", n.Type))
	jsonResponse(w, http.StatusCreated, n)
}

// MarkRead handles POST /api/notifications/{id}/read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if err := h.Store.MarkNotificationRead(r.Context(), r.PathValue("id"), claims.UserID); err != nil {
		writeStoreError(w, h.Log, err)
		return
	}
	h.Stats.invalidate(r.Context(), statsNotifications)
	w.WriteHeader(http.StatusNoContent)
}
