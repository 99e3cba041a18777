package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/loomchat/loom/internal/service"
	"github.com/loomchat/loom/internal/transport/http/middleware"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.notificationService.ListForUser(r.Context(), userID, unreadOnly)
	if err != nil {
		log.Printf("ERROR list notifications: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR notification count: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"unread_count":  count,
	})
}

type markNotificationsReadInput struct {
	NotificationIDs []uuid.UUID `json:"notification_ids,omitempty"`
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input markNotificationsReadInput
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
			return
		}
	}

	count, err := h.notificationService.MarkAsRead(r.Context(), userID, input.NotificationIDs)
	if err != nil {
		log.Printf("ERROR mark notifications read: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": count})
}
