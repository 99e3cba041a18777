package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/loomchat/loom/internal/service"
	"github.com/loomchat/loom/internal/transport/http/middleware"
	"github.com/loomchat/loom/pkg/validator"
)

type MessageHandler struct {
	messageService *service.MessageService
	threadService  *service.ThreadService
}

func NewMessageHandler(messageService *service.MessageService, threadService *service.ThreadService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		threadService:  threadService,
	}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	var input service.SendMessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateMessageContent(input.Content); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	msg, err := h.messageService.Send(r.Context(), userID, conversationID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You do not have access to this conversation")
		case errors.Is(err, service.ErrParentNotFound):
			writeError(w, http.StatusBadRequest, "PARENT_NOT_FOUND", "Parent message not found")
		case errors.Is(err, service.ErrParentMismatch):
			writeError(w, http.StatusBadRequest, "PARENT_MISMATCH", "Parent message belongs to a different conversation")
		case errors.Is(err, service.ErrReceiverNotParticipant):
			writeError(w, http.StatusBadRequest, "INVALID_RECEIVER", "Receiver is not a participant of this conversation")
		default:
			log.Printf("ERROR send message: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// ListRoots returns the parentless messages of a conversation, paginated and
// optionally filtered by ?search= over content and sender name.
func (h *MessageHandler) ListRoots(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	search := r.URL.Query().Get("search")
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	roots, err := h.threadService.Roots(r.Context(), userID, conversationID, search, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You do not have access to this conversation")
		default:
			log.Printf("ERROR list roots: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, roots)
}

// Thread returns a message with its reply subtree up to ?depth= levels.
func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	depth := queryInt(r, "depth", 0)

	msg, err := h.threadService.Thread(r.Context(), userID, messageID, depth)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Message not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You do not have access to this conversation")
		default:
			log.Printf("ERROR get thread: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	var input service.EditMessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateMessageContent(input.Content); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	msg, err := h.messageService.Edit(r.Context(), userID, messageID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Message not found")
		case errors.Is(err, service.ErrNotMessageOwner):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You can only edit your own messages")
		default:
			log.Printf("ERROR edit message: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	if err := h.messageService.Delete(r.Context(), userID, messageID); err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Message not found")
		case errors.Is(err, service.ErrNotMessageOwner):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You can only delete your own messages")
		default:
			log.Printf("ERROR delete message: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	entries, err := h.messageService.History(r.Context(), userID, messageID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Message not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You do not have access to this conversation")
		default:
			log.Printf("ERROR message history: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *MessageHandler) Unread(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	messages, err := h.messageService.UnreadForUser(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list unread: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	count, err := h.messageService.UnreadCount(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR unread count: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"count":    count,
	})
}

type markReadInput struct {
	MessageIDs []uuid.UUID `json:"message_ids,omitempty"`
}

// MarkRead marks the given messages read, or everything unread when the body
// carries no ids. Responds with the number of rows actually updated.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input markReadInput
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
			return
		}
	}

	count, err := h.messageService.MarkAsRead(r.Context(), userID, input.MessageIDs)
	if err != nil {
		log.Printf("ERROR mark read: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": count})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
