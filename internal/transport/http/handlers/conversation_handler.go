package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/loomchat/loom/internal/service"
	"github.com/loomchat/loom/internal/transport/http/middleware"
)

type ConversationHandler struct {
	conversationService *service.ConversationService
}

func NewConversationHandler(conversationService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

type createConversationInput struct {
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input createConversationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	conv, err := h.conversationService.Create(r.Context(), userID, input.ParticipantIDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoParticipants):
			writeError(w, http.StatusBadRequest, "NO_PARTICIPANTS", "A conversation needs at least one participant")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusBadRequest, "UNKNOWN_PARTICIPANT", "One of the participants does not exist")
		default:
			log.Printf("ERROR create conversation: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, conv)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convs, err := h.conversationService.List(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list conversations: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, convs)
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	conv, err := h.conversationService.Get(r.Context(), userID, conversationID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You do not have access to this conversation")
		default:
			log.Printf("ERROR get conversation: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, conv)
}
