package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jwall29/swiply/internal/service"
	"github.com/jwall29/swiply/internal/transport/http/middleware"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type sendMessageInput struct {
	Content string `json:"content"`
}

func (h *ChatHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	rooms, err := h.chatService.ListRooms(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list chat rooms: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	roomID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	messages, err := h.chatService.History(r.Context(), roomID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			writeError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Chat room not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this chat")
		default:
			log.Printf("ERROR chat history: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	roomID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var input sendMessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	msg, err := h.chatService.SendMessage(r.Context(), roomID, userID, input.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			writeError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Chat room not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this chat")
		case errors.Is(err, service.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "EMPTY_MESSAGE", "Message content is empty")
		case errors.Is(err, service.ErrRoomClosed):
			writeError(w, http.StatusConflict, "ROOM_CLOSED", "Chat room is closed")
		default:
			log.Printf("ERROR send message: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// MarkRead resets the caller's unread counter for the room.
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	roomID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.chatService.ResetUnread(r.Context(), userID, roomID); err != nil {
		log.Printf("ERROR mark read: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Open marks the room as actively viewed, suppressing push
// notifications for it, and clears the unread counter.
func (h *ChatHandler) Open(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	roomID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.chatService.OpenChat(r.Context(), userID, roomID); err != nil {
		log.Printf("ERROR open chat: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Leave clears the caller's active chat marker.
func (h *ChatHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.chatService.LeaveChat(r.Context(), userID); err != nil {
		log.Printf("ERROR leave chat: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ChatHandler) UnreadCounts(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	counts, err := h.chatService.UnreadCounts(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR unread counts: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"unread": counts})
}
