package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vedran77/huddle/internal/service"
	"github.com/vedran77/huddle/pkg/validator"
)

type MessageHandler struct {
	messageService *service.MessageService
	logger         *slog.Logger
}

func NewMessageHandler(messageService *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messageService: messageService, logger: logger}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "room")
	if !ok {
		return
	}

	var input service.SendMessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateMessage(input.SenderName, input.Content, input.Attachment != nil); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}
	if input.Attachment != nil && input.Attachment.Path == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ATTACHMENT", "Attachment path is required")
		return
	}

	msg, err := h.messageService.Send(r.Context(), roomID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Room not found")
		case errors.Is(err, service.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "MISSING_CONTENT", "Message needs text or an attachment")
		default:
			h.logger.Error("send message", "room_id", roomID, "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "room")
	if !ok {
		return
	}

	messages, err := h.messageService.List(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Room not found")
		} else {
			h.logger.Error("list messages", "room_id", roomID, "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	messageID, ok := pathID(w, r, "message")
	if !ok {
		return
	}

	if err := h.messageService.Delete(r.Context(), messageID); err != nil {
		h.logger.Error("delete message", "message_id", messageID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
