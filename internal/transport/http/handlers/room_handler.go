package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vedran77/huddle/internal/service"
	"github.com/vedran77/huddle/pkg/validator"
)

type RoomHandler struct {
	roomService *service.RoomService
	logger      *slog.Logger
}

func NewRoomHandler(roomService *service.RoomService, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{roomService: roomService, logger: logger}
}

func (h *RoomHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if errs := validator.ValidateSlug(slug); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	room, err := h.roomService.FindBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Room not found")
		} else {
			h.logger.Error("find room", "slug", slug, "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, room)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateRoomInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateRoom(input.Name, input.Slug); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	room, err := h.roomService.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrSlugTaken) {
			writeError(w, http.StatusConflict, "SLUG_TAKEN", "A room with this slug already exists")
		} else {
			h.logger.Error("create room", "slug", input.Slug, "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, room)
}
