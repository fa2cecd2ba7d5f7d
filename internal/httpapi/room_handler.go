package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/example/campus-reservations/internal/persistence"
)

// roomDirectory is the catalog surface the room endpoints use.
type roomDirectory interface {
	ListRooms(ctx context.Context) ([]persistence.Room, error)
	ListActiveRooms(ctx context.Context) ([]persistence.Room, error)
}

// RoomHandler serves the /rooms endpoints.
type RoomHandler struct {
	directory roomDirectory
	responder *responder
	logger    *slog.Logger
}

type roomDTO struct {
	Code      string   `json:"code"`
	Capacity  int      `json:"capacity"`
	Faculty   string   `json:"faculty,omitempty"`
	Equipment []string `json:"equipment,omitempty"`
	Status    string   `json:"status"`
}

// NewRoomHandler wires the catalog listing endpoint.
func NewRoomHandler(directory roomDirectory, logger *slog.Logger) *RoomHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomHandler{directory: directory, responder: newResponder(logger), logger: logger}
}

// List handles GET /rooms. Inactive rooms are included only when
// ?include_inactive=true is passed.
func (h *RoomHandler) List(w http.ResponseWriter, req *http.Request) {
	if h == nil || h.directory == nil {
		http.Error(w, "handler not configured", http.StatusInternalServerError)
		return
	}

	includeInactive, _ := strconv.ParseBool(req.URL.Query().Get("include_inactive"))

	var (
		rooms []persistence.Room
		err   error
	)
	if includeInactive {
		rooms, err = h.directory.ListRooms(req.Context())
	} else {
		rooms, err = h.directory.ListActiveRooms(req.Context())
	}
	if err != nil {
		handlerLogger(req.Context(), h.logger, "room", "List").
			ErrorContext(req.Context(), "room list failed",
				"error", err, "error_kind", errorKind(err))
		h.responder.handleServiceError(w, err)
		return
	}

	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, roomDTO{
			Code:      room.Code,
			Capacity:  room.Capacity,
			Faculty:   room.Faculty,
			Equipment: room.Equipment,
			Status:    room.Status,
		})
	}
	h.responder.writeJSON(w, http.StatusOK, map[string]any{"rooms": out})
}
