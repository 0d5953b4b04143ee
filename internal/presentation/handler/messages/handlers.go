package messages

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codecollab/codecollab/internal/domain"
	"github.com/codecollab/codecollab/internal/infrastructure/json"
	"github.com/codecollab/codecollab/internal/infrastructure/ws"
)

type Handler struct {
	hub *ws.Hub
}

func NewHandler(hub *ws.Hub) *Handler {
	return &Handler{
		hub: hub,
	}
}

// GetTranscriptHandler returns the room's in-session chat transcript. The
// transcript lives in memory only; a room with no live session returns an
// empty list.
func (h *Handler) GetTranscriptHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	history := h.hub.ChatHistory(roomID)
	if history == nil {
		history = []domain.ChatMessage{}
	}

	json.Write(w, http.StatusOK, transcriptResponse{
		RoomID:   roomID,
		Messages: history,
	})
}
