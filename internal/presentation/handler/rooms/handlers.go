package rooms

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codecollab/codecollab/internal/infrastructure/json"
	"github.com/codecollab/codecollab/internal/infrastructure/presence"
	"github.com/codecollab/codecollab/internal/infrastructure/registry"
	"github.com/codecollab/codecollab/internal/presentation/utils"
)

type Handler struct {
	registry *registry.Registry
	tracker  *presence.Tracker
}

func NewHandler(reg *registry.Registry, tracker *presence.Tracker) *Handler {
	return &Handler{
		registry: reg,
		tracker:  tracker,
	}
}

// GetRoomMembersHandler lists the room's current membership in join order.
// An unknown room yields an empty list, consistent with rooms not existing
// apart from their members.
func (h *Handler) GetRoomMembersHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	members := h.registry.MembersOf(roomID)

	resp := membersResponse{
		RoomID:  roomID,
		Members: make([]memberResponse, 0, len(members)),
	}
	for _, name := range members {
		resp.Members = append(resp.Members, memberResponse{
			UserName: name,
			Color:    utils.ColorForUser(name),
		})
	}

	json.Write(w, http.StatusOK, resp)
}

// GetRoomPresenceHandler returns the last known cursor position of every
// participant still considered live by the tracker.
func (h *Handler) GetRoomPresenceHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if roomID == "" {
		json.WriteValidationError(w, errors.New("room ID is missing"))
		return
	}

	entries := h.tracker.Snapshot(roomID)

	resp := presenceResponse{
		RoomID:   roomID,
		Presence: make([]presenceEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Presence = append(resp.Presence, presenceEntryResponse{
			UserName:    e.UserName,
			X:           e.X,
			Y:           e.Y,
			Color:       utils.ColorForUser(e.UserName),
			LastUpdated: e.LastUpdated.UTC().Format(time.RFC3339),
		})
	}

	json.Write(w, http.StatusOK, resp)
}
