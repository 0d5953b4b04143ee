package progress

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codecollab/codecollab/internal/domain"
	"github.com/codecollab/codecollab/internal/infrastructure/json"
)

type Handler struct {
	progressRepository domain.ProgressRepository
}

func NewHandler(progressRepository domain.ProgressRepository) *Handler {
	return &Handler{
		progressRepository: progressRepository,
	}
}

// GetProgressHandler returns the participant's record, synthesizing and
// storing a default one when none exists. It never reports not-found.
func (h *Handler) GetProgressHandler(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	userName := chi.URLParam(r, "userName")

	if roomID == "" || userName == "" {
		json.WriteValidationError(w, errors.New("roomId and userName are required"))
		return
	}

	record, err := h.progressRepository.FetchOrCreate(r.Context(), roomID, userName)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, record)
}

// SaveProgressHandler applies a last-write-wins save of the full record.
// Absent fields are written as their defaults rather than left untouched,
// so a save always yields a fully populated record.
func (h *Handler) SaveProgressHandler(w http.ResponseWriter, r *http.Request) {
	var req saveProgressRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if req.RoomID == "" || req.UserName == "" {
		json.WriteValidationError(w, errors.New("roomId and userName are required"))
		return
	}

	fields := domain.ProgressFields{
		Code:              req.Code,
		WhiteboardContent: req.WhiteboardContent,
		DrawingData:       req.DrawingData,
		CursorPosition:    req.CursorPosition,
	}
	if fields.Code == nil {
		defaultCode := domain.DefaultCode
		fields.Code = &defaultCode
	}
	if fields.WhiteboardContent == nil {
		empty := ""
		fields.WhiteboardContent = &empty
	}
	if fields.DrawingData == nil {
		fields.DrawingData = []domain.Stroke{}
	}
	if fields.CursorPosition == nil {
		fields.CursorPosition = &domain.CursorPosition{}
	}

	record, err := h.progressRepository.Upsert(r.Context(), req.RoomID, req.UserName, fields)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, saveProgressResponse{
		Message:  "Progress saved successfully",
		Progress: record,
	})
}
