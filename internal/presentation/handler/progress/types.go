package progress

import "github.com/codecollab/codecollab/internal/domain"

// saveProgressRequest is the out-of-band save payload. Pointer fields
// distinguish "absent" from "explicitly empty"; absent fields fall back to
// the record defaults.
type saveProgressRequest struct {
	RoomID            string                 `json:"roomId"`
	UserName          string                 `json:"userName"`
	Code              *string                `json:"code"`
	WhiteboardContent *string                `json:"whiteboardContent"`
	DrawingData       []domain.Stroke        `json:"drawingData"`
	CursorPosition    *domain.CursorPosition `json:"cursorPosition"`
}

type saveProgressResponse struct {
	Message  string           `json:"message"`
	Progress *domain.Progress `json:"progress"`
}
