package messages

import "github.com/codecollab/codecollab/internal/domain"

type transcriptResponse struct {
	RoomID   string               `json:"roomId"`
	Messages []domain.ChatMessage `json:"messages"`
}
