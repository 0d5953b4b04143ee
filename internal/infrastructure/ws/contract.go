package ws

import (
	"encoding/json"

	"github.com/codecollab/codecollab/internal/domain"
)

// Envelope is the inbound wire frame: an event kind plus its raw payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Message is the outbound wire frame.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Inbound payloads
type JoinPayload struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

type CodeChangePayload struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
}

type WhiteboardChangePayload struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
}

type DrawingChangePayload struct {
	RoomID      string          `json:"roomId"`
	DrawingData []domain.Stroke `json:"drawingData"`
}

type CursorMovePayload struct {
	RoomID   string                `json:"roomId"`
	UserName string                `json:"userName"`
	Position domain.CursorPosition `json:"position"`
}

type TypingPayload struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

type LanguageChangePayload struct {
	RoomID   string `json:"roomId"`
	Language string `json:"language"`
}

type SendMessagePayload struct {
	RoomID  string             `json:"roomId"`
	Message domain.ChatMessage `json:"message"`
}

// Outbound payloads
type CursorBroadcastPayload struct {
	UserName string                `json:"userName"`
	Position domain.CursorPosition `json:"position"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func NewProgressFetched(record *domain.Progress) *Message {
	return &Message{
		Event: EventProgressFetched,
		Data:  record,
	}
}

func NewUserJoined(members []string) *Message {
	return &Message{
		Event: EventUserJoined,
		Data:  members,
	}
}

func NewUserLeft(userName string) *Message {
	return &Message{
		Event: EventUserLeft,
		Data:  userName,
	}
}

func NewCodeUpdate(code string) *Message {
	return &Message{
		Event: EventCodeUpdate,
		Data:  code,
	}
}

func NewWhiteboardUpdate(content string) *Message {
	return &Message{
		Event: EventWhiteboardUpdate,
		Data:  content,
	}
}

func NewDrawingUpdate(strokes []domain.Stroke) *Message {
	return &Message{
		Event: EventDrawingUpdate,
		Data:  strokes,
	}
}

func NewCursorPosition(userName string, position domain.CursorPosition) *Message {
	return &Message{
		Event: EventCursorPosition,
		Data: CursorBroadcastPayload{
			UserName: userName,
			Position: position,
		},
	}
}

func NewUserTyping(userName string) *Message {
	return &Message{
		Event: EventUserTyping,
		Data:  userName,
	}
}

func NewLanguageUpdate(language string) *Message {
	return &Message{
		Event: EventLanguageUpdate,
		Data:  language,
	}
}

func NewChatMessage(message domain.ChatMessage) *Message {
	return &Message{
		Event: EventChatMessage,
		Data:  message,
	}
}

func NewError(message string) *Message {
	return &Message{
		Event: EventError,
		Data: ErrorPayload{
			Message: message,
		},
	}
}
