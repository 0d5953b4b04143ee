package domain

import (
	"context"
	"errors"
	"time"
)

// DefaultCode is the placeholder seeded into a brand-new progress record.
const DefaultCode = "// start code here"

var ErrInvalidInput = errors.New("invalid input")

type CursorPosition struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Stroke is a single drawn line. Points only ever grow while the owner is
// still drawing it; finished strokes are replaced wholesale on the next
// drawing update.
type Stroke struct {
	ID     string  `json:"id" bson:"id"`
	Color  string  `json:"color" bson:"color"`
	Size   float64 `json:"size" bson:"size"`
	Points []Point `json:"points" bson:"points"`
	Owner  string  `json:"owner,omitempty" bson:"owner,omitempty"`
}

// Progress is the durable per-participant record, unique on (roomId, userName).
// Every participant keeps an independent copy even inside the same room.
type Progress struct {
	RoomID            string         `json:"roomId" bson:"roomId"`
	UserName          string         `json:"userName" bson:"userName"`
	Code              string         `json:"code" bson:"code"`
	WhiteboardContent string         `json:"whiteboardContent" bson:"whiteboardContent"`
	DrawingData       []Stroke       `json:"drawingData" bson:"drawingData"`
	CursorPosition    CursorPosition `json:"cursorPosition" bson:"cursorPosition"`
	LastUpdated       time.Time      `json:"lastUpdated" bson:"lastUpdated"`
}

func NewDefaultProgress(roomID, userName string) *Progress {
	return &Progress{
		RoomID:            roomID,
		UserName:          userName,
		Code:              DefaultCode,
		WhiteboardContent: "",
		DrawingData:       []Stroke{},
		CursorPosition:    CursorPosition{X: 0, Y: 0},
		LastUpdated:       time.Now().UTC(),
	}
}

// ProgressFields carries a partial update. Nil fields are left untouched by
// the upsert; set fields unconditionally replace the stored value
// (last-write-wins, no version check, no merge).
type ProgressFields struct {
	Code              *string
	WhiteboardContent *string
	DrawingData       []Stroke
	CursorPosition    *CursorPosition
}

func (f ProgressFields) IsEmpty() bool {
	return f.Code == nil && f.WhiteboardContent == nil && f.DrawingData == nil && f.CursorPosition == nil
}

// ApplyTo overwrites the set fields on p and stamps LastUpdated.
func (f ProgressFields) ApplyTo(p *Progress) {
	if f.Code != nil {
		p.Code = *f.Code
	}
	if f.WhiteboardContent != nil {
		p.WhiteboardContent = *f.WhiteboardContent
	}
	if f.DrawingData != nil {
		p.DrawingData = f.DrawingData
	}
	if f.CursorPosition != nil {
		p.CursorPosition = *f.CursorPosition
	}
	p.LastUpdated = time.Now().UTC()
}

// ProgressRepository is the durable store the gateway writes through.
//
// FetchOrCreate never reports "not found": a missing record is synthesized
// with defaults, persisted, and returned. Upsert is create-or-update by
// (roomId, userName) with partial-field semantics.
type ProgressRepository interface {
	FetchOrCreate(ctx context.Context, roomID, userName string) (*Progress, error)
	Upsert(ctx context.Context, roomID, userName string, fields ProgressFields) (*Progress, error)
}
