package messaging

const (
	RoomsQueue      = "rooms"
	DeadLetterQueue = "dead_letter_queue"
)

// RoomEventData describes a room lifecycle change for downstream consumers.
type RoomEventData struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName,omitempty"`
}
