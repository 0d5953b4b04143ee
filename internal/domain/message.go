package domain

// SystemSender marks synthetic join/leave notices in a chat transcript.
const SystemSender = "system"

// ChatMessage lives only in-session; it is never written to the durable
// store. Timestamp stays the client's ISO string so duplicate suppression
// can compare it byte-for-byte.
type ChatMessage struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Key identifies a message for de-duplication: the sender appends its own
// copy optimistically, so an echoed duplicate must collapse onto it.
func (m ChatMessage) Key() string {
	return m.Sender + "\x00" + m.Text + "\x00" + m.Timestamp
}
