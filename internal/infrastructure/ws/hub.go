package ws

import (
	"sync"

	"github.com/codecollab/codecollab/internal/domain"
	"github.com/codecollab/codecollab/internal/infrastructure/logging"
	"github.com/codecollab/codecollab/internal/infrastructure/metrics"
)

// maxChatHistory bounds the in-session transcript kept per room.
const maxChatHistory = 1000

type hubRoom struct {
	clients map[string]*Client

	// In-session chat transcript. Never persisted; used for duplicate
	// suppression since senders append their own copy optimistically.
	chat     []domain.ChatMessage
	chatSeen map[string]struct{}
}

func newHubRoom() *hubRoom {
	return &hubRoom{
		clients:  make(map[string]*Client),
		chat:     make([]domain.ChatMessage, 0, 64),
		chatSeen: make(map[string]struct{}),
	}
}

// Hub owns the roomID -> connection fan-out map. It only routes frames; who
// is a member of what lives in the registry.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]*hubRoom
	metrics *metrics.Metrics
	logger  logging.Logger
}

func NewHub(m *metrics.Metrics, logger logging.Logger) *Hub {
	return &Hub{
		rooms:   make(map[string]*hubRoom),
		metrics: m,
		logger:  logger,
	}
}

func (h *Hub) Add(roomID string, cl *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[roomID]
	if !ok {
		room = newHubRoom()
		h.rooms[roomID] = room
	}
	room.clients[cl.ID] = cl
}

func (h *Hub) Remove(roomID, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[roomID]
	if !ok {
		return
	}

	delete(room.clients, clientID)
	if len(room.clients) == 0 {
		delete(h.rooms, roomID)
	}
}

// Broadcast fans msg out to the room. excludeClientID skips the sender's own
// connection (empty string excludes nobody). Delivery is fire-and-forget: a
// slow recipient's frame is dropped, never retried.
func (h *Hub) Broadcast(roomID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[roomID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	targets := make([]*Client, 0, len(room.clients))
	for id, cl := range room.clients {
		if id == excludeClientID {
			continue
		}
		targets = append(targets, cl)
	}
	h.mu.RUnlock()

	for _, cl := range targets {
		if !cl.Deliver(msg) {
			h.metrics.BroadcastDrops.Inc()
			h.logger.Warn(logging.WebSocket, logging.Broadcast, "client buffer full, dropping message", map[logging.ExtraKey]any{
				logging.RoomID:    roomID,
				logging.EventKind: msg.Event,
			})
		}
	}
}

// RecordChat appends the message to the room's in-session transcript. It
// reports false when an identical (sender, text, timestamp) message was
// already recorded, in which case the caller must not re-broadcast it.
func (h *Hub) RecordChat(roomID string, msg domain.ChatMessage) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[roomID]
	if !ok {
		return false
	}

	key := msg.Key()
	if _, dup := room.chatSeen[key]; dup {
		return false
	}

	room.chat = append(room.chat, msg)
	room.chatSeen[key] = struct{}{}

	if len(room.chat) > maxChatHistory {
		evicted := room.chat[0]
		room.chat = room.chat[1:]
		delete(room.chatSeen, evicted.Key())
	}

	return true
}

// ChatHistory returns a snapshot of the room's in-session transcript.
func (h *Hub) ChatHistory(roomID string) []domain.ChatMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[roomID]
	if !ok {
		return nil
	}

	out := make([]domain.ChatMessage, len(room.chat))
	copy(out, room.chat)
	return out
}
