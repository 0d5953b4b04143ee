package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codecollab/codecollab/internal/domain"
	"github.com/codecollab/codecollab/internal/infrastructure/logging"
	"github.com/codecollab/codecollab/internal/infrastructure/metrics"
	"github.com/codecollab/codecollab/internal/infrastructure/presence"
)

// persistTimeout caps a single write-through; a slow store degrades to
// "fire and forget, log on eventual failure".
const persistTimeout = 5 * time.Second

// Scope selects who receives an event's fan-out copy.
type Scope int

const (
	// RoomExcludingSender: the sender already holds the authoritative
	// local value.
	RoomExcludingSender Scope = iota
	// RoomIncludingSender: the sender's UI wants the server-confirmed
	// echo; receivers de-duplicate.
	RoomIncludingSender
)

type routeFunc func(cl *Client, data json.RawMessage)

// Router maps every collaboration event kind to its broadcast scope and
// whether a persistence write accompanies it. It performs no merging or
// ordering beyond delivering in arrival order to the target scope.
type Router struct {
	hub      *Hub
	progress domain.ProgressRepository
	tracker  *presence.Tracker
	metrics  *metrics.Metrics
	logger   logging.Logger

	routes map[string]routeFunc
}

func NewRouter(
	hub *Hub,
	progress domain.ProgressRepository,
	tracker *presence.Tracker,
	m *metrics.Metrics,
	logger logging.Logger,
) *Router {
	r := &Router{
		hub:      hub,
		progress: progress,
		tracker:  tracker,
		metrics:  m,
		logger:   logger,
	}

	r.routes = map[string]routeFunc{
		EventCodeChange:       r.handleCodeChange,
		EventWhiteboardChange: r.handleWhiteboardChange,
		EventDrawingChange:    r.handleDrawingChange,
		EventCursorMove:       r.handleCursorMove,
		EventTyping:           r.handleTyping,
		EventLanguageChange:   r.handleLanguageChange,
		EventSendMessage:      r.handleSendMessage,
	}

	return r
}

// Dispatch routes one inbound event. Events from a connection with no room
// binding are rejected: there is nobody to fan out to and no key to persist
// under.
func (r *Router) Dispatch(cl *Client, env *Envelope) {
	handle, ok := r.routes[env.Event]
	if !ok {
		cl.Deliver(NewError("unknown event: " + env.Event))
		return
	}

	if !cl.Session().Bound() {
		cl.Deliver(NewError("join a room before sending events"))
		return
	}

	r.metrics.EventsRouted.WithLabelValues(env.Event).Inc()
	handle(cl, env.Data)
}

func (r *Router) handleCodeChange(cl *Client, data json.RawMessage) {
	var p CodeChangePayload
	if err := json.Unmarshal(data, &p); err != nil {
		cl.Deliver(NewError("malformed codeChange payload"))
		return
	}

	r.broadcast(p.RoomID, NewCodeUpdate(p.Code), RoomExcludingSender, cl)
	r.persist(p.RoomID, cl.Session().UserName, domain.ProgressFields{Code: &p.Code})
}

func (r *Router) handleWhiteboardChange(cl *Client, data json.RawMessage) {
	var p WhiteboardChangePayload
	if err := json.Unmarshal(data, &p); err != nil {
		cl.Deliver(NewError("malformed whiteboardChange payload"))
		return
	}

	r.broadcast(p.RoomID, NewWhiteboardUpdate(p.Content), RoomExcludingSender, cl)
	r.persist(p.RoomID, cl.Session().UserName, domain.ProgressFields{WhiteboardContent: &p.Content})
}

func (r *Router) handleDrawingChange(cl *Client, data json.RawMessage) {
	var p DrawingChangePayload
	if err := json.Unmarshal(data, &p); err != nil {
		cl.Deliver(NewError("malformed drawingChange payload"))
		return
	}

	if p.DrawingData == nil {
		p.DrawingData = []domain.Stroke{}
	}

	r.broadcast(p.RoomID, NewDrawingUpdate(p.DrawingData), RoomExcludingSender, cl)
	r.persist(p.RoomID, cl.Session().UserName, domain.ProgressFields{DrawingData: p.DrawingData})
}

func (r *Router) handleCursorMove(cl *Client, data json.RawMessage) {
	var p CursorMovePayload
	if err := json.Unmarshal(data, &p); err != nil {
		cl.Deliver(NewError("malformed cursorMove payload"))
		return
	}

	userName := cl.Session().UserName
	r.tracker.Observe(p.RoomID, userName, p.Position.X, p.Position.Y)

	r.broadcast(p.RoomID, NewCursorPosition(userName, p.Position), RoomExcludingSender, cl)
	r.persist(p.RoomID, userName, domain.ProgressFields{CursorPosition: &p.Position})
}

func (r *Router) handleTyping(cl *Client, data json.RawMessage) {
	var p TypingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		cl.Deliver(NewError("malformed typing payload"))
		return
	}

	r.broadcast(p.RoomID, NewUserTyping(cl.Session().UserName), RoomExcludingSender, cl)
}

func (r *Router) handleLanguageChange(cl *Client, data json.RawMessage) {
	var p LanguageChangePayload
	if err := json.Unmarshal(data, &p); err != nil {
		cl.Deliver(NewError("malformed languageChange payload"))
		return
	}

	r.broadcast(p.RoomID, NewLanguageUpdate(p.Language), RoomIncludingSender, cl)
}

func (r *Router) handleSendMessage(cl *Client, data json.RawMessage) {
	var p SendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		cl.Deliver(NewError("malformed sendMessage payload"))
		return
	}

	// An identical (sender, text, timestamp) was already stored and
	// broadcast once; re-broadcasting would undo receiver-side dedup.
	if !r.hub.RecordChat(p.RoomID, p.Message) {
		return
	}

	r.broadcast(p.RoomID, NewChatMessage(p.Message), RoomIncludingSender, cl)
}

func (r *Router) broadcast(roomID string, msg *Message, scope Scope, sender *Client) {
	exclude := ""
	if scope == RoomExcludingSender {
		exclude = sender.ID
	}
	r.hub.Broadcast(roomID, msg, exclude)
}

// persist applies a last-write-wins upsert in the background. Failure is
// logged and counted; it never unwinds the already-delivered broadcast and
// never notifies the sender.
func (r *Router) persist(roomID, userName string, fields domain.ProgressFields) {
	if fields.IsEmpty() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if _, err := r.progress.Upsert(ctx, roomID, userName, fields); err != nil {
			r.metrics.PersistenceFailures.Inc()
			r.logger.Error(logging.Mongo, logging.Persistence, "failed to save progress", map[logging.ExtraKey]any{
				logging.RoomID:       roomID,
				logging.UserName:     userName,
				logging.ErrorMessage: err.Error(),
			})
		}
	}()
}
