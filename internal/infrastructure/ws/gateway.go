package ws

import (
	"context"
	"encoding/json"

	"github.com/codecollab/codecollab/internal/domain"
	"github.com/codecollab/codecollab/internal/infrastructure/logging"
	"github.com/codecollab/codecollab/internal/infrastructure/metrics"
	"github.com/codecollab/codecollab/internal/infrastructure/presence"
	"github.com/codecollab/codecollab/internal/infrastructure/registry"
)

// RoomEventPublisher receives room lifecycle notifications. Publishing is
// best-effort and must never block the gateway.
type RoomEventPublisher interface {
	RoomCreated(ctx context.Context, roomID string) error
	RoomDeleted(ctx context.Context, roomID string) error
	MemberJoined(ctx context.Context, roomID, userName string) error
	MemberLeft(ctx context.Context, roomID, userName string) error
}

// Gateway binds connections to rooms and drives the join/leave/resync
// protocol. Everything that is not a join or leave goes through the router.
type Gateway struct {
	registry  *registry.Registry
	hub       *Hub
	router    *Router
	progress  domain.ProgressRepository
	tracker   *presence.Tracker
	publisher RoomEventPublisher // nil disables lifecycle events
	metrics   *metrics.Metrics
	logger    logging.Logger
}

func NewGateway(
	reg *registry.Registry,
	hub *Hub,
	router *Router,
	progress domain.ProgressRepository,
	tracker *presence.Tracker,
	publisher RoomEventPublisher,
	m *metrics.Metrics,
	logger logging.Logger,
) *Gateway {
	return &Gateway{
		registry:  reg,
		hub:       hub,
		router:    router,
		progress:  progress,
		tracker:   tracker,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Connect registers a freshly upgraded connection.
func (gw *Gateway) Connect(cl *Client) {
	gw.metrics.OpenConnections.Inc()
	gw.logger.Info(logging.WebSocket, logging.Join, "client connected", map[logging.ExtraKey]any{
		"clientId": cl.ID,
	})
}

// Handle dispatches one inbound frame from the connection's read loop.
func (gw *Gateway) Handle(cl *Client, env *Envelope) {
	switch env.Event {
	case EventJoin:
		var p JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			cl.Deliver(NewError("malformed join payload"))
			return
		}
		gw.Join(cl, p.RoomID, p.UserName)

	case EventLeaveRoom:
		gw.Leave(cl)

	default:
		gw.router.Dispatch(cl, env)
	}
}

// Join binds the connection to (roomID, userName). A connection bound to
// another room leaves it first; the old room only sees a membership update,
// not a userLeft notice, matching explicit-leave semantics being reserved
// for leaveRoom/disconnect.
func (gw *Gateway) Join(cl *Client, roomID, userName string) {
	if roomID == "" || userName == "" {
		cl.Deliver(NewError("join requires roomId and userName"))
		return
	}

	if cl.session.Bound() {
		gw.leaveForSwitch(cl)
	}

	cl.session = Session{RoomID: roomID, UserName: userName}

	members, created := gw.registry.Join(roomID, userName)
	gw.hub.Add(roomID, cl)
	gw.metrics.ActiveRooms.Set(float64(gw.registry.RoomCount()))

	if gw.publisher != nil {
		if created {
			gw.publish(roomID, func(ctx context.Context) error {
				return gw.publisher.RoomCreated(ctx, roomID)
			})
		}
		gw.publish(roomID, func(ctx context.Context) error {
			return gw.publisher.MemberJoined(ctx, roomID, userName)
		})
	}

	// Resync: fetch-or-create the participant's record and hand it back
	// before normal event flow resumes. Delivered to the joiner only.
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	record, err := gw.progress.FetchOrCreate(ctx, roomID, userName)
	if err != nil {
		gw.metrics.PersistenceFailures.Inc()
		gw.logger.Error(logging.Mongo, logging.Persistence, "failed to fetch or create progress", map[logging.ExtraKey]any{
			logging.RoomID:       roomID,
			logging.UserName:     userName,
			logging.ErrorMessage: err.Error(),
		})
	} else {
		cl.Deliver(NewProgressFetched(record))
	}

	gw.hub.Broadcast(roomID, NewUserJoined(members), "")

	gw.logger.Info(logging.WebSocket, logging.Join, "user joined room", map[logging.ExtraKey]any{
		logging.RoomID:   roomID,
		logging.UserName: userName,
	})
}

// Leave tears down the connection's binding voluntarily. The room sees the
// updated membership list and a userLeft notice.
func (gw *Gateway) Leave(cl *Client) {
	if !cl.session.Bound() {
		return
	}

	sess := cl.session
	members := gw.teardown(cl, sess)

	gw.hub.Broadcast(sess.RoomID, NewUserJoined(members), "")
	gw.hub.Broadcast(sess.RoomID, NewUserLeft(sess.UserName), "")

	cl.session = Session{}

	gw.logger.Info(logging.WebSocket, logging.Leave, "user left room", map[logging.ExtraKey]any{
		logging.RoomID:   sess.RoomID,
		logging.UserName: sess.UserName,
	})
}

// Disconnect handles transport loss. Cleanup must not depend on client
// cooperation: it mirrors Leave and then shuts the send path down.
func (gw *Gateway) Disconnect(cl *Client) {
	gw.Leave(cl)
	cl.closeSend()
	if cl.conn != nil {
		_ = cl.conn.Close()
	}
	gw.metrics.OpenConnections.Dec()
}

// leaveForSwitch unbinds the old room during a re-entrant join. The old
// room receives only the membership update.
func (gw *Gateway) leaveForSwitch(cl *Client) {
	sess := cl.session
	members := gw.teardown(cl, sess)
	gw.hub.Broadcast(sess.RoomID, NewUserJoined(members), "")
	cl.session = Session{}
}

// teardown removes the binding from registry, hub and presence, publishes
// lifecycle events, and returns the remaining membership snapshot.
func (gw *Gateway) teardown(cl *Client, sess Session) []string {
	members, removed, pruned := gw.registry.Leave(sess.RoomID, sess.UserName)
	gw.hub.Remove(sess.RoomID, cl.ID)
	gw.tracker.Forget(sess.RoomID, sess.UserName)
	gw.metrics.ActiveRooms.Set(float64(gw.registry.RoomCount()))

	if gw.publisher != nil && removed {
		gw.publish(sess.RoomID, func(ctx context.Context) error {
			return gw.publisher.MemberLeft(ctx, sess.RoomID, sess.UserName)
		})
		if pruned {
			gw.publish(sess.RoomID, func(ctx context.Context) error {
				return gw.publisher.RoomDeleted(ctx, sess.RoomID)
			})
		}
	}

	return members
}

// publish runs one lifecycle notification in the background. A slow or
// unreachable broker must never stall the join/leave path.
func (gw *Gateway) publish(roomID string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			gw.logPublishError(roomID, err)
		}
	}()
}

func (gw *Gateway) logPublishError(roomID string, err error) {
	gw.logger.Warn(logging.RabbitMQ, logging.ExternalService, "failed to publish room event", map[logging.ExtraKey]any{
		logging.RoomID:       roomID,
		logging.ErrorMessage: err.Error(),
	})
}
