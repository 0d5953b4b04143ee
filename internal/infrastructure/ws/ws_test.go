package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/codecollab/codecollab/internal/domain"
	"github.com/codecollab/codecollab/internal/infrastructure/logging"
	"github.com/codecollab/codecollab/internal/infrastructure/metrics"
	"github.com/codecollab/codecollab/internal/infrastructure/presence"
	"github.com/codecollab/codecollab/internal/infrastructure/registry"
)

type noopLogger struct{}

func (noopLogger) Init() {}

func (noopLogger) Debug(cat logging.Category, sub logging.SubCategory, msg string, extra map[logging.ExtraKey]any) {
}
func (noopLogger) Debugf(template string, args ...any) {}
func (noopLogger) Info(cat logging.Category, sub logging.SubCategory, msg string, extra map[logging.ExtraKey]any) {
}
func (noopLogger) Infof(template string, args ...any) {}
func (noopLogger) Warn(cat logging.Category, sub logging.SubCategory, msg string, extra map[logging.ExtraKey]any) {
}
func (noopLogger) Warnf(template string, args ...any) {}
func (noopLogger) Error(cat logging.Category, sub logging.SubCategory, msg string, extra map[logging.ExtraKey]any) {
}
func (noopLogger) Errorf(template string, args ...any) {}
func (noopLogger) Fatal(cat logging.Category, sub logging.SubCategory, msg string, extra map[logging.ExtraKey]any) {
}
func (noopLogger) Fatalf(template string, args ...any) {}

type upsertCall struct {
	roomID   string
	userName string
	fields   domain.ProgressFields
}

// recordingRepo is an in-memory progress store that signals every upsert so
// tests can wait for the background write to land.
type recordingRepo struct {
	mu      sync.Mutex
	records map[string]*domain.Progress
	upserts chan upsertCall
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{
		records: make(map[string]*domain.Progress),
		upserts: make(chan upsertCall, 16),
	}
}

func (r *recordingRepo) FetchOrCreate(ctx context.Context, roomID, userName string) (*domain.Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := roomID + "/" + userName
	if p, ok := r.records[k]; ok {
		cp := *p
		return &cp, nil
	}

	p := domain.NewDefaultProgress(roomID, userName)
	r.records[k] = p
	cp := *p
	return &cp, nil
}

func (r *recordingRepo) Upsert(ctx context.Context, roomID, userName string, fields domain.ProgressFields) (*domain.Progress, error) {
	r.mu.Lock()

	k := roomID + "/" + userName
	p, ok := r.records[k]
	if !ok {
		p = domain.NewDefaultProgress(roomID, userName)
		r.records[k] = p
	}
	fields.ApplyTo(p)
	cp := *p

	r.mu.Unlock()

	r.upserts <- upsertCall{roomID: roomID, userName: userName, fields: fields}
	return &cp, nil
}

func (r *recordingRepo) waitForUpsert(t *testing.T) upsertCall {
	t.Helper()
	select {
	case call := <-r.upserts:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for upsert")
		return upsertCall{}
	}
}

func (r *recordingRepo) expectNoUpsert(t *testing.T) {
	t.Helper()
	select {
	case call := <-r.upserts:
		t.Fatalf("unexpected upsert for %s/%s", call.roomID, call.userName)
	case <-time.After(50 * time.Millisecond):
	}
}

type testEnv struct {
	gateway *Gateway
	router  *Router
	hub     *Hub
	repo    *recordingRepo
	tracker *presence.Tracker
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithPublisher(t, nil)
}

func newTestEnvWithPublisher(t *testing.T, publisher RoomEventPublisher) *testEnv {
	t.Helper()

	m := metrics.New()
	logger := noopLogger{}
	repo := newRecordingRepo()
	hub := NewHub(m, logger)
	tracker := presence.NewTracker(time.Hour, 5*time.Second)
	t.Cleanup(tracker.Close)

	router := NewRouter(hub, repo, tracker, m, logger)
	gateway := NewGateway(registry.New(), hub, router, repo, tracker, publisher, m, logger)

	return &testEnv{
		gateway: gateway,
		router:  router,
		hub:     hub,
		repo:    repo,
		tracker: tracker,
	}
}

// newTestClient builds a client with no transport. Deliver and the gateway
// logic only touch the send buffer, so tests drain it directly.
func newTestClient(id string) *Client {
	return &Client{
		ID:   id,
		send: make(chan *Message, 64),
		done: make(chan struct{}),
	}
}

func drain(cl *Client) []*Message {
	var out []*Message
	for {
		select {
		case msg := <-cl.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func envelope(t *testing.T, event string, payload any) *Envelope {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return &Envelope{Event: event, Data: data}
}

func join(t *testing.T, env *testEnv, cl *Client, roomID, userName string) {
	t.Helper()
	env.gateway.Join(cl, roomID, userName)
	drain(cl)
}
