package ws

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/codecollab/codecollab/internal/domain"
)

func TestJoinDeliversProgressThenMembership(t *testing.T) {
	env := newTestEnv(t)
	alice := newTestClient("c1")

	env.gateway.Join(alice, "room-1", "alice")

	msgs := drain(alice)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}

	if msgs[0].Event != EventProgressFetched {
		t.Fatalf("first message is %q, want %q", msgs[0].Event, EventProgressFetched)
	}
	record := msgs[0].Data.(*domain.Progress)
	if record.Code != domain.DefaultCode {
		t.Fatalf("got code %q, want default", record.Code)
	}

	if msgs[1].Event != EventUserJoined {
		t.Fatalf("second message is %q, want %q", msgs[1].Event, EventUserJoined)
	}
	if got := msgs[1].Data.([]string); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("got members %v, want [alice]", got)
	}
}

func TestJoinNotifiesExistingMembers(t *testing.T) {
	env := newTestEnv(t)
	alice := newTestClient("c1")
	bob := newTestClient("c2")

	join(t, env, alice, "room-1", "alice")
	env.gateway.Join(bob, "room-1", "bob")

	msgs := drain(alice)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages for alice, want 1", len(msgs))
	}
	if msgs[0].Event != EventUserJoined {
		t.Fatalf("got %q, want %q", msgs[0].Event, EventUserJoined)
	}
	if got := msgs[0].Data.([]string); !reflect.DeepEqual(got, []string{"alice", "bob"}) {
		t.Fatalf("got members %v, want [alice bob]", got)
	}
}

func TestJoinValidation(t *testing.T) {
	env := newTestEnv(t)
	cl := newTestClient("c1")

	env.gateway.Join(cl, "", "alice")
	env.gateway.Join(cl, "room-1", "")

	msgs := drain(cl)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	for _, msg := range msgs {
		if msg.Event != EventError {
			t.Fatalf("got %q, want %q", msg.Event, EventError)
		}
	}
	if cl.Session().Bound() {
		t.Fatal("session must stay unbound after rejected joins")
	}
}

func TestLeaveBroadcastsDeparture(t *testing.T) {
	env := newTestEnv(t)
	alice := newTestClient("c1")
	bob := newTestClient("c2")

	join(t, env, alice, "room-1", "alice")
	join(t, env, bob, "room-1", "bob")
	drain(alice)

	env.gateway.Handle(bob, &Envelope{Event: EventLeaveRoom})

	msgs := drain(alice)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Event != EventUserJoined {
		t.Fatalf("got %q, want %q", msgs[0].Event, EventUserJoined)
	}
	if got := msgs[0].Data.([]string); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("got members %v, want [alice]", got)
	}
	if msgs[1].Event != EventUserLeft {
		t.Fatalf("got %q, want %q", msgs[1].Event, EventUserLeft)
	}
	if got := msgs[1].Data.(string); got != "bob" {
		t.Fatalf("got %q, want bob", got)
	}

	if bob.Session().Bound() {
		t.Fatal("bob's session must be cleared after leave")
	}
}

func TestLeaveWithoutBindingIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	cl := newTestClient("c1")

	env.gateway.Leave(cl)

	if msgs := drain(cl); len(msgs) != 0 {
		t.Fatalf("got %d messages, want 0", len(msgs))
	}
}

func TestRoomSwitchLeavesOldRoomQuietly(t *testing.T) {
	env := newTestEnv(t)
	alice := newTestClient("c1")
	bob := newTestClient("c2")

	join(t, env, alice, "room-1", "alice")
	join(t, env, bob, "room-1", "bob")
	drain(alice)

	env.gateway.Join(alice, "room-2", "alice")

	// The old room sees only the updated membership, no userLeft.
	msgs := drain(bob)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages for bob, want 1", len(msgs))
	}
	if msgs[0].Event != EventUserJoined {
		t.Fatalf("got %q, want %q", msgs[0].Event, EventUserJoined)
	}
	if got := msgs[0].Data.([]string); !reflect.DeepEqual(got, []string{"bob"}) {
		t.Fatalf("got members %v, want [bob]", got)
	}

	sess := alice.Session()
	if sess.RoomID != "room-2" || sess.UserName != "alice" {
		t.Fatalf("got session %+v, want room-2/alice", sess)
	}
}

func TestPerUserProgressIsolation(t *testing.T) {
	env := newTestEnv(t)
	alice := newTestClient("c1")
	bob := newTestClient("c2")

	join(t, env, alice, "room-1", "alice")

	// Alice persists her own code; bob's record must stay pristine.
	env.router.Dispatch(alice, envelope(t, EventCodeChange, CodeChangePayload{
		RoomID: "room-1",
		Code:   "package main",
	}))
	env.repo.waitForUpsert(t)

	env.gateway.Join(bob, "room-1", "bob")

	msgs := drain(bob)
	if msgs[0].Event != EventProgressFetched {
		t.Fatalf("got %q, want %q", msgs[0].Event, EventProgressFetched)
	}
	record := msgs[0].Data.(*domain.Progress)
	if record.Code != domain.DefaultCode {
		t.Fatalf("bob's code is %q, want default", record.Code)
	}
}

func TestHandleRejectsMalformedJoin(t *testing.T) {
	env := newTestEnv(t)
	cl := newTestClient("c1")

	env.gateway.Handle(cl, &Envelope{Event: EventJoin, Data: []byte("not json")})

	msgs := drain(cl)
	if len(msgs) != 1 || msgs[0].Event != EventError {
		t.Fatalf("got %v, want a single error", msgs)
	}
}

func TestDisconnectCleansUpLikeLeave(t *testing.T) {
	env := newTestEnv(t)
	alice := newTestClient("c1")
	bob := newTestClient("c2")

	join(t, env, alice, "room-1", "alice")
	join(t, env, bob, "room-1", "bob")
	drain(alice)

	env.gateway.Disconnect(bob)

	msgs := drain(alice)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if got := msgs[0].Data.([]string); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("got members %v, want [alice]", got)
	}
	if msgs[1].Event != EventUserLeft {
		t.Fatalf("got %q, want %q", msgs[1].Event, EventUserLeft)
	}

	// The send path is closed; further deliveries are refused.
	if bob.Deliver(NewCodeUpdate("x")) {
		t.Fatal("delivery to a disconnected client must fail")
	}
}

// blockingPublisher parks every lifecycle call until release is closed, so
// tests can prove the gateway never waits on the broker.
type blockingPublisher struct {
	release chan struct{}
	calls   chan string
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{
		release: make(chan struct{}),
		calls:   make(chan string, 8),
	}
}

func (p *blockingPublisher) record(name string) error {
	p.calls <- name
	<-p.release
	return nil
}

func (p *blockingPublisher) RoomCreated(ctx context.Context, roomID string) error {
	return p.record("roomCreated")
}

func (p *blockingPublisher) RoomDeleted(ctx context.Context, roomID string) error {
	return p.record("roomDeleted")
}

func (p *blockingPublisher) MemberJoined(ctx context.Context, roomID, userName string) error {
	return p.record("memberJoined")
}

func (p *blockingPublisher) MemberLeft(ctx context.Context, roomID, userName string) error {
	return p.record("memberLeft")
}

func TestLifecyclePublishingDoesNotBlockJoinOrLeave(t *testing.T) {
	pub := newBlockingPublisher()
	env := newTestEnvWithPublisher(t, pub)
	defer close(pub.release)

	alice := newTestClient("c1")

	joined := make(chan struct{})
	go func() {
		env.gateway.Join(alice, "room-1", "alice")
		close(joined)
	}()

	select {
	case <-joined:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("join stalled on the lifecycle publisher")
	}

	msgs := drain(alice)
	if len(msgs) != 2 || msgs[0].Event != EventProgressFetched || msgs[1].Event != EventUserJoined {
		t.Fatalf("got %v, want progress then membership", msgs)
	}

	left := make(chan struct{})
	go func() {
		env.gateway.Leave(alice)
		close(left)
	}()

	select {
	case <-left:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("leave stalled on the lifecycle publisher")
	}

	// The notifications still go out, just in the background.
	want := []string{"roomCreated", "memberJoined", "memberLeft", "roomDeleted"}
	seen := make(map[string]bool)
	for range want {
		select {
		case name := <-pub.calls:
			seen[name] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for lifecycle calls, saw %v", seen)
		}
	}
	for _, name := range want {
		if !seen[name] {
			t.Fatalf("missing lifecycle call %q, saw %v", name, seen)
		}
	}
}

func TestCollabSessionFlow(t *testing.T) {
	env := newTestEnv(t)
	alice := newTestClient("c1")
	bob := newTestClient("c2")

	env.gateway.Join(alice, "r1", "alice")

	msgs := drain(alice)
	record := msgs[0].Data.(*domain.Progress)
	if record.Code != domain.DefaultCode || record.WhiteboardContent != "" ||
		len(record.DrawingData) != 0 || record.CursorPosition != (domain.CursorPosition{}) {
		t.Fatalf("got %+v, want the default record", record)
	}

	env.gateway.Join(bob, "r1", "bob")

	want := []string{"alice", "bob"}
	if got := drain(alice)[0].Data.([]string); !reflect.DeepEqual(got, want) {
		t.Fatalf("alice sees members %v, want %v", got, want)
	}
	bobMsgs := drain(bob)
	if got := bobMsgs[1].Data.([]string); !reflect.DeepEqual(got, want) {
		t.Fatalf("bob sees members %v, want %v", got, want)
	}

	env.router.Dispatch(alice, envelope(t, EventCodeChange, CodeChangePayload{
		RoomID: "r1",
		Code:   "print(1)",
	}))

	if msgs := drain(alice); len(msgs) != 0 {
		t.Fatalf("sender received %d messages, want 0", len(msgs))
	}
	bobMsgs = drain(bob)
	if len(bobMsgs) != 1 || bobMsgs[0].Event != EventCodeUpdate || bobMsgs[0].Data.(string) != "print(1)" {
		t.Fatalf("got %v, want codeUpdate(print(1))", bobMsgs)
	}

	env.repo.waitForUpsert(t)

	// The write landed under alice's key only.
	stored, err := env.repo.FetchOrCreate(context.Background(), "r1", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Code != "print(1)" {
		t.Fatalf("got code %q under alice, want print(1)", stored.Code)
	}

	bobStored, err := env.repo.FetchOrCreate(context.Background(), "r1", "bob")
	if err != nil {
		t.Fatal(err)
	}
	if bobStored.Code != domain.DefaultCode {
		t.Fatalf("got code %q under bob, want default", bobStored.Code)
	}
}
