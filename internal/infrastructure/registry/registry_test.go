package registry

import (
	"reflect"
	"testing"
)

func eq(t *testing.T, got, want interface{}) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestJoinCreatesRoom(t *testing.T) {
	r := New()

	members, created := r.Join("room-1", "alice")
	eq(t, created, true)
	eq(t, members, []string{"alice"})
	eq(t, r.RoomCount(), 1)

	members, created = r.Join("room-1", "bob")
	eq(t, created, false)
	eq(t, members, []string{"alice", "bob"})
}

func TestRejoinIsNoOp(t *testing.T) {
	r := New()

	r.Join("room-1", "alice")
	members, created := r.Join("room-1", "alice")

	eq(t, created, false)
	eq(t, members, []string{"alice"})
}

func TestLeaveRemovesMember(t *testing.T) {
	r := New()
	r.Join("room-1", "alice")
	r.Join("room-1", "bob")

	members, removed, pruned := r.Leave("room-1", "alice")
	eq(t, removed, true)
	eq(t, pruned, false)
	eq(t, members, []string{"bob"})
}

func TestLeaveLastMemberPrunesRoom(t *testing.T) {
	r := New()
	r.Join("room-1", "alice")

	members, removed, pruned := r.Leave("room-1", "alice")
	eq(t, removed, true)
	eq(t, pruned, true)
	eq(t, members, []string{})
	eq(t, r.RoomCount(), 0)
}

func TestLeaveUnknownRoom(t *testing.T) {
	r := New()

	_, removed, pruned := r.Leave("nope", "alice")
	eq(t, removed, false)
	eq(t, pruned, false)
}

func TestLeaveNonMember(t *testing.T) {
	r := New()
	r.Join("room-1", "alice")

	members, removed, pruned := r.Leave("room-1", "mallory")
	eq(t, removed, false)
	eq(t, pruned, false)
	eq(t, members, []string{"alice"})
}

func TestMembersOfSnapshotIsIsolated(t *testing.T) {
	r := New()
	r.Join("room-1", "alice")

	snap := r.MembersOf("room-1")
	r.Join("room-1", "bob")

	eq(t, snap, []string{"alice"})
	eq(t, r.MembersOf("room-1"), []string{"alice", "bob"})
}

func TestRoomsAreIndependent(t *testing.T) {
	r := New()
	r.Join("room-1", "alice")
	r.Join("room-2", "alice")

	eq(t, r.RoomCount(), 2)

	r.Leave("room-1", "alice")
	eq(t, r.MembersOf("room-2"), []string{"alice"})
}
