// Package registry tracks which participants are currently members of which
// room. It is pure runtime state: initialized empty, lost on process stop.
package registry

import "sync"

// Registry maps roomID to its membership set. Membership is a set, but
// insertion order is kept so snapshots are deterministic.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string][]string
}

func New() *Registry {
	return &Registry{
		rooms: make(map[string][]string),
	}
}

// Join adds userName to the room, creating the room if absent. Re-joining
// is a no-op for the set. It returns a snapshot of the membership after the
// join and whether the room was created by this call.
func (r *Registry) Join(roomID, userName string) (members []string, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.rooms[roomID]
	if !ok {
		created = true
	}

	if !contains(current, userName) {
		current = append(current, userName)
	}
	r.rooms[roomID] = current

	return snapshot(current), created
}

// Leave removes userName from the room. An empty room is pruned. It returns
// a snapshot of the remaining membership, whether the member was actually
// present, and whether the room was pruned.
func (r *Registry) Leave(roomID, userName string) (members []string, removed, pruned bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.rooms[roomID]
	if !ok {
		return nil, false, false
	}

	for i, name := range current {
		if name == userName {
			current = append(current[:i], current[i+1:]...)
			removed = true
			break
		}
	}

	if len(current) == 0 {
		delete(r.rooms, roomID)
		return []string{}, removed, removed
	}

	r.rooms[roomID] = current
	return snapshot(current), removed, false
}

// MembersOf returns a snapshot copy of the room's membership. Later registry
// mutations do not affect a previously returned snapshot.
func (r *Registry) MembersOf(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return snapshot(r.rooms[roomID])
}

// RoomCount reports the number of rooms with at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

func contains(members []string, name string) bool {
	for _, m := range members {
		if m == name {
			return true
		}
	}
	return false
}

func snapshot(members []string) []string {
	out := make([]string, len(members))
	copy(out, members)
	return out
}
