// Package registry tracks which live connection sits in which room.
package registry

import (
	"slices"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

type Entry struct {
	ConnectionID string
	DisplayName  string
	RoomToken    string
	JoinedAt     time.Time
}

// Registry owns the connection entries and the room reverse index. Both
// maps are guarded by the same lock so they never disagree.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]Entry
	rooms       map[string]mapset.Set[string]
	now         func() time.Time
}

func New() *Registry {
	return &Registry{
		connections: make(map[string]Entry),
		rooms:       make(map[string]mapset.Set[string]),
		now:         time.Now,
	}
}

// Join records the connection in roomToken, replacing any earlier entry.
// When the connection was in another room that previous entry is returned
// with moved set.
func (r *Registry) Join(connectionID, displayName, roomToken string) (previous Entry, moved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.connections[connectionID]; ok {
		r.unindex(old)
		if old.RoomToken != roomToken {
			previous, moved = old, true
		}
	}

	entry := Entry{
		ConnectionID: connectionID,
		DisplayName:  displayName,
		RoomToken:    roomToken,
		JoinedAt:     r.now(),
	}
	r.connections[connectionID] = entry

	members, ok := r.rooms[roomToken]
	if !ok {
		members = mapset.NewThreadUnsafeSet[string]()
		r.rooms[roomToken] = members
	}
	members.Add(connectionID)

	return previous, moved
}

// Leave removes the connection. Unknown ids are ignored.
func (r *Registry) Leave(connectionID string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.connections[connectionID]
	if !ok {
		return Entry{}, false
	}
	r.remove(entry)
	return entry, true
}

// LeaveIf removes the connection only while it is still in roomToken.
func (r *Registry) LeaveIf(connectionID, roomToken string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.connections[connectionID]
	if !ok || entry.RoomToken != roomToken {
		return Entry{}, false
	}
	r.remove(entry)
	return entry, true
}

// MembersOf returns the sorted display names present in the room.
func (r *Registry) MembersOf(roomToken string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomToken]
	if !ok {
		return []string{}
	}

	names := mapset.NewThreadUnsafeSet[string]()
	for id := range members.Iter() {
		names.Add(r.connections[id].DisplayName)
	}

	out := names.ToSlice()
	slices.Sort(out)
	return out
}

// ConnectionsIn returns the ids of the connections in the room.
func (r *Registry) ConnectionsIn(roomToken string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomToken]
	if !ok {
		return []string{}
	}
	out := members.ToSlice()
	slices.Sort(out)
	return out
}

func (r *Registry) RoomOf(connectionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.connections[connectionID]
	if !ok {
		return "", false
	}
	return entry.RoomToken, true
}

func (r *Registry) Lookup(connectionID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.connections[connectionID]
	return entry, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func (r *Registry) remove(entry Entry) {
	delete(r.connections, entry.ConnectionID)
	r.unindex(entry)
}

func (r *Registry) unindex(entry Entry) {
	members, ok := r.rooms[entry.RoomToken]
	if !ok {
		return
	}
	members.Remove(entry.ConnectionID)
	if members.Cardinality() == 0 {
		delete(r.rooms, entry.RoomToken)
	}
}
