package registry

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestJoinAndMembers(t *testing.T) {
	req := require.New(t)

	// Given
	r := New()

	// When
	r.Join("c1", "alice", "a1b2c3")
	r.Join("c2", "bob", "a1b2c3")
	r.Join("c3", "carol", "ffffff")

	// Then
	req.Equal([]string{"alice", "bob"}, r.MembersOf("a1b2c3"))
	req.Equal([]string{"c1", "c2"}, r.ConnectionsIn("a1b2c3"))
	req.Equal([]string{"carol"}, r.MembersOf("ffffff"))

	room, ok := r.RoomOf("c1")
	req.True(ok)
	req.Equal("a1b2c3", room)

	req.Equal(3, r.Count())
	req.Equal(2, r.RoomCount())
}

func TestJoinMovesBetweenRooms(t *testing.T) {
	req := require.New(t)
	r := New()

	_, moved := r.Join("c1", "alice", "room-a")
	req.False(moved)

	previous, moved := r.Join("c1", "alice", "room-b")

	req.True(moved)
	req.Equal("room-a", previous.RoomToken)
	req.Empty(r.ConnectionsIn("room-a"))
	req.Equal([]string{"c1"}, r.ConnectionsIn("room-b"))
	req.Equal(1, r.RoomCount())
}

func TestRejoinSameRoomIsNotAMove(t *testing.T) {
	req := require.New(t)
	r := New()

	r.Join("c1", "alice", "room-a")
	_, moved := r.Join("c1", "alice", "room-a")

	req.False(moved)
	req.Equal([]string{"c1"}, r.ConnectionsIn("room-a"))
}

func TestLeaveIsIdempotent(t *testing.T) {
	req := require.New(t)
	r := New()
	r.Join("c1", "alice", "room-a")

	entry, ok := r.Leave("c1")
	req.True(ok)
	req.Equal("alice", entry.DisplayName)

	_, ok = r.Leave("c1")
	req.False(ok)

	_, ok = r.Leave("never-joined")
	req.False(ok)

	_, ok = r.RoomOf("c1")
	req.False(ok)
	req.Equal([]string{}, r.MembersOf("room-a"))
	req.Zero(r.RoomCount())
}

func TestLeaveIfGuardsAgainstStaleRoom(t *testing.T) {
	req := require.New(t)
	r := New()
	r.Join("c1", "alice", "room-a")
	r.Join("c1", "alice", "room-b")

	_, ok := r.LeaveIf("c1", "room-a")
	req.False(ok)
	req.Equal([]string{"c1"}, r.ConnectionsIn("room-b"))

	_, ok = r.LeaveIf("c1", "room-b")
	req.True(ok)
	req.Zero(r.Count())
}

func TestMembersOfCollapsesDuplicateNames(t *testing.T) {
	req := require.New(t)
	r := New()

	r.Join("c1", "alice", "room-a")
	r.Join("c2", "alice", "room-a")

	req.Equal([]string{"alice"}, r.MembersOf("room-a"))
	req.Len(r.ConnectionsIn("room-a"), 2)
}

func TestMembersOfReturnsSnapshot(t *testing.T) {
	req := require.New(t)
	r := New()
	r.Join("c1", "alice", "room-a")

	snapshot := r.MembersOf("room-a")
	r.Join("c2", "bob", "room-a")

	req.Equal([]string{"alice"}, snapshot)
}

func TestConcurrentJoinLeaveKeepsIndexConsistent(t *testing.T) {
	req := require.New(t)

	// Given
	r := New()
	rooms := []string{"r1", "r2", "r3"}
	conns := make([]string, 20)
	for i := range conns {
		conns[i] = uuid.NewString()
	}

	// When
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for range 500 {
				id := conns[rnd.Intn(len(conns))]
				if rnd.Intn(3) == 0 {
					r.Leave(id)
					continue
				}
				r.Join(id, fmt.Sprintf("user-%s", id[:4]), rooms[rnd.Intn(len(rooms))])
			}
		}(int64(w))
	}
	wg.Wait()

	// Then
	seen := map[string]string{}
	for _, room := range rooms {
		for _, id := range r.ConnectionsIn(room) {
			prev, dup := seen[id]
			req.False(dup, "connection %s listed in %s and %s", id, prev, room)
			seen[id] = room

			current, ok := r.RoomOf(id)
			req.True(ok)
			req.Equal(room, current)
		}
	}
	req.Equal(r.Count(), len(seen))
}
