package coordinator

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/romashorodok/room-signaling/internal/room"
	"github.com/romashorodok/room-signaling/internal/session"
	"github.com/romashorodok/room-signaling/pkg/protocol"
	"github.com/stretchr/testify/require"
)

type coordinatorFixture struct {
	rooms       protocol.RoomRegistry
	sessions    protocol.SessionRegistry
	coordinator *ParticipantCoordinator
}

func newFixture() *coordinatorFixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rooms := room.NewRoomRegistry(logger)
	sessions := session.NewSessionRegistry(logger)
	return &coordinatorFixture{
		rooms:       rooms,
		sessions:    sessions,
		coordinator: NewParticipantCoordinator(rooms, sessions, logger),
	}
}

func TestCoordinator_Join_CreatesRoomSessionAndMembership(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	snapshot, err := f.coordinator.Join("c1", "alice", "r1")
	req.NoError(err)
	req.Equal(1, snapshot.ParticipantCount)
	req.Equal([]protocol.UserID{"alice"}, snapshot.Participants)

	sess, exist := f.sessions.FindByConnectionID("c1")
	req.True(exist)
	req.Equal("alice", sess.UserID)
	req.Equal("r1", sess.RoomID)
	req.Equal("alice", sess.PeerID)

	req.Contains(f.rooms.ListParticipants("r1"), "alice")
}

func TestCoordinator_Join_RoomFullRollsBackSession(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.rooms.Create("r2", protocol.RoomCreateOption{MaxParticipants: 1})

	_, err := f.coordinator.Join("c1", "a", "r2")
	req.NoError(err)

	_, err = f.coordinator.Join("c2", "b", "r2")
	req.ErrorIs(err, room.ErrRoomFull)

	// No orphan session survives a rejected join
	_, exist := f.sessions.FindByConnectionID("c2")
	req.False(exist)
	req.Equal(1, f.sessions.Count())
	req.Equal([]protocol.UserID{"a"}, f.rooms.ListParticipants("r2"))
}

func TestCoordinator_Leave_IsIdempotent(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	_, err := f.coordinator.Join("c1", "alice", "r1")
	req.NoError(err)
	_, err = f.coordinator.Join("c2", "bob", "r1")
	req.NoError(err)

	snapshot, removed := f.coordinator.Leave("r1", "alice")
	req.True(removed)
	req.Equal(1, snapshot.ParticipantCount)

	// Second leave finds nothing and changes nothing
	snapshot, removed = f.coordinator.Leave("r1", "alice")
	req.False(removed)
	req.Equal(1, snapshot.ParticipantCount)
	req.Equal(1, f.sessions.Count())
}

func TestCoordinator_Leave_UnknownRoomIsNoop(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	_, removed := f.coordinator.Leave("never-joined", "alice")
	req.False(removed)
	req.Zero(f.sessions.Count())
}

func TestCoordinator_LeaveByConnection(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	_, err := f.coordinator.Join("c1", "alice", "r1")
	req.NoError(err)
	_, err = f.coordinator.Join("c2", "bob", "r1")
	req.NoError(err)

	sess, snapshot, removed := f.coordinator.LeaveByConnection("c1")
	req.True(removed)
	req.Equal("alice", sess.UserID)
	req.Equal("r1", sess.RoomID)
	req.Equal(1, snapshot.ParticipantCount)

	// Racing duplicate disconnect degrades to a no-op
	_, _, removed = f.coordinator.LeaveByConnection("c1")
	req.False(removed)

	_, _, removed = f.coordinator.LeaveByConnection("never-connected")
	req.False(removed)
}

func TestCoordinator_LastLeaveDeletesRoom(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	_, err := f.coordinator.Join("c1", "alice", "r1")
	req.NoError(err)

	snapshot, removed := f.coordinator.Leave("r1", "alice")
	req.True(removed)
	req.Zero(snapshot.ParticipantCount)

	_, exist := f.rooms.Find("r1")
	req.False(exist)
}

func TestCoordinator_JoinRebindsConnectionAcrossRooms(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	_, err := f.coordinator.Join("c1", "alice", "r1")
	req.NoError(err)

	_, err = f.coordinator.Join("c1", "alice", "r2")
	req.NoError(err)

	// The registries stay in lockstep: the old binding is fully gone
	req.Equal(1, f.sessions.Count())
	sess, exist := f.sessions.FindByConnectionID("c1")
	req.True(exist)
	req.Equal("r2", sess.RoomID)

	_, exist = f.rooms.Find("r1")
	req.False(exist)
}

func TestCoordinator_ConcurrentJoinsNeverExceedCapacity(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	const capacity = 5
	const attempts = 64
	f.rooms.Create("crowded", protocol.RoomCreateOption{MaxParticipants: capacity})

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.coordinator.Join(
				fmt.Sprintf("conn-%d", i),
				fmt.Sprintf("user-%d", i),
				"crowded",
			)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var accepted, rejected int
	for err := range errs {
		if err != nil {
			req.ErrorIs(err, room.ErrRoomFull)
			rejected++
			continue
		}
		accepted++
	}

	req.Equal(capacity, accepted)
	req.Equal(attempts-capacity, rejected)
	req.Len(f.rooms.ListParticipants("crowded"), capacity)
	req.Equal(capacity, f.sessions.Count())
}
