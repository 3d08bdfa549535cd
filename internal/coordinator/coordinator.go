package coordinator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/romashorodok/room-signaling/pkg/protocol"
)

// ParticipantCoordinator is the single entry point for membership
// mutation. It is the only component allowed to write both the room and
// the session registry for one logical operation, which keeps the two
// stores in lockstep. Every mutation is serialized per room; cross-room
// operations never contend.
type ParticipantCoordinator struct {
	rooms    protocol.RoomRegistry
	sessions protocol.SessionRegistry
	locks    *keyedMutex
	logger   *slog.Logger
}

// Binding reports the current (room, user) binding of a connection.
func (c *ParticipantCoordinator) Binding(connectionID protocol.ConnectionID) (protocol.Session, bool) {
	return c.sessions.FindByConnectionID(connectionID)
}

// Join registers a session and adds the participant as one logical unit.
// An unseen room id is created with unbounded capacity first. When the
// room rejects the participant the session registration is rolled back, so
// a rejected join leaves no orphan session behind.
func (c *ParticipantCoordinator) Join(
	connectionID protocol.ConnectionID,
	userID protocol.UserID,
	roomID protocol.RoomID,
) (protocol.RoomSnapshot, error) {
	// A connection may hold at most one binding. Rebinding detaches the
	// prior room first, outside of the target room lock.
	if prior, exist := c.sessions.FindByConnectionID(connectionID); exist {
		c.logger.Warn("connection rebinds before join",
			slog.String("connectionId", connectionID),
			slog.String("priorRoomId", prior.RoomID),
			slog.String("roomId", roomID),
		)
		c.LeaveByConnection(connectionID)
	}

	unlock := c.locks.Lock(roomID)
	defer unlock()

	c.rooms.Create(roomID, protocol.RoomCreateOption{})

	registered := c.sessions.Create(protocol.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		ConnectionID: connectionID,
		RoomID:       roomID,
		PeerID:       userID,
		ConnectedAt:  time.Now(),
	})

	if err := c.rooms.AddParticipant(roomID, userID); err != nil {
		c.sessions.Delete(registered.ID)
		return protocol.RoomSnapshot{}, fmt.Errorf("join room %s: %w", roomID, err)
	}

	c.logger.Info("participant joined",
		slog.String("roomId", roomID),
		slog.String("userId", userID),
		slog.String("connectionId", connectionID),
	)
	return c.snapshot(roomID), nil
}

// Leave removes the participant and its session by explicit identity. It
// reports whether anything was removed: repeated or out-of-order leave
// signals degrade to no-ops.
func (c *ParticipantCoordinator) Leave(
	roomID protocol.RoomID,
	userID protocol.UserID,
) (protocol.RoomSnapshot, bool) {
	unlock := c.locks.Lock(roomID)
	defer unlock()

	removed := c.rooms.RemoveParticipant(roomID, userID)

	for _, sess := range c.sessions.FindByRoomID(roomID) {
		if sess.UserID != userID {
			continue
		}
		c.sessions.Delete(sess.ID)
		removed = true
	}

	if removed {
		c.logger.Info("participant left",
			slog.String("roomId", roomID),
			slog.String("userId", userID),
		)
	}
	return c.snapshot(roomID), removed
}

// LeaveByConnection is the abrupt-disconnect entry point: the transport
// only knows the connection id. It reports the removed binding, or false
// when the connection never joined or already left.
func (c *ParticipantCoordinator) LeaveByConnection(
	connectionID protocol.ConnectionID,
) (protocol.Session, protocol.RoomSnapshot, bool) {
	sess, exist := c.sessions.FindByConnectionID(connectionID)
	if !exist {
		return protocol.Session{}, protocol.RoomSnapshot{}, false
	}

	unlock := c.locks.Lock(sess.RoomID)
	defer unlock()

	// The binding may have been removed while acquiring the room lock.
	sess, exist = c.sessions.FindByConnectionID(connectionID)
	if !exist {
		return protocol.Session{}, protocol.RoomSnapshot{}, false
	}

	c.sessions.Delete(sess.ID)
	c.rooms.RemoveParticipant(sess.RoomID, sess.UserID)

	c.logger.Info("participant disconnected",
		slog.String("roomId", sess.RoomID),
		slog.String("userId", sess.UserID),
		slog.String("connectionId", connectionID),
	)
	return sess, c.snapshot(sess.RoomID), true
}

func (c *ParticipantCoordinator) snapshot(roomID protocol.RoomID) protocol.RoomSnapshot {
	state, exist := c.rooms.Find(roomID)
	if !exist {
		return protocol.RoomSnapshot{RoomID: roomID}
	}
	return protocol.RoomSnapshot{
		RoomID:           roomID,
		ParticipantCount: len(state.Participants),
		Participants:     state.Participants,
	}
}

func NewParticipantCoordinator(
	rooms protocol.RoomRegistry,
	sessions protocol.SessionRegistry,
	logger *slog.Logger,
) *ParticipantCoordinator {
	return &ParticipantCoordinator{
		rooms:    rooms,
		sessions: sessions,
		locks:    newKeyedMutex(),
		logger:   logger,
	}
}
