package signaling

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/romashorodok/room-signaling/internal/coordinator"
	"github.com/romashorodok/room-signaling/internal/room"
	"github.com/romashorodok/room-signaling/pkg/protocol"
)

const (
	EventJoinRoom  = "join-room"
	EventLeaveRoom = "leave-room"

	EventUserConnected    = "user-connected"
	EventUserDisconnected = "user-disconnected"
	EventRoomStats        = "room-stats"
	EventError            = "error"
)

type joinRoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

type leaveRoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

type roomStatsPayload struct {
	ParticipantCount int `json:"participantCount"`
}

type errorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Gateway bridges transport connection events to the coordinator and
// re-broadcasts the resulting state to the room. Per connection it walks
// Unjoined -> Joined -> Unjoined; the binding held by the session registry
// is that state. Failures never cross the gateway: they become a one-way
// error notification to the offending connection only.
type Gateway struct {
	coordinator *coordinator.ParticipantCoordinator
	broadcaster protocol.Broadcaster
	validate    *validator.Validate
	logger      *slog.Logger
}

func (g *Gateway) HandleJoin(connectionID protocol.ConnectionID, data string) {
	var payload joinRoomPayload
	if err := g.decode(data, &payload); err != nil {
		g.sendError(connectionID, "wrong data format", err)
		return
	}

	if prior, exist := g.coordinator.Binding(connectionID); exist {
		if prior.RoomID == payload.RoomID && prior.UserID == payload.UserID {
			// Duplicate join. The first occurrence broadcast already.
			g.logger.Debug("duplicate join suppressed",
				slog.String("connectionId", connectionID),
				slog.String("roomId", payload.RoomID),
			)
			return
		}
		// Rebind: the old room has to observe the departure first.
		g.HandleDisconnect(connectionID)
	}

	snapshot, err := g.coordinator.Join(connectionID, payload.UserID, payload.RoomID)
	if err != nil {
		if errors.Is(err, room.ErrRoomFull) {
			g.sendError(connectionID, "room is full", err)
			return
		}
		g.logger.Error("join failed", slog.String("connectionId", connectionID), slog.String("err", err.Error()))
		g.sendError(connectionID, "unable to join room", err)
		return
	}

	g.broadcaster.JoinRoom(payload.RoomID, connectionID)
	g.broadcaster.BroadcastToRoom(payload.RoomID, EventUserConnected, payload.UserID, connectionID)
	g.broadcastStats(payload.RoomID, snapshot)
}

func (g *Gateway) HandleLeave(connectionID protocol.ConnectionID, data string) {
	var payload leaveRoomPayload
	if err := g.decode(data, &payload); err != nil {
		g.sendError(connectionID, "wrong data format", err)
		return
	}

	snapshot, removed := g.coordinator.Leave(payload.RoomID, payload.UserID)
	if !removed {
		return
	}

	g.broadcaster.LeaveRoom(payload.RoomID, connectionID)
	g.broadcaster.BroadcastToRoom(payload.RoomID, EventUserDisconnected, payload.UserID, "")
	if snapshot.ParticipantCount > 0 {
		g.broadcastStats(payload.RoomID, snapshot)
	}
}

// HandleDisconnect runs when the transport loses the connection without an
// explicit leave. Nothing is broadcast when the connection never joined or
// already left.
func (g *Gateway) HandleDisconnect(connectionID protocol.ConnectionID) {
	sess, snapshot, removed := g.coordinator.LeaveByConnection(connectionID)
	if !removed {
		return
	}

	g.broadcaster.LeaveRoom(sess.RoomID, connectionID)
	g.broadcaster.BroadcastToRoom(sess.RoomID, EventUserDisconnected, sess.UserID, "")
	if snapshot.ParticipantCount > 0 {
		g.broadcastStats(sess.RoomID, snapshot)
	}
}

func (g *Gateway) broadcastStats(roomID protocol.RoomID, snapshot protocol.RoomSnapshot) {
	data, err := json.Marshal(&roomStatsPayload{ParticipantCount: snapshot.ParticipantCount})
	if err != nil {
		g.logger.Error("marshal room stats", slog.String("roomId", roomID))
		return
	}
	g.broadcaster.BroadcastToRoom(roomID, EventRoomStats, string(data), "")
}

func (g *Gateway) decode(data string, payload any) error {
	if err := json.Unmarshal([]byte(data), payload); err != nil {
		return err
	}
	return g.validate.Struct(payload)
}

func (g *Gateway) sendError(connectionID protocol.ConnectionID, message string, cause error) {
	payload := errorPayload{Message: message}
	if cause != nil {
		payload.Error = cause.Error()
	}
	data, err := json.Marshal(&payload)
	if err != nil {
		return
	}
	g.broadcaster.SendToConnection(connectionID, EventError, string(data))
}

func NewGateway(
	coord *coordinator.ParticipantCoordinator,
	broadcaster protocol.Broadcaster,
	logger *slog.Logger,
) *Gateway {
	return &Gateway{
		coordinator: coord,
		broadcaster: broadcaster,
		validate:    validator.New(),
		logger:      logger,
	}
}
