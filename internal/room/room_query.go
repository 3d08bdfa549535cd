package room

import (
	"github.com/romashorodok/room-signaling/pkg/protocol"
	"github.com/samber/lo"
)

// RoomQueryService is the read-only projection over the room registry.
// Results are point-in-time snapshots and may be stale by the time the
// caller uses them.
type RoomQueryService struct {
	registry protocol.RoomRegistry
}

func (s *RoomQueryService) GetRoomInfo(roomID protocol.RoomID) (protocol.RoomInfo, bool) {
	state, exist := s.registry.Find(roomID)
	if !exist {
		return protocol.RoomInfo{}, false
	}

	return protocol.RoomInfo{
		RoomID:           state.RoomID,
		ParticipantCount: len(state.Participants),
		IsActive:         len(state.Participants) > 0,
	}, true
}

func (s *RoomQueryService) GetActiveRooms() []protocol.RoomInfo {
	return lo.Map(s.registry.ListActiveRooms(), func(state protocol.RoomState, _ int) protocol.RoomInfo {
		return protocol.RoomInfo{
			RoomID:           state.RoomID,
			ParticipantCount: len(state.Participants),
			IsActive:         true,
		}
	})
}

func (s *RoomQueryService) GetRoomUsers(roomID protocol.RoomID) []protocol.UserID {
	return s.registry.ListParticipants(roomID)
}

func NewRoomQueryService(registry protocol.RoomRegistry) *RoomQueryService {
	return &RoomQueryService{
		registry: registry,
	}
}
