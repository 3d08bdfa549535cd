package room

import (
	"log/slog"
	"sync"

	"github.com/romashorodok/room-signaling/pkg/protocol"
)

// RoomRegistry is the in-memory protocol.RoomRegistry. The room table is
// owned state behind a single mutex; the coordinator serializes mutation
// per room on top of it.
type RoomRegistry struct {
	sync.Mutex

	logger *slog.Logger
	rooms  map[protocol.RoomID]*Room
}

func (s *RoomRegistry) Create(roomID protocol.RoomID, option protocol.RoomCreateOption) protocol.RoomState {
	s.Lock()
	defer s.Unlock()

	room, exist := s.rooms[roomID]
	if !exist {
		room = newRoom(roomID, option.MaxParticipants)
		s.rooms[roomID] = room
		s.logger.Debug("room created",
			slog.String("roomId", roomID),
			slog.Int("maxParticipants", option.MaxParticipants),
		)
	}
	return room.State()
}

func (s *RoomRegistry) Find(roomID protocol.RoomID) (protocol.RoomState, bool) {
	s.Lock()
	defer s.Unlock()

	room, exist := s.rooms[roomID]
	if !exist {
		return protocol.RoomState{}, false
	}
	return room.State(), true
}

func (s *RoomRegistry) AddParticipant(roomID protocol.RoomID, userID protocol.UserID) error {
	s.Lock()
	defer s.Unlock()

	room, exist := s.rooms[roomID]
	if !exist {
		return ErrRoomNotFound
	}
	return room.addParticipant(userID)
}

func (s *RoomRegistry) RemoveParticipant(roomID protocol.RoomID, userID protocol.UserID) bool {
	s.Lock()
	defer s.Unlock()

	room, exist := s.rooms[roomID]
	if !exist {
		return false
	}

	removed := room.removeParticipant(userID)
	if removed && room.IsEmpty() {
		delete(s.rooms, roomID)
		s.logger.Debug("empty room deleted", slog.String("roomId", roomID))
	}
	return removed
}

func (s *RoomRegistry) ListParticipants(roomID protocol.RoomID) []protocol.UserID {
	s.Lock()
	defer s.Unlock()

	room, exist := s.rooms[roomID]
	if !exist {
		return []protocol.UserID{}
	}
	return room.State().Participants
}

func (s *RoomRegistry) ListActiveRooms() []protocol.RoomState {
	s.Lock()
	defer s.Unlock()

	result := make([]protocol.RoomState, 0)
	for _, room := range s.rooms {
		if room.IsEmpty() {
			continue
		}
		result = append(result, room.State())
	}
	return result
}

func NewRoomRegistry(logger *slog.Logger) protocol.RoomRegistry {
	return &RoomRegistry{
		logger: logger,
		rooms:  make(map[protocol.RoomID]*Room),
	}
}

var _ protocol.RoomRegistry = (*RoomRegistry)(nil)
