package room

import (
	"time"

	"github.com/romashorodok/room-signaling/pkg/protocol"
)

// Room owns its membership set. Only the registry touches it, under the
// registry lock.
type Room struct {
	id              protocol.RoomID
	createdAt       time.Time
	maxParticipants int
	participants    map[protocol.UserID]struct{}
}

func newRoom(id protocol.RoomID, maxParticipants int) *Room {
	return &Room{
		id:              id,
		createdAt:       time.Now(),
		maxParticipants: maxParticipants,
		participants:    make(map[protocol.UserID]struct{}),
	}
}

// IsFull reports whether the capacity bound is reached. Zero capacity
// means unbounded.
func (r *Room) IsFull() bool {
	return r.maxParticipants > 0 && len(r.participants) >= r.maxParticipants
}

func (r *Room) IsEmpty() bool {
	return len(r.participants) == 0
}

func (r *Room) ParticipantCount() int {
	return len(r.participants)
}

func (r *Room) HasParticipant(userID protocol.UserID) bool {
	_, exist := r.participants[userID]
	return exist
}

func (r *Room) addParticipant(userID protocol.UserID) error {
	if _, exist := r.participants[userID]; exist {
		return nil
	}
	if r.IsFull() {
		return ErrRoomFull
	}
	r.participants[userID] = struct{}{}
	return nil
}

func (r *Room) removeParticipant(userID protocol.UserID) bool {
	if _, exist := r.participants[userID]; !exist {
		return false
	}
	delete(r.participants, userID)
	return true
}

func (r *Room) State() protocol.RoomState {
	participants := make([]protocol.UserID, 0, len(r.participants))
	for userID := range r.participants {
		participants = append(participants, userID)
	}

	return protocol.RoomState{
		RoomID:          r.id,
		CreatedAt:       r.createdAt,
		MaxParticipants: r.maxParticipants,
		Participants:    participants,
	}
}
