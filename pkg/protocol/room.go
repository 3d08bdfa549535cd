package protocol

import "time"

type (
	RoomID       = string
	UserID       = string
	ConnectionID = string
)

// RoomState is a point-in-time copy of one room. Mutation happens only
// through the RoomRegistry, never through this value.
type RoomState struct {
	RoomID          RoomID    `json:"roomId"`
	CreatedAt       time.Time `json:"createdAt"`
	MaxParticipants int       `json:"maxParticipants,omitempty"`
	Participants    []UserID  `json:"participants"`
}

// RoomInfo is the read projection served by the query surface.
type RoomInfo struct {
	RoomID           RoomID `json:"roomId"`
	ParticipantCount int    `json:"participantCount"`
	IsActive         bool   `json:"isActive"`
}

// RoomSnapshot is the membership view taken right after a coordinator
// operation, used for the room-stats broadcast.
type RoomSnapshot struct {
	RoomID           RoomID   `json:"roomId"`
	ParticipantCount int      `json:"participantCount"`
	Participants     []UserID `json:"participants"`
}

type RoomCreateOption struct {
	MaxParticipants int
	RoomID          *string
}

// RoomRegistry is the authoritative room -> participant set store.
// A persistent implementation may substitute the in-memory one without
// touching the coordinator or the gateway.
type RoomRegistry interface {
	// Create is idempotent: an existing room is returned unchanged.
	Create(roomID RoomID, option RoomCreateOption) RoomState
	Find(roomID RoomID) (RoomState, bool)
	// AddParticipant reports ErrRoomNotFound or ErrRoomFull. Re-adding a
	// present user is a no-op.
	AddParticipant(roomID RoomID, userID UserID) error
	// RemoveParticipant never fails on an absent room or user. It reports
	// whether the user was actually removed and deletes the room within
	// the same call when its participant set drains.
	RemoveParticipant(roomID RoomID, userID UserID) bool
	ListParticipants(roomID RoomID) []UserID
	ListActiveRooms() []RoomState
}
