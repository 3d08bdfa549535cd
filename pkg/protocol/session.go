package protocol

import "time"

// Session binds one live transport connection to one user inside one room.
// PeerID is the media-broker identity of the user, today always equal to
// UserID.
type Session struct {
	ID           string       `json:"id"`
	UserID       UserID       `json:"userId"`
	ConnectionID ConnectionID `json:"connectionId"`
	RoomID       RoomID       `json:"roomId"`
	PeerID       string       `json:"peerId"`
	ConnectedAt  time.Time    `json:"connectedAt"`
}

func (s Session) Age() time.Duration {
	return time.Since(s.ConnectedAt)
}

// SessionRegistry owns session storage and the connection inverse index.
// At most one live session exists per connection: Create evicts the prior
// one for the same ConnectionID.
type SessionRegistry interface {
	Create(session Session) Session
	FindByConnectionID(connectionID ConnectionID) (Session, bool)
	FindByRoomID(roomID RoomID) []Session
	FindAll() []Session
	Count() int
	// Delete removes the primary entry and the connection index entry.
	// Deleting an absent session is a no-op.
	Delete(sessionID string)
}
