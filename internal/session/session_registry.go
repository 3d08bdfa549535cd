package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/romashorodok/room-signaling/pkg/protocol"
)

// ErrSessionConflict marks two live sessions observed for one connection.
// It never reaches a client; the registry resolves it by evicting the
// prior session.
var ErrSessionConflict = errors.New("session conflict: connection already has a live session")

// SessionRegistry is the in-memory protocol.SessionRegistry: the primary
// session table plus the connection inverse index needed for cleanup on
// abrupt disconnect. Both maps change together under one lock.
type SessionRegistry struct {
	sync.Mutex

	logger   *slog.Logger
	sessions map[string]protocol.Session
	// connectionId -> sessionId
	connIndex map[protocol.ConnectionID]string
}

func (s *SessionRegistry) Create(session protocol.Session) protocol.Session {
	s.Lock()
	defer s.Unlock()

	if priorID, exist := s.connIndex[session.ConnectionID]; exist {
		s.logger.Warn(ErrSessionConflict.Error(),
			slog.String("connectionId", session.ConnectionID),
			slog.String("evictedSessionId", priorID),
		)
		delete(s.sessions, priorID)
	}

	s.sessions[session.ID] = session
	s.connIndex[session.ConnectionID] = session.ID
	return session
}

func (s *SessionRegistry) FindByConnectionID(connectionID protocol.ConnectionID) (protocol.Session, bool) {
	s.Lock()
	defer s.Unlock()

	sessionID, exist := s.connIndex[connectionID]
	if !exist {
		return protocol.Session{}, false
	}
	session, exist := s.sessions[sessionID]
	return session, exist
}

func (s *SessionRegistry) FindByRoomID(roomID protocol.RoomID) []protocol.Session {
	s.Lock()
	defer s.Unlock()

	var result []protocol.Session
	for _, session := range s.sessions {
		if session.RoomID == roomID {
			result = append(result, session)
		}
	}
	return result
}

func (s *SessionRegistry) FindAll() []protocol.Session {
	s.Lock()
	defer s.Unlock()

	result := make([]protocol.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		result = append(result, session)
	}
	return result
}

func (s *SessionRegistry) Count() int {
	s.Lock()
	defer s.Unlock()
	return len(s.sessions)
}

func (s *SessionRegistry) Delete(sessionID string) {
	s.Lock()
	defer s.Unlock()

	session, exist := s.sessions[sessionID]
	if !exist {
		return
	}
	delete(s.connIndex, session.ConnectionID)
	delete(s.sessions, sessionID)
}

func NewSessionRegistry(logger *slog.Logger) protocol.SessionRegistry {
	return &SessionRegistry{
		logger:    logger,
		sessions:  make(map[string]protocol.Session),
		connIndex: make(map[protocol.ConnectionID]string),
	}
}

var _ protocol.SessionRegistry = (*SessionRegistry)(nil)
