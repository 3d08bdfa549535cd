package signaling

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu       sync.Mutex
	messages []websocketMessage
}

func (w *recordingWriter) WriteJSON(val any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, *(val.(*websocketMessage)))
	return nil
}

func (w *recordingWriter) events() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var result []string
	for _, m := range w.messages {
		result = append(result, m.Event)
	}
	return result
}

func testHub() *BroadcastHub {
	return NewBroadcastHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBroadcastHub_BroadcastExcludesSender(t *testing.T) {
	req := require.New(t)
	hub := testHub()

	alice, bob := &recordingWriter{}, &recordingWriter{}
	hub.Attach("c-alice", alice)
	hub.Attach("c-bob", bob)
	hub.JoinRoom("r1", "c-alice")
	hub.JoinRoom("r1", "c-bob")

	hub.BroadcastToRoom("r1", EventUserConnected, "bob", "c-bob")

	req.Equal([]string{EventUserConnected}, alice.events())
	req.Empty(bob.events())

	hub.BroadcastToRoom("r1", EventRoomStats, `{"participantCount":2}`, "")

	req.Equal([]string{EventUserConnected, EventRoomStats}, alice.events())
	req.Equal([]string{EventRoomStats}, bob.events())
}

func TestBroadcastHub_SendToConnection(t *testing.T) {
	req := require.New(t)
	hub := testHub()

	alice := &recordingWriter{}
	hub.Attach("c-alice", alice)

	hub.SendToConnection("c-alice", EventError, `{"message":"room is full"}`)
	hub.SendToConnection("unknown", EventError, `{}`)

	req.Len(alice.messages, 1)
	req.Equal(EventError, alice.messages[0].Event)
}

func TestBroadcastHub_LeaveRoomStopsDelivery(t *testing.T) {
	req := require.New(t)
	hub := testHub()

	alice, bob := &recordingWriter{}, &recordingWriter{}
	hub.Attach("c-alice", alice)
	hub.Attach("c-bob", bob)
	hub.JoinRoom("r1", "c-alice")
	hub.JoinRoom("r1", "c-bob")

	hub.LeaveRoom("r1", "c-alice")
	hub.BroadcastToRoom("r1", EventUserDisconnected, "alice", "")

	req.Empty(alice.events())
	req.Equal([]string{EventUserDisconnected}, bob.events())
}

func TestBroadcastHub_DetachDropsMembershipAndGauge(t *testing.T) {
	req := require.New(t)
	hub := testHub()

	alice := &recordingWriter{}
	hub.Attach("c-alice", alice)
	hub.JoinRoom("r1", "c-alice")
	req.EqualValues(1, hub.ActiveConnections())

	hub.Detach("c-alice")
	req.EqualValues(0, hub.ActiveConnections())

	hub.BroadcastToRoom("r1", EventRoomStats, `{}`, "")
	req.Empty(alice.events())

	// Double detach must not underflow the gauge
	hub.Detach("c-alice")
	req.EqualValues(0, hub.ActiveConnections())
}

func TestBroadcastHub_JoinRoomRequiresAttachedConnection(t *testing.T) {
	req := require.New(t)
	hub := testHub()

	hub.JoinRoom("r1", "ghost")
	hub.BroadcastToRoom("r1", EventRoomStats, `{}`, "")

	req.EqualValues(0, hub.ActiveConnections())
}
