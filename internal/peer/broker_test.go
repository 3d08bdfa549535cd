package peer

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingPeer struct {
	mu       sync.Mutex
	messages []brokerMessage
}

func (p *recordingPeer) WriteJSON(val any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, *(val.(*brokerMessage)))
	return nil
}

func testBroker() *Broker {
	return NewPeerBroker(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBroker_RegisterRejectsTakenID(t *testing.T) {
	req := require.New(t)
	broker := testBroker()

	req.NoError(broker.Register("alice", &recordingPeer{}))
	req.ErrorIs(broker.Register("alice", &recordingPeer{}), ErrPeerIDTaken)
	req.Equal(1, broker.PeerCount())
}

func TestBroker_RelayStampsSrcAndKeepsPayloadOpaque(t *testing.T) {
	req := require.New(t)
	broker := testBroker()

	bob := &recordingPeer{}
	req.NoError(broker.Register("alice", &recordingPeer{}))
	req.NoError(broker.Register("bob", bob))

	payload := json.RawMessage(`{"sdp":"v=0..."}`)
	broker.Relay("alice", brokerMessage{Type: msgOffer, Src: "spoofed", Dst: "bob", Payload: payload})

	req.Len(bob.messages, 1)
	req.Equal(msgOffer, bob.messages[0].Type)
	req.Equal("alice", bob.messages[0].Src)
	req.JSONEq(string(payload), string(bob.messages[0].Payload))
}

func TestBroker_RelayOfferToMissingPeerExpires(t *testing.T) {
	req := require.New(t)
	broker := testBroker()

	alice := &recordingPeer{}
	req.NoError(broker.Register("alice", alice))

	broker.Relay("alice", brokerMessage{Type: msgOffer, Dst: "ghost"})

	req.Len(alice.messages, 1)
	req.Equal(msgExpire, alice.messages[0].Type)
	req.Equal("ghost", alice.messages[0].Src)
	req.Equal("alice", alice.messages[0].Dst)

	// Anything but an offer to a missing peer is dropped silently
	broker.Relay("alice", brokerMessage{Type: msgCandidate, Dst: "ghost"})
	req.Len(alice.messages, 1)
}

func TestBroker_DeregisterFansOutLeave(t *testing.T) {
	req := require.New(t)
	broker := testBroker()

	bob, carol := &recordingPeer{}, &recordingPeer{}
	req.NoError(broker.Register("alice", &recordingPeer{}))
	req.NoError(broker.Register("bob", bob))
	req.NoError(broker.Register("carol", carol))

	broker.Deregister("alice")

	req.Equal(2, broker.PeerCount())
	for _, peer := range []*recordingPeer{bob, carol} {
		req.Len(peer.messages, 1)
		req.Equal(msgLeave, peer.messages[0].Type)
		req.Equal("alice", peer.messages[0].Src)
	}

	// Deregistering twice is a no-op
	broker.Deregister("alice")
	req.Len(bob.messages, 1)
}
