package peer

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

var ErrPeerIDTaken = errors.New("peer id is taken")

// PeerJS wire message. The broker relays Payload untouched: offers,
// answers and candidates are opaque here, media never reaches the server.
type brokerMessage struct {
	Type    string          `json:"type"`
	Src     string          `json:"src,omitempty"`
	Dst     string          `json:"dst,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	msgOpen      = "OPEN"
	msgLeave     = "LEAVE"
	msgCandidate = "CANDIDATE"
	msgOffer     = "OFFER"
	msgAnswer    = "ANSWER"
	msgExpire    = "EXPIRE"
	msgHeartbeat = "HEARTBEAT"
	msgIDTaken   = "ID-TAKEN"
)

type peerWriter interface {
	WriteJSON(val any) error
}

// Broker is the in-process media negotiation relay. Browsers register
// under a peer id and exchange offer/answer/candidate messages addressed
// by Dst; the negotiated media itself flows browser to browser.
type Broker struct {
	mu sync.Mutex

	logger *slog.Logger
	peers  map[string]peerWriter
}

func (b *Broker) Register(id string, w peerWriter) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exist := b.peers[id]; exist {
		return ErrPeerIDTaken
	}
	b.peers[id] = w
	return nil
}

// Deregister drops the peer and tells every remaining peer it left, so
// half-open browser connections get torn down.
func (b *Broker) Deregister(id string) {
	b.mu.Lock()
	if _, exist := b.peers[id]; !exist {
		b.mu.Unlock()
		return
	}
	delete(b.peers, id)
	remaining := make([]peerWriter, 0, len(b.peers))
	for _, w := range b.peers {
		remaining = append(remaining, w)
	}
	b.mu.Unlock()

	leave := &brokerMessage{Type: msgLeave, Src: id}
	var group errgroup.Group
	for _, w := range remaining {
		w := w
		group.Go(func() error {
			return w.WriteJSON(leave)
		})
	}
	if err := group.Wait(); err != nil {
		b.logger.Debug("leave fan-out write failed", slog.String("peerId", id))
	}
}

// Relay forwards the message to its Dst peer, stamping Src with the
// verified sender id. A missing Dst on an OFFER answers the sender with
// EXPIRE, the way a lost callee is reported; anything else is dropped.
func (b *Broker) Relay(src string, message brokerMessage) {
	b.mu.Lock()
	dst, exist := b.peers[message.Dst]
	sender := b.peers[src]
	b.mu.Unlock()

	if !exist {
		if message.Type == msgOffer && sender != nil {
			sender.WriteJSON(&brokerMessage{Type: msgExpire, Src: message.Dst, Dst: src})
		}
		return
	}

	message.Src = src
	if err := dst.WriteJSON(&message); err != nil {
		b.logger.Debug("relay write failed",
			slog.String("src", src),
			slog.String("dst", message.Dst),
			slog.String("type", message.Type),
		)
	}
}

func (b *Broker) PeerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.peers)
}

func NewPeerBroker(logger *slog.Logger) *Broker {
	return &Broker{
		logger: logger,
		peers:  make(map[string]peerWriter),
	}
}
