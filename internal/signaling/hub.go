package signaling

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/romashorodok/room-signaling/pkg/protocol"
	"go.uber.org/atomic"
)

// connWriter is the write half of one attached socket.
type connWriter interface {
	WriteJSON(val any) error
}

// websocketMessage is the wire envelope of the signaling socket, both
// directions.
type websocketMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// BroadcastHub implements the protocol.Broadcaster transport: a pub/sub
// channel keyed by room id over attached websocket writers. Writer sets
// are snapshotted under the lock and written outside of it, so a slow
// socket never blocks registry work.
type BroadcastHub struct {
	mu sync.RWMutex

	logger *slog.Logger
	// roomId -> connectionId -> writer
	rooms map[protocol.RoomID]map[protocol.ConnectionID]connWriter
	conns map[protocol.ConnectionID]connWriter
	gauge *atomic.Int64
}

// Attach registers a freshly upgraded socket, before any join.
func (h *BroadcastHub) Attach(connectionID protocol.ConnectionID, w connWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[connectionID] = w
	h.gauge.Inc()
}

// Detach drops the socket and any room membership left behind.
func (h *BroadcastHub) Detach(connectionID protocol.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exist := h.conns[connectionID]; !exist {
		return
	}
	delete(h.conns, connectionID)
	h.gauge.Dec()

	for roomID, members := range h.rooms {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *BroadcastHub) JoinRoom(roomID protocol.RoomID, connectionID protocol.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	w, exist := h.conns[connectionID]
	if !exist {
		return
	}
	members, exist := h.rooms[roomID]
	if !exist {
		members = make(map[protocol.ConnectionID]connWriter)
		h.rooms[roomID] = members
	}
	members[connectionID] = w
}

func (h *BroadcastHub) LeaveRoom(roomID protocol.RoomID, connectionID protocol.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, exist := h.rooms[roomID]
	if !exist {
		return
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *BroadcastHub) BroadcastToRoom(
	roomID protocol.RoomID,
	event string,
	data string,
	excludeConnectionID protocol.ConnectionID,
) {
	h.mu.RLock()
	writers := make([]connWriter, 0, len(h.rooms[roomID]))
	for connectionID, w := range h.rooms[roomID] {
		if excludeConnectionID != "" && connectionID == excludeConnectionID {
			continue
		}
		writers = append(writers, w)
	}
	h.mu.RUnlock()

	message := &websocketMessage{Event: event, Data: data}
	parallelExec(writers, fanOutThreshold, fanOutStep, func(w connWriter) {
		if err := w.WriteJSON(message); err != nil {
			h.logger.Error("broadcast write failed",
				slog.String("roomId", roomID),
				slog.String("event", event),
			)
		}
	})
}

func (h *BroadcastHub) SendToConnection(connectionID protocol.ConnectionID, event string, data string) {
	h.mu.RLock()
	w, exist := h.conns[connectionID]
	h.mu.RUnlock()
	if !exist {
		return
	}

	if err := w.WriteJSON(&websocketMessage{Event: event, Data: data}); err != nil {
		h.logger.Error("send write failed",
			slog.String("connectionId", connectionID),
			slog.String("event", event),
		)
	}
}

// ActiveConnections counts currently attached sockets, joined or not.
func (h *BroadcastHub) ActiveConnections() int64 {
	return h.gauge.Load()
}

const (
	fanOutThreshold uint64 = 32
	fanOutStep      uint64 = 2
)

func parallelExec[T any](vals []T, parallelThreshold, step uint64, fn func(T)) {
	if uint64(len(vals)) < parallelThreshold {
		for _, v := range vals {
			fn(v)
		}
		return
	}

	start := atomic.NewUint64(0)
	end := uint64(len(vals))

	var wg sync.WaitGroup
	numCPU := runtime.NumCPU()
	wg.Add(numCPU)
	for p := 0; p < numCPU; p++ {
		go func() {
			defer wg.Done()
			for {
				n := start.Add(step)
				if n >= end+step {
					return
				}

				for i := n - step; i < n && i < end; i++ {
					fn(vals[i])
				}
			}
		}()
	}
	wg.Wait()
}

func NewBroadcastHub(logger *slog.Logger) *BroadcastHub {
	return &BroadcastHub{
		logger: logger,
		rooms:  make(map[protocol.RoomID]map[protocol.ConnectionID]connWriter),
		conns:  make(map[protocol.ConnectionID]connWriter),
		gauge:  atomic.NewInt64(0),
	}
}

// AsBroadcaster exposes the hub behind the transport interface consumed by
// the gateway.
func AsBroadcaster(hub *BroadcastHub) protocol.Broadcaster {
	return hub
}

var _ protocol.Broadcaster = (*BroadcastHub)(nil)
