package protocol

// Broadcaster is the pub/sub transport channel keyed by room id. It is
// assumed reliable and ordered per connection. The coordination layer never
// holds a registry lock across a Broadcaster call.
type Broadcaster interface {
	JoinRoom(roomID RoomID, connectionID ConnectionID)
	LeaveRoom(roomID RoomID, connectionID ConnectionID)
	// BroadcastToRoom delivers the event to every connection of the room,
	// except excludeConnectionID when it is not empty.
	BroadcastToRoom(roomID RoomID, event string, data string, excludeConnectionID ConnectionID)
	SendToConnection(connectionID ConnectionID, event string, data string)
}
