package ws

import "encoding/json"

// Relay envelope types.
const (
	// Client -> Server
	TypeHost = "host"
	TypeJoin = "join"

	// Server -> Client
	TypeHosted       = "hosted"
	TypeWaiting      = "waiting"
	TypeRoomNotFound = "room_not_found"
	TypePeerLeft     = "peer_left"
)

// Envelope is the part of a relay message the server interprets. Room is kept
// raw so a client's string or numeric room name is echoed back unchanged.
type Envelope struct {
	Type string          `json:"type"`
	Room json.RawMessage `json:"room,omitempty"`
	Name json.RawMessage `json:"name,omitempty"`
}

// Signal is a server-originated relay message.
type Signal struct {
	Type string          `json:"type"`
	Room json.RawMessage `json:"room,omitempty"`
	Name string          `json:"name,omitempty"`
}

// Encode marshals the signal; a Signal always encodes.
func (s Signal) Encode() []byte {
	data, _ := json.Marshal(s)
	return data
}
