package relay

import (
	"bytes"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/starknow-arena/internal/logging"
	"github.com/gokatarajesh/starknow-arena/internal/metrics"
	ws "github.com/gokatarajesh/starknow-arena/pkg/http/ws"
)

// DefaultGuestName is announced to the host when a joiner sends no name.
const DefaultGuestName = "对手"

// Peer is one relay connection.
type Peer interface {
	ID() string
	Send(data []byte) error
}

type pair struct {
	host  Peer
	guest Peer
	// room as the host sent it, echoed in signals.
	raw json.RawMessage
}

// Hub pairs a host and a guest connection by room name and forwards their
// messages to each other verbatim.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]*pair
	logger zerolog.Logger
}

// NewHub creates an empty relay hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]*pair),
		logger: logging.Component(logger, "duel_relay"),
	}
}

type outbound struct {
	to   Peer
	data []byte
}

// Handle processes one inbound frame from peer. Malformed frames and frames
// for unknown rooms are dropped.
func (h *Hub) Handle(from Peer, data []byte) {
	var env ws.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		metrics.RelayMessages.WithLabelValues("dropped").Inc()
		return
	}
	key, ok := roomKey(env.Room)
	if !ok {
		if env.Type == ws.TypeJoin {
			h.send(from, ws.Signal{Type: ws.TypeRoomNotFound}.Encode())
			return
		}
		metrics.RelayMessages.WithLabelValues("dropped").Inc()
		return
	}

	var out []outbound
	switch env.Type {
	case ws.TypeHost:
		out = h.host(from, key, env.Room)
	case ws.TypeJoin:
		out = h.join(from, key, guestName(env.Name))
	default:
		out = h.forward(from, key, data)
	}
	for _, o := range out {
		h.send(o.to, o.data)
	}
}

func (h *Hub) host(from Peer, key string, raw json.RawMessage) []outbound {
	h.mu.Lock()
	h.rooms[key] = &pair{host: from, raw: raw}
	metrics.RelayRooms.Set(float64(len(h.rooms)))
	h.mu.Unlock()

	metrics.RelayMessages.WithLabelValues("host").Inc()
	h.logger.Info().Str("room_id", key).Str("conn_id", from.ID()).Msg("relay room hosted")
	return []outbound{{to: from, data: ws.Signal{Type: ws.TypeHosted, Room: raw}.Encode()}}
}

func (h *Hub) join(from Peer, key, name string) []outbound {
	h.mu.Lock()
	p, ok := h.rooms[key]
	if !ok {
		h.mu.Unlock()
		return []outbound{{to: from, data: ws.Signal{Type: ws.TypeRoomNotFound}.Encode()}}
	}
	p.guest = from
	hostPeer, raw := p.host, p.raw
	h.mu.Unlock()

	metrics.RelayMessages.WithLabelValues("join").Inc()
	h.logger.Info().Str("room_id", key).Str("conn_id", from.ID()).Msg("relay guest joined")
	return []outbound{
		{to: hostPeer, data: ws.Signal{Type: ws.TypeJoin, Name: name, Room: raw}.Encode()},
		{to: from, data: ws.Signal{Type: ws.TypeWaiting}.Encode()},
	}
}

func (h *Hub) forward(from Peer, key string, data []byte) []outbound {
	h.mu.Lock()
	p, ok := h.rooms[key]
	var target Peer
	if ok {
		switch {
		case samePeer(p.host, from):
			target = p.guest
		case samePeer(p.guest, from):
			target = p.host
		}
	}
	h.mu.Unlock()

	if target == nil {
		metrics.RelayMessages.WithLabelValues("dropped").Inc()
		return nil
	}
	metrics.RelayMessages.WithLabelValues("forward").Inc()
	return []outbound{{to: target, data: data}}
}

// Leave tears down every room peer participates in and tells the other side.
func (h *Hub) Leave(peer Peer) {
	var notify []Peer

	h.mu.Lock()
	for key, p := range h.rooms {
		switch {
		case samePeer(p.host, peer):
			if p.guest != nil && !samePeer(p.guest, peer) {
				notify = append(notify, p.guest)
			}
		case samePeer(p.guest, peer):
			notify = append(notify, p.host)
		default:
			continue
		}
		delete(h.rooms, key)
		h.logger.Info().Str("room_id", key).Str("conn_id", peer.ID()).Msg("relay room closed")
	}
	metrics.RelayRooms.Set(float64(len(h.rooms)))
	h.mu.Unlock()

	left := ws.Signal{Type: ws.TypePeerLeft}.Encode()
	for _, p := range notify {
		h.send(p, left)
	}
}

// Rooms returns the number of registered relay rooms.
func (h *Hub) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

func (h *Hub) send(to Peer, data []byte) {
	if err := to.Send(data); err != nil {
		h.logger.Debug().Err(err).Str("conn_id", to.ID()).Msg("relay send failed")
	}
}

func samePeer(a, b Peer) bool {
	return a != nil && b != nil && a.ID() == b.ID()
}

// roomKey accepts a JSON string or number; anything else has no room.
func roomKey(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil || n == "" {
			return "", false
		}
		// Normalise so 123456 and 123456.0 address the same room.
		if f, err := strconv.ParseFloat(n.String(), 64); err == nil && f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10), true
		}
		return n.String(), true
	}
}

func guestName(raw json.RawMessage) string {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil || name == "" {
		return DefaultGuestName
	}
	return name
}
