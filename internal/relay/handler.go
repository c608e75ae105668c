package relay

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/starknow-arena/internal/logging"
	ws "github.com/gokatarajesh/starknow-arena/pkg/http/ws"
)

// Handler upgrades relay clients and feeds their frames into the hub.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates the relay WebSocket endpoint.
func NewHandler(hub *Hub, upgrader websocket.Upgrader, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		upgrader: upgrader,
		logger:   logging.Component(logger, "duel_relay_ws"),
	}
}

// ServeHTTP runs one relay connection until the client disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := ws.NewConnection(conn, h.logger)
	h.logger.Debug().Str("conn_id", c.ID()).Str("remote", r.RemoteAddr).Msg("relay client connected")

	go c.WritePump()
	c.ReadPump(func(data []byte) {
		h.hub.Handle(c, data)
	})

	h.hub.Leave(c)
	c.Close()
	h.logger.Debug().Str("conn_id", c.ID()).Msg("relay client disconnected")
}
