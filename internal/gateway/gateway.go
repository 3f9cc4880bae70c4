package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/ride-hail/internal/bus"
	"github.com/example/ride-hail/internal/models"
	"github.com/example/ride-hail/internal/observability"
)

// Gateway owns the set of live realtime connections. Each connection gets its
// own bus subscription; a dedicated writer goroutine drains it so a slow peer
// backs up only its own buffer. Inbound driver_position frames are republished
// to the bus verbatim, every other inbound shape is ignored.
//
// Connections are not bound to an identity: every peer receives the full
// broadcast stream, which mirrors the original system's behavior.
type Gateway struct {
	Bus         *bus.Bus
	IdleTimeout time.Duration
	Logger      *slog.Logger

	upgrader websocket.Upgrader
}

func New(b *bus.Bus, idle time.Duration, logger *slog.Logger) *Gateway {
	if idle <= 0 {
		idle = 90 * time.Second
	}
	return &Gateway{Bus: b, IdleTimeout: idle, Logger: logger}
}

// HandleWS upgrades the request and serves the connection until it closes,
// errors or idles out.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	sub := g.Bus.Subscribe()
	observability.WSConnections.Inc()
	defer func() {
		g.Bus.Unsubscribe(sub)
		_ = conn.Close()
		observability.WSConnections.Dec()
	}()

	go g.writePump(conn, sub)
	g.readPump(conn)
}

// writePump pushes the handshake, then relays subscribed events. It owns all
// writes on the connection, including keepalive pings.
func (g *Gateway) writePump(conn *websocket.Conn, sub *bus.Subscription) {
	ticker := time.NewTicker(g.IdleTimeout / 2)
	defer ticker.Stop()

	hello := models.Event{Type: models.EventHello, At: time.Now()}
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(hello); err != nil {
		_ = conn.Close()
		return
	}
	for {
		select {
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(e); err != nil {
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

// readPump consumes inbound frames until the connection dies. Malformed
// frames are swallowed so one broken peer cannot take the channel down.
func (g *Gateway) readPump(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(g.IdleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(g.IdleTimeout))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(g.IdleTimeout))

		var e models.Event
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		if e.Type != models.EventDriverPosition {
			continue
		}
		if e.At.IsZero() {
			e.At = time.Now()
		}
		g.Bus.Publish(e)
	}
}
