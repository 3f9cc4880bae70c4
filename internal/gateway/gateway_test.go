package gateway

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/ride-hail/internal/bus"
	"github.com/example/ride-hail/internal/models"
)

func newTestGateway(t *testing.T) (*bus.Bus, *httptest.Server) {
	t.Helper()
	b := bus.New(32)
	g := New(b, 30*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(http.HandlerFunc(g.HandleWS))
	t.Cleanup(srv.Close)
	return b, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var e models.Event
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("read: %v", err)
	}
	return e
}

func TestHandshakeOnConnect(t *testing.T) {
	_, srv := newTestGateway(t)
	conn := dial(t, srv)
	if e := readEvent(t, conn); e.Type != models.EventHello {
		t.Fatalf("expected hello, got %s", e.Type)
	}
}

func TestFanOutToAllConnectionsInOrder(t *testing.T) {
	b, srv := newTestGateway(t)

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conns[i] = dial(t, srv)
		if e := readEvent(t, conns[i]); e.Type != models.EventHello {
			t.Fatalf("conn %d: expected hello, got %s", i, e.Type)
		}
	}
	// subscriptions are registered synchronously in HandleWS before the
	// read loop starts, but give the server a beat to spawn handlers
	waitForSubscribers(t, b, 3)

	for i := 0; i < 5; i++ {
		b.Publish(models.OrderStatusEvent(fmt.Sprintf("o%d", i), models.StatusOpen))
	}
	for ci, conn := range conns {
		for i := 0; i < 5; i++ {
			e := readEvent(t, conn)
			if want := fmt.Sprintf("o%d", i); e.OrderID != want {
				t.Fatalf("conn %d event %d: expected %s, got %s", ci, i, want, e.OrderID)
			}
		}
	}
}

func TestDriverPositionRebroadcast(t *testing.T) {
	b, srv := newTestGateway(t)
	sender := dial(t, srv)
	receiver := dial(t, srv)
	readEvent(t, sender)
	readEvent(t, receiver)
	waitForSubscribers(t, b, 2)

	pos := models.Event{Type: models.EventDriverPosition, DriverID: "d1", Loc: &models.Coord{Lat: 43.2, Lon: 76.9}}
	if err := sender.WriteJSON(pos); err != nil {
		t.Fatalf("write: %v", err)
	}
	e := readEvent(t, receiver)
	if e.Type != models.EventDriverPosition || e.DriverID != "d1" || e.Loc == nil || e.Loc.Lat != 43.2 {
		t.Fatalf("unexpected rebroadcast: %+v", e)
	}
	if e.At.IsZero() {
		t.Fatal("expected a timestamp to be stamped")
	}
}

func TestMalformedAndForeignFramesIgnored(t *testing.T) {
	b, srv := newTestGateway(t)
	sender := dial(t, srv)
	receiver := dial(t, srv)
	readEvent(t, sender)
	readEvent(t, receiver)
	waitForSubscribers(t, b, 2)

	if err := sender.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := sender.WriteJSON(map[string]string{"type": "order_status", "orderId": "forged"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	// a real position afterwards still arrives, and nothing forged before it
	if err := sender.WriteJSON(models.Event{Type: models.EventDriverPosition, DriverID: "d1", Loc: &models.Coord{}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	e := readEvent(t, receiver)
	if e.Type != models.EventDriverPosition {
		t.Fatalf("expected the position frame, got %+v", e)
	}
}

func TestDisconnectTearsDownSubscription(t *testing.T) {
	b, srv := newTestGateway(t)
	conn := dial(t, srv)
	readEvent(t, conn)
	waitForSubscribers(t, b, 1)

	conn.Close()
	waitForSubscribers(t, b, 0)
}

func waitForSubscribers(t *testing.T, b *bus.Bus, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.Len() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, have %d", want, b.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
