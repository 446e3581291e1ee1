package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

// echoServer answers every ping request with a pong and anything else with an error.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			var req Request
			if err := ReadJSON(conn, &req); err != nil {
				return
			}
			if req.Action == ActionPing {
				_ = WriteTyped(conn, PongResponse{Event: EventPong, RemainingSeconds: 90})
				continue
			}
			_ = WriteError(conn, "UNKNOWN_ACTION", "unknown action: "+string(req.Action))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRoundTrip(t *testing.T) {
	srv := echoServer(t)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Request{Action: ActionPing}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var pong PongResponse
	if err := ReadJSON(conn, &pong); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if pong.Event != EventPong || pong.RemainingSeconds != 90 {
		t.Errorf("pong = %+v", pong)
	}

	if err := conn.WriteJSON(Request{Action: "cheat"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var errResp ErrorResponse
	if err := ReadJSON(conn, &errResp); err != nil {
		t.Fatalf("read error: %v", err)
	}
	if errResp.Event != EventError || errResp.Code != "UNKNOWN_ACTION" || errResp.Error != "unknown action: cheat" {
		t.Errorf("error = %+v", errResp)
	}
}
