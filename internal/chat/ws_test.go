package chat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	hs := httptest.NewServer(http.HandlerFunc(srv.serveWS))
	t.Cleanup(hs.Close)

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func wsSend(t *testing.T, ws *websocket.Conn, line string) {
	t.Helper()
	if err := ws.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		t.Fatalf("send %q: %v", line, err)
	}
}

func wsExpect(t *testing.T, ws *websocket.Conn, want string) {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("waiting for %q: %v", want, err)
	}
	if got := string(data); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWebSocketBridge_SpeaksTheLineProtocol(t *testing.T) {
	srv := startServer(t, Config{})
	ws := dialWS(t, srv)

	wsSend(t, ws, "LOGIN Wendy")
	wsExpect(t, ws, "OK")

	wsSend(t, ws, "PING")
	wsExpect(t, ws, "PONG")
}

func TestWebSocketBridge_SharesRegistryWithTCP(t *testing.T) {
	srv := startServer(t, Config{})

	bob := dialChat(t, srv)
	bob.login("Bob")

	ws := dialWS(t, srv)
	wsSend(t, ws, "LOGIN Wendy")
	wsExpect(t, ws, "OK")

	// Broadcast crosses transports, sender included.
	wsSend(t, ws, "MSG hello from the browser")
	bob.expect("MSG Wendy hello from the browser")
	wsExpect(t, ws, "MSG Wendy hello from the browser")

	// DM from TCP to the bridged session.
	bob.send("DM Wendy psst")
	wsExpect(t, ws, "DM Bob psst")

	// Closing the socket tears the session down like any other.
	ws.Close()
	bob.waitFor("INFO Wendy disconnected")
}
