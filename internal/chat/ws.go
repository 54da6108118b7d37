package chat

import (
	"bytes"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The bridge speaks the same unauthenticated line protocol as the TCP
	// listener, so origin checks add nothing here.
	CheckOrigin: func(*http.Request) bool { return true },
}

// serveWS upgrades the request and runs the ordinary session handler over
// the bridged connection, so WebSocket clients share the registry, the
// reaper, and the whole command set with TCP clients.
func (s *Server) serveWS(w http.ResponseWriter, req *http.Request) {
	c, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	s.logger.Info("websocket client connected", "addr", c.RemoteAddr().String())
	go HandleSession(NewSession(newWSConn(c)), s.reg)
}

// wsConn adapts a websocket connection to net.Conn: each inbound text
// message becomes one newline-terminated protocol line, and each outbound
// line becomes one text message.
type wsConn struct {
	ws *websocket.Conn

	readBuf bytes.Buffer

	writeMu  sync.Mutex
	writeBuf bytes.Buffer
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

func (c *wsConn) Read(p []byte) (int, error) {
	for c.readBuf.Len() == 0 {
		typ, data, err := c.ws.ReadMessage()
		if err != nil {
			return 0, err
		}
		if typ != websocket.TextMessage {
			continue
		}
		c.readBuf.Write(data)
		c.readBuf.WriteByte('\n')
	}
	return c.readBuf.Read(p)
}

// Write buffers until a full line is present, then ships each line as its
// own text message with the newline stripped.
func (c *wsConn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.writeBuf.Write(p)
	for {
		data := c.writeBuf.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return len(p), nil
		}
		line := bytes.TrimRight(data[:i], "\r")
		if err := c.ws.WriteMessage(websocket.TextMessage, line); err != nil {
			return len(p), err
		}
		c.writeBuf.Next(i + 1)
	}
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

func (c *wsConn) LocalAddr() net.Addr  { return c.ws.LocalAddr() }
func (c *wsConn) RemoteAddr() net.Addr { return c.ws.RemoteAddr() }

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }
