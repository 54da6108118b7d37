package chat

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Session is the server-side state for one connection. Name is empty until
// the LOGIN handshake succeeds and immutable afterwards. The connection is
// written only by the session's writer goroutine; everyone else goes
// through Send.
type Session struct {
	Name string
	Conn net.Conn

	out        chan string
	done       chan struct{}
	closeOnce  sync.Once
	lastActive atomic.Int64 // unix nanos of the most recent inbound command
}

func NewSession(conn net.Conn) *Session {
	s := &Session{
		Conn: conn,
		out:  make(chan string, 32),
		done: make(chan struct{}),
	}
	s.Touch()
	go s.writeLoop()
	return s
}

// Send queues a line for delivery. Best-effort: when the queue is full the
// line is dropped so a slow peer never blocks the caller. The line gains a
// trailing newline on the wire if it lacks one.
func (s *Session) Send(line string) {
	select {
	case s.out <- line:
	case <-s.done:
	default:
		// Slow or stuck peer; drop rather than block the sender.
	}
}

// Touch records inbound activity.
func (s *Session) Touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// IdleFor reports how long ago the session last received a command.
func (s *Session) IdleFor() time.Duration {
	return time.Duration(time.Now().UnixNano() - s.lastActive.Load())
}

// Close tears the session down. Idempotent; safe to call from the handler,
// the reaper, and shutdown concurrently. The writer goroutine flushes any
// queued replies before it closes the connection, so a final ERR line still
// reaches the peer.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// writeLoop drains the outbound queue onto the connection and owns the
// connection close. The out channel is never closed, so concurrent Sends
// after Close are harmless no-ops.
func (s *Session) writeLoop() {
	defer s.Conn.Close()
	w := bufio.NewWriter(s.Conn)
	for {
		select {
		case line := <-s.out:
			if !writeLine(w, line) {
				return
			}
		case <-s.done:
			// Flush whatever is already queued, then shut the socket.
			for {
				select {
				case line := <-s.out:
					if !writeLine(w, line) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func writeLine(w *bufio.Writer, line string) bool {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := w.WriteString(line); err != nil {
		return false
	}
	return w.Flush() == nil
}
