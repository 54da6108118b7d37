package chat

import "time"

// HandleSession runs the per-connection control loop: the LOGIN handshake
// first, then command dispatch until the peer goes away or the reaper
// closes the connection out from under us.
func HandleSession(s *Session, reg *Registry) {
	lr := NewLineReader(s.Conn)

	if !authenticate(s, reg, lr) {
		s.Close()
		return
	}

	for {
		line, err := lr.Next()
		if err != nil {
			teardown(s, reg)
			return
		}
		cmd, ok := ParseLine(line)
		if !ok {
			continue
		}

		// Every parsed line counts as activity, unknown commands included.
		s.Touch()

		start := time.Now()
		dispatch(s, reg, cmd)
		CommandsTotal.WithLabelValues(cmd.Kind.String()).Inc()
		CommandDuration.WithLabelValues(cmd.Kind.String()).Observe(time.Since(start).Seconds())
	}
}

// authenticate loops until a conforming LOGIN arrives. Non-LOGIN input is
// ignored while unauthenticated. Returns false when the connection must
// close: peer gone, or the name was already taken.
func authenticate(s *Session, reg *Registry, lr *LineReader) bool {
	for {
		line, err := lr.Next()
		if err != nil {
			return false
		}
		cmd, ok := ParseLine(line)
		if !ok || cmd.Kind != CmdLogin {
			continue
		}

		switch err := reg.Register(cmd.Arg, s); err {
		case nil:
			s.Touch()
			s.Send("OK")
			return true
		case ErrNameInvalid:
			s.Send("ERR invalid-username")
		case ErrNameTaken:
			// The client has to reconnect under a different name.
			s.Send("ERR username-taken")
			return false
		}
	}
}

func dispatch(s *Session, reg *Registry, cmd Command) {
	switch cmd.Kind {
	case CmdMsg:
		// Broadcast goes to everyone, the sender included.
		reg.Broadcast("MSG "+s.Name+" "+normalizeText(cmd.Arg), "")
	case CmdWho:
		for _, name := range reg.Snapshot() {
			s.Send("USER " + name)
		}
	case CmdDM:
		target, text := splitOnce(cmd.Arg)
		if target == "" || text == "" {
			s.Send("ERR invalid-dm-format")
			return
		}
		if !reg.Unicast(target, "DM "+s.Name+" "+text) {
			s.Send("ERR user-not-found")
		}
	case CmdPing:
		s.Send("PONG")
	default:
		s.Send("ERR unknown-command")
	}
}

// teardown runs the handler side of session destruction. Unregister is the
// linearization point: if the reaper already claimed the entry this is a
// no-op and the reaper owns the close and the departure notice.
func teardown(s *Session, reg *Registry) {
	if _, ok := reg.Unregister(s.Name); !ok {
		return
	}
	s.Close()
	reg.Broadcast("INFO "+s.Name+" disconnected", "")
}
