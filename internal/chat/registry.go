package chat

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry is the authoritative directory of name -> Session and the only
// mutable state shared between handlers, the reaper, and shutdown. Every
// operation takes the full lock; delivery to recipients happens outside it
// once the participant list is captured.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	logger   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Register inserts the session under name. The availability check and the
// insert are a single atomic step, so two concurrent logins for the same
// name can never both succeed.
func (r *Registry) Register(name string, s *Session) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[name]; exists {
		return ErrNameTaken
	}
	s.Name = name
	r.sessions[name] = s

	ConnectedSessions.Set(float64(len(r.sessions)))
	r.logger.Info("user registered", "username", name)
	return nil
}

// Unregister removes name from the directory. Idempotent. The returned
// bool tells the caller whether it claimed the entry: exactly one of a
// concurrent handler close and reaper eviction gets true, and only that
// caller performs the connection close and departure broadcast.
func (r *Registry) Unregister(name string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[name]
	if !ok {
		return nil, false
	}
	delete(r.sessions, name)

	ConnectedSessions.Set(float64(len(r.sessions)))
	r.logger.Info("user left", "username", name)
	return s, true
}

// Lookup returns the session registered under name, if any.
func (r *Registry) Lookup(name string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[name]
	return s, ok
}

// Snapshot returns the registered names at a single point in time, sorted.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Broadcast delivers line to every registered session except exclude
// (none when exclude is empty). Delivery is per-recipient best-effort: a
// full queue drops the line and never aborts the fanout.
func (r *Registry) Broadcast(line, exclude string) {
	r.mu.Lock()
	recipients := make([]*Session, 0, len(r.sessions))
	for name, s := range r.sessions {
		if name == exclude {
			continue
		}
		recipients = append(recipients, s)
	}
	r.mu.Unlock()

	for _, s := range recipients {
		s.Send(line)
	}
}

// Unicast delivers line to exactly one named session. Returns false when
// the name is not registered.
func (r *Registry) Unicast(name, line string) bool {
	s, ok := r.Lookup(name)
	if !ok {
		return false
	}
	s.Send(line)
	return true
}

// Idle returns the sessions whose last activity is older than threshold,
// captured under the lock. Claiming them is the caller's job.
func (r *Registry) Idle(threshold time.Duration) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var idle []*Session
	for _, s := range r.sessions {
		if s.IdleFor() > threshold {
			idle = append(idle, s)
		}
	}
	return idle
}
