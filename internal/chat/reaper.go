package chat

import (
	"log/slog"
	"time"
)

// Reaper sweeps the registry on a fixed interval and evicts sessions that
// have been idle past the threshold.
type Reaper struct {
	reg       *Registry
	interval  time.Duration
	threshold time.Duration
	logger    *slog.Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func NewReaper(reg *Registry, interval, threshold time.Duration, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{
		reg:       reg,
		interval:  interval,
		threshold: threshold,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Stop signals the Run loop to exit.
func (rp *Reaper) Stop() {
	close(rp.stopCh)
}

// Wait blocks until the Run loop has completely finished.
func (rp *Reaper) Wait() {
	<-rp.doneCh
}

func (rp *Reaper) Run() {
	defer close(rp.doneCh)
	ticker := time.NewTicker(rp.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rp.sweep()
		case <-rp.stopCh:
			return
		}
	}
}

// sweep evicts every over-threshold session. Unregister is the claim: a
// session that finishes a command (or disconnects) concurrently loses the
// entry to its handler instead, and the reaper skips it.
func (rp *Reaper) sweep() {
	for _, s := range rp.reg.Idle(rp.threshold) {
		if _, ok := rp.reg.Unregister(s.Name); !ok {
			continue
		}
		rp.logger.Info("evicting idle session", "username", s.Name, "idle", s.IdleFor())
		s.Send("INFO disconnected-due-to-inactivity")
		s.Close()
		rp.reg.Broadcast("INFO "+s.Name+" disconnected", "")
	}
}
