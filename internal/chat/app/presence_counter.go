package app

import (
	"time"

	"ephemeral_chat/pkg"
)

// PresenceSmoothingDelay defers every snapshot after the first so rapid
// join/leave churn does not flicker the viewer count.
const PresenceSmoothingDelay = time.Second

// PresenceCounter tracks the concurrent occupants of the active room from
// presence sync snapshots. The first snapshot after a room switch applies
// immediately; later ones are deferred through the scheduler and land via
// commitLater, which the controller wraps with its stale-continuation
// guard so a commit scheduled before a room switch never reaches the next
// room's state.
type PresenceCounter struct {
	sched   Scheduler
	initial bool
	count   int
	pending TimerHandle
}

// NewPresenceCounter create a counter awaiting its initial snapshot.
func NewPresenceCounter(sched Scheduler) *PresenceCounter {
	return &PresenceCounter{sched: sched, initial: true}
}

// Count the currently committed viewer count
func (p *PresenceCounter) Count() int { return p.count }

// Reset prepares for a new room: cancels any pending commit and marks the
// next snapshot as initial.
func (p *PresenceCounter) Reset() {
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
	p.initial = true
	p.count = 0
}

// ApplySync consumes one presence snapshot. The initial snapshot commits
// in place and returns true; later snapshots schedule commitLater after
// the smoothing delay and return false.
func (p *PresenceCounter) ApplySync(keys []string, commitLater func(count int)) bool {
	n := len(pkg.Distinct(keys))
	if p.initial {
		p.initial = false
		p.count = n
		return true
	}
	if p.pending != nil {
		p.pending.Stop()
	}
	p.pending = p.sched.AfterFunc(PresenceSmoothingDelay, func() {
		commitLater(n)
	})
	return false
}

// Commit records a smoothed count once its delay has elapsed.
func (p *PresenceCounter) Commit(n int) {
	p.count = n
	p.pending = nil
}
