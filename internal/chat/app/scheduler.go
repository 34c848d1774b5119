package app

import (
	"sync"
	"time"
)

// TimerHandle cancels a scheduled callback. Stopping an already-fired or
// already-stopped handle is a no-op.
type TimerHandle interface {
	Stop()
}

// Scheduler owns every timer the engine uses (ghost sweep, presence
// smoothing). Handles are retained by the session controller and stopped on
// room switch so no callback leaks into the next room's state.
type Scheduler interface {
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) TimerHandle
	// Every runs fn repeatedly at interval d until the handle is stopped.
	Every(d time.Duration, fn func()) TimerHandle
}

type systemScheduler struct{}

// SystemScheduler time package implementation
func SystemScheduler() Scheduler { return systemScheduler{} }

type timerHandle struct {
	t *time.Timer
}

func (h timerHandle) Stop() { h.t.Stop() }

func (systemScheduler) AfterFunc(d time.Duration, fn func()) TimerHandle {
	return timerHandle{t: time.AfterFunc(d, fn)}
}

type tickerHandle struct {
	done chan struct{}
	once sync.Once
}

func (h *tickerHandle) Stop() {
	h.once.Do(func() { close(h.done) })
}

func (systemScheduler) Every(d time.Duration, fn func()) TimerHandle {
	h := &tickerHandle{done: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-h.done:
				return
			}
		}
	}()
	return h
}
