package app

import (
	"context"
	"sync"
	"time"

	"ephemeral_chat/internal/chat/domain"
	"ephemeral_chat/internal/chat/repository"

	"github.com/stretchr/testify/mock"
)

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// InsertMessage moke insert message row
func (m *MockMessageRepository) InsertMessage(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindLatestMessages moke newest page
func (m *MockMessageRepository) FindLatestMessages(ctx context.Context, roomID string, limit int64) ([]domain.Message, error) {
	args := m.Called(ctx, roomID, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindMessagesBefore moke older page
func (m *MockMessageRepository) FindMessagesBefore(ctx context.Context, roomID string, before time.Time, limit int64) ([]domain.Message, error) {
	args := m.Called(ctx, roomID, before, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// Ping moke connectivity probe
func (m *MockMessageRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockRoomRepository Mock RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

// EnsureRoom moke room upsert
func (m *MockRoomRepository) EnsureRoom(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// MockRealtimeRepository Mock RealtimeRepository
type MockRealtimeRepository struct {
	mock.Mock
}

// PublishMessage moke confirmed insert broadcast
func (m *MockRealtimeRepository) PublishMessage(ctx context.Context, msg domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// SubscribeMessages moke message subscription
func (m *MockRealtimeRepository) SubscribeMessages(ctx context.Context, roomID string, handler func(domain.Message)) (repository.Subscription, error) {
	args := m.Called(ctx, roomID, handler)
	if args.Get(0) != nil {
		return args.Get(0).(repository.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

// PublishTyping moke typing broadcast
func (m *MockRealtimeRepository) PublishTyping(ctx context.Context, roomID string, payload domain.TypingPayload) error {
	args := m.Called(ctx, roomID, payload)
	return args.Error(0)
}

// SubscribeTyping moke typing subscription
func (m *MockRealtimeRepository) SubscribeTyping(ctx context.Context, roomID string, handler func(domain.TypingPayload)) (repository.Subscription, error) {
	args := m.Called(ctx, roomID, handler)
	if args.Get(0) != nil {
		return args.Get(0).(repository.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPresenceRepository Mock PresenceRepository
type MockPresenceRepository struct {
	mock.Mock
}

// Join moke presence join
func (m *MockPresenceRepository) Join(ctx context.Context, roomID, key string, onSync func(keys []string)) (repository.Subscription, error) {
	args := m.Called(ctx, roomID, key, onSync)
	if args.Get(0) != nil {
		return args.Get(0).(repository.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeSubscription counts Close calls.
type fakeSubscription struct {
	mu     sync.Mutex
	closed int
}

func (s *fakeSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *fakeSubscription) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeTimer is a manually fired scheduler entry.
type fakeTimer struct {
	mu      sync.Mutex
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// fire runs the callback unless the timer was stopped.
func (t *fakeTimer) fire() {
	t.mu.Lock()
	fn := t.fn
	stopped := t.stopped
	t.mu.Unlock()
	if !stopped {
		fn()
	}
}

// fakeScheduler records every timer so tests fire them deterministically.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{}
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) TimerHandle {
	t := &fakeTimer{d: d, fn: fn}
	s.mu.Lock()
	s.timers = append(s.timers, t)
	s.mu.Unlock()
	return t
}

func (s *fakeScheduler) Every(d time.Duration, fn func()) TimerHandle {
	return s.AfterFunc(d, fn)
}

// lastTimer the most recently scheduled entry
func (s *fakeScheduler) lastTimer() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

// timersFor entries scheduled with duration d, in order
func (s *fakeScheduler) timersFor(d time.Duration) []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if t.d == d {
			out = append(out, t)
		}
	}
	return out
}
