package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ephemeral_chat/internal/chat/domain"
	"ephemeral_chat/internal/chat/repository"
	errprocess "ephemeral_chat/pkg/err"
	"ephemeral_chat/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionState is the controller's lifecycle state.
type SessionState string

const (
	// StateIdle no room selected
	StateIdle SessionState = "idle"
	// StateSwitching a room switch is in progress
	StateSwitching SessionState = "switching"
	// StateActive a room session is established
	StateActive SessionState = "active"
)

// opTimeout bounds one-shot backend calls (inserts, history pages).
const opTimeout = 10 * time.Second

// Backends groups the external collaborators the engine consumes.
type Backends struct {
	Messages repository.MessageRepository
	Rooms    repository.RoomRepository
	Realtime repository.RealtimeRepository
	Presence repository.PresenceRepository
}

// Snapshot is the one consistent view the rendering layer sees: ordered
// messages, ghosts, viewer count and pagination flags for the active room.
type Snapshot struct {
	RoomID         string           `json:"room_id"`
	RoomColor      string           `json:"room_color"`
	State          SessionState     `json:"state"`
	Connected      bool             `json:"connected"`
	Messages       []domain.Message `json:"messages"` // newest first
	LocalGhost     *Ghost           `json:"local_ghost,omitempty"`
	Ghosts         []Ghost          `json:"ghosts"`
	ViewerCount    int              `json:"viewer_count"`
	HasMoreHistory bool             `json:"has_more_history"`
	IsLoadingMore  bool             `json:"is_loading_more"`
	UserNumber     int              `json:"user_number"`
	ShapeName      string           `json:"shape_name"`
	Notice         string           `json:"notice,omitempty"`
}

// SessionController orchestrates room switches: it owns the canonical room
// id, composes the store, loader, typing tracker and presence counter per
// active room, and manages the three subscriptions' lifecycle.
//
// All state is guarded by one mutex. Every asynchronous continuation
// (subscription events, timer callbacks, fetch results) re-enters through
// post, which discards it unless the generation it captured is still
// current. The generation advances on every switch, which is what closes
// the race between teardown and events still in flight from the previous
// room; the store's own room-id filter backstops it.
type SessionController struct {
	mu        sync.Mutex
	clock     Clock
	sched     Scheduler
	be        Backends
	numbering *NumberingService

	state      SessionState
	generation uint64
	roomID     string

	store    *MessageStore
	loader   *HistoryLoader
	typing   *TypingTracker
	presence *PresenceCounter

	subs      []repository.Subscription
	subCancel context.CancelFunc
	sweep     TimerHandle

	input     string
	focused   bool
	connected bool
	notice    string

	onChange   func(Snapshot)
	onCue      func()
	onLocation func(path string)
}

// NewSessionController create an idle controller with a fresh session
// identity.
func NewSessionController(clock Clock, sched Scheduler, be Backends) *SessionController {
	return &SessionController{
		clock:     clock,
		sched:     sched,
		be:        be,
		numbering: NewNumberingService(clock),
		state:     StateIdle,
		presence:  NewPresenceCounter(sched),
		focused:   true,
	}
}

// SetOnChange registers the snapshot push callback. Called outside the
// controller lock.
func (c *SessionController) SetOnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// SetOnCue registers the audio-cue collaborator.
func (c *SessionController) SetOnCue(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCue = fn
}

// SetOnLocation registers the location-update callback, invoked only for
// deliberate room edits so programmatic navigation does not pollute
// history.
func (c *SessionController) SetOnLocation(fn func(path string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLocation = fn
}

// SessionID the per-process anonymous identifier
func (c *SessionController) SessionID() string { return c.numbering.SessionID() }

// Connect runs the initial connectivity probe. Room entry is blocked until
// it succeeds; callers may retry.
func (c *SessionController) Connect(ctx context.Context) error {
	err := c.be.Messages.Ping(ctx)
	c.mu.Lock()
	c.connected = err == nil
	if err != nil {
		c.notice = "backend unreachable"
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
	return err
}

// Navigate sanitizes free text into a room id and switches to it.
// deliberate marks a user-edited room field, which is the only case that
// updates the location.
func (c *SessionController) Navigate(raw string, deliberate bool) error {
	room := domain.SanitizeRoomName(raw)
	if err := c.switchRoom(room); err != nil {
		return err
	}
	if deliberate && room != "" {
		c.mu.Lock()
		fn := c.onLocation
		c.mu.Unlock()
		if fn != nil {
			fn(domain.PathForRoom(room))
		}
	}
	return nil
}

// NavigateFromPath re-derives the canonical room from a location path
// (browser back/forward); the location itself is not touched.
func (c *SessionController) NavigateFromPath(path string) error {
	return c.switchRoom(domain.RoomFromPath(path))
}

func (c *SessionController) switchRoom(target string) error {
	c.mu.Lock()
	if !c.connected {
		c.notice = "backend unreachable"
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.emit(snap)
		return errprocess.Set("not connected")
	}
	if target == c.roomID && c.state != StateIdle {
		c.mu.Unlock()
		return nil
	}

	c.generation++
	gen := c.generation
	c.teardownLocked()

	c.roomID = target
	c.input = ""
	c.notice = ""

	if target == "" {
		c.state = StateIdle
		c.store = nil
		c.loader = nil
		c.typing = nil
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.emit(snap)
		return nil
	}

	c.state = StateSwitching
	c.store = NewMessageStore(target)
	c.loader = NewHistoryLoader()
	c.typing = NewTypingTracker(c.clock, c.numbering.SessionID())
	c.presence.Reset()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	go c.establish(gen, target)
	return nil
}

// teardownLocked cancels the previous room's subscriptions and timers.
// The generation has already advanced, so anything still in flight from
// them is discarded at post.
func (c *SessionController) teardownLocked() {
	if c.subCancel != nil {
		c.subCancel()
		c.subCancel = nil
	}
	for _, sub := range c.subs {
		if err := sub.Close(); err != nil {
			logger.Log.Warn("subscription close failed", zap.Error(err))
		}
	}
	c.subs = nil
	if c.sweep != nil {
		c.sweep.Stop()
		c.sweep = nil
	}
	c.presence.Reset()
}

// establish builds the new room session: room record, initial history and
// the three subscriptions. Any failure degrades to idle with a notice.
func (c *SessionController) establish(gen uint64, room string) {
	ctx, cancelOp := context.WithTimeout(context.Background(), opTimeout)
	defer cancelOp()

	if err := c.be.Rooms.EnsureRoom(ctx, room); err != nil {
		c.fail(gen, "could not enter room", err)
		return
	}
	latest, err := c.be.Messages.FindLatestMessages(ctx, room, PageSize)
	if err != nil {
		c.fail(gen, "could not load messages", err)
		return
	}

	subCtx, cancel := context.WithCancel(context.Background())
	var subs []repository.Subscription
	abort := func(err error, what string) {
		cancel()
		for _, s := range subs {
			s.Close()
		}
		c.fail(gen, what, err)
	}

	msgSub, err := c.be.Realtime.SubscribeMessages(subCtx, room, func(m domain.Message) {
		c.onConfirmed(gen, m)
	})
	if err != nil {
		abort(err, "could not subscribe to messages")
		return
	}
	subs = append(subs, msgSub)

	typSub, err := c.be.Realtime.SubscribeTyping(subCtx, room, func(p domain.TypingPayload) {
		c.onTyping(gen, p)
	})
	if err != nil {
		abort(err, "could not subscribe to typing")
		return
	}
	subs = append(subs, typSub)

	preSub, err := c.be.Presence.Join(subCtx, room, c.numbering.SessionID(), func(keys []string) {
		c.onPresenceSync(gen, keys)
	})
	if err != nil {
		abort(err, "could not join presence")
		return
	}
	subs = append(subs, preSub)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		cancel()
		for _, s := range subs {
			s.Close()
		}
		return
	}
	c.store.ApplyHistoryPage(latest)
	c.loader.Seed(latest)
	c.subs = subs
	c.subCancel = cancel
	c.sweep = c.sched.Every(GhostSweepInterval, func() {
		c.post(gen, func() bool {
			return c.typing.Sweep()
		})
	})
	c.state = StateActive
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

func (c *SessionController) fail(gen uint64, notice string, err error) {
	logger.Log.Errorf(notice, err, zap.Uint64("generation", gen))
	c.post(gen, func() bool {
		c.state = StateIdle
		c.notice = notice
		return true
	})
}

// post re-enters the engine from an asynchronous continuation. The result
// is discarded when the captured generation is stale; fn reports whether
// anything visible changed.
func (c *SessionController) post(gen uint64, fn func() bool) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	changed := fn()
	var snap Snapshot
	if changed {
		snap = c.snapshotLocked()
	}
	c.mu.Unlock()
	if changed {
		c.emit(snap)
	}
}

// InputChanged is the boundary's input-change callback. The local ghost
// updates synchronously; a non-empty first keystroke in a room binds the
// display number and synthesizes the join message.
func (c *SessionController) InputChanged(content string) {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}
	gen := c.generation
	room := c.roomID

	firstKeystroke := false
	if _, bound := c.numbering.BindingFor(room); !bound && content != "" {
		c.numbering.Bind(room, c.store.Messages())
		firstKeystroke = true
	}
	num, _ := c.numbering.BindingFor(room)

	c.typing.SetLocal(content)
	c.input = content

	var join domain.Message
	if firstKeystroke {
		join = domain.Message{
			ID:         uuid.New().String(),
			Content:    fmt.Sprintf("%s joined", domain.ShapeName(num)),
			SenderID:   c.numbering.SessionID(),
			UserNumber: num,
			CreatedAt:  c.clock.Now(),
			RoomID:     room,
			Kind:       domain.KindJoin,
		}
		c.store.ApplyOptimistic(join)
	}

	var payload *domain.TypingPayload
	if num > 0 {
		payload = &domain.TypingPayload{
			SenderID:   c.numbering.SessionID(),
			UserNumber: num,
			Content:    content,
		}
	}

	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	if firstKeystroke {
		go c.submitMessage(gen, join)
	}
	if payload != nil {
		go c.broadcastTyping(room, *payload)
	}
}

func (c *SessionController) broadcastTyping(room string, payload domain.TypingPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := c.be.Realtime.PublishTyping(ctx, room, payload); err != nil {
		logger.Log.Warn("typing broadcast failed", zap.Error(err))
	}
}

// Submit validates and sends the current input as a message. Validation
// failures reject locally: no optimistic entry, no network call.
func (c *SessionController) Submit() error {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return errprocess.Set("no active room")
	}
	gen := c.generation
	room := c.roomID

	content, err := domain.PrepareContent(c.input)
	if err != nil {
		if err == domain.ErrContentEmpty {
			c.mu.Unlock()
			return nil
		}
		c.notice = err.Error()
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.emit(snap)
		return err
	}

	num := c.numbering.Bind(room, c.store.Messages())

	msg := domain.Message{
		ID:         uuid.New().String(),
		Content:    content,
		SenderID:   c.numbering.SessionID(),
		UserNumber: num,
		CreatedAt:  c.clock.Now(),
		RoomID:     room,
		Kind:       domain.KindRegular,
	}
	c.store.ApplyOptimistic(msg)
	c.input = ""
	c.typing.SetLocal("")

	clear := domain.TypingPayload{
		SenderID:   c.numbering.SessionID(),
		UserNumber: num,
	}

	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	go c.broadcastTyping(room, clear)
	go c.submitMessage(gen, msg)
	return nil
}

// submitMessage inserts the row and publishes the confirmation. A rejected
// insert rolls the optimistic entry back with a non-blocking notice.
func (c *SessionController) submitMessage(gen uint64, msg domain.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := msg
	row.Provisional = false
	if err := c.be.Messages.InsertMessage(ctx, &row); err != nil {
		logger.Log.Errorf("message insert failed", err, zap.String("room", msg.RoomID))
		c.post(gen, func() bool {
			c.store.Remove(msg.ID)
			c.notice = "message failed to send"
			return true
		})
		return
	}

	// The realtime echo also confirms; this covers a lost broadcast.
	c.post(gen, func() bool {
		c.store.ApplyConfirmed(row)
		return true
	})

	if err := c.be.Realtime.PublishMessage(ctx, row); err != nil {
		logger.Log.Warn("message publish failed", zap.Error(err), zap.String("room", msg.RoomID))
	}
}

// Scroll is the boundary's scroll callback: distance from the historical
// edge in layout units. Crossing the threshold triggers one page fetch at
// a time; a failed fetch retries on the next trigger.
func (c *SessionController) Scroll(distanceFromEdge float64) {
	c.mu.Lock()
	if c.state != StateActive || !c.loader.ShouldFetch(distanceFromEdge) {
		c.mu.Unlock()
		return
	}
	before := c.loader.BeginFetch()
	gen := c.generation
	room := c.roomID
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		batch, err := c.be.Messages.FindMessagesBefore(ctx, room, before, PageSize)
		if err != nil {
			logger.Log.Errorf("history fetch failed", err, zap.String("room", room))
			c.post(gen, func() bool {
				c.loader.Fail()
				c.notice = "could not load older messages"
				return true
			})
			return
		}
		c.post(gen, func() bool {
			c.loader.CompletePage(batch)
			c.store.ApplyHistoryPage(batch)
			return true
		})
	}()
}

// SetFocused records whether the local view has focus; the audio cue fires
// only while it does not.
func (c *SessionController) SetFocused(focused bool) {
	c.mu.Lock()
	c.focused = focused
	c.mu.Unlock()
}

func (c *SessionController) onConfirmed(gen uint64, m domain.Message) {
	cue := false
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	inserted := c.store.ApplyConfirmed(m)
	c.typing.ClearSender(m.SenderID)
	if inserted && m.SenderID != c.numbering.SessionID() && !m.IsJoin() && !c.focused {
		cue = c.onCue != nil
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snap)
	if cue {
		c.onCue()
	}
}

func (c *SessionController) onTyping(gen uint64, p domain.TypingPayload) {
	c.post(gen, func() bool {
		c.typing.ApplyRemote(p)
		return true
	})
}

func (c *SessionController) onPresenceSync(gen uint64, keys []string) {
	c.post(gen, func() bool {
		return c.presence.ApplySync(keys, func(n int) {
			c.post(gen, func() bool {
				c.presence.Commit(n)
				return true
			})
		})
	})
}

// Snapshot pull-based read of the current view.
func (c *SessionController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// ClearNotice dismisses the non-fatal notice.
func (c *SessionController) ClearNotice() {
	c.mu.Lock()
	c.notice = ""
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

// Close tears the active session down and leaves the controller idle.
func (c *SessionController) Close() {
	c.mu.Lock()
	c.generation++
	c.teardownLocked()
	c.state = StateIdle
	c.roomID = ""
	c.store = nil
	c.loader = nil
	c.typing = nil
	c.mu.Unlock()
}

func (c *SessionController) snapshotLocked() Snapshot {
	snap := Snapshot{
		RoomID:    c.roomID,
		RoomColor: domain.RoomColor(c.roomID),
		State:     c.state,
		Connected: c.connected,
		Notice:    c.notice,
	}
	if c.store != nil {
		snap.Messages = c.store.NewestFirst()
	}
	if c.typing != nil {
		snap.Ghosts = c.typing.Ghosts()
		num, _ := c.numbering.BindingFor(c.roomID)
		if g, ok := c.typing.LocalGhost(num); ok {
			snap.LocalGhost = &g
		}
		snap.UserNumber = num
		snap.ShapeName = domain.ShapeName(num)
	}
	if c.loader != nil {
		snap.HasMoreHistory = c.loader.HasMore()
		snap.IsLoadingMore = c.loader.Loading()
	}
	snap.ViewerCount = c.presence.Count()
	return snap
}

func (c *SessionController) emit(snap Snapshot) {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}
