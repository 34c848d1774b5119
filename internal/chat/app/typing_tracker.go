package app

import (
	"sort"
	"time"

	"ephemeral_chat/internal/chat/domain"
)

const (
	// GhostIdleTimeout removes ghosts not refreshed within this window.
	GhostIdleTimeout = 5 * time.Second
	// GhostClearGrace keeps a cleared ghost's last content briefly so a
	// short backspace-to-empty does not blink it out of the room.
	GhostClearGrace = 3 * time.Second
	// GhostSweepInterval is how often the garbage sweep runs.
	GhostSweepInterval = time.Second
)

// Ghost is an in-progress, unsent message preview.
type Ghost struct {
	UserID      string    `json:"user_id"`
	UserNumber  int       `json:"user_number"`
	Content     string    `json:"content"`
	Position    int       `json:"position"`
	LastUpdated time.Time `json:"last_updated"`
}

type remoteGhost struct {
	userNumber  int
	content     string
	lastContent string
	position    int
	lastUpdated time.Time
	clearedAt   time.Time
}

// TypingTracker owns the session's local ghost and the remote ghosts keyed
// by sender. Positions are assigned per sender in first-seen order and
// reused, so ghosts do not reorder mid-type.
type TypingTracker struct {
	clock  Clock
	selfID string

	localContent string
	localUpdated time.Time

	remote    map[string]*remoteGhost
	positions map[string]int
	nextPos   int
}

// NewTypingTracker create a tracker for one room session.
func NewTypingTracker(clock Clock, selfID string) *TypingTracker {
	return &TypingTracker{
		clock:     clock,
		selfID:    selfID,
		remote:    make(map[string]*remoteGhost),
		positions: make(map[string]int),
	}
}

// SetLocal updates the session's own preview immediately; no network
// round-trip is needed to see it.
func (t *TypingTracker) SetLocal(content string) {
	t.localContent = content
	t.localUpdated = t.clock.Now()
}

// LocalGhost the session's own preview, ok=false when the input is empty
func (t *TypingTracker) LocalGhost(userNumber int) (Ghost, bool) {
	if t.localContent == "" {
		return Ghost{}, false
	}
	return Ghost{
		UserID:      t.selfID,
		UserNumber:  userNumber,
		Content:     t.localContent,
		LastUpdated: t.localUpdated,
	}, true
}

// ApplyRemote upserts a remote ghost from a typing broadcast. The session's
// own echoes are ignored. Empty content starts the clear grace period
// instead of removing the ghost outright.
func (t *TypingTracker) ApplyRemote(p domain.TypingPayload) {
	if p.SenderID == t.selfID {
		return
	}
	now := t.clock.Now()

	if p.Content == "" {
		g, ok := t.remote[p.SenderID]
		if !ok {
			return
		}
		if g.lastContent == "" {
			delete(t.remote, p.SenderID)
			return
		}
		if g.clearedAt.IsZero() {
			g.clearedAt = now
		}
		g.content = ""
		return
	}

	pos, ok := t.positions[p.SenderID]
	if !ok {
		pos = t.nextPos
		// A broadcast may carry the sender's own position hint; honor it
		// when it does not collide with an already assigned slot.
		if p.Position > pos {
			pos = p.Position
		}
		t.positions[p.SenderID] = pos
		t.nextPos = pos + 1
	}

	g, ok := t.remote[p.SenderID]
	if !ok {
		g = &remoteGhost{position: pos}
		t.remote[p.SenderID] = g
	}
	g.userNumber = p.UserNumber
	g.content = p.Content
	g.lastContent = p.Content
	g.lastUpdated = now
	g.clearedAt = time.Time{}
}

// ClearSender removes a sender's ghost; the confirmed message supersedes
// the preview.
func (t *TypingTracker) ClearSender(senderID string) bool {
	if _, ok := t.remote[senderID]; !ok {
		return false
	}
	delete(t.remote, senderID)
	return true
}

// Sweep removes ghosts idle past the timeout or whose clear grace has
// elapsed. Returns true when anything was removed.
func (t *TypingTracker) Sweep() bool {
	now := t.clock.Now()
	removed := false
	for sender, g := range t.remote {
		expired := now.Sub(g.lastUpdated) > GhostIdleTimeout
		graceOver := !g.clearedAt.IsZero() && now.Sub(g.clearedAt) >= GhostClearGrace
		if expired || graceOver {
			delete(t.remote, sender)
			removed = true
		}
	}
	return removed
}

// Ghosts remote previews in render order: content length descending,
// position ascending as tie-break. Cleared ghosts inside the grace period
// show their last non-empty content.
func (t *TypingTracker) Ghosts() []Ghost {
	out := make([]Ghost, 0, len(t.remote))
	for sender, g := range t.remote {
		content := g.content
		if content == "" {
			content = g.lastContent
		}
		if content == "" {
			continue
		}
		out = append(out, Ghost{
			UserID:      sender,
			UserNumber:  g.userNumber,
			Content:     content,
			Position:    g.position,
			LastUpdated: g.lastUpdated,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Content) != len(out[j].Content) {
			return len(out[i].Content) > len(out[j].Content)
		}
		return out[i].Position < out[j].Position
	})
	return out
}
