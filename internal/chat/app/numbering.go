package app

import (
	"time"

	"ephemeral_chat/internal/chat/domain"

	"github.com/google/uuid"
)

// NumberWindow is the trailing activity window a display number is scoped
// to. A number older than this may be legally reassigned to a new session.
const NumberWindow = time.Hour

// NumberingService assigns the session's display number within each room.
// The anonymous session id is generated once per process and reused across
// rooms; per-room numbers are computed lazily on first need and cached for
// the session's lifetime. Nothing is persisted.
type NumberingService struct {
	sessionID string
	clock     Clock
	bindings  map[string]int
}

// NewNumberingService create the service with a fresh anonymous identity.
func NewNumberingService(clock Clock) *NumberingService {
	return &NumberingService{
		sessionID: uuid.New().String(),
		clock:     clock,
		bindings:  make(map[string]int),
	}
}

// SessionID the per-process anonymous identifier
func (n *NumberingService) SessionID() string { return n.sessionID }

// BindingFor returns the cached number for a room. ok=false means not yet
// computed; callers must never treat 0 as a valid number.
func (n *NumberingService) BindingFor(roomID string) (int, bool) {
	num, ok := n.bindings[roomID]
	return num, ok
}

// Bind computes and caches the room's display number from the currently
// loaded messages: one past the maximum number seen within the trailing
// window, or 1 in an idle room. Subsequent calls return the cached binding
// without rescanning.
func (n *NumberingService) Bind(roomID string, loaded []domain.Message) int {
	if num, ok := n.bindings[roomID]; ok {
		return num
	}
	cutoff := n.clock.Now().Add(-NumberWindow)
	max := 0
	for _, m := range loaded {
		if m.CreatedAt.Before(cutoff) {
			continue
		}
		if m.UserNumber > max {
			max = m.UserNumber
		}
	}
	num := max + 1
	n.bindings[roomID] = num
	return num
}

// Forget drops a binding; used to roll back a failed join.
func (n *NumberingService) Forget(roomID string) {
	delete(n.bindings, roomID)
}

// ShapeFor display name for the cached binding, empty when unbound
func (n *NumberingService) ShapeFor(roomID string) string {
	num, ok := n.bindings[roomID]
	if !ok {
		return ""
	}
	return domain.ShapeName(num)
}
