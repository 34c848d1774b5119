package app

import (
	"testing"
	"time"

	"ephemeral_chat/internal/chat/domain"

	"github.com/stretchr/testify/assert"
)

func TestNumberingFirstInRoom(t *testing.T) {
	clock := newFakeClock(storeBase)
	n := NewNumberingService(clock)

	_, ok := n.BindingFor("room")
	assert.False(t, ok)

	assert.Equal(t, 1, n.Bind("room", nil))
	num, ok := n.BindingFor("room")
	assert.True(t, ok)
	assert.Equal(t, 1, num)
	assert.Equal(t, "POINT", n.ShapeFor("room"))
}

func TestNumberingFollowsWindowMax(t *testing.T) {
	clock := newFakeClock(storeBase)
	n := NewNumberingService(clock)

	loaded := []domain.Message{
		{UserNumber: 1, CreatedAt: storeBase.Add(-10 * time.Minute)},
		{UserNumber: 4, CreatedAt: storeBase.Add(-5 * time.Minute)},
		{UserNumber: 2, CreatedAt: storeBase.Add(-time.Minute)},
	}
	assert.Equal(t, 5, n.Bind("room", loaded))
	assert.Equal(t, "PENTAGON", n.ShapeFor("room"))
}

func TestNumberingIgnoresStaleActivity(t *testing.T) {
	clock := newFakeClock(storeBase)
	n := NewNumberingService(clock)

	loaded := []domain.Message{
		{UserNumber: 9, CreatedAt: storeBase.Add(-2 * time.Hour)},
		{UserNumber: 3, CreatedAt: storeBase.Add(-30 * time.Minute)},
	}
	assert.Equal(t, 4, n.Bind("room", loaded), "activity past the window is reassignable")
}

func TestNumberingCachesPerRoom(t *testing.T) {
	clock := newFakeClock(storeBase)
	n := NewNumberingService(clock)

	assert.Equal(t, 1, n.Bind("a", nil))
	assert.Equal(t, 1, n.Bind("b", nil), "bindings are independent per room")

	// Later activity does not move an existing binding.
	loaded := []domain.Message{{UserNumber: 7, CreatedAt: storeBase}}
	assert.Equal(t, 1, n.Bind("a", loaded))

	n.Forget("a")
	assert.Equal(t, 8, n.Bind("a", loaded))
}

func TestNumberingTwoSessionsInEmptyRoom(t *testing.T) {
	clock := newFakeClock(storeBase)
	a := NewNumberingService(clock)
	b := NewNumberingService(clock)

	assert.Equal(t, 1, a.Bind("room", nil))
	assert.Equal(t, "POINT", a.ShapeFor("room"))

	// The second session computes from the loaded timeline, which now
	// carries the first session's join.
	loaded := []domain.Message{
		{UserNumber: 1, CreatedAt: storeBase, Kind: domain.KindJoin},
	}
	assert.Equal(t, 2, b.Bind("room", loaded))
	assert.Equal(t, "LINE", b.ShapeFor("room"))
}

func TestNumberingShapeForUnbound(t *testing.T) {
	n := NewNumberingService(newFakeClock(storeBase))
	assert.Equal(t, "", n.ShapeFor("room"))
}

func TestNumberingSessionIDStable(t *testing.T) {
	n := NewNumberingService(newFakeClock(storeBase))
	assert.NotEmpty(t, n.SessionID())
	assert.Equal(t, n.SessionID(), n.SessionID())
}
