package app

import (
	"testing"
	"time"

	"ephemeral_chat/internal/chat/domain"

	"github.com/stretchr/testify/assert"
)

func loaderBatch(n int, newest time.Time) []domain.Message {
	out := make([]domain.Message, n)
	for i := range out {
		out[i] = storeMsg("room", "s", "m", 0)
		out[i].CreatedAt = newest.Add(-time.Duration(i) * time.Minute)
	}
	return out
}

func TestHistoryLoaderSeed(t *testing.T) {
	l := NewHistoryLoader()
	assert.False(t, l.ShouldFetch(0), "no cursor before the initial page")

	l.Seed(loaderBatch(PageSize, storeBase))
	assert.True(t, l.HasMore())
	assert.True(t, l.ShouldFetch(100))
	assert.False(t, l.ShouldFetch(ScrollThreshold+1))
}

func TestHistoryLoaderShortSeed(t *testing.T) {
	l := NewHistoryLoader()
	l.Seed(loaderBatch(5, storeBase))
	assert.False(t, l.HasMore(), "a short initial page means the room history is complete")
	assert.False(t, l.ShouldFetch(0))
}

func TestHistoryLoaderPaging(t *testing.T) {
	l := NewHistoryLoader()
	l.Seed(loaderBatch(PageSize, storeBase))

	cursor := l.BeginFetch()
	assert.Equal(t, storeBase.Add(-time.Duration(PageSize-1)*time.Minute), cursor)
	assert.True(t, l.Loading())
	assert.False(t, l.ShouldFetch(0), "one fetch in flight at a time")

	page := loaderBatch(PageSize, cursor.Add(-time.Minute))
	l.CompletePage(page)
	assert.False(t, l.Loading())
	assert.True(t, l.HasMore())

	next := l.BeginFetch()
	assert.True(t, next.Before(cursor), "cursor advances past the fetched page")
}

func TestHistoryLoaderExhaustion(t *testing.T) {
	l := NewHistoryLoader()
	l.Seed(loaderBatch(PageSize, storeBase))

	l.BeginFetch()
	l.CompletePage(loaderBatch(3, storeBase.Add(-time.Hour)))
	assert.False(t, l.HasMore(), "a short page ends pagination")

	l2 := NewHistoryLoader()
	l2.Seed(loaderBatch(PageSize, storeBase))
	l2.BeginFetch()
	l2.CompletePage(nil)
	assert.False(t, l2.HasMore(), "an empty page ends pagination")
}

func TestHistoryLoaderFailRetries(t *testing.T) {
	l := NewHistoryLoader()
	l.Seed(loaderBatch(PageSize, storeBase))

	cursor := l.BeginFetch()
	l.Fail()
	assert.False(t, l.Loading())
	assert.True(t, l.ShouldFetch(0), "a failed fetch retries on the next trigger")
	assert.Equal(t, cursor, l.BeginFetch(), "the cursor does not move on failure")
}
