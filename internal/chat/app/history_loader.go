package app

import (
	"time"

	"ephemeral_chat/internal/chat/domain"
)

const (
	// PageSize messages fetched per history page
	PageSize = 20
	// ScrollThreshold distance from the historical edge that triggers a fetch
	ScrollThreshold = 150.0
)

// HistoryLoader tracks the pagination cursor for the active room: the
// oldest loaded timestamp, whether more history exists, and whether a fetch
// is in flight. A failed fetch leaves the state unchanged so the next
// scroll trigger retries implicitly.
type HistoryLoader struct {
	oldest    time.Time
	hasOldest bool
	hasMore   bool
	loading   bool
}

// NewHistoryLoader create a loader assuming history exists until proven
// otherwise.
func NewHistoryLoader() *HistoryLoader {
	return &HistoryLoader{hasMore: true}
}

// Seed records the cursor from the initial page load.
func (l *HistoryLoader) Seed(batch []domain.Message) {
	for _, m := range batch {
		if !l.hasOldest || m.CreatedAt.Before(l.oldest) {
			l.oldest = m.CreatedAt
			l.hasOldest = true
		}
	}
	l.hasMore = len(batch) == PageSize
}

// ShouldFetch reports whether a scroll position warrants a page fetch.
func (l *HistoryLoader) ShouldFetch(distanceFromEdge float64) bool {
	return distanceFromEdge <= ScrollThreshold && !l.loading && l.hasMore && l.hasOldest
}

// BeginFetch marks a fetch in flight and returns the cursor to query below.
func (l *HistoryLoader) BeginFetch() time.Time {
	l.loading = true
	return l.oldest
}

// CompletePage applies a successful page: advance the cursor to the
// earliest returned timestamp and keep paging while full pages come back.
func (l *HistoryLoader) CompletePage(batch []domain.Message) {
	l.loading = false
	if len(batch) == 0 {
		l.hasMore = false
		return
	}
	for _, m := range batch {
		if m.CreatedAt.Before(l.oldest) {
			l.oldest = m.CreatedAt
		}
	}
	l.hasMore = len(batch) == PageSize
}

// Fail ends the in-flight fetch leaving cursor and exhaustion untouched.
func (l *HistoryLoader) Fail() {
	l.loading = false
}

// HasMore more history remains
func (l *HistoryLoader) HasMore() bool { return l.hasMore }

// Loading a fetch is in flight
func (l *HistoryLoader) Loading() bool { return l.loading }
