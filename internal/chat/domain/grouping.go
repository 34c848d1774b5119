package domain

import "time"

// groupWindow is the max gap between consecutive messages of one sender for
// them to render as a single group.
const groupWindow = 2 * time.Minute

// GroupMessages partitions a timeline into render groups: consecutive
// messages from the same sender within the group window share a group, join
// notices always stand alone.
func GroupMessages(messages []Message) [][]Message {
	var groups [][]Message
	var current []Message

	flush := func() {
		if len(current) > 0 {
			groups = append(groups, current)
			current = nil
		}
	}

	for _, m := range messages {
		if m.IsJoin() {
			flush()
			groups = append(groups, []Message{m})
			continue
		}
		if len(current) > 0 {
			last := current[len(current)-1]
			gap := m.CreatedAt.Sub(last.CreatedAt)
			if gap < 0 {
				gap = -gap
			}
			if last.SenderID == m.SenderID && gap < groupWindow {
				current = append(current, m)
				continue
			}
			flush()
		}
		current = []Message{m}
	}
	flush()
	return groups
}
