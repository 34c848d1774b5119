package domain

// TypingPayload definition the per-room ephemeral broadcast emitted as a
// participant types. Empty content signals a cleared input.
type TypingPayload struct {
	SenderID   string `json:"sender_id"`
	UserNumber int    `json:"user_number"`
	Content    string `json:"content"`
	Position   int    `json:"position"`
}
