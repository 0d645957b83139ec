package domain

// Session is the whole-value state of one conversation. The orchestrator owns
// it and mutates it only by replacing the entire value, so consumers observing
// a snapshot never see a partially updated turn.
type Session struct {
	ID               string    `json:"id"`
	Messages         []Message `json:"messages"`
	Input            string    `json:"input,omitempty"`
	Loading          bool      `json:"loading"`
	WorkshopComplete bool      `json:"workshop_complete"`
}

// LastTurn returns the user message of the most recent completed pair, for
// replay. ok is false when the history does not end in a user message
// followed by a bot (or bot-waiting) message.
func (s Session) LastTurn() (user Message, ok bool) {
	n := len(s.Messages)
	if n < 2 {
		return Message{}, false
	}
	last, prev := s.Messages[n-1], s.Messages[n-2]
	if prev.Role != RoleUser || last.Role == RoleUser {
		return Message{}, false
	}
	return prev, true
}

// WithMessages returns a copy holding a new message list. The slice is owned
// by the session afterwards.
func (s Session) WithMessages(msgs []Message) Session {
	s.Messages = msgs
	return s
}
