package domain

import "time"

// Phase is the position of a session in its state machine.
type Phase string

const (
	PhaseAwaitingTitleButton Phase = "awaiting_title_button" // Prompt sent, waiting for the title button
	PhaseAwaitingTitleForm   Phase = "awaiting_title_form"   // Title form shown, bounded wait
	PhaseEditing             Phase = "editing"               // Edit loop: add fields until done
	PhaseTerminated          Phase = "terminated"            // Sink state
)

// Outcome records how a session ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeTimedOut  Outcome = "timed_out"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Trigger is an inbound chat message that may start a session.
type Trigger struct {
	MessageID  string    `json:"message_id"`
	ChannelID  string    `json:"channel_id"`
	GuildID    string    `json:"guild_id,omitempty"`
	AuthorID   string    `json:"author_id"`
	Content    string    `json:"content"`
	ReceivedAt time.Time `json:"received_at"`
}

// IsCommand reports whether the message content is exactly the command phrase.
func (t Trigger) IsCommand() bool {
	return t.Content == CommandPhrase
}

// SessionInfo is a read-only view of an active session.
type SessionInfo struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	MessageID string    `json:"message_id,omitempty"`
	AuthorID  string    `json:"author_id"`
	Phase     Phase     `json:"phase"`
	Fields    int       `json:"fields"`
	StartedAt time.Time `json:"started_at"`
}

// DocumentRecord is a finished document kept in the archive.
type DocumentRecord struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	ChannelID   string    `json:"channel_id"`
	MessageID   string    `json:"message_id"`
	AuthorID    string    `json:"author_id"`
	Embed       Embed     `json:"embed"`
	CompletedAt time.Time `json:"completed_at"`
}
