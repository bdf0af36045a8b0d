package models

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged turn sent to the completion service.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ConversationState is the running message history of one session.
// The zero value is a fresh conversation.
type ConversationState struct {
	Messages []Message `json:"messages"`
}

// NewConversationState returns an empty (fresh) conversation.
func NewConversationState() *ConversationState {
	return &ConversationState{}
}

// IsFresh reports whether no message has been recorded yet.
func (c *ConversationState) IsFresh() bool {
	return len(c.Messages) == 0
}

// Append adds a message to the end of the history.
func (c *ConversationState) Append(role Role, content string) {
	c.Messages = append(c.Messages, Message{Role: role, Content: content})
}

// EnsureSystem inserts the system instruction if the conversation is fresh.
// It returns true when the instruction was inserted.
func (c *ConversationState) EnsureSystem(instruction string) bool {
	if !c.IsFresh() {
		return false
	}
	c.Append(RoleSystem, instruction)
	return true
}

// Snapshot returns a copy of the messages, safe to hand to a completion call.
func (c *ConversationState) Snapshot() []Message {
	out := make([]Message, len(c.Messages))
	copy(out, c.Messages)
	return out
}

// Reset discards every message, returning the conversation to its fresh state.
func (c *ConversationState) Reset() {
	c.Messages = nil
}

// Clone returns an independent copy of the conversation.
func (c *ConversationState) Clone() ConversationState {
	return ConversationState{Messages: c.Snapshot()}
}
