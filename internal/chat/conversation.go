package chat

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SystemPrompt seeds every fresh conversation.
const SystemPrompt = "You are a helpful financial assistant. Only respond to questions about financial data, stock performance, market news, or company reports. Do not answer unrelated questions."

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered message sequence. A fresh one holds exactly
// the system message.
type Conversation []Message

func NewConversation() Conversation {
	return Conversation{{Role: RoleSystem, Content: SystemPrompt}}
}

// Clone returns a structurally independent copy. Archived and active
// conversations must never share backing storage, or edits to one would
// retroactively mutate the other.
func (c Conversation) Clone() Conversation {
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// Trivial reports whether the conversation holds nothing beyond the
// initial system message.
func (c Conversation) Trivial() bool {
	return len(c) <= 1
}

func (c Conversation) Equal(other Conversation) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}
