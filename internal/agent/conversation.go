package agent

import (
	"github.com/serranog/altair/internal/llm"
)

// DefaultMaxTurns is the retention cap for the visible conversation window.
const DefaultMaxTurns = 10

// Conversation is the caller-visible turn history for one chat session.
// It holds only user and assistant turns; the system prompt is tracked
// separately and always sent first, and tool traffic lives only in the
// per-exchange working copy. When the history grows past the retention cap
// it is truncated from the oldest end.
type Conversation struct {
	system   llm.Message
	turns    []llm.Message
	maxTurns int
}

// NewConversation creates a conversation with the given system prompt and
// the default retention cap.
func NewConversation(systemPrompt string) *Conversation {
	return &Conversation{
		system:   llm.SystemMessage(systemPrompt),
		turns:    nil,
		maxTurns: DefaultMaxTurns,
	}
}

// SetMaxTurns overrides the retention cap. Values below 2 are ignored so a
// user/assistant pair always fits.
func (c *Conversation) SetMaxTurns(n int) {
	if n >= 2 {
		c.maxTurns = n
		c.trim()
	}
}

// SetSystemPrompt replaces the system prompt.
func (c *Conversation) SetSystemPrompt(prompt string) {
	if prompt != "" {
		c.system = llm.SystemMessage(prompt)
	}
}

// SystemPrompt returns the current system prompt text.
func (c *Conversation) SystemPrompt() string {
	return c.system.Content
}

// Turns returns a copy of the visible turn history.
func (c *Conversation) Turns() []llm.Message {
	out := make([]llm.Message, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of visible turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// SetTurns replaces the visible history, e.g. when resuming a stored
// session. System turns are filtered out; the prompt is owned by the
// conversation, not the store.
func (c *Conversation) SetTurns(turns []llm.Message) {
	c.turns = c.turns[:0]
	for _, t := range turns {
		if t.Role == llm.RoleSystem {
			continue
		}
		c.turns = append(c.turns, t)
	}
	c.trim()
}

// Reset clears the visible history, keeping the system prompt.
func (c *Conversation) Reset() {
	c.turns = nil
}

// payload builds the outbound message sequence for an endpoint request:
// the system turn first, then the visible history.
func (c *Conversation) payload() []llm.Message {
	out := make([]llm.Message, 0, len(c.turns)+1)
	out = append(out, c.system)
	out = append(out, c.turns...)
	return out
}

// commit appends the user utterance and the final reply as permanent turns,
// then enforces the retention cap. Called only after a turn fully succeeds.
func (c *Conversation) commit(userMessage, reply string) {
	c.turns = append(c.turns, llm.UserMessage(userMessage), llm.AssistantMessage(reply))
	c.trim()
}

func (c *Conversation) trim() {
	if len(c.turns) > c.maxTurns {
		c.turns = c.turns[len(c.turns)-c.maxTurns:]
	}
}
