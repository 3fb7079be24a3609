package agent_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/serranog/altair/internal/agent"
	"github.com/serranog/altair/internal/llm"
)

func TestConversationRetentionCap(t *testing.T) {
	client := &scriptedClient{}
	for i := 0; i < 12; i++ {
		client.responses = append(client.responses, stopResponse(fmt.Sprintf("reply %d", i)))
	}
	a := agent.New(client, nil, agent.NewConversation("test prompt"))

	for i := 0; i < 12; i++ {
		if _, err := a.Advance(context.Background(), fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("Advance %d: %v", i, err)
		}
	}

	turns := a.Conversation().Turns()
	if len(turns) != agent.DefaultMaxTurns {
		t.Fatalf("turns = %d, want %d", len(turns), agent.DefaultMaxTurns)
	}
	// Oldest exchanges are dropped; the window ends with the latest pair.
	if turns[0].Content != "message 7" {
		t.Errorf("oldest retained turn = %q, want %q", turns[0].Content, "message 7")
	}
	if turns[len(turns)-1].Content != "reply 11" {
		t.Errorf("newest turn = %q", turns[len(turns)-1].Content)
	}

	// The system prompt survives trimming and still goes out first.
	sent := client.calls[len(client.calls)-1].messages
	if sent[0].Role != llm.RoleSystem || sent[0].Content != "test prompt" {
		t.Errorf("system prompt lost after trimming: %+v", sent[0])
	}
}

func TestConversationSetMaxTurns(t *testing.T) {
	c := agent.NewConversation("prompt")
	c.SetMaxTurns(4)
	for i := 0; i < 6; i++ {
		c.SetTurns(append(c.Turns(), llm.UserMessage(fmt.Sprintf("u%d", i)), llm.AssistantMessage(fmt.Sprintf("a%d", i))))
	}
	if c.Len() != 4 {
		t.Fatalf("len = %d, want 4", c.Len())
	}

	// Values below a single user/assistant pair are ignored.
	c.SetMaxTurns(1)
	if c.Len() != 4 {
		t.Errorf("len = %d after ignored SetMaxTurns(1)", c.Len())
	}
}

func TestConversationSetTurnsFiltersSystem(t *testing.T) {
	c := agent.NewConversation("owned prompt")
	c.SetTurns([]llm.Message{
		llm.SystemMessage("stored prompt from an old session"),
		llm.UserMessage("hello"),
		llm.AssistantMessage("hi"),
	})

	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
	if c.SystemPrompt() != "owned prompt" {
		t.Errorf("system prompt = %q", c.SystemPrompt())
	}
	for _, turn := range c.Turns() {
		if turn.Role == llm.RoleSystem {
			t.Errorf("system turn leaked into history: %+v", turn)
		}
	}
}

func TestConversationReset(t *testing.T) {
	c := agent.NewConversation("prompt")
	c.SetTurns([]llm.Message{llm.UserMessage("hi"), llm.AssistantMessage("hello")})
	c.Reset()
	if c.Len() != 0 {
		t.Errorf("len = %d after reset", c.Len())
	}
	if c.SystemPrompt() != "prompt" {
		t.Errorf("system prompt = %q after reset", c.SystemPrompt())
	}
}

func TestConversationTurnsReturnsCopy(t *testing.T) {
	c := agent.NewConversation("prompt")
	c.SetTurns([]llm.Message{llm.UserMessage("hi"), llm.AssistantMessage("hello")})

	turns := c.Turns()
	turns[0].Content = "mutated"
	if c.Turns()[0].Content != "hi" {
		t.Error("Turns() exposed internal state")
	}
}

func TestConversationSetSystemPrompt(t *testing.T) {
	c := agent.NewConversation("first")
	c.SetSystemPrompt("second")
	if c.SystemPrompt() != "second" {
		t.Errorf("system prompt = %q", c.SystemPrompt())
	}
	c.SetSystemPrompt("")
	if c.SystemPrompt() != "second" {
		t.Errorf("empty prompt should be ignored, got %q", c.SystemPrompt())
	}
}
