package storage_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/serranog/altair/internal/llm"
	"github.com/serranog/altair/internal/storage"
)

func exportFixture() (*storage.Session, []llm.Message) {
	sess := &storage.Session{
		ID:       "abc12345-0000-0000-0000-000000000000",
		Title:    "ticket to london",
		Status:   storage.StatusActive,
		Provider: "openai",
		Model:    "gpt-4o-mini",
	}
	turns := []llm.Message{
		llm.UserMessage("How much is a ticket to London?"),
		llm.AssistantMessage("A return ticket to London costs 799€."),
	}
	return sess, turns
}

func TestExportMarkdown(t *testing.T) {
	sess, turns := exportFixture()
	out := storage.ExportMarkdown(sess, turns)

	for _, want := range []string{
		"# ticket to london",
		sess.ID,
		"## You",
		"How much is a ticket to London?",
		"## Assistant",
		"799€",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestExportMarkdownSkipsSystem(t *testing.T) {
	sess, turns := exportFixture()
	turns = append([]llm.Message{llm.SystemMessage("secret prompt")}, turns...)

	out := storage.ExportMarkdown(sess, turns)
	if strings.Contains(out, "secret prompt") {
		t.Error("system prompt leaked into export")
	}
}

func TestExportJSON(t *testing.T) {
	sess, turns := exportFixture()
	data, err := storage.ExportJSON(sess, turns)
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var decoded struct {
		Session storage.Session `json:"session"`
		Turns   []llm.Message   `json:"turns"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if decoded.Session.ID != sess.ID {
		t.Errorf("session id = %q", decoded.Session.ID)
	}
	if len(decoded.Turns) != 2 {
		t.Errorf("turns = %d, want 2", len(decoded.Turns))
	}
}
