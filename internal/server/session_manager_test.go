package server

import (
	"context"
	"testing"

	"github.com/serranog/altair/internal/config"
	"github.com/serranog/altair/internal/llm"
	"github.com/serranog/altair/internal/storage"
	"github.com/serranog/altair/internal/storage/sqlite"
	"github.com/serranog/altair/internal/tools"
)

func testConfig() *config.Config {
	return &config.Config{
		Providers: map[string]config.ProviderConfig{
			"test": {
				BaseURL: "http://localhost:11434/v1/",
				APIKey:  "test",
				Models:  map[string]string{"default": "test-model"},
			},
		},
		DefaultProvider: "test",
		Assistant: config.AssistantConfig{
			MaxToolRounds: 1,
			MaxTurns:      10,
		},
	}
}

func TestSessionManager_GetOrCreate(t *testing.T) {
	sm := NewSessionManager()
	defer sm.CloseAll()

	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	sess := &storage.Session{
		ID:       "test-session-1",
		Status:   storage.StatusActive,
		Provider: "test",
		Model:    "test-model",
	}
	if err := store.CreateSession(context.Background(), sess); err != nil {
		t.Fatal(err)
	}

	registry := tools.NewRegistry()
	defer registry.Close()

	// First call should create
	as1, err := sm.GetOrCreate(context.Background(), sess, testConfig(), store, registry)
	if err != nil {
		t.Fatal(err)
	}
	if as1 == nil || as1.Agent == nil {
		t.Fatal("expected non-nil ActiveSession with an Agent")
	}

	// Second call should return same instance
	as2, err := sm.GetOrCreate(context.Background(), sess, testConfig(), store, registry)
	if err != nil {
		t.Fatal(err)
	}
	if as1 != as2 {
		t.Error("expected same ActiveSession instance on second call")
	}
}

func TestSessionManager_GetOrCreateRestoresHistory(t *testing.T) {
	sm := NewSessionManager()
	defer sm.CloseAll()

	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	sess := &storage.Session{
		ID:       "test-session-resume",
		Status:   storage.StatusActive,
		Provider: "test",
		Model:    "test-model",
	}
	if err := store.CreateSession(ctx, sess); err != nil {
		t.Fatal(err)
	}

	turns := []llm.Message{
		llm.UserMessage("how much to berlin?"),
		llm.AssistantMessage("A return ticket to Berlin costs 499€."),
	}
	if err := store.SaveTurns(ctx, sess.ID, turns); err != nil {
		t.Fatal(err)
	}

	registry := tools.NewRegistry()
	defer registry.Close()

	as, err := sm.GetOrCreate(ctx, sess, testConfig(), store, registry)
	if err != nil {
		t.Fatal(err)
	}
	if got := as.Agent.Conversation().Len(); got != 2 {
		t.Errorf("restored turns = %d, want 2", got)
	}
}

func TestSessionManager_GetOrCreateUnknownProvider(t *testing.T) {
	sm := NewSessionManager()
	defer sm.CloseAll()

	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	sess := &storage.Session{
		ID:       "test-session-bad",
		Status:   storage.StatusActive,
		Provider: "nonexistent",
	}

	registry := tools.NewRegistry()
	defer registry.Close()

	if _, err := sm.GetOrCreate(context.Background(), sess, testConfig(), store, registry); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestSessionManager_Remove(t *testing.T) {
	sm := NewSessionManager()

	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	sess := &storage.Session{
		ID:       "test-session-2",
		Status:   storage.StatusActive,
		Provider: "test",
		Model:    "test-model",
	}
	if err := store.CreateSession(context.Background(), sess); err != nil {
		t.Fatal(err)
	}

	registry := tools.NewRegistry()
	defer registry.Close()

	if _, err := sm.GetOrCreate(context.Background(), sess, testConfig(), store, registry); err != nil {
		t.Fatal(err)
	}

	if _, ok := sm.Get("test-session-2"); !ok {
		t.Error("expected session to exist")
	}

	sm.Remove("test-session-2")

	if _, ok := sm.Get("test-session-2"); ok {
		t.Error("expected session to be removed")
	}
}

func TestSessionManager_CloseAll(t *testing.T) {
	sm := NewSessionManager()

	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	registry := tools.NewRegistry()
	defer registry.Close()

	for i := 0; i < 3; i++ {
		id := "session-" + string(rune('a'+i))
		sess := &storage.Session{
			ID:       id,
			Status:   storage.StatusActive,
			Provider: "test",
			Model:    "test-model",
		}
		store.CreateSession(context.Background(), sess)
		sm.GetOrCreate(context.Background(), sess, testConfig(), store, registry)
	}

	sm.CloseAll()

	if _, ok := sm.Get("session-a"); ok {
		t.Error("expected all sessions to be cleared")
	}
}
