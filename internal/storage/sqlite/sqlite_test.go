package sqlite

import (
	"context"
	"strings"
	"testing"

	"github.com/serranog/altair/internal/llm"
	"github.com/serranog/altair/internal/storage"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening memory db: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetSession(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := &storage.Session{
		ID:       "abc12345-0000-0000-0000-000000000000",
		Title:    "ticket to london",
		Status:   storage.StatusActive,
		Provider: "ollama",
		Model:    "qwen3:8b",
		Profile:  "flightai",
	}

	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}

	if got.Title != "ticket to london" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Status != storage.StatusActive {
		t.Errorf("status = %q", got.Status)
	}
	if got.Provider != "ollama" {
		t.Errorf("provider = %q", got.Provider)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at should not be zero")
	}
}

func TestGetSessionByPrefix(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := &storage.Session{
		ID:     "abc12345-0000-0000-0000-000000000000",
		Status: storage.StatusActive,
	}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSession(ctx, "abc12345")
	if err != nil {
		t.Fatalf("GetSession by prefix: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("got ID %q, want %q", got.ID, sess.ID)
	}
}

func TestGetSessionAmbiguousPrefix(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, id := range []string{
		"abc00000-0000-0000-0000-000000000000",
		"abc11111-0000-0000-0000-000000000000",
	} {
		sess := &storage.Session{ID: id, Status: storage.StatusActive}
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	_, err := s.GetSession(ctx, "abc")
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Fatalf("GetSession(abc) error = %v, want ambiguous prefix error", err)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.GetSession(context.Background(), "nope"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestListSessions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, sess := range []*storage.Session{
		{ID: "a0000000-0000-0000-0000-000000000000", Status: storage.StatusActive, Title: "first"},
		{ID: "b0000000-0000-0000-0000-000000000000", Status: storage.StatusCompleted, Title: "second"},
		{ID: "c0000000-0000-0000-0000-000000000000", Status: storage.StatusActive, Title: "third"},
	} {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	all, err := s.ListSessions(ctx, storage.SessionListOptions{})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("sessions = %d, want 3", len(all))
	}

	active, err := s.ListSessions(ctx, storage.SessionListOptions{Status: storage.StatusActive})
	if err != nil {
		t.Fatalf("ListSessions active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active sessions = %d, want 2", len(active))
	}

	limited, err := s.ListSessions(ctx, storage.SessionListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("ListSessions limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limited sessions = %d, want 1", len(limited))
	}
}

func TestUpdateSession(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := &storage.Session{ID: "abc12345-0000-0000-0000-000000000000", Status: storage.StatusActive}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	sess.Title = "renamed"
	sess.Status = storage.StatusCompleted
	if err := s.UpdateSession(ctx, sess); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Title != "renamed" || got.Status != storage.StatusCompleted {
		t.Errorf("session = %+v", got)
	}
}

func TestDeleteSession(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := &storage.Session{ID: "abc12345-0000-0000-0000-000000000000", Status: storage.StatusActive}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.SaveTurns(ctx, sess.ID, []llm.Message{llm.UserMessage("hi")}); err != nil {
		t.Fatalf("SaveTurns: %v", err)
	}

	if err := s.DeleteSession(ctx, "abc12345"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.GetSession(ctx, sess.ID); err == nil {
		t.Fatal("session still present after delete")
	}
	turns, err := s.LoadTurns(ctx, sess.ID)
	if err != nil {
		t.Fatalf("LoadTurns: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("turns = %d after delete", len(turns))
	}
}

func TestSaveAndLoadTurns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sess := &storage.Session{ID: "abc12345-0000-0000-0000-000000000000", Status: storage.StatusActive}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	turns := []llm.Message{
		llm.UserMessage("how much is a ticket to paris?"),
		llm.AssistantMessage("A return ticket to Paris costs 899€."),
	}
	if err := s.SaveTurns(ctx, sess.ID, turns); err != nil {
		t.Fatalf("SaveTurns: %v", err)
	}

	got, err := s.LoadTurns(ctx, sess.ID)
	if err != nil {
		t.Fatalf("LoadTurns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("turns = %d, want 2", len(got))
	}
	if got[0].Role != llm.RoleUser || got[1].Role != llm.RoleAssistant {
		t.Errorf("roles = %s, %s", got[0].Role, got[1].Role)
	}
	if got[1].Content != turns[1].Content {
		t.Errorf("content = %q", got[1].Content)
	}

	// Save again with more turns; the row is upserted, not duplicated.
	turns = append(turns,
		llm.UserMessage("and tokyo?"),
		llm.AssistantMessage("A return ticket to Tokyo costs 1400€."),
	)
	if err := s.SaveTurns(ctx, sess.ID, turns); err != nil {
		t.Fatalf("SaveTurns again: %v", err)
	}
	got, err = s.LoadTurns(ctx, sess.ID)
	if err != nil {
		t.Fatalf("LoadTurns again: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("turns after upsert = %d, want 4", len(got))
	}
}

func TestLoadTurnsMissingSession(t *testing.T) {
	s := testStore(t)
	turns, err := s.LoadTurns(context.Background(), "never-created")
	if err != nil {
		t.Fatalf("LoadTurns: %v", err)
	}
	if turns != nil {
		t.Errorf("turns = %v, want nil", turns)
	}
}

func TestSaveAndListBookings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveBooking(ctx, "AB12CD34", "London", "Ada Lovelace", "799€"); err != nil {
		t.Fatalf("SaveBooking: %v", err)
	}
	if err := s.SaveBooking(ctx, "EF56GH78", "Tokyo", "Grace Hopper", "1400€"); err != nil {
		t.Fatalf("SaveBooking: %v", err)
	}

	bookings, err := s.ListBookings(ctx, 10)
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("bookings = %d, want 2", len(bookings))
	}
	found := false
	for _, b := range bookings {
		if b.Reference == "AB12CD34" {
			found = true
			if b.Destination != "London" || b.Passenger != "Ada Lovelace" || b.Price != "799€" {
				t.Errorf("booking = %+v", b)
			}
			if b.CreatedAt.IsZero() {
				t.Error("created_at should not be zero")
			}
		}
	}
	if !found {
		t.Error("booking AB12CD34 not listed")
	}
}
