package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/serranog/altair/internal/tools"
)

// recordedBooking captures what the booking tool asked the store to persist.
type recordedBooking struct {
	reference, destination, passenger, price string
}

type fakeRecorder struct {
	bookings []recordedBooking
	err      error
}

func (f *fakeRecorder) SaveBooking(ctx context.Context, reference, destination, passenger, price string) error {
	if f.err != nil {
		return f.err
	}
	f.bookings = append(f.bookings, recordedBooking{reference, destination, passenger, price})
	return nil
}

// panickyTool panics from Invoke to exercise the registry's recovery.
type panickyTool struct{}

func (panickyTool) Name() string         { return "panicky" }
func (panickyTool) Description() string  { return "panics" }
func (panickyTool) Schema() tools.Schema { return tools.Schema{} }
func (panickyTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	panic("boom")
}

// --- Registry ---

func TestRegistryEmpty(t *testing.T) {
	r := tools.NewRegistry()
	defer r.Close()

	if r.HasTools() {
		t.Fatal("empty registry should not have tools")
	}
	if got := r.Defs(); len(got) != 0 {
		t.Fatalf("Defs() = %d, want 0", len(got))
	}

	_, err := r.Call(context.Background(), "nonexistent", `{}`)
	if !errors.Is(err, tools.ErrUnknownTool) {
		t.Fatalf("Call on empty registry: %v, want ErrUnknownTool", err)
	}
}

func TestRegistryDefs(t *testing.T) {
	r := tools.NewRegistry()
	defer r.Close()

	r.Register(tools.TicketPrice{})
	r.Register(tools.BookTicket{})

	defs := r.Defs()
	if len(defs) != 2 {
		t.Fatalf("Defs() = %d, want 2", len(defs))
	}
	for _, d := range defs {
		if d.Description == "" {
			t.Errorf("tool %s has no description", d.Name)
		}
		if d.Parameters["type"] != "object" {
			t.Errorf("tool %s schema type = %v", d.Name, d.Parameters["type"])
		}
	}

	if !r.Has("get_ticket_price") || !r.Has("book_ticket") {
		t.Error("registered tools not found by name")
	}
	if r.Has("get_weather") {
		t.Error("Has reported an unregistered tool")
	}
}

func TestRegistryCallValidatesArguments(t *testing.T) {
	r := tools.NewRegistry()
	defer r.Close()
	r.Register(tools.TicketPrice{})

	_, err := r.Call(context.Background(), "get_ticket_price", `{"city": "London"}`)
	if err == nil {
		t.Fatal("unknown argument should be rejected")
	}
	var derr *tools.DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("error = %T, want *DecodeError", err)
	}
	if derr.Tool != "get_ticket_price" {
		t.Errorf("DecodeError.Tool = %q", derr.Tool)
	}
}

func TestRegistryCallRecoversPanic(t *testing.T) {
	r := tools.NewRegistry()
	defer r.Close()
	r.Register(panickyTool{})

	_, err := r.Call(context.Background(), "panicky", `{}`)
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Fatalf("Call error = %v, want panic recovery", err)
	}
}

func TestRegisterServerSkipsDisabled(t *testing.T) {
	r := tools.NewRegistry()
	defer r.Close()

	err := r.RegisterServer("disabled", tools.ToolServerConfig{
		Binary:  "/nonexistent/binary",
		Enabled: false,
	})
	if err != nil {
		t.Fatalf("RegisterServer disabled: %v", err)
	}
	if r.HasTools() {
		t.Fatal("disabled server should not register tools")
	}
}

func TestRegisterServerBadBinary(t *testing.T) {
	r := tools.NewRegistry()
	defer r.Close()

	err := r.RegisterServer("bad", tools.ToolServerConfig{
		Binary:  "/nonexistent/binary",
		Enabled: true,
	})
	if err == nil {
		t.Fatal("RegisterServer with bad binary should return error")
	}
}

// --- Fare tools ---

func TestTicketPrice(t *testing.T) {
	cases := []struct {
		city      string
		wantPrice string
	}{
		{"London", "799€"},
		{"london", "799€"},
		{"  PARIS  ", "899€"},
		{"Tokyo", "1400€"},
		{"Berlin", "499€"},
		{"Timbuktu", "Unknown"},
	}

	ctx := context.Background()
	tool := tools.TicketPrice{}
	for _, tc := range cases {
		t.Run(tc.city, func(t *testing.T) {
			out, err := tool.Invoke(ctx, map[string]any{"destination_city": tc.city})
			if err != nil {
				t.Fatalf("Invoke: %v", err)
			}
			var result map[string]string
			if err := json.Unmarshal([]byte(out), &result); err != nil {
				t.Fatalf("result is not JSON: %q", out)
			}
			if result["price"] != tc.wantPrice {
				t.Errorf("price = %q, want %q", result["price"], tc.wantPrice)
			}
			if result["destination_city"] != tc.city {
				t.Errorf("destination_city = %q, want echo of %q", result["destination_city"], tc.city)
			}
		})
	}
}

func TestBookTicket(t *testing.T) {
	rec := &fakeRecorder{}
	tool := tools.BookTicket{Recorder: rec}

	out, err := tool.Invoke(context.Background(), map[string]any{
		"destination_city": "Paris",
		"passenger_name":   "Ada Lovelace",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	var result map[string]string
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("result is not JSON: %q", out)
	}
	if len(result["reference"]) != 8 {
		t.Errorf("reference = %q, want 8 chars", result["reference"])
	}
	if result["price"] != "899€" {
		t.Errorf("price = %q", result["price"])
	}

	if len(rec.bookings) != 1 {
		t.Fatalf("bookings recorded = %d, want 1", len(rec.bookings))
	}
	b := rec.bookings[0]
	if b.reference != result["reference"] || b.destination != "Paris" || b.passenger != "Ada Lovelace" {
		t.Errorf("recorded booking = %+v", b)
	}
}

func TestBookTicketUnknownCity(t *testing.T) {
	rec := &fakeRecorder{}
	tool := tools.BookTicket{Recorder: rec}

	out, err := tool.Invoke(context.Background(), map[string]any{
		"destination_city": "Atlantis",
		"passenger_name":   "Jules Verne",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !strings.Contains(out, "no route") {
		t.Errorf("result = %q", out)
	}
	if len(rec.bookings) != 0 {
		t.Error("unknown city must not record a booking")
	}
}

func TestBookTicketRecorderFailure(t *testing.T) {
	tool := tools.BookTicket{Recorder: &fakeRecorder{err: errors.New("disk full")}}

	_, err := tool.Invoke(context.Background(), map[string]any{
		"destination_city": "London",
		"passenger_name":   "Grace Hopper",
	})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Invoke error = %v", err)
	}
}
