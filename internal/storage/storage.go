package storage

import (
	"context"
	"time"

	"github.com/serranog/altair/internal/llm"
)

// SessionStatus represents the lifecycle state of a session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusRunning   SessionStatus = "running"
	StatusCompleted SessionStatus = "completed"
	StatusFailed    SessionStatus = "failed"
)

// Session is the metadata for a saved conversation.
type Session struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Status    SessionStatus `json:"status"`
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	Profile   string        `json:"profile"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Booking is a ticket booking recorded by the book_ticket tool.
type Booking struct {
	Reference   string    `json:"reference"`
	Destination string    `json:"destination"`
	Passenger   string    `json:"passenger"`
	Price       string    `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionListOptions controls filtering and pagination for ListSessions.
type SessionListOptions struct {
	Status SessionStatus
	Limit  int
	Offset int
}

// Store is the persistence interface for sessions, turn history, and
// bookings.
type Store interface {
	// CreateSession inserts a new session. The ID field must be set by the caller.
	CreateSession(ctx context.Context, s *Session) error

	// GetSession returns a session by ID or ID prefix.
	GetSession(ctx context.Context, id string) (*Session, error)

	// ListSessions returns sessions ordered by updated_at descending.
	ListSessions(ctx context.Context, opts SessionListOptions) ([]Session, error)

	// UpdateSession updates mutable fields (title, status, updated_at).
	UpdateSession(ctx context.Context, s *Session) error

	// DeleteSession removes a session and its turns.
	DeleteSession(ctx context.Context, id string) error

	// SaveTurns overwrites the visible turn history for a session.
	SaveTurns(ctx context.Context, sessionID string, turns []llm.Message) error

	// LoadTurns returns the visible turn history for a session.
	LoadTurns(ctx context.Context, sessionID string) ([]llm.Message, error)

	// SaveBooking records a confirmed ticket booking.
	SaveBooking(ctx context.Context, reference, destination, passenger, price string) error

	// ListBookings returns bookings ordered by creation time descending.
	ListBookings(ctx context.Context, limit int) ([]Booking, error)

	// Close releases resources.
	Close() error
}
