package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Return-trip fares for the FlightAI demo routes. A real deployment would
// back this with a fares API.
var ticketPrices = map[string]string{
	"london": "799€",
	"paris":  "899€",
	"tokyo":  "1400€",
	"berlin": "499€",
}

// TicketPrice looks up the return-ticket fare for a destination city.
type TicketPrice struct{}

func (TicketPrice) Name() string { return "get_ticket_price" }

func (TicketPrice) Description() string {
	return "Get the price of a return ticket to the destination city. " +
		"Call this whenever you need to know the ticket price, for example " +
		"when a customer asks 'How much is a ticket to this city?'"
}

func (TicketPrice) Schema() Schema {
	return Schema{Params: map[string]Param{
		"destination_city": {
			Type:        "string",
			Description: "The city that the customer wants to travel to",
			Required:    true,
		},
	}}
}

func (TicketPrice) Invoke(ctx context.Context, args map[string]any) (string, error) {
	city, _ := args["destination_city"].(string)
	slog.Info("ticket price requested", "city", city)

	price, ok := ticketPrices[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		price = "Unknown"
	}

	out, err := json.Marshal(map[string]string{
		"destination_city": city,
		"price":            price,
	})
	if err != nil {
		return "", fmt.Errorf("encoding price result: %w", err)
	}
	return string(out), nil
}

// BookingRecorder persists a confirmed booking. Implemented by the SQLite
// store.
type BookingRecorder interface {
	SaveBooking(ctx context.Context, reference, destination, passenger, price string) error
}

// BookTicket books a return ticket for a passenger. Bookings are recorded,
// so the call is not idempotent and must never be retried automatically.
type BookTicket struct {
	Recorder BookingRecorder
}

func (BookTicket) Name() string { return "book_ticket" }

func (BookTicket) Description() string {
	return "Book a return ticket to the destination city for the named passenger. " +
		"Only call this after the customer has confirmed they want to book."
}

func (BookTicket) Schema() Schema {
	return Schema{Params: map[string]Param{
		"destination_city": {
			Type:        "string",
			Description: "The city that the customer wants to travel to",
			Required:    true,
		},
		"passenger_name": {
			Type:        "string",
			Description: "Full name of the passenger",
			Required:    true,
		},
	}}
}

func (b BookTicket) Invoke(ctx context.Context, args map[string]any) (string, error) {
	city, _ := args["destination_city"].(string)
	passenger, _ := args["passenger_name"].(string)

	price, ok := ticketPrices[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		return `{"error": "no route to that city"}`, nil
	}

	reference := strings.ToUpper(uuid.New().String()[:8])
	if b.Recorder != nil {
		if err := b.Recorder.SaveBooking(ctx, reference, city, passenger, price); err != nil {
			return "", fmt.Errorf("recording booking: %w", err)
		}
	}

	slog.Info("ticket booked", "city", city, "passenger", passenger, "reference", reference)

	out, err := json.Marshal(map[string]string{
		"reference":        reference,
		"destination_city": city,
		"passenger_name":   passenger,
		"price":            price,
	})
	if err != nil {
		return "", fmt.Errorf("encoding booking result: %w", err)
	}
	return string(out), nil
}
