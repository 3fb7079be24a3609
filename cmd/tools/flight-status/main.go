package main

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Demo flight data. Status and gate are derived deterministically from the
// flight number so repeated lookups in a conversation stay consistent.
var statuses = []string{"on time", "delayed", "boarding", "departed", "cancelled"}

var routes = map[string][2]string{
	"BA": {"London Heathrow", "Berlin Brandenburg"},
	"AF": {"Paris Charles de Gaulle", "Tokyo Haneda"},
	"JL": {"Tokyo Haneda", "London Heathrow"},
	"LH": {"Berlin Brandenburg", "Paris Charles de Gaulle"},
}

func main() {
	s := server.NewMCPServer("altair-flight-status", "0.1.0")

	s.AddTool(mcp.Tool{
		Name:        "flight_status",
		Description: "Look up the current status of a flight by its flight number, for example BA117.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"flight_number": map[string]any{
					"type":        "string",
					"description": "The flight number, e.g. BA117",
				},
			},
			Required: []string{"flight_number"},
		},
	}, handleFlightStatus)

	if err := server.ServeStdio(s); err != nil {
		fmt.Printf("server error: %v\n", err)
	}
}

func getArgs(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	return args
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
	}
}

func errResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: true,
	}
}

func handleFlightStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := getArgs(request)
	number, _ := args["flight_number"].(string)
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return errResult("error: 'flight_number' is required"), nil
	}
	if len(number) < 3 {
		return errResult(fmt.Sprintf("error: %q does not look like a flight number", number)), nil
	}

	carrier := number[:2]
	route, ok := routes[carrier]
	if !ok {
		return textResult(fmt.Sprintf(`{"flight_number": %q, "status": "unknown flight"}`, number)), nil
	}

	h := fnv.New32a()
	h.Write([]byte(number))
	seed := h.Sum32()

	status := statuses[seed%uint32(len(statuses))]
	gate := fmt.Sprintf("%c%d", 'A'+seed%4, 1+seed%28)
	departure := time.Now().Add(time.Duration(1+seed%6) * time.Hour).Format("15:04")

	out, _ := json.Marshal(map[string]string{
		"flight_number":       number,
		"origin":              route[0],
		"destination":         route[1],
		"status":              status,
		"gate":                gate,
		"scheduled_departure": departure,
	})
	return textResult(string(out)), nil
}
