package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/serranog/altair/internal/llm"
)

// MCPConnection owns one tool-server subprocess speaking MCP over stdio.
// Tools are discovered once at startup; the server owns their schemas and
// validates arguments on its side.
type MCPConnection struct {
	name   string
	client *client.Client
	defs   []llm.ToolDef
	names  []string
}

// NewMCPConnection starts the server binary, performs the MCP handshake, and
// discovers its tools.
func NewMCPConnection(name, binary string, env []string) (*MCPConnection, error) {
	c, err := client.NewStdioMCPClient(binary, env)
	if err != nil {
		return nil, fmt.Errorf("starting MCP server %s (%s): %w", name, binary, err)
	}

	ctx := context.Background()
	if _, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ClientInfo: mcp.Implementation{Name: "altair", Version: "0.1.0"},
		},
	}); err != nil {
		c.Close()
		return nil, fmt.Errorf("initializing MCP server %s: %w", name, err)
	}

	listed, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("listing tools from %s: %w", name, err)
	}

	conn := &MCPConnection{name: name, client: c}
	for _, t := range listed.Tools {
		conn.defs = append(conn.defs, defFromMCPTool(t))
		conn.names = append(conn.names, t.Name)
	}
	slog.Info("MCP server ready", "name", name, "tools", conn.names)
	return conn, nil
}

// defFromMCPTool reshapes an MCP tool declaration into the JSON-schema map
// the endpoint expects.
func defFromMCPTool(t mcp.Tool) llm.ToolDef {
	params := map[string]any{"type": t.InputSchema.Type}
	if t.InputSchema.Properties != nil {
		params["properties"] = t.InputSchema.Properties
	}
	if len(t.InputSchema.Required) > 0 {
		params["required"] = t.InputSchema.Required
	}
	return llm.ToolDef{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  params,
	}
}

// ToolDefs returns the endpoint-ready definitions of this server's tools.
func (mc *MCPConnection) ToolDefs() []llm.ToolDef { return mc.defs }

// ToolNames returns the names of this server's tools.
func (mc *MCPConnection) ToolNames() []string { return mc.names }

// CallTool invokes a tool on this server and flattens the result to text.
// A server-side tool error comes back as an "error: ..." string, not a Go
// error, so the orchestrator treats it like any other tool output.
func (mc *MCPConnection) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	result, err := mc.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		return "", fmt.Errorf("calling tool %s on %s: %w", name, mc.name, err)
	}

	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	text := strings.Join(parts, "\n")

	if result.IsError {
		return "error: " + text, nil
	}
	return text, nil
}

// Close terminates the server subprocess.
func (mc *MCPConnection) Close() {
	mc.client.Close()
}
