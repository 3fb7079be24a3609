package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/serranog/altair/internal/llm"
)

// ErrUnknownTool is returned when the model requests a tool name that is not
// registered. The orchestrator absorbs it into an error tool result so the
// exchange can proceed.
var ErrUnknownTool = errors.New("tool not recognized")

// DecodeError marks a tool argument blob that failed JSON decoding or schema
// validation.
type DecodeError struct {
	Tool string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding arguments for %s: %v", e.Tool, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Tool is a named, schema-described synchronous capability the model may
// request be invoked on its behalf.
type Tool interface {
	Name() string
	Description() string
	Schema() Schema
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Registry maps tool names to builtin tools and MCP tool server connections.
type Registry struct {
	builtins    map[string]Tool
	connections map[string]*MCPConnection // server name → connection
	toolIndex   map[string]string         // MCP tool name → server name
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		builtins:    make(map[string]Tool),
		connections: make(map[string]*MCPConnection),
		toolIndex:   make(map[string]string),
	}
}

// Register adds a builtin tool. Names are unique; a later registration
// replaces an earlier one.
func (r *Registry) Register(t Tool) {
	r.builtins[t.Name()] = t
}

// RegisterServer launches an MCP tool server and adds its tools to the registry.
func (r *Registry) RegisterServer(name string, cfg ToolServerConfig) error {
	if !cfg.Enabled {
		return nil
	}

	// Build environment variables
	var env []string
	env = append(env, os.Environ()...)
	for k, v := range cfg.Env {
		// Expand environment variable references like ${VAR}
		if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
			envVar := v[2 : len(v)-1]
			v = os.Getenv(envVar)
		}
		env = append(env, k+"="+v)
	}

	conn, err := NewMCPConnection(name, cfg.Binary, env)
	if err != nil {
		return err
	}

	r.connections[name] = conn
	for _, toolName := range conn.ToolNames() {
		r.toolIndex[toolName] = name
	}

	return nil
}

// Defs returns the tool definitions for every registered tool, builtin and
// MCP alike. The schemas are provided to the endpoint verbatim.
func (r *Registry) Defs() []llm.ToolDef {
	var all []llm.ToolDef
	for _, t := range r.builtins {
		all = append(all, llm.ToolDef{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema().JSONSchema(),
		})
	}
	for _, conn := range r.connections {
		all = append(all, conn.ToolDefs()...)
	}
	return all
}

// Names returns all registered tool names.
func (r *Registry) Names() []string {
	var names []string
	for name := range r.builtins {
		names = append(names, name)
	}
	for name := range r.toolIndex {
		names = append(names, name)
	}
	return names
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	if _, ok := r.builtins[name]; ok {
		return true
	}
	_, ok := r.toolIndex[name]
	return ok
}

// HasTools reports whether any tools are registered.
func (r *Registry) HasTools() bool {
	return len(r.builtins) > 0 || len(r.toolIndex) > 0
}

// Call resolves a tool by exact name, decodes and validates the raw JSON
// argument blob against its schema, and invokes it. A panic inside a tool
// is recovered and returned as an error; tool failures never crash a turn.
func (r *Registry) Call(ctx context.Context, name, rawArgs string) (result string, err error) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("tool panicked", "tool", name, "panic", p)
			err = fmt.Errorf("tool %s panicked: %v", name, p)
		}
	}()

	if t, ok := r.builtins[name]; ok {
		args, derr := t.Schema().DecodeArgs(rawArgs)
		if derr != nil {
			return "", &DecodeError{Tool: name, Err: derr}
		}
		return t.Invoke(ctx, args)
	}

	if serverName, ok := r.toolIndex[name]; ok {
		// MCP servers own their schemas and validate on their side; only
		// JSON well-formedness is checked here.
		args, derr := decodeLoose(rawArgs)
		if derr != nil {
			return "", &DecodeError{Tool: name, Err: derr}
		}
		return r.connections[serverName].CallTool(ctx, name, args)
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

// Close shuts down all MCP server connections.
func (r *Registry) Close() {
	for _, conn := range r.connections {
		conn.Close()
	}
}
