package main

import (
	"log/slog"

	"github.com/serranog/altair/internal/config"
	"github.com/serranog/altair/internal/storage"
	"github.com/serranog/altair/internal/tools"
)

// buildRegistry assembles the tool registry: the builtin FlightAI tools,
// the optional web tool, and any configured MCP tool servers.
func buildRegistry(cfg *config.Config, store storage.Store) *tools.Registry {
	registry := tools.NewRegistry()

	registry.Register(tools.TicketPrice{})
	registry.Register(tools.BookTicket{Recorder: store})

	if cfg.WebTool.Enabled {
		registry.Register(tools.NewWeb(cfg.WebTool.BraveAPIKey))
	}

	for name, toolCfg := range cfg.ToolServers {
		if err := registry.RegisterServer(name, toolCfg); err != nil {
			slog.Warn("failed to start tool server", "name", name, "error", err)
		}
	}

	return registry
}
