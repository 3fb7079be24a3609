package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/serranog/altair/internal/agent"
	"github.com/serranog/altair/internal/config"
	"github.com/serranog/altair/internal/llm"
	"github.com/serranog/altair/internal/storage"
	"github.com/serranog/altair/internal/storage/sqlite"
	"github.com/serranog/altair/internal/trace"
)

var resumeID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session with the assistant",
	Long: `Start an interactive conversation with the FlightAI assistant.
The assistant can use tools to look up fares, book tickets, and search the web.

Examples:
  altair chat
  altair chat --provider ollama --model qwen3:8b
  altair chat --profile tutor`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	shutdownTrace, err := trace.Init(ctx, trace.Config{
		Endpoint: cfg.Tracing.Endpoint,
		URLPath:  cfg.Tracing.URLPath,
		APIKey:   cfg.Tracing.APIKey,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer shutdownTrace(ctx)

	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	// Load assistant profile if specified
	var profile *agent.Profile
	if profileFlag != "" {
		profilePath := filepath.Join(cfg.Assistant.ProfilesDir, profileFlag+".yaml")
		profile, err = agent.LoadProfile(profilePath)
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
	}

	providerName := providerFlag
	if providerName == "" {
		if profile != nil && profile.Provider != "" {
			providerName = profile.Provider
		} else {
			providerName = cfg.DefaultProvider
		}
	}

	provider, err := cfg.Provider(providerName)
	if err != nil {
		return err
	}

	model := modelFlag
	if model == "" {
		if profile != nil && profile.Model != "" {
			model = profile.Model
		} else {
			model = provider.Models["default"]
		}
	}

	fmt.Printf("Altair - FlightAI Assistant\n")
	if profile != nil {
		fmt.Printf("Profile: %s\n", profile.Name)
	}
	fmt.Printf("Provider: %s | Model: %s\n", providerName, model)

	registry := buildRegistry(cfg, store)
	defer registry.Close()

	fmt.Printf("Tools: %s\n", strings.Join(registry.Names(), ", "))
	fmt.Printf("Type /help for commands, /quit to exit\n\n")

	client := llm.NewClient(provider.BaseURL, provider.APIKey, model)
	a := agent.New(client, registry, nil)
	a.SetMaxToolRounds(cfg.Assistant.MaxToolRounds)
	a.Conversation().SetMaxTurns(cfg.Assistant.MaxTurns)
	if profile != nil {
		profile.Apply(a)
	}

	// Resume or create the backing session
	var sess *storage.Session
	if resumeID != "" {
		sess, err = store.GetSession(ctx, resumeID)
		if err != nil {
			return err
		}
		turns, err := store.LoadTurns(ctx, sess.ID)
		if err != nil {
			return fmt.Errorf("loading turns: %w", err)
		}
		a.Conversation().SetTurns(turns)
		fmt.Printf("Resumed session %s (%d turns)\n\n", sess.ID[:8], len(turns))
	} else {
		sess = &storage.Session{
			ID:       uuid.New().String(),
			Status:   storage.StatusActive,
			Provider: providerName,
			Model:    model,
			Profile:  profileFlag,
		}
		if err := store.CreateSession(ctx, sess); err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
	}

	// Wire up observers for display
	a.OnTextDelta = func(delta string) {
		fmt.Print(delta)
	}
	a.OnToolCall = func(name, args string) {
		fmt.Printf("\n  \033[33m⚡ %s(%s)\033[0m\n", name, args)
	}
	a.OnToolResult = func(name, result string) {
		lines := strings.Split(strings.TrimSpace(result), "\n")
		preview := lines
		if len(preview) > 8 {
			preview = preview[:8]
		}
		for _, line := range preview {
			fmt.Printf("  \033[90m│ %s\033[0m\n", line)
		}
		if len(lines) > 8 {
			fmt.Printf("  \033[90m│ ... (%d more lines)\033[0m\n", len(lines)-8)
		}
		fmt.Println()
	}

	// Set up readline for input with history
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36myou>\033[0m ",
		HistoryFile:     "/tmp/altair_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	// Per-request cancellation: Ctrl+C cancels the active request,
	// not the whole app.
	var reqCancel context.CancelFunc
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for range sigCh {
			if reqCancel != nil {
				reqCancel()
			}
		}
	}()

	for {
		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		// Handle slash commands
		if strings.HasPrefix(input, "/") {
			if handleCommand(input, a, registry.Names()) {
				continue
			}
		}

		reqCtx, cancel := context.WithCancel(ctx)
		reqCancel = cancel

		fmt.Printf("\n\033[32maltair>\033[0m ")
		_, err = a.AdvanceStream(reqCtx, input)
		wasInterrupted := reqCtx.Err() != nil
		cancel()
		reqCancel = nil

		if err != nil {
			if wasInterrupted {
				fmt.Println("\n(interrupted)")
				continue
			}
			fmt.Printf("\n\033[31merror: %s\033[0m\n\n", err)
			continue
		}

		if sess.Title == "" {
			sess.Title = input
			store.UpdateSession(ctx, sess)
		}
		if err := store.SaveTurns(ctx, sess.ID, a.Conversation().Turns()); err != nil {
			fmt.Printf("\033[31mwarning: saving turns: %s\033[0m\n", err)
		}

		fmt.Printf("\n\n")
	}
}

func handleCommand(input string, a *agent.Agent, toolNames []string) bool {
	switch strings.ToLower(strings.Fields(input)[0]) {
	case "/quit", "/exit", "/q":
		fmt.Println("Goodbye!")
		os.Exit(0)
	case "/reset":
		a.Conversation().Reset()
		fmt.Println("Conversation reset.")
		fmt.Println()
	case "/history":
		for _, t := range a.Conversation().Turns() {
			fmt.Printf("[%s] %s\n", t.Role, t.Content)
		}
		fmt.Println()
	case "/tools":
		fmt.Println("Registered tools:")
		for _, name := range toolNames {
			fmt.Printf("  %s\n", name)
		}
		fmt.Println()
	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /help     - Show this help")
		fmt.Println("  /reset    - Clear conversation history")
		fmt.Println("  /history  - Show the visible conversation turns")
		fmt.Println("  /tools    - List registered tools")
		fmt.Println("  /quit     - Exit")
		fmt.Println()
	default:
		fmt.Printf("Unknown command: %s (try /help)\n\n", input)
	}
	return true
}
