package server

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/serranog/altair/internal/agent"
	"github.com/serranog/altair/internal/config"
	"github.com/serranog/altair/internal/llm"
	"github.com/serranog/altair/internal/storage"
	"github.com/serranog/altair/internal/tools"
)

// ActiveSession tracks an in-memory agent for a session. The mutex
// serializes turns: a conversation is advanced by at most one in-flight
// exchange at a time.
type ActiveSession struct {
	Agent  *agent.Agent
	Cancel context.CancelFunc // cancels in-flight AdvanceStream
	mu     sync.Mutex
}

// SessionManager tracks which sessions have an active Agent in memory.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*ActiveSession
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*ActiveSession),
	}
}

// Get returns an active session if it exists.
func (sm *SessionManager) Get(sessionID string) (*ActiveSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	as, ok := sm.sessions[sessionID]
	return as, ok
}

// GetOrCreate returns an existing active session or builds a new agent from
// the session's provider, model, profile, and stored history.
func (sm *SessionManager) GetOrCreate(
	ctx context.Context,
	sess *storage.Session,
	cfg *config.Config,
	store storage.Store,
	registry *tools.Registry,
) (*ActiveSession, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if as, ok := sm.sessions[sess.ID]; ok {
		return as, nil
	}

	// Resolve provider
	providerName := sess.Provider
	if providerName == "" {
		providerName = cfg.DefaultProvider
	}
	provider, err := cfg.Provider(providerName)
	if err != nil {
		return nil, fmt.Errorf("resolving provider: %w", err)
	}

	// Resolve model
	model := sess.Model
	if model == "" {
		model = provider.Models["default"]
	}

	// Load profile if specified
	var profile *agent.Profile
	if sess.Profile != "" {
		profilePath := filepath.Join(cfg.Assistant.ProfilesDir, sess.Profile+".yaml")
		profile, err = agent.LoadProfile(profilePath)
		if err != nil {
			return nil, fmt.Errorf("loading profile: %w", err)
		}
	}

	// Create LLM client and agent
	client := llm.NewClient(provider.BaseURL, provider.APIKey, model)
	a := agent.New(client, registry, nil)
	a.SetMaxToolRounds(cfg.Assistant.MaxToolRounds)
	a.Conversation().SetMaxTurns(cfg.Assistant.MaxTurns)

	if profile != nil {
		profile.Apply(a)
	}

	// Load existing history if any
	turns, err := store.LoadTurns(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("loading turns: %w", err)
	}
	if len(turns) > 0 {
		a.Conversation().SetTurns(turns)
	}

	as := &ActiveSession{
		Agent: a,
	}
	sm.sessions[sess.ID] = as
	return as, nil
}

// Remove removes an active session and cancels any in-flight work.
func (sm *SessionManager) Remove(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if as, ok := sm.sessions[sessionID]; ok {
		if as.Cancel != nil {
			as.Cancel()
		}
		delete(sm.sessions, sessionID)
	}
}

// CloseAll cancels all active sessions.
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, as := range sm.sessions {
		if as.Cancel != nil {
			as.Cancel()
		}
		delete(sm.sessions, id)
	}
}
