package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile defines an assistant persona: its prompt, model, and tool surface.
type Profile struct {
	Name          string   `yaml:"name"`
	Provider      string   `yaml:"provider"`
	Model         string   `yaml:"model"`
	SystemPrompt  string   `yaml:"system_prompt"`
	Tools         []string `yaml:"tools"`
	MaxToolRounds int      `yaml:"max_tool_rounds"`
	MaxTurns      int      `yaml:"max_turns"`
}

// LoadProfile reads an assistant profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}

	return &p, nil
}

// Apply configures the agent and its conversation from the profile.
func (p *Profile) Apply(a *Agent) {
	if p.SystemPrompt != "" {
		a.Conversation().SetSystemPrompt(p.SystemPrompt)
	}
	if p.MaxToolRounds > 0 {
		a.SetMaxToolRounds(p.MaxToolRounds)
	}
	if p.MaxTurns > 0 {
		a.Conversation().SetMaxTurns(p.MaxTurns)
	}
	a.FilterTools(p.Tools)
}
