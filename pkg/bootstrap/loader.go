package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/morezero/agent-delegation/pkg/commsutil"
	"github.com/morezero/agent-delegation/pkg/registry"
)

const logPrefix = "bootstrap:loader"

// EnvBootstrapFile names the environment variable consulted after explicit paths.
const EnvBootstrapFile = "DELEGATION_BOOTSTRAP_FILE"

// LoadBootstrapConfig loads bootstrap config from file paths or environment.
// It tries paths in order: first any paths passed in, then DELEGATION_BOOTSTRAP_FILE, then defaults.
// So an explicit path (e.g. from "seed my.json") is tried before the env var.
func LoadBootstrapConfig(paths ...string) (*BootstrapConfig, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv(EnvBootstrapFile); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/agents.json", "agents.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		cfg, err := ParseBootstrapConfig(data)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse bootstrap file %s: %v", logPrefix, p, err))
			continue
		}

		slog.Info(fmt.Sprintf("%s - Loaded bootstrap config from %s (%d agents)", logPrefix, p, len(cfg.Agents)))
		return cfg, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default bootstrap config", logPrefix))
	return GetDefaultBootstrapConfig(), nil
}

// ParseBootstrapConfig decodes a bootstrap document and merges it over the default config, so a
// file only needs to list the agents or fields it changes. The merged agents must form a valid
// registry.
func ParseBootstrapConfig(data []byte) (*BootstrapConfig, error) {
	var cfg BootstrapConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s - invalid JSON: %w", logPrefix, err)
	}
	if len(cfg.Agents) == 0 {
		return nil, fmt.Errorf("%s - no agents configured", logPrefix)
	}
	merged := MergeBootstrapConfigs(GetDefaultBootstrapConfig(), &cfg)
	if _, err := merged.Registry(); err != nil {
		return nil, fmt.Errorf("%s - invalid agent entry: %w", logPrefix, err)
	}
	return merged, nil
}

// GetDefaultBootstrapConfig returns the embedded fallback bootstrap configuration.
func GetDefaultBootstrapConfig() *BootstrapConfig {
	agents := make(map[string]BootstrapAgent)
	for _, e := range registry.DefaultEntries() {
		agents[e.AgentID] = BootstrapAgent{
			Endpoint:    e.Endpoint,
			Transport:   string(e.Transport),
			Subject:     e.Subject,
			Version:     e.Version,
			Description: e.Description,
		}
	}
	return &BootstrapConfig{
		Name:        "legal-onboarding",
		Version:     "1.0.0",
		Description: "Default legal client onboarding agents",
		Agents:      agents,
		EventSubjects: EventSubjects{
			Global:  commsutil.SubjectDispatchEvents,
			Pattern: commsutil.SubjectDispatchEvents + ".{agent}",
		},
	}
}

// MergeBootstrapConfigs merges an override config into a base config without mutating either.
// Agents present in both are merged field by field; non-empty override fields win.
func MergeBootstrapConfigs(base, override *BootstrapConfig) *BootstrapConfig {
	merged := *base
	if override.Name != "" {
		merged.Name = override.Name
	}
	if override.Version != "" {
		merged.Version = override.Version
	}
	if override.Description != "" {
		merged.Description = override.Description
	}

	merged.Agents = make(map[string]BootstrapAgent, len(base.Agents)+len(override.Agents))
	for id, a := range base.Agents {
		merged.Agents[id] = a
	}
	for id, a := range override.Agents {
		if prev, ok := merged.Agents[id]; ok {
			a = mergeAgent(prev, a)
		}
		merged.Agents[id] = a
	}

	if override.EventSubjects.Global != "" {
		merged.EventSubjects.Global = override.EventSubjects.Global
	}
	if override.EventSubjects.Pattern != "" {
		merged.EventSubjects.Pattern = override.EventSubjects.Pattern
	}

	return &merged
}

// mergeAgent overlays the non-empty fields of override on base. A new endpoint without an explicit
// transport drops the base transport so it is derived from the endpoint again.
func mergeAgent(base, override BootstrapAgent) BootstrapAgent {
	out := base
	if override.Endpoint != "" {
		out.Endpoint = override.Endpoint
		if override.Transport == "" {
			out.Transport = ""
		}
	}
	if override.Transport != "" {
		out.Transport = override.Transport
	}
	if override.Subject != "" {
		out.Subject = override.Subject
	}
	if override.Version != "" {
		out.Version = override.Version
	}
	if override.Description != "" {
		out.Description = override.Description
	}
	return out
}
