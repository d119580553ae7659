package config

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/tidwall/jsonc"
)

// Load reads and merges configuration from user-level and repo-level JSONC
// files. Resolution order: user config (~/.config/conductor/conductor.jsonc)
// deep-merged with repo config (.conductor/conductor.jsonc), then
// environment-variable overrides for secrets.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	userDir, err := os.UserConfigDir()
	if err == nil {
		userPath := filepath.Join(userDir, "conductor", "conductor.jsonc")
		if userMap, err := loadJSONC(userPath); err == nil {
			if err := mergeIntoConfig(&cfg, userMap); err != nil {
				return nil, fmt.Errorf("merging user config: %w", err)
			}
		}
	}

	repoRoot := findRepoRoot()
	if repoRoot != "" {
		repoPath := filepath.Join(repoRoot, ".conductor", "conductor.jsonc")
		if repoMap, err := loadJSONC(repoPath); err == nil {
			if err := mergeIntoConfig(&cfg, repoMap); err != nil {
				return nil, fmt.Errorf("merging repo config: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// loadJSONC reads a JSONC file and returns it as a map.
func loadJSONC(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jsonData := jsonc.ToJSON(data)
	var m map[string]any
	if err := json.Unmarshal(jsonData, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// mergeIntoConfig marshals the config to a map, deep-merges the source map
// over it, then unmarshals back to the Config struct.
func mergeIntoConfig(cfg *Config, src map[string]any) error {
	cfgBytes, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var dst map[string]any
	if err := json.Unmarshal(cfgBytes, &dst); err != nil {
		return err
	}

	if err := mergo.Merge(&dst, src, mergo.WithOverride); err != nil {
		return err
	}

	merged, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, cfg)
}

// findRepoRoot finds the git repository root via git rev-parse.
func findRepoRoot() string {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// applyEnvOverrides applies environment variable overrides to the config:
// AGENT_API_TOKEN, AGENT_API_BASE_URL, GITHUB_TOKEN,
// LLM_GATEWAY_BASE_URL, CONDUCTOR_LANGUAGE and CONDUCTOR_MEMORY_ROOT.
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("AGENT_API_TOKEN"); token != "" {
		cfg.Agent.Token = token
	}
	if baseURL := os.Getenv("AGENT_API_BASE_URL"); baseURL != "" {
		cfg.Agent.BaseURL = baseURL
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if baseURL := os.Getenv("LLM_GATEWAY_BASE_URL"); baseURL != "" {
		cfg.LLM.BaseURL = baseURL
	}
	if lang := os.Getenv("CONDUCTOR_LANGUAGE"); lang != "" {
		cfg.Language = lang
	}
	if root := os.Getenv("CONDUCTOR_MEMORY_ROOT"); root != "" {
		cfg.Memory.RootDir = root
	}
}

// RepoRoot returns the detected git repository root, or empty string if
// not in a repo.
func RepoRoot() string {
	return findRepoRoot()
}

// ExpandHome replaces a leading "~/" in a path with the user's home
// directory. Used by every component that resolves a data/log directory
// from config.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") && path != "~" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
