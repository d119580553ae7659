package config

import "time"

// Config is the top-level conductor configuration.
type Config struct {
	Agent         AgentConfig         `json:"agent"`
	LLM           LLMConfig           `json:"llm"`
	GitHub        GitHubConfig        `json:"github"`
	Gate          GateConfig          `json:"gate"`
	Forge         ForgeConfig         `json:"forge"`
	Council       CouncilConfig       `json:"council"`
	Heart         HeartConfig         `json:"heart"`
	Harvester     HarvesterConfig     `json:"harvester"`
	Server        ServerConfig        `json:"server"`
	Memory        MemoryConfig        `json:"memory"`
	Notifications NotificationsConfig `json:"notifications"`
	Repo          RepoConfig          `json:"repo"`
	Language      string              `json:"language"` // prompt localization key, e.g. "en" or "fr"
}

// RepoConfig points at the local checkout Council scans for insider
// proposals and Heart checks PR branches out into for sandbox runs.
type RepoConfig struct {
	LocalPath string   `json:"local_path"`
	TestArgv  []string `json:"test_argv"` // e.g. ["go", "test", "./..."]
}

// AgentConfig holds the external Agent API connection settings.
type AgentConfig struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
}

// LLMConfig holds the LLM gateway connection settings used by Quality
// Gate, Plan Critic, Council cross-validation, and Heart's confidence
// review.
type LLMConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

// GitHubConfig holds the git-hosting wrapper's auth settings.
type GitHubConfig struct {
	Token string `json:"token"`
}

// GateConfig holds Quality Gate tuning knobs.
type GateConfig struct {
	PassThreshold int `json:"pass_threshold"` // default 85; historically 90, lowered per spec Open Question
	MaxChars      int `json:"max_chars"`      // balanced diff sample budget, default 12000
}

// ForgeConfig holds the per-mission refinement loop's retry budgets.
type ForgeConfig struct {
	MaxPlanAttempts      int    `json:"max_plan_attempts"`      // default 3
	MaxIterations        int    `json:"max_iterations"`         // default 5
	MaxUnchangedRetries  int    `json:"max_unchanged_retries"`  // default 5
	PlanPollInterval     string `json:"plan_poll_interval"`     // default "5s"
	PlanPollBudget       int    `json:"plan_poll_budget"`       // default 30 iterations
	PRWaitInterval       string `json:"pr_wait_interval"`       // default "10s"
	PRWaitBudget         int    `json:"pr_wait_budget"`         // default 540 (90min @ 10s)
	UnchangedWaitTimeout string `json:"unchanged_wait_timeout"` // default "120s"
	UnchangedWaitPoll    string `json:"unchanged_wait_poll"`    // default "15s"
	RefineSleep          string `json:"refine_sleep"`           // default "60s"
	RefineSleepCritical  string `json:"refine_sleep_critical"`  // default "90s"
	RepolessPollInterval string `json:"repoless_poll_interval"` // default "10s"
	RepolessPollBudget   int    `json:"repoless_poll_budget"`   // default 48 (8min @ 10s)
	SelfReview           bool   `json:"self_review"`            // supplemented feature, default false
}

// PlanPollIntervalDuration returns the configured plan-wait poll interval.
func (f ForgeConfig) PlanPollIntervalDuration() time.Duration {
	return parseDurationOr(f.PlanPollInterval, 5*time.Second)
}

// PRWaitIntervalDuration returns the configured PR-wait poll interval.
func (f ForgeConfig) PRWaitIntervalDuration() time.Duration {
	return parseDurationOr(f.PRWaitInterval, 10*time.Second)
}

// UnchangedWaitTimeoutDuration returns the configured unchanged-diff wait budget.
func (f ForgeConfig) UnchangedWaitTimeoutDuration() time.Duration {
	return parseDurationOr(f.UnchangedWaitTimeout, 120*time.Second)
}

// UnchangedWaitPollDuration returns the configured unchanged-diff poll interval.
func (f ForgeConfig) UnchangedWaitPollDuration() time.Duration {
	return parseDurationOr(f.UnchangedWaitPoll, 15*time.Second)
}

// RefineSleepFor returns the sleep duration between refinement
// iterations, scaled up when more than two critical issues were raised.
func (f ForgeConfig) RefineSleepFor(criticalIssues int) time.Duration {
	if criticalIssues > 2 {
		return parseDurationOr(f.RefineSleepCritical, 90*time.Second)
	}
	return parseDurationOr(f.RefineSleep, 60*time.Second)
}

// RepolessPollIntervalDuration returns the configured repoless-session poll interval.
func (f ForgeConfig) RepolessPollIntervalDuration() time.Duration {
	return parseDurationOr(f.RepolessPollInterval, 10*time.Second)
}

// CouncilConfig holds the nightly pipeline's quota and dedup settings.
type CouncilConfig struct {
	TargetSuccess int `json:"target_success"` // default 3
}

// HeartConfig holds the watchdog's poll cadence and per-session caps.
type HeartConfig struct {
	PollInterval      string `json:"poll_interval"`       // default "60s"
	MaxRefinements    int    `json:"max_refinements"`     // default 3
	ProbationTimeout  string `json:"probation_timeout"`   // default "600s"
	ConfidenceAutoMin int    `json:"confidence_auto_min"` // default 50 — never auto-merges, only surfaces
}

// PollIntervalDuration returns the configured watchdog poll cadence.
func (h HeartConfig) PollIntervalDuration() time.Duration {
	return parseDurationOr(h.PollInterval, 60*time.Second)
}

// ProbationTimeoutDuration returns the configured probation-lock timeout.
func (h HeartConfig) ProbationTimeoutDuration() time.Duration {
	return parseDurationOr(h.ProbationTimeout, 600*time.Second)
}

// HarvesterConfig holds the suggestion-cache refresh cadence.
type HarvesterConfig struct {
	RefreshInterval    string `json:"refresh_interval"`      // default "24h"
	MinWaitAfterCreate string `json:"min_wait_after_create"` // default "10m"
	MaxItems           int    `json:"max_items"`             // default 20
}

// RefreshIntervalDuration returns the configured harvest cadence.
func (h HarvesterConfig) RefreshIntervalDuration() time.Duration {
	return parseDurationOr(h.RefreshInterval, 24*time.Hour)
}

// MinWaitAfterCreateDuration returns the configured post-create grace period.
func (h HarvesterConfig) MinWaitAfterCreateDuration() time.Duration {
	return parseDurationOr(h.MinWaitAfterCreate, 10*time.Minute)
}

// ServerConfig holds the HTTP decision-surface daemon settings.
type ServerConfig struct {
	Port   int    `json:"port"`
	LogDir string `json:"log_dir"`
}

// MemoryConfig points at the root directory for all persisted files:
// active sets, staged projects, suggestion caches, and logs.
type MemoryConfig struct {
	RootDir string `json:"root_dir"`
}

// NotificationsConfig holds per-event notification toggles.
type NotificationsConfig struct {
	OnPRCreated      bool `json:"on_pr_created"`
	OnPRMerged       bool `json:"on_pr_merged"`
	OnCouncilDone    bool `json:"on_council_complete"`
	OnMissionFailed  bool `json:"on_mission_failed"`
	OnSecurityReject bool `json:"on_security_reject"`
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// DefaultConfig returns a Config populated with its built-in defaults.
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Model: "anthropic/claude-sonnet-4-20250514",
		},
		Gate: GateConfig{
			PassThreshold: 85,
			MaxChars:      12000,
		},
		Forge: ForgeConfig{
			MaxPlanAttempts:      3,
			MaxIterations:        5,
			MaxUnchangedRetries:  5,
			PlanPollInterval:     "5s",
			PlanPollBudget:       30,
			PRWaitInterval:       "10s",
			PRWaitBudget:         540,
			UnchangedWaitTimeout: "120s",
			UnchangedWaitPoll:    "15s",
			RefineSleep:          "60s",
			RefineSleepCritical:  "90s",
			RepolessPollInterval: "10s",
			RepolessPollBudget:   48,
		},
		Council: CouncilConfig{
			TargetSuccess: 3,
		},
		Heart: HeartConfig{
			PollInterval:      "60s",
			MaxRefinements:    3,
			ProbationTimeout:  "600s",
			ConfidenceAutoMin: 50,
		},
		Harvester: HarvesterConfig{
			RefreshInterval:    "24h",
			MinWaitAfterCreate: "10m",
			MaxItems:           20,
		},
		Server: ServerConfig{
			Port:   4098,
			LogDir: "~/.local/share/conductor/logs",
		},
		Memory: MemoryConfig{
			RootDir: "~/.local/share/conductor/memory",
		},
		Notifications: NotificationsConfig{
			OnPRCreated:      true,
			OnPRMerged:       true,
			OnCouncilDone:    true,
			OnMissionFailed:  false,
			OnSecurityReject: true,
		},
		Repo: RepoConfig{
			TestArgv: []string{"go", "test", "./..."},
		},
		Language: "en",
	}
}
