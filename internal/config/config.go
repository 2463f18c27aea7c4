// Package config provides configuration types and loading for golembot.
package config

import "time"

// Config is the root configuration struct.
type Config struct {
	Paths     PathsConfig     `json:"paths"`
	Model     ModelConfig     `json:"model"`
	Turn      TurnConfig      `json:"turn"`
	Provider  ProviderConfig  `json:"provider"`
	Channels  ChannelsConfig  `json:"channels"`
	RateLimit RateLimitConfig `json:"rateLimit"`
	Journal   JournalConfig   `json:"journal"`
	Trace     TraceConfig     `json:"trace"`
	Locale    string          `json:"locale" envconfig:"LOCALE"`
}

// PathsConfig groups filesystem path settings.
type PathsConfig struct {
	Workspace   string `json:"workspace" envconfig:"WORKSPACE"`
	SessionsDir string `json:"sessionsDir" envconfig:"SESSIONS_DIR"`
}

// ModelConfig groups model selection settings. Tiers map a skill/tier name
// to a concrete model.
type ModelConfig struct {
	Name        string                `json:"name" envconfig:"MODEL"`
	MaxTokens   int                   `json:"maxTokens" envconfig:"MAX_TOKENS"`
	Temperature float64               `json:"temperature" envconfig:"TEMPERATURE"`
	Tiers       map[string]TierConfig `json:"tiers,omitempty"`
	RoutingTier string                `json:"routingTier" envconfig:"ROUTING_TIER"`
}

// TierConfig selects a model for one skill/tier.
type TierConfig struct {
	Model     string `json:"model"`
	Reasoning string `json:"reasoning,omitempty"`
}

// TurnConfig bounds a single turn: the outer iteration cap and the tool
// loop's three budgets and stop policies.
type TurnConfig struct {
	MaxIterations            int           `json:"maxIterations" envconfig:"MAX_ITERATIONS"`
	MaxModelCalls            int           `json:"maxModelCalls" envconfig:"MAX_MODEL_CALLS"`
	MaxToolExecutions        int           `json:"maxToolExecutions" envconfig:"MAX_TOOL_EXECUTIONS"`
	Deadline                 time.Duration `json:"deadline" envconfig:"DEADLINE"`
	ToolCallTimeout          time.Duration `json:"toolCallTimeout" envconfig:"TOOL_CALL_TIMEOUT"`
	StopOnToolFailure        bool          `json:"stopOnToolFailure" envconfig:"STOP_ON_TOOL_FAILURE"`
	StopOnConfirmationDenied bool          `json:"stopOnConfirmationDenied" envconfig:"STOP_ON_CONFIRMATION_DENIED"`
	StopOnPolicyDenied       bool          `json:"stopOnPolicyDenied" envconfig:"STOP_ON_POLICY_DENIED"`
	AutoVoiceReply           bool          `json:"autoVoiceReply" envconfig:"AUTO_VOICE_REPLY"`
	HeartbeatInterval        time.Duration `json:"heartbeatInterval" envconfig:"HEARTBEAT_INTERVAL"`
}

// ProviderConfig configures the model provider endpoint.
type ProviderConfig struct {
	APIKey  string `json:"apiKey" envconfig:"API_KEY"`
	APIBase string `json:"apiBase" envconfig:"API_BASE"`
}

// ChannelsConfig contains all channel configurations.
type ChannelsConfig struct {
	Slack SlackConfig `json:"slack"`
}

// SlackConfig configures the Slack socket-mode channel.
type SlackConfig struct {
	Enabled   bool     `json:"enabled" envconfig:"ENABLED"`
	BotToken  string   `json:"botToken" envconfig:"BOT_TOKEN"`
	AppToken  string   `json:"appToken" envconfig:"APP_TOKEN"`
	AllowFrom []string `json:"allowFrom"`
}

// RateLimitConfig configures inbound admission control.
type RateLimitConfig struct {
	Enabled         bool `json:"enabled" envconfig:"ENABLED"`
	Capacity        int  `json:"capacity" envconfig:"CAPACITY"`
	RefillPerMinute int  `json:"refillPerMinute" envconfig:"REFILL_PER_MINUTE"`
}

// JournalConfig configures the SQLite turn journal.
type JournalConfig struct {
	Path string `json:"path" envconfig:"PATH"`
}

// TraceConfig configures the Kafka span publisher.
type TraceConfig struct {
	Enabled bool   `json:"enabled" envconfig:"ENABLED"`
	Brokers string `json:"brokers" envconfig:"BROKERS"`
	Topic   string `json:"topic" envconfig:"TOPIC"`
}

// Default returns a configuration with working defaults.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Name:        "gpt-4o-mini",
			MaxTokens:   4096,
			Temperature: 0.7,
			RoutingTier: "fast",
			Tiers: map[string]TierConfig{
				"fast":     {Model: "gpt-4o-mini"},
				"balanced": {Model: "gpt-4o"},
				"deep":     {Model: "o3-mini", Reasoning: "medium"},
			},
		},
		Turn: TurnConfig{
			MaxIterations:            5,
			MaxModelCalls:            20,
			MaxToolExecutions:        50,
			Deadline:                 10 * time.Minute,
			ToolCallTimeout:          2 * time.Minute,
			StopOnConfirmationDenied: true,
			HeartbeatInterval:        4 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			Capacity:        10,
			RefillPerMinute: 6,
		},
		Journal: JournalConfig{Path: "golembot.db"},
		Trace:   TraceConfig{Topic: "golembot.traces"},
		Locale:  "en",
	}
}
