// Package config loads startup configuration from environment variables,
// following the flat env-to-struct convention used throughout the
// surrounding stack's cmd/ entrypoints: required values missing at boot
// are a fatal, fail-fast error rather than a silently-defaulted one.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Env is the deployment environment.
type Env string

const (
	EnvDev  Env = "dev"
	EnvPaper Env = "paper"
	EnvLive Env = "live"
)

// Config is the full set of environment variables recognized at startup.
type Config struct {
	Env Env

	BrokerHost     string
	BrokerPort     int
	BrokerClientID string
	ReadOnlyMode   bool

	KillSwitchEnabled bool
	KillSwitchReason  string

	AutoApproval             bool
	AutoApprovalMaxNotional  decimal.Decimal

	StrictValidation bool
	RiskPolicyPath   string

	RateLimitPerTool    int
	RateLimitPerSession int
	RateLimitGlobal     int

	SchedulerTimezone string
	SchedulerExportDir string

	DatabaseURL string
	RedisURL    string

	LogLevel string

	HTTPAddr               string
	ToolSessionHeader      string
	CircuitBreakerCooldown time.Duration
}

// Load reads and validates configuration from the process environment.
func Load() (*Config, error) {
	cfg := &Config{
		Env:                     Env(getenv("ENV", "dev")),
		BrokerHost:              getenv("BROKER_HOST", "localhost"),
		BrokerPort:              getenvInt("BROKER_PORT", 7497),
		BrokerClientID:          getenv("BROKER_CLIENT_ID", "tradegate"),
		ReadOnlyMode:            getenvBool("READONLY_MODE", false),
		KillSwitchEnabled:       getenvBool("KILL_SWITCH_ENABLED", false),
		KillSwitchReason:        getenv("KILL_SWITCH_REASON", ""),
		AutoApproval:            getenvBool("AUTO_APPROVAL", false),
		StrictValidation:        getenvBool("STRICT_VALIDATION", true),
		RiskPolicyPath:          getenv("RISK_POLICY_PATH", "configs/risk_policy.yaml"),
		RateLimitPerTool:        getenvInt("RATE_LIMIT_PER_TOOL", 60),
		RateLimitPerSession:     getenvInt("RATE_LIMIT_PER_SESSION", 100),
		RateLimitGlobal:         getenvInt("RATE_LIMIT_GLOBAL", 1000),
		SchedulerTimezone:       getenv("SCHEDULER_TIMEZONE", "UTC"),
		SchedulerExportDir:      getenv("SCHEDULER_EXPORT_DIR", "./exports"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisURL:                os.Getenv("REDIS_URL"),
		LogLevel:                getenv("LOG_LEVEL", "info"),
		HTTPAddr:                getenv("HTTP_ADDR", ":8080"),
		ToolSessionHeader:       getenv("TOOL_SESSION_HEADER", "X-Session-Id"),
		CircuitBreakerCooldown:  time.Duration(getenvInt("CIRCUIT_BREAKER_COOLDOWN_SECONDS", 300)) * time.Second,
	}

	notional, err := decimal.NewFromString(getenv("AUTO_APPROVAL_MAX_NOTIONAL", "1000"))
	if err != nil {
		return nil, fmt.Errorf("config: AUTO_APPROVAL_MAX_NOTIONAL: %w", err)
	}
	cfg.AutoApprovalMaxNotional = notional

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvDev, EnvPaper, EnvLive:
	default:
		return fmt.Errorf("config: ENV must be one of dev, paper, live (got %q)", c.Env)
	}
	if c.Env == EnvLive && c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required when ENV=live")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
