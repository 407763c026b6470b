// Package config loads the runtime configuration options this system needs: the
// database location, the default balance-source policy, the global
// approval threshold, and the token/capability tables the HTTP and
// stdio transports authenticate and authorize against. It is parsed
// once at process start into an immutable AppConfig value, following
// this codebase's convention (grounded on the teacher's
// pkg/config.Load) of a single os.Getenv-driven loader rather than a
// process-global mutable cache.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ChrisPatten/capital-os/pkg/export"
	"github.com/ChrisPatten/capital-os/pkg/money"
	"github.com/ChrisPatten/capital-os/pkg/query"
	"github.com/ChrisPatten/capital-os/pkg/security"
)

// AppConfig is the fully parsed, read-only runtime configuration.
type AppConfig struct {
	DatabaseURL             string
	AppEnv                  string
	MoneyPrecision          int
	BalanceSourcePolicy     query.SourcePolicy
	ApprovalThresholdAmount money.Amount
	TokenIdentities         map[string]security.TokenIdentity
	ToolCapabilities        map[string]string
	EgressAllowlist         []string
	Port                    string
	Export                  export.Config
}

// Load reads every recognized option from the environment, applying
// the same defaults as the teacher's loader where this spec doesn't
// mandate a different one.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		DatabaseURL:         envOrDefault("CAPITAL_OS_DB_URL", "postgres://capital_os@localhost:5432/capital_os?sslmode=disable"),
		AppEnv:              envOrDefault("CAPITAL_OS_APP_ENV", "development"),
		MoneyPrecision:      money.Scale,
		BalanceSourcePolicy: query.SourcePolicy(envOrDefault("CAPITAL_OS_BALANCE_SOURCE_POLICY", string(query.SourceBestAvailable))),
		Port:                envOrDefault("PORT", "8080"),
	}

	thresholdStr := envOrDefault("CAPITAL_OS_APPROVAL_THRESHOLD_AMOUNT", "0.0000")
	threshold, err := money.Parse(thresholdStr)
	if err != nil {
		return nil, fmt.Errorf("config: CAPITAL_OS_APPROVAL_THRESHOLD_AMOUNT: %w", err)
	}
	cfg.ApprovalThresholdAmount = threshold

	identities := map[string]security.TokenIdentity{}
	if raw := os.Getenv("CAPITAL_OS_TOKEN_IDENTITIES"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &identities); err != nil {
			return nil, fmt.Errorf("config: CAPITAL_OS_TOKEN_IDENTITIES: %w", err)
		}
	}
	cfg.TokenIdentities = identities

	capabilities := map[string]string{}
	if raw := os.Getenv("CAPITAL_OS_TOOL_CAPABILITIES"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &capabilities); err != nil {
			return nil, fmt.Errorf("config: CAPITAL_OS_TOOL_CAPABILITIES: %w", err)
		}
	}
	cfg.ToolCapabilities = capabilities

	if raw := os.Getenv("CAPITAL_OS_EGRESS_ALLOWLIST"); raw != "" {
		for _, host := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(host); trimmed != "" {
				cfg.EgressAllowlist = append(cfg.EgressAllowlist, trimmed)
			}
		}
	}

	cfg.Export = export.Config{
		Backend: export.Backend(envOrDefault("CAPITAL_OS_EXPORT_BACKEND", "")),
		Bucket:  os.Getenv("CAPITAL_OS_EXPORT_BUCKET"),
		Region:  envOrDefault("CAPITAL_OS_EXPORT_REGION", "us-east-1"),
		Prefix:  os.Getenv("CAPITAL_OS_EXPORT_PREFIX"),
	}
	switch cfg.Export.Backend {
	case export.BackendNone, export.BackendS3, export.BackendGCS:
	default:
		return nil, fmt.Errorf("config: CAPITAL_OS_EXPORT_BACKEND: invalid value %q", cfg.Export.Backend)
	}

	switch cfg.BalanceSourcePolicy {
	case query.SourceLedgerOnly, query.SourceSnapshotOnly, query.SourceBestAvailable:
	default:
		return nil, fmt.Errorf("config: CAPITAL_OS_BALANCE_SOURCE_POLICY: invalid value %q", cfg.BalanceSourcePolicy)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Redacted returns the subset of AppConfig safe to hand back from the
// get_config tool: token identities and the raw database URL (which
// may carry credentials) are never echoed back to a caller.
func (c *AppConfig) Redacted() map[string]any {
	return map[string]any{
		"app_env":                   c.AppEnv,
		"money_precision":           c.MoneyPrecision,
		"balance_source_policy":     string(c.BalanceSourcePolicy),
		"approval_threshold_amount": c.ApprovalThresholdAmount.String(),
		"tool_capabilities":         c.ToolCapabilities,
		"egress_allowlist":          c.EgressAllowlist,
		"export_backend":            string(c.Export.Backend),
	}
}
