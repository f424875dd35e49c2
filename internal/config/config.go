// Package config loads the process configuration once at start-up.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// Values come from environment variables (optionally seeded by a .env
// file) and never change after Load returns.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP client
	HTTPTimeout         time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	CompensationTimeout time.Duration `env:"COMPENSATION_TIMEOUT" envDefault:"10s"`

	// Resilience
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"2"`
	InitialBackoff time.Duration `env:"INITIAL_BACKOFF" envDefault:"100ms"`
	MaxConcurrency int           `env:"MAX_CONCURRENCY" envDefault:"50"`

	// Verified sessions are cached for this long; 0 disables the cache.
	SessionCacheTTL time.Duration `env:"SESSION_CACHE_TTL" envDefault:"60s"`

	// Observability
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Supabase
	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseAnonKey    string `env:"SUPABASE_ANON_KEY"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`

	// License ledger (Google Apps Script web app)
	SheetsWebAppURL string `env:"GS_WEBAPP_URL"`
	HubSecret       string `env:"HUB_SECRET"`

	// Workflow engine
	N8NWebhookURL string `env:"N8N_WEBHOOK_URL"`

	// Redirects
	SignupRedirectTo string `env:"SIGNUP_REDIRECT_TO" envDefault:"https://hub-avance.vercel.app/login/login.html"`
	AppOrigin        string `env:"APP_ORIGIN"`
	ResetRedirectTo  string `env:"RESET_REDIRECT_TO"`

	// Counter targets
	TargetDesktopURL string            `env:"TARGET_DESKTOP_URL"`
	TargetAgentURL   string            `env:"TARGET_AGENT_URL"`
	CounterTargets   map[string]string `env:"COUNTER_TARGETS" envSeparator:"," envKeyValSeparator:"="`

	// Public routing
	LoginURL      string `env:"LOGIN_URL" envDefault:"/login/login.html"`
	AgentChatURL  string `env:"AGENT_CHAT_URL" envDefault:"/agent-chat/agent"`
	AgentProxyURL string `env:"AGENT_PROXY_URL" envDefault:"/api/agent"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Behaviour switches
	EnforcePasswordPolicy bool `env:"ENFORCE_PASSWORD_POLICY" envDefault:"true"`
	EnableDiagnostics     bool `env:"ENABLE_DIAGNOSTICS" envDefault:"false"`
	StrictConfig          bool `env:"STRICT_CONFIG" envDefault:"false"`

	readiness Readiness
}

// Load reads .env (when present, without overriding the environment),
// parses the environment and computes the readiness report.
func Load(dotenvPaths ...string) (*Config, error) {
	if len(dotenvPaths) == 0 {
		dotenvPaths = []string{".env"}
	}
	for _, p := range dotenvPaths {
		_ = godotenv.Load(p) // a missing file is fine
	}
	return Parse(env.Options{})
}

// Parse builds a Config from the environment described by opts. Tests
// pass opts.Environment to avoid touching the process environment.
func Parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	cfg.readiness = cfg.check()
	return cfg, nil
}

func (c *Config) normalize() {
	c.SupabaseURL = strings.TrimRight(strings.TrimSpace(c.SupabaseURL), "/")
	c.AppOrigin = strings.TrimRight(strings.TrimSpace(c.AppOrigin), "/")
	c.LoginURL = strings.TrimSpace(c.LoginURL)
	c.AgentChatURL = strings.TrimSpace(c.AgentChatURL)
}

// ============================================================
// Readiness: which features have every required setting
// ============================================================

// Feature names a group of endpoints that share required settings.
type Feature string

const (
	FeatureRegister       Feature = "register"
	FeatureRegisterSheets Feature = "register_sheets"
	FeatureAgent          Feature = "agent"
	FeatureCounter        Feature = "counter"
	FeaturePasswordReset  Feature = "password_reset"
	FeaturePublicSupabase Feature = "public_supabase"
	FeatureDiagnostics    Feature = "diagnostics"
)

// Readiness maps each feature to the environment variables it is missing.
// A feature absent from the map is fully configured.
type Readiness map[Feature][]string

func (c *Config) check() Readiness {
	supabaseURL := setting{"SUPABASE_URL", c.SupabaseURL}
	anon := setting{"SUPABASE_ANON_KEY", c.SupabaseAnonKey}
	service := setting{"SUPABASE_SERVICE_ROLE_KEY", c.SupabaseServiceKey}
	sheets := setting{"GS_WEBAPP_URL", c.SheetsWebAppURL}
	secret := setting{"HUB_SECRET", c.HubSecret}
	n8n := setting{"N8N_WEBHOOK_URL", c.N8NWebhookURL}

	required := map[Feature][]setting{
		FeatureRegister:       {supabaseURL, service, anon},
		FeatureRegisterSheets: {sheets, secret},
		FeatureAgent:          {n8n, supabaseURL, anon},
		FeatureCounter:        {supabaseURL, service},
		FeaturePasswordReset:  {supabaseURL, service},
		FeaturePublicSupabase: {supabaseURL, anon},
	}
	if c.EnableDiagnostics {
		required[FeatureDiagnostics] = []setting{sheets, secret}
	}

	r := make(Readiness)
	for feature, settings := range required {
		var missing []string
		for _, s := range settings {
			if strings.TrimSpace(s.value) == "" {
				missing = append(missing, s.name)
			}
		}
		if len(missing) > 0 {
			r[feature] = missing
		}
	}
	return r
}

type setting struct {
	name  string
	value string
}

// Missing lists the absent variables for feature, nil when it is ready.
// The returned slice must not be modified.
func (c *Config) Missing(feature Feature) []string {
	return c.readiness[feature]
}

// Ready reports whether feature has every required setting.
func (c *Config) Ready(feature Feature) bool {
	return len(c.readiness[feature]) == 0
}

// Unready returns the features missing settings, sorted by name.
func (c *Config) Unready() []Feature {
	out := make([]Feature, 0, len(c.readiness))
	for f := range c.readiness {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate fails when any feature is missing settings. Used when
// STRICT_CONFIG is enabled to refuse to start half-configured.
func (c *Config) Validate() error {
	unready := c.Unready()
	if len(unready) == 0 {
		return nil
	}
	parts := make([]string, 0, len(unready))
	for _, f := range unready {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(c.readiness[f], ", ")))
	}
	return fmt.Errorf("missing configuration (%s)", strings.Join(parts, "; "))
}

// RegistrationStepsBudget is the longest the forward steps of a
// registration can take: a retried duplicate check plus three single-shot
// writes, each bounded by HTTPTimeout.
func (c *Config) RegistrationStepsBudget() time.Duration {
	retries := max(c.MaxRetries, 0)
	// Jitter adds at most half of each doubled backoff step.
	backoff := (time.Duration(1)<<retries - 1) * c.InitialBackoff * 3 / 2
	return time.Duration(retries+1)*c.HTTPTimeout + backoff + 3*c.HTTPTimeout
}

// RegistrationBudget adds the detached compensation phase to
// RegistrationStepsBudget.
func (c *Config) RegistrationBudget() time.Duration {
	return c.RegistrationStepsBudget() + c.CompensationTimeout
}

// WriteTimeout leaves room for the slowest handler, a registration that
// runs every step and then compensates.
func (c *Config) WriteTimeout() time.Duration {
	return c.RegistrationBudget() + 5*time.Second
}

// CounterTarget resolves the redirect URL for an app id.
func (c *Config) CounterTarget(app string) (string, bool) {
	targets := map[string]string{
		"desktop": c.TargetDesktopURL,
		"agent":   c.TargetAgentURL,
	}
	for k, v := range c.CounterTargets {
		targets[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	target := targets[app]
	return target, target != ""
}
