package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string          `mapstructure:"addr" yaml:"addr"`
	Port              string          `mapstructure:"port" yaml:"port"`
	ReadHeaderTimeout time.Duration   `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration   `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string          `mapstructure:"log_level" yaml:"log_level"`
	MaxMessageBytes   int64           `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	MessagesPerMinute int             `mapstructure:"messages_per_minute" yaml:"messages_per_minute"`
	AllowedOrigins    []string        `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is believed. Empty trusts none.
	TrustedProxies    []string        `mapstructure:"trusted_proxies" yaml:"trusted_proxies"`
	MaxViewerSeries   int             `mapstructure:"max_viewer_series" yaml:"max_viewer_series"`
	TokenRateLimit    RateLimitConfig `mapstructure:"token_rate_limit" yaml:"token_rate_limit"`
	LiveKit           LiveKitConfig   `mapstructure:"livekit" yaml:"livekit"`
}

// RateLimitConfig configures a per-client token bucket. Zero RequestsPerSecond disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// LiveKitConfig holds the media platform credentials used to sign grants.
type LiveKitConfig struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	APISecret string `mapstructure:"api_secret" yaml:"api_secret"`
	URL       string `mapstructure:"url" yaml:"url"`
	// FixedRoom, when set, replaces the caller-supplied room in every issued grant.
	FixedRoom        string `mapstructure:"fixed_room" yaml:"fixed_room"`
	RequireAtStartup bool   `mapstructure:"require_at_startup" yaml:"require_at_startup"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3001",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		MaxMessageBytes:   64 << 10,
		MessagesPerMinute: 120,
		AllowedOrigins:    []string{"*"},
		MaxViewerSeries:   1000,
		TokenRateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
		},
		LiveKit: LiveKitConfig{
			RequireAtStartup: true,
		},
	}
}

// ListenAddr returns the address the HTTP server binds to. Port wins over Addr.
func (c *Config) ListenAddr() string {
	if c.Port != "" {
		return ":" + c.Port
	}
	return c.Addr
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.Port != "" {
		c.Port = other.Port
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// Missing lists the names of required LiveKit settings that are empty.
func (l LiveKitConfig) Missing() []string {
	var missing []string
	if l.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if l.APISecret == "" {
		missing = append(missing, "api_secret")
	}
	if l.URL == "" {
		missing = append(missing, "url")
	}
	return missing
}

// Redact hides all but the last four characters of a secret.
func Redact(secret string) string {
	if secret == "" {
		return "<unset>"
	}
	const keep = 4
	if len(secret) <= keep {
		return "…"
	}
	return "…" + secret[len(secret)-keep:]
}
