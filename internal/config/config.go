// Package config provides router configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Transports.
const (
	TransportRelay   = "relay"
	TransportDiscord = "discord"
)

// Config holds interaction-router configuration.
type Config struct {
	// Transport selects how interactions arrive: "relay" (COMMS) or "discord" (gateway).
	Transport string `envconfig:"ROUTER_TRANSPORT" default:"relay"`

	// Platform credentials. Required for the discord transport and for command sync.
	DiscordToken  string `envconfig:"DISCORD_TOKEN"`
	ApplicationID string `envconfig:"DISCORD_APPLICATION_ID"`
	// GuildID scopes command sync to one guild; empty syncs global commands.
	GuildID string `envconfig:"DISCORD_GUILD_ID"`

	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"interaction-router"`

	// Relay subjects (empty = package defaults)
	InboundSubject      string `envconfig:"ROUTER_INBOUND_SUBJECT"`
	OutboundSubject     string `envconfig:"ROUTER_OUTBOUND_SUBJECT"`
	QueueGroup          string `envconfig:"ROUTER_QUEUE_GROUP"`
	HandledEventSubject string `envconfig:"ROUTER_HANDLED_EVENT_SUBJECT"`
	// RelayFollowUps reports whether the relay gateway can send follow-ups.
	RelayFollowUps bool `envconfig:"ROUTER_RELAY_FOLLOW_UPS" default:"true"`

	// Timeouts
	CallTimeout   time.Duration `envconfig:"ROUTER_CALL_TIMEOUT" default:"5s"`
	HandleTimeout time.Duration `envconfig:"ROUTER_HANDLE_TIMEOUT" default:"15m"`

	// Command manifest
	ManifestFile string `envconfig:"MANIFEST_FILE"`
	SyncOnStart  bool   `envconfig:"SYNC_ON_START" default:"false"`

	// Database (optional; stores command sync state)
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`

	// HTTP health endpoint (ROUTER_HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr           string        `envconfig:"ROUTER_HTTP_ADDR"`
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListenAddr is the HTTP listen address.
func (c *Config) ListenAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// HasDatabase reports whether a database is configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// ValidateForServe checks required config when running the router.
func (c *Config) ValidateForServe() error {
	switch c.Transport {
	case TransportRelay:
		if c.COMMSURL == "" {
			return fmt.Errorf("%s - COMMS_URL is required for the relay transport", logPrefix)
		}
	case TransportDiscord:
		if c.DiscordToken == "" {
			return fmt.Errorf("%s - DISCORD_TOKEN is required for the discord transport", logPrefix)
		}
	default:
		return fmt.Errorf("%s - ROUTER_TRANSPORT must be %q or %q, got %q", logPrefix, TransportRelay, TransportDiscord, c.Transport)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("%s - ROUTER_CALL_TIMEOUT must be positive", logPrefix)
	}
	if c.HandleTimeout <= 0 {
		return fmt.Errorf("%s - ROUTER_HANDLE_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	if c.RunMigrations && !c.HasDatabase() {
		return fmt.Errorf("%s - RUN_MIGRATIONS requires DATABASE_URL", logPrefix)
	}
	if c.SyncOnStart {
		return c.ValidateForSync()
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}

// ValidateForSync checks required config when registering commands on the platform.
func (c *Config) ValidateForSync() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("%s - DISCORD_TOKEN is required for command sync", logPrefix)
	}
	if c.ApplicationID == "" {
		return fmt.Errorf("%s - DISCORD_APPLICATION_ID is required for command sync", logPrefix)
	}
	return nil
}
