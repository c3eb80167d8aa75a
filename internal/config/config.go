package config

import (
	"fmt"
	"slices"
	"time"
)

const (
	StoreDriverFile     = "file"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

var presenceStatuses = []string{"online", "idle", "dnd", "invisible"}

type Config struct {
	Env                     string
	DiscordToken            string
	DiscordGuildID          string
	DiscordPresenceActivity string
	DiscordPresenceStatus   string
	StoreDriver             string
	DataFile                string
	SQLitePath              string
	DatabaseURL             string
	ReportTimezone          string
	ShiftWebhookURL         string
	AMQPURL                 string
	AMQPQueue               string
}

// Validate checks everything the bot process needs.
func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.DiscordPresenceStatus != "" && !slices.Contains(presenceStatuses, c.DiscordPresenceStatus) {
		return fmt.Errorf("DISCORD_PRESENCE_STATUS must be one of %v, got %q", presenceStatuses, c.DiscordPresenceStatus)
	}
	if c.ReportTimezone == "" {
		return fmt.Errorf("REPORT_TIMEZONE is required")
	}
	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		return fmt.Errorf("REPORT_TIMEZONE is invalid: %w", err)
	}
	if c.AMQPURL != "" && c.AMQPQueue == "" {
		return fmt.Errorf("AMQP_QUEUE is required when AMQP_URL is set")
	}
	return c.ValidateStore()
}

// ValidateStore checks only the storage settings, for tools that never talk to Discord.
func (c *Config) ValidateStore() error {
	switch c.StoreDriver {
	case StoreDriverFile:
		if c.DataFile == "" {
			return fmt.Errorf("DATA_FILE is required when STORE_DRIVER=%s", c.StoreDriver)
		}
	case StoreDriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=%s", c.StoreDriver)
		}
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", c.StoreDriver)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.StoreDriver)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DISCORD_TOKEN", value: c.DiscordToken},
		{name: "DISCORD_GUILD_ID", value: c.DiscordGuildID},
		{name: "STORE_DRIVER", value: c.StoreDriver},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ReportLocation returns the zone used to render dates; durations never depend on it.
func (c *Config) ReportLocation() *time.Location {
	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
