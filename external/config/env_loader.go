package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/bateponto/internal/config"
)

type envConfig struct {
	Env                     string `env:"ENV" envDefault:"production"`
	DiscordToken            string `env:"DISCORD_TOKEN"`
	DiscordGuildID          string `env:"DISCORD_GUILD_ID"`
	DiscordPresenceActivity string `env:"DISCORD_PRESENCE_ACTIVITY"`
	DiscordPresenceStatus   string `env:"DISCORD_PRESENCE_STATUS" envDefault:"dnd"`
	StoreDriver             string `env:"STORE_DRIVER" envDefault:"file"`
	DataFile                string `env:"DATA_FILE" envDefault:"bateponto.json"`
	SQLitePath              string `env:"SQLITE_PATH" envDefault:"bateponto.db"`
	DatabaseURL             string `env:"DATABASE_URL"`
	ReportTimezone          string `env:"REPORT_TIMEZONE" envDefault:"Europe/Lisbon"`
	ShiftWebhookURL         string `env:"SHIFT_WEBHOOK_URL"`
	AMQPURL                 string `env:"AMQP_URL"`
	AMQPQueue               string `env:"AMQP_QUEUE" envDefault:"bateponto.shifts"`
}

// Load reads and validates the full bot configuration.
func Load() (*internalconfig.Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStore reads the configuration but validates only the storage settings.
func LoadStore() (*internalconfig.Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}
	return &internalconfig.Config{
		Env:                     raw.Env,
		DiscordToken:            raw.DiscordToken,
		DiscordGuildID:          raw.DiscordGuildID,
		DiscordPresenceActivity: raw.DiscordPresenceActivity,
		DiscordPresenceStatus:   raw.DiscordPresenceStatus,
		StoreDriver:             raw.StoreDriver,
		DataFile:                raw.DataFile,
		SQLitePath:              raw.SQLitePath,
		DatabaseURL:             raw.DatabaseURL,
		ReportTimezone:          raw.ReportTimezone,
		ShiftWebhookURL:         raw.ShiftWebhookURL,
		AMQPURL:                 raw.AMQPURL,
		AMQPQueue:               raw.AMQPQueue,
	}, nil
}
