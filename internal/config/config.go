package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// global configuration structure
type Config struct {
	Bot         BotConfig         `mapstructure:"bot"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Identifiers IdentifiersConfig `mapstructure:"identifiers"`
}

// Discord bot configuration
type BotConfig struct {
	Token   string `mapstructure:"token"`
	GuildID string `mapstructure:"guild_id"`
}

// logging configuration
type LoggerConfig struct {
	Directory string            `mapstructure:"directory"`
	Rotation  LogRotationConfig `mapstructure:"rotation"`
	Level     string            `mapstructure:"level"`
}

// log rotation settings
type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
}

// IdentifiersConfig holds the guild-specific role, category and channel IDs
// the workflows operate on. These are configuration, not domain logic, so
// the engine can be pointed at any guild (or a fake one in tests).
type IdentifiersConfig struct {
	Roles      RoleIdentifiers     `mapstructure:"roles"`
	Categories CategoryIdentifiers `mapstructure:"categories"`
	Channels   ChannelIdentifiers  `mapstructure:"channels"`
}

type RoleIdentifiers struct {
	// Everyone is the guild's @everyone role, used to scope resource-pair
	// channels to their member. On Discord this equals the guild ID.
	Everyone string `mapstructure:"everyone"`
	// Restricted holds the five section roles, index 0 = section 1.
	Restricted []string `mapstructure:"restricted"`
	// Verified is the role that forces section 5 and resource-pair handling.
	Verified string `mapstructure:"verified"`
	// Cleared is the fallback role granted when closing a legacy restriction.
	Cleared string `mapstructure:"cleared"`
	// RestrictedStaff is the staff role given access to resource-pair channels.
	RestrictedStaff string `mapstructure:"restricted_staff"`
	// BlockedWhileRestricted are roles removed when a member is restricted.
	BlockedWhileRestricted []string `mapstructure:"blocked_while_restricted"`
}

type CategoryIdentifiers struct {
	Restricted string `mapstructure:"restricted"`
}

type ChannelIdentifiers struct {
	RestrictedLogs string `mapstructure:"restricted_logs"`
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())

	// Unmarshal configuration
	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Identifiers.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not initialized, call Load() first")
	}
	return cfg
}

// Validate checks that the identifier tables are complete enough for the
// workflows to run.
func (ids *IdentifiersConfig) Validate() error {
	if len(ids.Roles.Restricted) != 5 {
		return fmt.Errorf("identifiers.roles.restricted must list exactly 5 role IDs, got %d", len(ids.Roles.Restricted))
	}
	if ids.Roles.Verified == "" {
		return fmt.Errorf("identifiers.roles.verified is required")
	}
	if ids.Roles.Cleared == "" {
		return fmt.Errorf("identifiers.roles.cleared is required")
	}
	if ids.Categories.Restricted == "" {
		return fmt.Errorf("identifiers.categories.restricted is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.directory", "logs")
	v.SetDefault("logger.rotation.max_size", 10)
	v.SetDefault("logger.rotation.max_backups", 30)
	v.SetDefault("logger.rotation.max_age", 90)
	v.SetDefault("logger.rotation.compress", true)
	v.SetDefault("logger.level", "INFO")

	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.charset", "utf8mb4")
}
