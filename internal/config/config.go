// Package config provides Viper-based configuration loading for the battle
// simulator and its tooling.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout", or a file path.
	Output string `mapstructure:"output"`
}

// BattleConfig holds simulation settings.
type BattleConfig struct {
	// MaxRounds bounds each battle.
	MaxRounds int `mapstructure:"max_rounds"`
	// AnimationSpeed is the global playback multiplier applied to every clip.
	AnimationSpeed float64 `mapstructure:"animation_speed"`
	// Realtime makes combatants wait out animations instead of recording them.
	Realtime bool `mapstructure:"realtime"`
	// Seed makes battles reproducible; 0 selects a crypto source.
	Seed uint64 `mapstructure:"seed"`
}

// ContentConfig locates the bestiary and presentation content.
type ContentConfig struct {
	MonstersDir    string `mapstructure:"monsters_dir"`
	AttacksDir     string `mapstructure:"attacks_dir"`
	AnimationsFile string `mapstructure:"animations_file"`
	// ScriptsDir holds Lua battle hooks; empty disables scripting.
	ScriptsDir             string `mapstructure:"scripts_dir"`
	ScriptInstructionLimit int    `mapstructure:"script_instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Battle   BattleConfig   `mapstructure:"battle"`
	Content  ContentConfig  `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateDatabase(c.Database),
		validateLogging(c.Logging),
		validateBattle(c.Battle),
		validateContent(c.Content),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.Output == "" {
		return fmt.Errorf("logging.output must not be empty")
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if b.MaxRounds < 1 {
		errs = append(errs, fmt.Sprintf("battle.max_rounds must be >= 1, got %d", b.MaxRounds))
	}
	if b.AnimationSpeed <= 0 {
		errs = append(errs, fmt.Sprintf("battle.animation_speed must be > 0, got %g", b.AnimationSpeed))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.MonstersDir == "" {
		errs = append(errs, "content.monsters_dir must not be empty")
	}
	if c.AttacksDir == "" {
		errs = append(errs, "content.attacks_dir must not be empty")
	}
	if c.AnimationsFile == "" {
		errs = append(errs, "content.animations_file must not be empty")
	}
	if c.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("content.script_instruction_limit must be >= 0, got %d", c.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// CANDLE_BATTLE_MAX_ROUNDS overrides battle.max_rounds.
	v.SetEnvPrefix("CANDLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default settings.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "candle")
	v.SetDefault("database.password", "candle")
	v.SetDefault("database.name", "candlelight")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("battle.max_rounds", 100)
	v.SetDefault("battle.animation_speed", 1.0)
	v.SetDefault("battle.realtime", false)
	v.SetDefault("battle.seed", 0)

	v.SetDefault("content.monsters_dir", "content/monsters")
	v.SetDefault("content.attacks_dir", "content/attacks")
	v.SetDefault("content.animations_file", "content/animations.yaml")
	v.SetDefault("content.scripts_dir", "")
	v.SetDefault("content.script_instruction_limit", 100_000)
}
