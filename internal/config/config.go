// Package config provides Viper-based configuration loading for the encounter
// simulator.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Table source kinds.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
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
}

// TablesConfig names the lookup tables and where they are loaded from.
type TablesConfig struct {
	// Source is "csv" (files under Dir) or "postgres".
	Source string `mapstructure:"source"`
	// Dir holds <name>.csv files when Source is "csv".
	Dir      string `mapstructure:"dir"`
	Main     string `mapstructure:"main"`
	Sub      string `mapstructure:"sub"`
	Monsters string `mapstructure:"monsters"`
}

// Names returns the main, sub and monster table names in load order.
func (t TablesConfig) Names() []string {
	return []string{t.Main, t.Sub, t.Monsters}
}

// MonstersConfig locates fields in the monster database, 1-indexed.
type MonstersConfig struct {
	NumberCol  int `mapstructure:"number_col"`
	HitDiceCol int `mapstructure:"hit_dice_col"`
	EHDCol     int `mapstructure:"ehd_col"`
}

// SimulationConfig controls a simulation run.
type SimulationConfig struct {
	// Encounters is the number of encounters rolled per run.
	Encounters int `mapstructure:"encounters"`
	// Seed makes runs reproducible; 0 draws from crypto/rand.
	Seed int64 `mapstructure:"seed"`
}

// RulesConfig points at an optional YAML override of the fixup rules.
type RulesConfig struct {
	File string `mapstructure:"file"`
}

// ScriptingConfig enables Lua fixup hooks.
type ScriptingConfig struct {
	// Dir holds *.lua hook scripts; empty disables scripting.
	Dir string `mapstructure:"dir"`
	// InstructionLimit bounds each hook call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Tables     TablesConfig     `mapstructure:"tables"`
	Monsters   MonstersConfig   `mapstructure:"monsters"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Rules      RulesConfig      `mapstructure:"rules"`
	Scripting  ScriptingConfig  `mapstructure:"scripting"`
	Database   DatabaseConfig   `mapstructure:"database"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTables(c.Tables); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateMonsters(c.Monsters); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Simulation.Encounters < 1 {
		errs = append(errs, fmt.Sprintf("simulation.encounters must be >= 1, got %d", c.Simulation.Encounters))
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTables(t TablesConfig) error {
	var errs []string
	switch t.Source {
	case SourceCSV:
		if t.Dir == "" {
			errs = append(errs, "tables.dir must not be empty when tables.source is csv")
		}
	case SourcePostgres:
	default:
		errs = append(errs, fmt.Sprintf("tables.source must be one of [csv, postgres], got %q", t.Source))
	}
	if t.Main == "" || t.Sub == "" || t.Monsters == "" {
		errs = append(errs, "tables.main, tables.sub and tables.monsters must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateMonsters(m MonstersConfig) error {
	var errs []string
	cols := []struct {
		key string
		col int
	}{
		{"monsters.number_col", m.NumberCol},
		{"monsters.hit_dice_col", m.HitDiceCol},
		{"monsters.ehd_col", m.EHDCol},
	}
	for _, c := range cols {
		if c.col < 1 {
			errs = append(errs, fmt.Sprintf("%s must be >= 1, got %d", c.key, c.col))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
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
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and
// environment variables only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with WILD_ prefix
	v.SetEnvPrefix("WILD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("tables.source", SourceCSV)
	v.SetDefault("tables.dir", "content/tables")
	v.SetDefault("tables.main", "WildMainTable")
	v.SetDefault("tables.sub", "WildSubTable")
	v.SetDefault("tables.monsters", "MonsterDatabase")

	v.SetDefault("monsters.number_col", 1)
	v.SetDefault("monsters.hit_dice_col", 12)
	v.SetDefault("monsters.ehd_col", 13)

	v.SetDefault("simulation.encounters", 1000)
	v.SetDefault("simulation.seed", 0)

	v.SetDefault("rules.file", "")

	v.SetDefault("scripting.dir", "")
	v.SetDefault("scripting.instruction_limit", 0)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "wild")
	v.SetDefault("database.password", "wild")
	v.SetDefault("database.name", "wild")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")
}
