// Package config resolves the plugin options from an optional YAML file,
// FOREMAN_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Mode selects which Foreman metric the plugin evaluates.
type Mode string

const (
	ModeDashboard Mode = "dashboard"
	ModeSearch    Mode = "search"
	ModeFact      Mode = "fact"
)

// Modes lists every supported mode in help-text order.
var Modes = []Mode{ModeDashboard, ModeSearch, ModeFact}

// ParseMode maps a command name to its Mode, ignoring case.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown command %q", s)
}

const (
	DefaultWarning  = 1
	DefaultCritical = 5

	envPrefix = "FOREMAN"
)

// Config is the resolved plugin configuration. It is built once and passed
// by value to the API client and the evaluator.
type Config struct {
	Endpoint string        `yaml:"endpoint" validate:"required"`
	User     string        `yaml:"user" validate:"required"`
	Password string        `yaml:"password" validate:"required"`
	Mode     Mode          `yaml:"command" validate:"required,oneof=dashboard search fact"`
	Argument string        `yaml:"argument"`
	Base64   bool          `yaml:"base64"`
	Warning  float64       `yaml:"warning"`
	Critical float64       `yaml:"critical" validate:"gtfield=Warning"`
	Silent   bool          `yaml:"silent"`
	Verbose  bool          `yaml:"verbose"`
	Logging  LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// envOverrides mirrors the Config fields that may come from the environment.
// Nil pointers mean the variable was not set. No envconfig tags here: a
// tagged field also reads the unprefixed variable, e.g. $USER.
type envOverrides struct {
	Endpoint *string
	User     *string
	Password *string
	Command  *string
	Argument *string
	Warning  *float64
	Critical *float64
}

// Defaults returns the configuration used when nothing else is supplied.
func Defaults() Config {
	return Config{
		Mode:     ModeDashboard,
		Warning:  DefaultWarning,
		Critical: DefaultCritical,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the optional YAML file at path on top of Defaults and then
// applies FOREMAN_* environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return err
	}

	if env.Endpoint != nil {
		cfg.Endpoint = *env.Endpoint
	}
	if env.User != nil {
		cfg.User = *env.User
	}
	if env.Password != nil {
		cfg.Password = *env.Password
	}
	if env.Command != nil {
		cfg.Mode = Mode(*env.Command)
	}
	if env.Argument != nil {
		cfg.Argument = *env.Argument
	}
	if env.Warning != nil {
		cfg.Warning = *env.Warning
	}
	if env.Critical != nil {
		cfg.Critical = *env.Critical
	}
	return nil
}

// UsageError reports a configuration problem found before any request is
// made. The plugin answers it with UNKNOWN.
type UsageError struct {
	Reason error
}

func (e *UsageError) Error() string {
	return "argument error: " + e.Reason.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Reason
}

// IsUsage reports whether err is a *UsageError.
func IsUsage(err error) bool {
	var uerr *UsageError
	return errors.As(err, &uerr)
}

// Resolve validates c and returns the final configuration with the mode
// normalised and the check argument decoded.
func (c Config) Resolve() (Config, error) {
	resolved := c

	if mode, err := ParseMode(string(c.Mode)); err == nil {
		resolved.Mode = mode
	}

	if err := validateConfig(&resolved); err != nil {
		return Config{}, &UsageError{Reason: err}
	}

	if resolved.Base64 {
		resolved.Argument = DecodeArgument(resolved.Argument)
	}
	if resolved.Verbose {
		resolved.Logging.Level = "debug"
	}

	return resolved, nil
}
