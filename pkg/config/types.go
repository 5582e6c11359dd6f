package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

// Config is the pwdrift application configuration, usually pwdrift.yaml.
type Config struct {
	// Version is the platform release under management. It selects the
	// default policy table row and gates baseline files.
	Version policy.Version `yaml:"version" validate:"required"`

	// Baseline optionally points at a baseline file used as the expected
	// side instead of the built-in defaults.
	Baseline BaselineConfig `yaml:"baseline"`

	// Components lists the managed components and how to reach them.
	Components []ComponentConfig `yaml:"components" validate:"dive"`

	// SSH holds transport settings shared by all SSH-reachable components.
	SSH SSHConfig `yaml:"ssh"`

	// Store configures the local report history database.
	Store StoreConfig `yaml:"store"`

	// Rules configures the compliance rules engine.
	Rules RulesConfig `yaml:"rules"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// ComponentConfig describes how to reach one managed component.
type ComponentConfig struct {
	// Name is the component identifier (host, directory, manager,
	// manager-root, network-manager, network-edge, identity-broker).
	Name policy.Component `yaml:"name" validate:"required,oneof=host directory manager manager-root network-manager network-edge identity-broker"`

	// Endpoint is the REST base URL for appliance components.
	Endpoint string `yaml:"endpoint,omitempty" validate:"omitempty,url"`

	// Address is the SSH host for components collected over SSH.
	Address string `yaml:"address,omitempty" validate:"omitempty,hostname_port|hostname|ip"`

	// User authenticates against the component.
	User string `yaml:"user,omitempty"`

	// Password authenticates against the component. Prefer the
	// corresponding *_PASSWORD environment variable in automation.
	Password string `yaml:"password,omitempty"`

	// Token is a bearer token for REST components, as an alternative to
	// basic auth.
	Token string `yaml:"token,omitempty"`

	// InsecureSkipVerify disables TLS certificate verification for REST
	// components.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify,omitempty"`
}

// BaselineConfig points at the expected-policy baseline.
type BaselineConfig struct {
	// Path is a baseline file, either .json or .star.
	Path string `yaml:"path,omitempty"`
}

// SSHConfig holds SSH transport settings.
type SSHConfig struct {
	Port                  int    `yaml:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	PrivateKeyPath        string `yaml:"private_key_path,omitempty"`
	KnownHostsPath        string `yaml:"known_hosts_path,omitempty"`
	StrictHostKeyChecking bool   `yaml:"strict_host_key_checking,omitempty"`
	ConnectTimeoutSec     int    `yaml:"connect_timeout_sec,omitempty" validate:"omitempty,min=1"`
	CommandTimeoutSec     int    `yaml:"command_timeout_sec,omitempty" validate:"omitempty,min=1"`
}

// StoreConfig configures the report history database.
type StoreConfig struct {
	// Path is the sqlite database file. Empty disables history.
	Path string `yaml:"path,omitempty"`
}

// RulesConfig configures the compliance rules engine.
type RulesConfig struct {
	// Dir holds additional *.rego rules loaded next to the builtins.
	Dir string `yaml:"dir,omitempty"`

	// Watch reloads rules when files under Dir change.
	Watch bool `yaml:"watch,omitempty"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`

	// Format is console or json.
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=console json"`
}

// DefaultConfig returns the configuration pwdrift starts from before the
// YAML file is applied.
func DefaultConfig() Config {
	return Config{
		SSH: SSHConfig{
			Port:                  22,
			StrictHostKeyChecking: true,
			ConnectTimeoutSec:     30,
			CommandTimeoutSec:     60,
		},
		Store:   StoreConfig{Path: "pwdrift.db"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads and validates the application config at path. Unknown YAML
// keys are rejected so a typo fails loudly instead of silently applying
// defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := unmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks a configuration against its struct constraints.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	seen := make(map[policy.Component]bool, len(cfg.Components))
	for _, comp := range cfg.Components {
		if seen[comp.Name] {
			return fmt.Errorf("component %s configured twice", comp.Name)
		}
		seen[comp.Name] = true
	}
	return nil
}

func unmarshalStrict(data []byte, v interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		// An empty file decodes to EOF; treat it as "all defaults".
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}
