// Package config centralises runtime configuration for ObjectPool deployments.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/e-sites/ObjectPool/errs"
	"github.com/e-sites/ObjectPool/pool"
)

// PoolConfig declares a single named pool in the manifest.
type PoolConfig struct {
	Name   string `yaml:"name"`
	Size   int    `yaml:"size"`
	Policy string `yaml:"policy"`
}

// TelemetryConfig configures the OTLP metric exporter.
type TelemetryConfig struct {
	OTLPEndpoint   string `yaml:"otlpEndpoint"`
	ServiceName    string `yaml:"serviceName"`
	ExportInterval string `yaml:"exportInterval"`
}

// Config is the manifest tree loaded from defaults and overrides.
type Config struct {
	Pools     []PoolConfig    `yaml:"pools"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// Default returns the default ObjectPool configuration.
func Default() Config {
	return Config{
		Pools: nil,
		Telemetry: TelemetryConfig{
			OTLPEndpoint:   "",
			ServiceName:    "objectpool",
			ExportInterval: "15s",
		},
	}
}

// Load reads a manifest YAML document from disk, applies environment
// overrides, and validates the result.
func Load(path string) (Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = os.Getenv("OBJECTPOOL_CONFIG")
	}
	if path == "" {
		return Config{}, errs.New("", errs.CodeInvalid, errs.WithMessage("config path must be provided"))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg = FromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv overlays environment variables on the provided configuration.
func FromEnv(cfg Config) Config {
	if v := strings.TrimSpace(os.Getenv("OBJECTPOOL_OTLP_ENDPOINT")); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("OBJECTPOOL_SERVICE_NAME")); v != "" {
		cfg.Telemetry.ServiceName = v
	}
	if v := strings.TrimSpace(os.Getenv("OBJECTPOOL_EXPORT_INTERVAL")); v != "" {
		cfg.Telemetry.ExportInterval = v
	}
	return cfg
}

// Validate performs semantic validation on the loaded configuration.
func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Pools))
	for _, pc := range c.Pools {
		name := strings.TrimSpace(pc.Name)
		if name == "" {
			return errs.New(name, errs.CodeInvalid, errs.WithMessage("pool name must be non-empty"))
		}
		if _, dup := seen[name]; dup {
			return errs.New(name, errs.CodeInvalid, errs.WithMessage("duplicate pool name"))
		}
		seen[name] = struct{}{}

		policy, err := pool.ParsePolicy(pc.Policy)
		if err != nil {
			return errs.New(name, errs.CodeInvalid,
				errs.WithMessage("policy must be static or dynamic"),
				errs.WithCause(err))
		}
		if pc.Size < 0 {
			return errs.New(name, errs.CodeInvalid, errs.WithMessage("size must be non-negative"))
		}
		if pc.Size == 0 && policy == pool.PolicyStatic {
			return errs.New(name, errs.CodeInvalid,
				errs.WithMessage("static pool requires a positive size"),
				errs.WithRemediation("use the dynamic policy for pools that start empty"))
		}
	}

	if _, err := c.Telemetry.Interval(); err != nil {
		return err
	}
	return nil
}

// Pool returns the manifest entry with the given name if present.
func (c Config) Pool(name string) (PoolConfig, bool) {
	for _, pc := range c.Pools {
		if pc.Name == name {
			return pc, true
		}
	}
	return PoolConfig{}, false
}

// ParsedPolicy returns the typed policy for the manifest entry.
func (pc PoolConfig) ParsedPolicy() (pool.Policy, error) {
	return pool.ParsePolicy(pc.Policy)
}

// Interval parses the export interval, falling back to the default when unset.
func (t TelemetryConfig) Interval() (time.Duration, error) {
	raw := strings.TrimSpace(t.ExportInterval)
	if raw == "" {
		return 15 * time.Second, nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errs.New("", errs.CodeInvalid,
			errs.WithMessage("exportInterval must be a duration"),
			errs.WithCause(err))
	}
	if dur <= 0 {
		return 0, errs.New("", errs.CodeInvalid, errs.WithMessage("exportInterval must be positive"))
	}
	return dur, nil
}
