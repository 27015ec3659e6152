// Package config loads and validates the JSON configuration file
// described by spec §6: deployment identity, Router thread count, the
// logical-type-to-implementation maps, and per-instance source/writer
// configs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Env var overrides applied after the file is loaded, matching the
// teacher's convention of letting deployment-level secrets/endpoints
// come from the environment rather than the checked-in file.
const (
	EnvConfigPath  = "INGESTPIPE_CONFIG"
	EnvNATSURL     = "INGESTPIPE_NATS_URL"
	EnvDeployName  = "INGESTPIPE_DEPLOY_NAME"
	DefaultPath    = "./config.json"
	defaultThreads = 3
)

// TypeMap is the logical-name -> implementation-identifier map used for
// each of Sources, Writers, Transformers.
type TypeMap map[string]string

// Types holds the three logical-type registries from the config file.
type Types struct {
	DataSources  TypeMap `json:"dataSources,omitempty"`
	DataWriters  TypeMap `json:"dataWriters,omitempty"`
	Transformers TypeMap `json:"transformers,omitempty"`
}

// InstanceConfig is one entry under Sources or Writers: a logical type
// name plus whatever instance-specific keys the plug-in expects, kept
// raw so the engine can hand it to the plug-in's own JSON decoder.
type InstanceConfig struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes Type normally and retains the whole object in
// Raw so plug-in-specific fields survive without being named here.
func (c *InstanceConfig) UnmarshalJSON(data []byte) error {
	type alias struct {
		Type string `json:"type"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	c.Type = a.Type
	c.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the retained raw object, or {"type": ...} if Raw
// was never populated (a config built in-memory rather than decoded).
func (c InstanceConfig) MarshalJSON() ([]byte, error) {
	if c.Raw != nil {
		return c.Raw, nil
	}
	return json.Marshal(struct {
		Type string `json:"type"`
	}{Type: c.Type})
}

// InstanceConfigs maps instance name to its InstanceConfig.
type InstanceConfigs map[string]InstanceConfig

// Config is the top-level configuration document (spec §6).
type Config struct {
	DeployName    string          `json:"DeployName"`
	TargetThreads int             `json:"TargetThreads"`
	Types         Types           `json:"Types"`
	Sources       InstanceConfigs `json:"Sources,omitempty"`
	Writers       InstanceConfigs `json:"Writers,omitempty"`
	NATSURL       string          `json:"NATSURL,omitempty"`
}

// Load reads and parses path, applies environment overrides, normalizes
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// yamlToJSON re-encodes a YAML document as JSON so Load can feed it
// through the same decode path (and InstanceConfig's custom
// UnmarshalJSON) regardless of the config file's on-disk format.
func yamlToJSON(data []byte) ([]byte, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(convertYAMLMaps(generic))
}

// convertYAMLMaps recursively converts map[string]any (and, for broad
// yaml.v3 compatibility, map[any]any) nodes into JSON-marshalable
// map[string]any nodes.
func convertYAMLMaps(node any) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = convertYAMLMaps(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[fmt.Sprintf("%v", key)] = convertYAMLMaps(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = convertYAMLMaps(val)
		}
		return out
	default:
		return v
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvNATSURL); v != "" {
		c.NATSURL = v
	}
	if v := os.Getenv(EnvDeployName); v != "" {
		c.DeployName = v
	}
}

func (c *Config) applyDefaults() {
	if c.TargetThreads <= 0 {
		c.TargetThreads = defaultThreads
	}
}

// Validate checks that DeployName is set and that every configured
// instance names a type. Type names are not checked against the Types
// map. Unknown top-level keys are ignored by encoding/json already.
func (c *Config) Validate() error {
	if c.DeployName == "" {
		return fmt.Errorf("DeployName is required")
	}
	for name, inst := range c.Sources {
		if inst.Type == "" {
			return fmt.Errorf("source %q: type is required", name)
		}
	}
	for name, inst := range c.Writers {
		if inst.Type == "" {
			return fmt.Errorf("writer %q: type is required", name)
		}
	}
	return nil
}

// Clone returns a deep copy via JSON round-trip, matching this
// repository's established convention for config snapshots.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}
	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}
	return &clone
}

// SafeConfig provides thread-safe access to a Config snapshot, for
// callers that read configuration from multiple goroutines.
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig wraps cfg (or an empty Config if nil).
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = &Config{}
	}
	return &SafeConfig{config: cfg}
}

// Get returns a deep copy of the current configuration.
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update validates and atomically replaces the wrapped configuration.
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}
