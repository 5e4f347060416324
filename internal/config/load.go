package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and parses the configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates it.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields. Machine settings inherit the file-level
// region.
func (c *Config) ApplyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.Metadata.Backend == "" {
		c.Metadata.Backend = MetadataBackendFile
	}
	if c.Metadata.Region == "" {
		c.Metadata.Region = c.Region
	}
	for i := range c.Machines {
		m := &c.Machines[i]
		if m.Name == "" && len(c.Machines) == 1 {
			m.Name = "default"
		}
		if m.Region == "" {
			m.Region = c.Region
		}
		m.ApplyDefaults()
	}
}

// ApplyDefaults fills unset machine fields.
func (m *Machine) ApplyDefaults() {
	if m.InstanceReadyTimeout == 0 {
		m.InstanceReadyTimeout = DefaultInstanceReadyTimeout
	}
	if m.SSH.Port == 0 {
		m.SSH.Port = SSHPort
	}
	if m.SSH.Username == "" {
		m.SSH.Username = DefaultSSHUsername
	}
}
