package client

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zentalk/envelope/pkg/crypto"
)

// Config holds client settings loaded from YAML.
type Config struct {
	DisplayName string `yaml:"display_name"`

	// AllowInsecure enables the plaintext and reversed scaffolding
	// algorithms. Never set this outside tests and demos.
	AllowInsecure bool `yaml:"allow_insecure"`

	// Padding selects the length-hiding scheme: "none", "fixed" or
	// "random". Empty means "fixed".
	Padding string `yaml:"padding"`
}

// DefaultConfig returns the production defaults
func DefaultConfig() *Config {
	return &Config{Padding: "fixed"}
}

// LoadConfig reads a YAML config file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

// PaddingScheme maps the configured padding name to a scheme
func (c *Config) PaddingScheme() (crypto.PaddingScheme, error) {
	switch c.Padding {
	case "none":
		return crypto.PaddingNone, nil
	case "fixed", "":
		return crypto.PaddingFixedSize, nil
	case "random":
		return crypto.PaddingRandom, nil
	default:
		return 0, errors.Errorf("unknown padding scheme %q", c.Padding)
	}
}
