package config

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/suffix-labs/btcz-shielded/pkg/builder"
	"github.com/suffix-labs/btcz-shielded/pkg/crypto"
	"github.com/suffix-labs/btcz-shielded/pkg/params"
)

const (
	defaultNetwork          = "mainnet"
	defaultFee              = uint64(10000)
	defaultBindingSignature = "omit"
	defaultBindingBasepoint = builder.RandomnessBasepoint
)

type Config struct {
	Network string        `yaml:"network"`
	Builder BuilderConfig `yaml:"builder"`
	Logger  LogConfig     `yaml:"logger"`
}

type BuilderConfig struct {
	Sighash crypto.SighashPolicy `yaml:"sighash"`
	// omit, zero or computed
	BindingSignature string `yaml:"bindingSignature"`
	// randomness or subgroup
	BindingBasepoint string `yaml:"bindingBasepoint"`
	// Blocks after the build height the transaction expires at. Zero uses
	// the network default.
	ExpiryDelta uint32 `yaml:"expiryDelta"`
	LockTime    uint32 `yaml:"lockTime"`
	// Fee in zatoshis. Unset uses the default; 0 is a zero fee.
	Fee *uint64 `yaml:"fee,omitempty"`
}

type LogConfig struct {
	Debug bool `yaml:"debug"`
}

// WithDefaults returns a copy of the BuilderConfig with any missing fields
// set to their default values.
func (c BuilderConfig) WithDefaults() BuilderConfig {
	cpy := c
	if cpy.BindingSignature == "" {
		cpy.BindingSignature = defaultBindingSignature
	}
	if cpy.BindingBasepoint == "" {
		cpy.BindingBasepoint = defaultBindingBasepoint
	}
	if cpy.Fee == nil {
		fee := defaultFee
		cpy.Fee = &fee
	}
	return cpy
}

// FeeAmount returns the configured fee, or the default when unset.
func (c BuilderConfig) FeeAmount() uint64 {
	if c.Fee == nil {
		return defaultFee
	}
	return *c.Fee
}

// WithDefaults returns a copy of the Config with any missing fields set to
// their default values.
func (c Config) WithDefaults() Config {
	cpy := c
	if cpy.Network == "" {
		cpy.Network = defaultNetwork
	}
	cpy.Builder = cpy.Builder.WithDefaults()
	return cpy
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := Config{}.WithDefaults()
	return &c
}

// Load reads a YAML config file and fills in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	return Parse(data)
}

// Parse decodes a YAML config and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every enumerated setting names a known value.
func (c *Config) Validate() error {
	if _, err := params.ByName(c.Network); err != nil {
		return errors.Wrap(err, "validate config")
	}
	if _, err := builder.ParseBindingSigPolicy(c.Builder.BindingSignature); err != nil {
		return errors.Wrap(err, "validate config")
	}
	if _, err := builder.ParseBindingBasepoint(c.Builder.BindingBasepoint); err != nil {
		return errors.Wrap(err, "validate config")
	}
	return nil
}

// Params returns the configured network.
func (c *Config) Params() (*params.Network, error) {
	net, err := params.ByName(c.Network)
	return net, errors.Wrap(err, "network params")
}

// BuilderOptions translates the builder settings into builder options.
func (c *Config) BuilderOptions(logger *zap.Logger) ([]builder.Option, error) {
	policy, err := builder.ParseBindingSigPolicy(c.Builder.BindingSignature)
	if err != nil {
		return nil, errors.Wrap(err, "builder options")
	}
	base, err := builder.ParseBindingBasepoint(c.Builder.BindingBasepoint)
	if err != nil {
		return nil, errors.Wrap(err, "builder options")
	}
	return []builder.Option{
		builder.WithLogger(logger),
		builder.WithSighashPolicy(c.Builder.Sighash),
		builder.WithBindingSigPolicy(policy),
		builder.WithBindingBasepoint(base),
		builder.WithExpiryDelta(c.Builder.ExpiryDelta),
		builder.WithLockTime(c.Builder.LockTime),
	}, nil
}

// Marshal encodes the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	return data, errors.Wrap(err, "marshal config")
}
