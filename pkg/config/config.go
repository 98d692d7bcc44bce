// Package config resolves the client configuration from the environment and
// an optional .env file using Viper.
package config

import (
	"math"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	EnvAPIKey      = "AMPLITUDE_API_KEY"
	EnvEndpoint    = "AMPLITUDE_ENDPOINT"
	EnvRegion      = "AMPLITUDE_REGION"
	EnvMinIDLength = "AMPLITUDE_MIN_ID_LENGTH"
	EnvTimeout     = "AMPLITUDE_TIMEOUT"
	EnvURL         = "AMPLITUDE_URL"
)

const (
	EndpointSingle = "single"
	EndpointBatch  = "batch"

	RegionUS = "us"
	RegionEU = "eu"
)

// DefaultEnvFile is read by Load if it exists
var DefaultEnvFile = ".env"

var (
	// ErrMissingAPIKey is returned if no api key could be found
	ErrMissingAPIKey = errors.New("no " + EnvAPIKey + " environment variable was found")
)

// Config holds the client configuration.
type Config struct {
	// APIKey is the project api key, required.
	APIKey string `mapstructure:"AMPLITUDE_API_KEY"`
	// Endpoint is either single or batch. Defaults to single.
	Endpoint string `mapstructure:"AMPLITUDE_ENDPOINT"`
	// Region is either us or eu. Defaults to us.
	Region string `mapstructure:"AMPLITUDE_REGION"`
	// MinIDLength is sent as options.min_id_length when > 0.
	MinIDLength int `mapstructure:"AMPLITUDE_MIN_ID_LENGTH"`
	// RequestTimeout bounds each upload, e.g. "10s". Empty means no timeout.
	RequestTimeout string `mapstructure:"AMPLITUDE_TIMEOUT"`
	// URL overrides the endpoint and region selection.
	URL string `mapstructure:"AMPLITUDE_URL"`
}

// Load reads DefaultEnvFile (if present) and the environment. Environment
// variables take precedence over the file.
func Load() (*Config, error) {
	return LoadFile(DefaultEnvFile)
}

// LoadFile is Load with an explicit env file. A missing file is ignored.
func LoadFile(envFile string) (*Config, error) {
	cfg, err := ReadFile(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ReadFile resolves the configuration like LoadFile without validating it
func ReadFile(envFile string) (*Config, error) {
	v := viper.New()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "read %s", envFile)
			}
		}
	}

	for _, key := range []string{EnvAPIKey, EnvEndpoint, EnvRegion, EnvMinIDLength, EnvTimeout, EnvURL} {
		_ = v.BindEnv(key)
	}

	v.SetDefault(EnvAPIKey, "")
	v.SetDefault(EnvEndpoint, EndpointSingle)
	v.SetDefault(EnvRegion, RegionUS)
	v.SetDefault(EnvMinIDLength, 0)
	v.SetDefault(EnvTimeout, "")
	v.SetDefault(EnvURL, "")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Endpoint = strings.ToLower(strings.TrimSpace(cfg.Endpoint))
	cfg.Region = strings.ToLower(strings.TrimSpace(cfg.Region))
	return cfg, nil
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Endpoint != EndpointSingle && c.Endpoint != EndpointBatch {
		return errors.Errorf("%s must be %s or %s, got %q", EnvEndpoint, EndpointSingle, EndpointBatch, c.Endpoint)
	}
	if c.Region != RegionUS && c.Region != RegionEU {
		return errors.Errorf("%s must be %s or %s, got %q", EnvRegion, RegionUS, RegionEU, c.Region)
	}
	if c.MinIDLength < 0 || c.MinIDLength > math.MaxUint16 {
		return errors.Errorf("%s must be between 0 and %d", EnvMinIDLength, math.MaxUint16)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}

	return nil
}

// Timeout parses RequestTimeout. Zero means no timeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.RequestTimeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", EnvTimeout)
	}
	if d < 0 {
		return 0, errors.Errorf("%s must not be negative", EnvTimeout)
	}

	return d, nil
}
