package cotc

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the configuration file.
const (
	EnvAPIKey   = "COTC_API_KEY"
	EnvEndpoint = "COTC_ENDPOINT"
)

// RetryFileConfig is the retry section of a configuration file.
type RetryFileConfig struct {
	// MaxRetries keeps the default when omitted. An explicit 0 disables retries.
	MaxRetries          *uint64       `yaml:"max_retries"`
	InitialInterval     time.Duration `yaml:"initial_interval"`
	MaxInterval         time.Duration `yaml:"max_interval"`
	Multiplier          float64       `yaml:"multiplier"`
	RandomizationFactor float64       `yaml:"randomization_factor"`
}

// BatchFileConfig is the batch section of a configuration file.
type BatchFileConfig struct {
	Workers int `yaml:"workers"`
}

// Config is the content of a cotc.yaml file:
//
//	api_key: your-api-key
//	endpoint: api.cotc-protocol.com:443
//	timeout: 300s
//	poll_interval: 2s
//	retry:
//	  max_retries: 3
//	  multiplier: 2.0
//	contracts:
//	  financial_content: fin-content-001
//	  customer_communication: customer-comm-001
//	batch:
//	  workers: 10
type Config struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
	// Timeout is the default time Validate waits for a verdict.
	Timeout time.Duration `yaml:"timeout"`
	// RequestTimeout bounds each RPC to the service.
	RequestTimeout time.Duration     `yaml:"request_timeout"`
	PollInterval   time.Duration     `yaml:"poll_interval"`
	System         string            `yaml:"system"`
	Retry          *RetryFileConfig  `yaml:"retry"`
	Contracts      map[string]string `yaml:"contracts"`
	Batch          BatchFileConfig   `yaml:"batch"`
}

// LoadConfig reads a YAML configuration file. COTC_API_KEY and COTC_ENDPOINT, when set, take
// precedence over the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML configuration and applies environment overrides.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Contracts == nil {
		cfg.Contracts = make(map[string]string)
	}

	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Endpoint = v
	}
	return &cfg, nil
}

// ClientOptions translates the configuration into options for New.
func (c *Config) ClientOptions() []Option {
	opts := []Option{WithAPIKey(c.APIKey), WithInsecure(c.Insecure)}
	if c.Endpoint != "" {
		opts = append(opts, WithEndpoint(c.Endpoint))
	}
	if c.RequestTimeout > 0 {
		opts = append(opts, WithTimeout(c.RequestTimeout))
	}
	if c.PollInterval > 0 {
		opts = append(opts, WithPollInterval(c.PollInterval))
	}
	if c.Retry != nil {
		retry := DefaultRetryConfig()
		if c.Retry.MaxRetries != nil {
			retry.MaxRetries = *c.Retry.MaxRetries
		}
		if c.Retry.InitialInterval > 0 {
			retry.InitialInterval = c.Retry.InitialInterval
		}
		if c.Retry.MaxInterval > 0 {
			retry.MaxInterval = c.Retry.MaxInterval
		}
		if c.Retry.Multiplier > 0 {
			retry.Multiplier = c.Retry.Multiplier
		}
		if c.Retry.RandomizationFactor > 0 {
			retry.RandomizationFactor = c.Retry.RandomizationFactor
		}
		opts = append(opts, WithRetryConfig(retry))
	}
	return opts
}

// OrchestratorOptions translates the configuration into options for NewOrchestrator.
func (c *Config) OrchestratorOptions() []OrchestratorOption {
	var opts []OrchestratorOption
	if c.Timeout > 0 {
		opts = append(opts, WithDefaultTimeout(c.Timeout))
	}
	if c.System != "" {
		opts = append(opts, WithSystemName(c.System))
	}
	return opts
}

// Registry builds the use case registry from the contracts section.
func (c *Config) Registry() (*Registry, error) {
	return NewRegistry(c.Contracts)
}
