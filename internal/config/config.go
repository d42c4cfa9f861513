package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zoobzio/enhancer"
	"github.com/zoobzio/enhancer/providers/azure"
	"github.com/zoobzio/enhancer/providers/bedrock"
	"github.com/zoobzio/enhancer/providers/openai"
)

// DefaultPort is used when neither the file nor a flag sets server.port.
const DefaultPort = 8189

// Environment variables read on top of the YAML file. A non-empty value
// overrides the file.
const (
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvOpenAIModel     = "OPENAI_MODEL"
	EnvAzureKey        = "AZURE_OPENAI_API_KEY"
	EnvAzureEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvAzureDeployment = "AZURE_OPENAI_DEPLOYMENT"
	EnvAWSAccessKey    = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretKey    = "AWS_SECRET_ACCESS_KEY"
	EnvAWSSessionToken = "AWS_SESSION_TOKEN"
	EnvAWSRegion       = "AWS_REGION"
	EnvBedrockModel    = "BEDROCK_MODEL_ID"
	EnvEncoderURL      = "ENHANCER_ENCODER_URL"
)

// LookupFunc resolves an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Config represents the application configuration parsed from YAML.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Azure    AzureConfig    `yaml:"azure"`
	Bedrock  BedrockConfig  `yaml:"bedrock"`
	Encoder  EncoderConfig  `yaml:"encoder"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// OpenAIConfig configures the chat-completion nodes.
type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// AzureConfig configures an Azure OpenAI deployment.
type AzureConfig struct {
	APIKey     string        `yaml:"api_key"`
	Endpoint   string        `yaml:"endpoint"`
	Deployment string        `yaml:"deployment"`
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`
}

// BedrockConfig configures the Bedrock node.
type BedrockConfig struct {
	Region       string        `yaml:"region"`
	AccessKey    string        `yaml:"access_key"`
	SecretKey    string        `yaml:"secret_key"`
	SessionToken string        `yaml:"session_token"`
	ModelID      string        `yaml:"model_id"`
	Endpoint     string        `yaml:"endpoint"`
	Timeout      time.Duration `yaml:"timeout"`
}

// EncoderConfig points at the host's text encoder.
type EncoderConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// PipelineConfig holds the optional pipeline guards. Zero values disable them.
type PipelineConfig struct {
	Timeout        time.Duration        `yaml:"timeout"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	Debug          bool                 `yaml:"debug"`
}

// CircuitBreakerConfig opens the circuit after Failures consecutive failures.
type CircuitBreakerConfig struct {
	Failures int           `yaml:"failures"`
	Recovery time.Duration `yaml:"recovery"`
}

// RateLimitConfig limits calls per second with a burst allowance.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Load reads YAML configuration from path, applies environment overrides and
// validates the result. An empty path loads defaults and environment only.
func Load(path string, lookup LookupFunc) (Config, error) {
	var cfg Config

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return Config{}, fmt.Errorf("resolve config path: %w", err)
		}

		data, err := os.ReadFile(absPath)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
		}
	}

	if lookup != nil {
		cfg.applyEnv(lookup)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup LookupFunc) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = v
		}
	}

	set(&c.OpenAI.APIKey, EnvOpenAIKey)
	set(&c.OpenAI.Model, EnvOpenAIModel)
	set(&c.Azure.APIKey, EnvAzureKey)
	set(&c.Azure.Endpoint, EnvAzureEndpoint)
	set(&c.Azure.Deployment, EnvAzureDeployment)
	set(&c.Bedrock.AccessKey, EnvAWSAccessKey)
	set(&c.Bedrock.SecretKey, EnvAWSSecretKey)
	set(&c.Bedrock.SessionToken, EnvAWSSessionToken)
	set(&c.Bedrock.Region, EnvAWSRegion)
	set(&c.Bedrock.ModelID, EnvBedrockModel)
	set(&c.Encoder.URL, EnvEncoderURL)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Bedrock.Region == "" {
		c.Bedrock.Region = bedrock.DefaultRegion
	}
}

// Validate performs strict sanity checks on the configuration.
// Missing credentials are not an error here: nodes report them per call.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}

	for name, raw := range map[string]string{
		"openai.base_url":  c.OpenAI.BaseURL,
		"azure.endpoint":   c.Azure.Endpoint,
		"bedrock.endpoint": c.Bedrock.Endpoint,
		"encoder.url":      c.Encoder.URL,
	} {
		if err := validateURL(name, raw); err != nil {
			return err
		}
	}

	if c.Azure.Endpoint != "" && strings.TrimSpace(c.Azure.Deployment) == "" {
		return errors.New("azure.deployment must be provided with azure.endpoint")
	}

	for name, d := range map[string]time.Duration{
		"openai.timeout":                    c.OpenAI.Timeout,
		"azure.timeout":                     c.Azure.Timeout,
		"bedrock.timeout":                   c.Bedrock.Timeout,
		"encoder.timeout":                   c.Encoder.Timeout,
		"pipeline.timeout":                  c.Pipeline.Timeout,
		"pipeline.circuit_breaker.recovery": c.Pipeline.CircuitBreaker.Recovery,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", name, d)
		}
	}

	cb := c.Pipeline.CircuitBreaker
	if cb.Failures < 0 {
		return fmt.Errorf("pipeline.circuit_breaker.failures must not be negative, got %d", cb.Failures)
	}
	if cb.Failures > 0 && cb.Recovery == 0 {
		return errors.New("pipeline.circuit_breaker.recovery must be set when failures is set")
	}

	rl := c.Pipeline.RateLimit
	if rl.RPS < 0 || rl.Burst < 0 {
		return errors.New("pipeline.rate_limit values must not be negative")
	}
	if rl.RPS > 0 && rl.Burst == 0 {
		return errors.New("pipeline.rate_limit.burst must be set when rps is set")
	}

	return nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL, got %q", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", name, raw)
	}
	return nil
}

// OpenAIProvider returns the chat provider configuration.
func (c Config) OpenAIProvider() openai.Config {
	return openai.Config{
		APIKey:  c.OpenAI.APIKey,
		Model:   c.OpenAI.Model,
		BaseURL: c.OpenAI.BaseURL,
		Timeout: c.OpenAI.Timeout,
	}
}

// AzureProvider returns the Azure OpenAI provider configuration.
func (c Config) AzureProvider() azure.Config {
	return azure.Config{
		APIKey:     c.Azure.APIKey,
		Endpoint:   c.Azure.Endpoint,
		Deployment: c.Azure.Deployment,
		APIVersion: c.Azure.APIVersion,
		Timeout:    c.Azure.Timeout,
	}
}

// BedrockProvider returns the Bedrock provider configuration.
func (c Config) BedrockProvider() bedrock.Config {
	return bedrock.Config{
		Region:       c.Bedrock.Region,
		AccessKey:    c.Bedrock.AccessKey,
		SecretKey:    c.Bedrock.SecretKey,
		SessionToken: c.Bedrock.SessionToken,
		Model:        c.Bedrock.ModelID,
		Endpoint:     c.Bedrock.Endpoint,
		Timeout:      c.Bedrock.Timeout,
	}
}

// Options translates the pipeline section into enhancer options.
// The rate limit sits outside the circuit breaker, which sits outside the timeout.
func (c Config) Options() []enhancer.Option {
	var opts []enhancer.Option
	p := c.Pipeline
	if p.Timeout > 0 {
		opts = append(opts, enhancer.WithTimeout(p.Timeout))
	}
	if p.CircuitBreaker.Failures > 0 {
		opts = append(opts, enhancer.WithCircuitBreaker(p.CircuitBreaker.Failures, p.CircuitBreaker.Recovery))
	}
	if p.RateLimit.RPS > 0 {
		opts = append(opts, enhancer.WithRateLimit(p.RateLimit.RPS, p.RateLimit.Burst))
	}
	if p.Debug {
		opts = append(opts, enhancer.WithDebug())
	}
	return opts
}
