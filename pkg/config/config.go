package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/metacore/nftup/internal/core/domain"
)

// Pinner backends
const (
	PinnerPinata = "pinata"
	PinnerCar    = "car"
)

// DefaultFileName is looked up in the working directory when --config is not given
const DefaultFileName = "nftup.yaml"

type PinataConfig struct {
	APIURL    string `yaml:"api_url"`
	APIKey    string `yaml:"api_key"`
	SecretKey string `yaml:"secret_key"`
	JWT       string `yaml:"jwt"`
	// CIDVersion requested from the API, 0 or 1
	CIDVersion int `yaml:"cid_version"`
}

type RetryConfig struct {
	MaxAttempts    int `yaml:"max_attempts"`
	InitialDelayMS int `yaml:"initial_delay_ms"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type CarConfig struct {
	OutputDir string `yaml:"output_dir"`
	Datastore string `yaml:"datastore"`
	ChunkSize int64  `yaml:"chunk_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // auto, console, json
}

type Config struct {
	Pinner    string `yaml:"pinner"`
	AssetsDir string `yaml:"assets_dir"`
	OutputDir string `yaml:"output_dir"`

	// Metadata
	MetadataFileSuffix string `yaml:"metadata_file_suffix"`
	CollectionName     string `yaml:"collection_name"`
	Description        string `yaml:"description"`
	GatewayURL         string `yaml:"gateway_url"`
	FSSync             bool   `yaml:"fs_sync"`

	Pinata PinataConfig `yaml:"pinata"`
	Retry  RetryConfig  `yaml:"retry"`
	Car    CarConfig    `yaml:"car"`
	Log    LogConfig    `yaml:"log"`
}

// DefaultConfig returns a Config struct with default values
func DefaultConfig() *Config {
	return &Config{
		Pinner:             PinnerPinata,
		AssetsDir:          "assets",
		OutputDir:          "output",
		MetadataFileSuffix: string(domain.DefaultSuffix),
		CollectionName:     domain.DefaultCollectionName,
		Description:        domain.DefaultDescription,
		GatewayURL:         "https://gateway.pinata.cloud/ipfs/",
		FSSync:             true,
		Pinata: PinataConfig{
			APIURL: "https://api.pinata.cloud",
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialDelayMS: 5000,
			TimeoutSeconds: 300,
		},
		Car: CarConfig{
			OutputDir: "output/car",
			ChunkSize: 256 << 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads configuration from the specified file path
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config (not an error)
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults restores essential values left blank in the file
func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Pinner == "" {
		c.Pinner = def.Pinner
	}
	if c.AssetsDir == "" {
		c.AssetsDir = def.AssetsDir
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.CollectionName == "" {
		c.CollectionName = def.CollectionName
	}
	if c.Description == "" {
		c.Description = def.Description
	}
	if c.GatewayURL == "" {
		c.GatewayURL = def.GatewayURL
	}
	if c.Pinata.APIURL == "" {
		c.Pinata.APIURL = def.Pinata.APIURL
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if c.Retry.InitialDelayMS <= 0 {
		c.Retry.InitialDelayMS = def.Retry.InitialDelayMS
	}
	if c.Retry.TimeoutSeconds <= 0 {
		c.Retry.TimeoutSeconds = def.Retry.TimeoutSeconds
	}
	if c.Car.OutputDir == "" {
		c.Car.OutputDir = def.Car.OutputDir
	}
	if c.Car.ChunkSize <= 0 {
		c.Car.ChunkSize = def.Car.ChunkSize
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}

// envBindings maps environment variables onto config fields
func (c *Config) envBindings() map[string]*string {
	return map[string]*string{
		"PINATA_API_KEY":       &c.Pinata.APIKey,
		"PINATA_SECRET_KEY":    &c.Pinata.SecretKey,
		"PINATA_JWT":           &c.Pinata.JWT,
		"METADATA_FILE_SUFFIX": &c.MetadataFileSuffix,
		"NFTUP_PINNER":         &c.Pinner,
		"NFTUP_LOG_LEVEL":      &c.Log.Level,
	}
}

// ApplyEnv overlays environment variables, reading envFile first if it
// exists. Process environment wins over the file.
func (c *Config) ApplyEnv(envFile string) error {
	v := viper.New()
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read env file: %w", err)
			}
		}
	}

	for key, dst := range c.envBindings() {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	return nil
}

// Validate checks values that have no safe fallback
func (c *Config) Validate() error {
	switch c.Pinner {
	case PinnerPinata, PinnerCar:
	default:
		return fmt.Errorf("unknown pinner %q (expected %s or %s)", c.Pinner, PinnerPinata, PinnerCar)
	}
	return nil
}

// Resolve returns the metadata suffix to use for this run. An unsupported
// value falls back to the default and yields a warning instead of an error.
func (c *Config) Resolve() (domain.Suffix, []string) {
	var warnings []string

	suffix, err := domain.ParseSuffix(c.MetadataFileSuffix)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("%v, falling back to %q", err, domain.DefaultSuffix))
	}
	return suffix, warnings
}

// Collection returns the configured collection identity
func (c *Config) Collection() domain.Collection {
	return domain.Collection{Name: c.CollectionName, Description: c.Description}
}

// Masked returns a copy safe to print
func (c *Config) Masked() *Config {
	out := *c
	out.Pinata.APIKey = mask(c.Pinata.APIKey)
	out.Pinata.SecretKey = mask(c.Pinata.SecretKey)
	out.Pinata.JWT = mask(c.Pinata.JWT)
	return &out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// Marshal renders the config as YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Save persists the current configuration to the specified file path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// HasPinataCredentials reports whether enough credentials are set to call the API
func (c *Config) HasPinataCredentials() bool {
	return strings.TrimSpace(c.Pinata.JWT) != "" ||
		(strings.TrimSpace(c.Pinata.APIKey) != "" && strings.TrimSpace(c.Pinata.SecretKey) != "")
}
