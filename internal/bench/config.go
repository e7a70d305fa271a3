package bench

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigInvalid      = errors.New("invalid config file")
	errUnknownHasher      = errors.New("unknown hasher")
	errInputRequired      = errors.New("input file is required")
)

// Hasher names accepted by Config.Hasher.
const (
	HasherBuiltin = "builtin"
	HasherXXHash  = "xxhash"
)

// Config holds all benchmark configuration.
type Config struct {
	Input         string `json:"input,omitempty"`
	Probe         string `json:"probe,omitempty"`
	Hasher        string `json:"hasher,omitempty"`
	MaxBucketSize int    `json:"max_bucket_size,omitempty"` //nolint:tagliatelle // snake_case for config file
	Presize       int    `json:"presize,omitempty"`
	JSONOut       string `json:"json_out,omitempty"` //nolint:tagliatelle // snake_case for config file
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Probe:         "ahhzz@yahoo.com",
		Hasher:        HasherBuiltin,
		MaxBucketSize: 10,
	}
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Config file via configPath (if non-empty, must exist)
// 3. CLI overrides.
func LoadConfig(configPath string, cliOverrides Config) (Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		fileCfg, err := loadConfigFile(configPath)
		if err != nil {
			return Config{}, err
		}

		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg = mergeConfig(cfg, cliOverrides)

	validateErr := validateConfig(cfg)
	if validateErr != nil {
		return Config{}, validateErr
	}

	return cfg, nil
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", errConfigFileNotFound, path)
		}

		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, parseErr)
	}

	return cfg, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Input != "" {
		base.Input = overlay.Input
	}

	if overlay.Probe != "" {
		base.Probe = overlay.Probe
	}

	if overlay.Hasher != "" {
		base.Hasher = overlay.Hasher
	}

	if overlay.MaxBucketSize > 0 {
		base.MaxBucketSize = overlay.MaxBucketSize
	}

	if overlay.Presize > 0 {
		base.Presize = overlay.Presize
	}

	if overlay.JSONOut != "" {
		base.JSONOut = overlay.JSONOut
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.Input == "" {
		return errInputRequired
	}

	switch cfg.Hasher {
	case HasherBuiltin, HasherXXHash:
	default:
		return fmt.Errorf("%w: %q", errUnknownHasher, cfg.Hasher)
	}

	return nil
}
