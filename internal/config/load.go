package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. NETDIAG_PORT.
	EnvPrefix = "NETDIAG"
	// FileEnv names the variable holding the JSON config file path.
	FileEnv     = "NETDIAG_CONFIG"
	DefaultFile = "/config/netdiag.json"
)

// Load builds the configuration from defaults, the JSON config file, .env,
// the environment and finally command-line flags, each overriding the last.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	path, explicit := os.LookupEnv(FileEnv)
	if !explicit {
		path = DefaultFile
	}
	if err := loadFile(path, &cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return Config{}, err
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config env: %w", err)
	}

	cfg, err := ParseFlags(fs, args, cfg)
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadFile overlays the settings present in a JSON config file on cfg.
func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	var p Patch
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	*cfg = cfg.Apply(p)
	return nil
}
