// Package config loads MPIE configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is consulted when no config file is given explicitly.
const DefaultPath = "mpie.yaml"

// Config holds all runtime settings.
type Config struct {
	ModelRepo    string `yaml:"model_repo"`    // hub repo holding the analyzer
	CacheDir     string `yaml:"cache_dir"`     // local snapshot cache
	AnalyzerPath string `yaml:"analyzer_path"` // analyzer path relative to the snapshot
	Interpreter  string `yaml:"interpreter"`   // interpreter to run the analyzer with
	Listen       string `yaml:"listen"`        // dashboard listen address
	AuthDomain   string `yaml:"auth_domain"`   // JWKS issuer; empty disables auth
	AuthAudience string `yaml:"auth_audience"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ModelRepo:    "rahuljishu/mpie_iitj",
		CacheDir:     "hf_cache",
		AnalyzerPath: "analyze.py",
		Interpreter:  "python3",
		Listen:       "127.0.0.1:8080",
	}
}

// Load reads configuration from path, falling back to DefaultPath when path
// is empty and that file exists. Environment variables override file values.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// fall through to defaults
	default:
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ModelRepo = getEnv("MPIE_MODEL_REPO", cfg.ModelRepo)
	cfg.CacheDir = getEnv("MPIE_CACHE_DIR", cfg.CacheDir)
	cfg.AnalyzerPath = getEnv("MPIE_ANALYZER", cfg.AnalyzerPath)
	cfg.Interpreter = getEnv("MPIE_INTERPRETER", cfg.Interpreter)
	cfg.Listen = getEnv("MPIE_LISTEN", cfg.Listen)
	cfg.AuthDomain = getEnv("MPIE_AUTH_DOMAIN", cfg.AuthDomain)
	cfg.AuthAudience = getEnv("MPIE_AUTH_AUDIENCE", cfg.AuthAudience)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
