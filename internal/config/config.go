package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for modelsync.
type Config struct {
	CatalogPath  string       `mapstructure:"catalog_path"`
	CacheDir     string       `mapstructure:"cache_dir"`
	CacheTTL     string       `mapstructure:"cache_ttl"`
	NoCache      bool         `mapstructure:"no_cache"`
	RateLimit    float64      `mapstructure:"rate_limit"`
	Providers    []string     `mapstructure:"providers"`
	ProfilesFile string       `mapstructure:"profiles_file"`
	DryRun       bool         `mapstructure:"dry_run"`
	NewOnly      bool         `mapstructure:"new_only"`
	OpenPR       bool         `mapstructure:"open_pr"`
	GitHub       GitHubConfig `mapstructure:"github"`
	LogLevel     string       `mapstructure:"log_level"`
	LogFormat    string       `mapstructure:"log_format"`
}

// GitHubConfig holds GitHub-related settings.
type GitHubConfig struct {
	Token      string `mapstructure:"token"`
	Owner      string `mapstructure:"owner"`
	Repo       string `mapstructure:"repo"`
	BaseBranch string `mapstructure:"base_branch"`
}

// envFiles are loaded in order; variables already set are not overridden.
var envFiles = []string{".env", ".env.local"}

// Load reads configuration from .env files, the config file, environment,
// and defaults.
func Load(cfgFile string) (*Config, error) {
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()

	// Defaults
	v.SetDefault("catalog_path", ".")
	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("no_cache", false)
	v.SetDefault("rate_limit", 10.0)
	v.SetDefault("providers", []string{})
	v.SetDefault("profiles_file", "")
	v.SetDefault("dry_run", false)
	v.SetDefault("new_only", false)
	v.SetDefault("open_pr", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("github.base_branch", "main")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/modelsync")
	}

	// Environment variables
	v.SetEnvPrefix("MODELSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("github.token", "MODELSYNC_GITHUB_TOKEN", "GITHUB_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Comma-separated lists arrive as a single element from the environment.
	cfg.Providers = splitList(cfg.Providers)

	// Resolve catalog path to absolute
	if !filepath.IsAbs(cfg.CatalogPath) {
		abs, err := filepath.Abs(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("resolving catalog path: %w", err)
		}
		cfg.CatalogPath = abs
	}

	return &cfg, nil
}

func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "modelsync-cache")
	}
	return filepath.Join(home, ".cache", "modelsync")
}
