package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the root configuration.
type Config struct {
	General   GeneralConfig   `json:"general"`
	Server    ServerConfig    `json:"server"`
	Messenger MessengerConfig `json:"messenger"`
	Store     StoreConfig     `json:"store"`
	I18n      I18nConfig      `json:"i18n"`
	Menu      MenuConfig      `json:"menu"`
	Metrics   MetricsConfig   `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	LogFile  string `json:"logFile,omitempty"`
}

type ServerConfig struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	WebhookPath string `json:"webhookPath"`
}

// MessengerConfig holds page credentials. Secrets may come from the
// environment instead of the config file; env values win.
type MessengerConfig struct {
	AppSecret   string `json:"appSecret,omitempty" env:"PAGEBRIDGE_APP_SECRET"`
	AccessToken string `json:"accessToken,omitempty" env:"PAGEBRIDGE_ACCESS_TOKEN"`
	VerifyToken string `json:"verifyToken,omitempty" env:"PAGEBRIDGE_VERIFY_TOKEN"`
	PageID      string `json:"pageId,omitempty"`
	Greeting    string `json:"greeting,omitempty"`
	GraphURL    string `json:"graphUrl,omitempty"`
}

type StoreConfig struct {
	DBPath string `json:"dbPath"`
}

type I18nConfig struct {
	CatalogPath string `json:"catalogPath,omitempty"`
}

type MenuConfig struct {
	Path string `json:"path,omitempty"`
}

type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
}

// DefaultConfigDir returns the default config directory (~/.pagebridge).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pagebridge"
	}
	return filepath.Join(home, ".pagebridge")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads the config file at path, expands ${VAR} references, applies
// environment overrides for secrets, and validates the result.
func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	if err := env.Parse(&cfg.Messenger); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.Store.DBPath = ExpandPath(cfg.Store.DBPath)
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.I18n.CatalogPath = ExpandPath(cfg.I18n.CatalogPath)
	cfg.Menu.Path = ExpandPath(cfg.Menu.Path)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match
		}
		return val
	})
}

// Save writes the config as indented JSON, creating the directory if needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks that the config has usable values.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}
	if !strings.HasPrefix(cfg.Server.WebhookPath, "/") {
		errs = append(errs, "server.webhookPath must start with /")
	}
	if cfg.Messenger.VerifyToken == "" {
		errs = append(errs, "messenger.verifyToken is required")
	}
	if cfg.Messenger.AccessToken == "" {
		errs = append(errs, "messenger.accessToken is required")
	}
	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}
	if cfg.Store.DBPath == "" {
		errs = append(errs, "store.dbPath is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves a leading ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
