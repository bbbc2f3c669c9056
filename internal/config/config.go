package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig describes how to reach the notification backend.
type ServerConfig struct {
	// BaseURL is the root URL of the REST API
	// (e.g., https://portal.example.com).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// PushPath is the websocket endpoint path for the push channel.
	PushPath string `mapstructure:"push_path" yaml:"push_path"`

	// TokenEnv names the environment variable checked for the API token
	// before falling back to the system keyring.
	TokenEnv string `mapstructure:"token_env" yaml:"token_env"`

	// ReconnectCeilingSec caps the push reconnect backoff interval.
	ReconnectCeilingSec int `mapstructure:"reconnect_ceiling_sec" yaml:"reconnect_ceiling_sec"`
}

// DisplayConfig holds UI preferences.
type DisplayConfig struct {
	// PanelLimit is the number of recent notifications shown in the
	// compact panel view.
	PanelLimit int `mapstructure:"panel_limit" yaml:"panel_limit"`

	// PageLimit is the page size for the full notifications view.
	PageLimit int `mapstructure:"page_limit" yaml:"page_limit"`

	// ToastSeconds is how long a new-notification toast stays visible.
	ToastSeconds int `mapstructure:"toast_seconds" yaml:"toast_seconds"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`

	// DatabasePath is where the local cache database lives.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	// LogPath is where the application log file is written. The terminal
	// itself is owned by the UI, so nothing logs to stdout.
	LogPath string `mapstructure:"log_path" yaml:"log_path"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/notifycenter/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "notifycenter", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".config", "notifycenter")
	return &AppConfig{
		Server: ServerConfig{
			PushPath:            "/ws/notifications",
			TokenEnv:            "NOTIFY_TOKEN",
			ReconnectCeilingSec: 30,
		},
		Display: DisplayConfig{
			PanelLimit:   5,
			PageLimit:    10,
			ToastSeconds: 5,
		},
		DatabasePath: filepath.Join(base, "cache.db"),
		LogPath:      filepath.Join(base, "notify-center.log"),
	}
}

// Load reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	def := defaultAppConfig()
	v.SetDefault("server.push_path", def.Server.PushPath)
	v.SetDefault("server.token_env", def.Server.TokenEnv)
	v.SetDefault("server.reconnect_ceiling_sec", def.Server.ReconnectCeilingSec)
	v.SetDefault("display.panel_limit", def.Display.PanelLimit)
	v.SetDefault("display.page_limit", def.Display.PageLimit)
	v.SetDefault("display.toast_seconds", def.Display.ToastSeconds)
	v.SetDefault("database_path", def.DatabasePath)
	v.SetDefault("log_path", def.LogPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the given configuration to a YAML file at path, creating
// parent directories if needed.
func Save(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("display", cfg.Display)
	v.Set("database_path", cfg.DatabasePath)
	v.Set("log_path", cfg.LogPath)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
