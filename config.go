package glyco

import (
	"errors"
	"fmt"
	"os"
	"path"
	"slices"

	"github.com/spf13/viper"
)

// BrowserPathConfig holds a user-supplied browser executable path for one OS.
type BrowserPathConfig struct {
	OS   string `mapstructure:"os"`   // OS for the given path
	Path string `mapstructure:"path"` // Custom browser path
}

// Config is the application configuration persisted as config.yaml in the
// config dir. The API key is never written to the yaml file; it comes from
// .env or the environment and lives only in memory.
type Config struct {
	viper         *viper.Viper
	ConfigDir     string              `mapstructure:"config_dir"`       // Current config dir
	DesktopOS     string              `mapstructure:"desktop_os"`       // Operating system identifier
	FirstRun      bool                `mapstructure:"first_run"`        // Whether this is the first launch
	Address       string              `mapstructure:"default_address"`  // Listen address for the web server
	Port          string              `mapstructure:"default_port"`     // Listen port for the web server
	Provider      string              `mapstructure:"provider"`         // Provider name: "openai" or "ollama"
	Model         string              `mapstructure:"model"`            // Model name for the primary provider
	FallbackModel string              `mapstructure:"fallback_model"`   // Model name for the Ollama fallback
	OpenBrowser   bool                `mapstructure:"open_browser"`     // Whether to open a browser on launch
	BrowserDirs   []BrowserPathConfig `mapstructure:"browser_dirs"`     // Custom browser executable paths
	APIKey        string              `mapstructure:"-" json:"-"`       // Provider credential, memory only
}

// SetModel updates the primary model name and persists the change.
func (cfg *Config) SetModel(model string) error {
	if model == "" {
		return errors.New("model cannot be empty")
	}
	cfg.Model = model
	cfg.viper.Set("model", model)
	if err := cfg.viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

// SetFirstRunDone clears the first_run flag and persists the change.
func (cfg *Config) SetFirstRunDone() error {
	cfg.FirstRun = false
	cfg.viper.Set("first_run", false)
	if err := cfg.viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return nil
}

func (cfg *Config) AddBrowserPath(browserPath, os string) error {
	switch os {
	case "darwin", "linux", "windows":
		cfg.BrowserDirs = append(cfg.BrowserDirs, BrowserPathConfig{OS: os, Path: browserPath})
		cfg.viper.Set("browser_dirs", cfg.BrowserDirs)
		if err := cfg.viper.WriteConfig(); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		if err := cfg.viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshalling config to struct : %w", err)
		}
	default:
		return errors.New("invalid os string")
	}
	return nil
}

func (cfg *Config) DeleteBrowserPath(browserPath, os string) error {
	entry := BrowserPathConfig{OS: os, Path: browserPath}
	cfg.BrowserDirs = slices.DeleteFunc(cfg.BrowserDirs, func(c BrowserPathConfig) bool {
		return c.OS == entry.OS && c.Path == entry.Path
	})
	cfg.viper.Set("browser_dirs", cfg.BrowserDirs)
	if err := cfg.viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	if err := cfg.viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshalling config to struct : %w", err)
	}
	return nil
}

// LoadAPIKey resolves the provider credential. The .env file in the config
// dir is read first (if present); the GLYCO_API_KEY environment variable
// takes precedence over it. An empty result is not an error here; whether
// a key is required depends on the configured provider.
func LoadAPIKey(configDir string) (string, error) {
	var key string

	envPath := path.Join(configDir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		env := viper.New()
		env.SetConfigFile(envPath)
		env.SetConfigType("env")
		if err := env.ReadInConfig(); err != nil {
			return "", fmt.Errorf("reading .env file : %w", err)
		}
		key = env.GetString("GLYCO_API_KEY")
		if key == "" {
			// Older templates used OPENAI_API_KEY
			key = env.GetString("OPENAI_API_KEY")
		}
	}

	if envKey := os.Getenv("GLYCO_API_KEY"); envKey != "" {
		key = envKey
	}

	return key, nil
}
