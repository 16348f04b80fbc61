// config.go: configuration for the Vocalis service. Defines the settings
// struct and functions to load and save the settings.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// MainSettings holds application identity and logging options.
type MainSettings struct {
	Name string // instance name, shown in notifications
	Log  LogConfig
}

// LogConfig is the configuration for service log files.
type LogConfig struct {
	Enabled bool   // true to enable file logging
	Path    string // directory for per-service log files
}

// ProviderSettings holds the OpenAI-compatible provider configuration used
// for both speech-to-text and text generation. An empty APIKey means no
// provider is configured and every stage degrades to its fallback.
type ProviderSettings struct {
	APIKey             string        `yaml:"apikey"`
	BaseURL            string        `yaml:"baseurl"`
	Model              string        // chat model for synthesis and fairness scoring
	TranscriptionModel string        `yaml:"transcriptionmodel"`
	Timeout            time.Duration // per-request timeout
	MaxRetries         int           `yaml:"maxretries"`
}

// Configured reports whether a provider can be constructed from the settings.
func (p *ProviderSettings) Configured() bool {
	return p.APIKey != ""
}

// FeedbackSettings configures pipeline behavior.
type FeedbackSettings struct {
	DefaultTone       string        `yaml:"defaulttone"`
	UndoWindow        time.Duration `yaml:"undowindow"`
	FairnessThreshold float64       `yaml:"fairnessthreshold"`
}

// SQLiteSettings configures the SQLite database.
type SQLiteSettings struct {
	Enabled bool
	Path    string
}

// OutputSettings wraps persistence configuration.
type OutputSettings struct {
	SQLite SQLiteSettings
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Host     string
	Port     string
	APIToken string `yaml:"apitoken"` // bearer token required on all API routes
}

// PushProviderConfig describes one notification delivery target.
type PushProviderConfig struct {
	Name    string
	Enabled bool
	URLs    []string
}

// NotificationSettings configures the publish notification dispatcher.
type NotificationSettings struct {
	Push struct {
		Enabled        bool
		Providers      []PushProviderConfig
		DefaultTimeout time.Duration `yaml:"defaulttimeout"`
	}
}

// Settings is the root configuration object injected into the pipeline and
// server constructors. Provider credentials live here, never in process
// globals.
type Settings struct {
	Debug bool

	Main         MainSettings
	Provider     ProviderSettings
	Feedback     FeedbackSettings
	Output       OutputSettings
	Server       ServerSettings
	Notification NotificationSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a Settings struct.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	// .env is optional, used for provider API keys in development
	_ = godotenv.Load()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("vocalis")
	viper.AutomaticEnv()

	// API key is commonly provided via environment only
	_ = viper.BindEnv("provider.apikey", "VOCALIS_PROVIDER_APIKEY", "OPENAI_API_KEY")

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config file is fine, defaults plus env carry the service
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the config file search paths: the current
// directory first, then the OS config directory.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "vocalis"))
	}
	return paths, nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveSettings writes the current settings to the given path as YAML.
func SaveSettings(settings *Settings, path string) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to yaml: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
