package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "PLACES"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultDatabasePath = "places.db"
	defaultSessionPath  = "places.session.json"
	defaultLogLevel     = "info"
)

// AppConfig captures runtime configuration for the data-layer server.
type AppConfig struct {
	HTTPAddress  string
	DatabasePath string
	SessionPath  string
	LogLevel     string
	SeedSample   bool
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("session.path", defaultSessionPath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("seed.sample_data", false)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:  configViper.GetString("http.address"),
		DatabasePath: configViper.GetString("database.path"),
		SessionPath:  configViper.GetString("session.path"),
		LogLevel:     configViper.GetString("log.level"),
		SeedSample:   configViper.GetBool("seed.sample_data"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.SessionPath) == "" {
		return fmt.Errorf("session.path is required")
	}
	return nil
}
