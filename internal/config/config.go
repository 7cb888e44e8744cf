package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for DocChat
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Stream  StreamConfig  `mapstructure:"stream"`
	CORS    CORSConfig    `mapstructure:"cors"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

// StorageConfig holds document storage configuration
type StorageConfig struct {
	PDFs string `mapstructure:"pdfs"`
}

// StreamConfig holds streaming delay configuration (milliseconds)
type StreamConfig struct {
	CharDelayMs     int `mapstructure:"char_delay_ms"`
	ToolDelayMinMs  int `mapstructure:"tool_delay_min_ms"`
	ToolDelayMaxMs  int `mapstructure:"tool_delay_max_ms"`
	ToolPauseMs     int `mapstructure:"tool_pause_ms"`
	UIDelayMs       int `mapstructure:"ui_delay_ms"`
	CitationDelayMs int `mapstructure:"citation_delay_ms"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("DOCCHAT")
	v.AutomaticEnv()

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.base_url", "http://localhost:8000")

	v.SetDefault("storage.pdfs", "./data/pdfs")

	v.SetDefault("stream.char_delay_ms", 20)
	v.SetDefault("stream.tool_delay_min_ms", 300)
	v.SetDefault("stream.tool_delay_max_ms", 600)
	v.SetDefault("stream.tool_pause_ms", 100)
	v.SetDefault("stream.ui_delay_ms", 300)
	v.SetDefault("stream.citation_delay_ms", 100)

	v.SetDefault("cors.allow_origins", []string{"*"})
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
