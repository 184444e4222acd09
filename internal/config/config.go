package config

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"

	"github.com/zep-us/workerhttpd/pkg/logger"
)

// Config holds the implementation-defined knobs left open by design. The
// network endpoint itself (127.0.0.1:8000) is fixed and carries no
// configuration surface; everything here governs the worker pool, the
// framing limits, the templates root, and the metrics admin listener.
type Config struct {
	WorkerPoolSize   int    `mapstructure:"worker_pool_size"`
	MaxLineBytes     int    `mapstructure:"max_request_line_bytes"`
	TemplatesRoot    string `mapstructure:"templates_root"`
	Debug            bool   `mapstructure:"debug"`
	MetricsAdminPort int    `mapstructure:"metrics_admin_port"`
}

// Load reads configuration from config.toml: defaults registered up front,
// a typed struct populated via viper.Unmarshal, then validation.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("worker_pool_size", 2*runtime.NumCPU())
	viper.SetDefault("max_request_line_bytes", 8192)
	viper.SetDefault("templates_root", "templates")
	viper.SetDefault("debug", false)
	viper.SetDefault("metrics_admin_port", 9000)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
		logger.Warn("No config.toml found, using defaults")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.WorkerPoolSize <= 0 {
		logger.Warn("worker_pool_size <= 0 (%d), defaulting to %d", cfg.WorkerPoolSize, 2*runtime.NumCPU())
		cfg.WorkerPoolSize = 2 * runtime.NumCPU()
	}
	if cfg.MaxLineBytes <= 0 {
		logger.Warn("max_request_line_bytes <= 0 (%d), defaulting to 8192", cfg.MaxLineBytes)
		cfg.MaxLineBytes = 8192
	}
	if cfg.TemplatesRoot == "" {
		cfg.TemplatesRoot = "templates"
	}

	logger.Info("Configuration loaded successfully from %s", configSource())
	logger.Info("  worker_pool_size: %d", cfg.WorkerPoolSize)
	logger.Info("  max_request_line_bytes: %d", cfg.MaxLineBytes)
	logger.Info("  templates_root: %s", cfg.TemplatesRoot)
	logger.Info("  debug: %v", cfg.Debug)
	logger.Info("  metrics_admin_port: %d", cfg.MetricsAdminPort)

	return &cfg, nil
}

func configSource() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return "(defaults, no config.toml found)"
}
