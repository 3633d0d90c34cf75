package config

import (
	"errors"
	"fmt"
	"github.com/spf13/viper"
	"net/url"
)

type logLevel string

const (
	LevelInfo    logLevel = "INFO"
	LevelDebug   logLevel = "DEBUG"
	LevelWarning logLevel = "WARNING"
	LevelError   logLevel = "ERROR"
	LevelFatal   logLevel = "FATAL"
)

type LoggerConfig struct {
	LogLevel   logLevel `mapstructure:"log_level"`
	JSON       bool     `mapstructure:"json"`
	OutputFile string   `mapstructure:"output_file"`

	// Loki shipping is enabled when LokiURL is set.
	AppName      string `mapstructure:"app_name"`
	LokiURL      string `mapstructure:"loki_url"`
	LokiUser     string `mapstructure:"loki_user"`
	LokiPassword string `mapstructure:"loki_password"`
}

func (config LoggerConfig) validate() error {
	var errs []error

	switch config.LogLevel {
	case LevelInfo, LevelDebug, LevelWarning, LevelError, LevelFatal:
	case "":
		errs = append(errs, fmt.Errorf("missing variable: log_level"))
	default:
		errs = append(errs, fmt.Errorf("unknown log_level: %v", config.LogLevel))
	}

	if config.LokiURL != "" {
		if _, err := url.ParseRequestURI(config.LokiURL); err != nil {
			errs = append(errs, fmt.Errorf("invalid loki_url: %w", err))
		}
		if config.AppName == "" {
			errs = append(errs, fmt.Errorf("missing variable: app_name (required with loki_url)"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config LoggerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("logger.log_level", string(LevelInfo))
	v.SetDefault("logger.app_name", "jobmatch")
}

func (config LoggerConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindAll(v, map[string]string{
		"logger.log_level":     "LOG_LEVEL",
		"logger.json":          "LOG_JSON",
		"logger.output_file":   "LOG_OUTPUT_FILE",
		"logger.app_name":      "APP_NAME",
		"logger.loki_url":      "LOKI_URL",
		"logger.loki_user":     "LOKI_USER",
		"logger.loki_password": "LOKI_PASSWORD",
	})
}
