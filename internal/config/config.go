package config

import (
	"errors"
	"fmt"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"os"
)

type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	DB       DBConfig       `mapstructure:"db"`
	Server   ServerConfig   `mapstructure:"server"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Notifier NotifierConfig `mapstructure:"notifier"`
}

const defaultConfigFile = "./configs/config.yaml"

type section interface {
	setDefaults(v *viper.Viper)
	bindEnvironmentVariables(v *viper.Viper) error
}

// Get loads the configuration or stops the process.
func Get(file string) *Config {
	config, err := Load(file)
	if err != nil {
		log.Fatal(err)
	}
	return config
}

// Load reads file (or CONFIG_PATH, or the default path) and applies environment overrides.
func Load(file string) (*Config, error) {

	if file == "" {
		if value, ok := os.LookupEnv("CONFIG_PATH"); ok {
			file = value
		} else {
			file = defaultConfigFile
		}
	}

	v := viper.New()
	v.SetConfigFile(file)

	if err := bindEnvironmentVariables(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", file, err)
	}

	config := Config{}
	err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, err
	}

	if err = config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func sections() map[string]section {
	return map[string]section{
		"LoggerConfig":   LoggerConfig{},
		"DBConfig":       DBConfig{},
		"ServerConfig":   ServerConfig{},
		"MetricsConfig":  MetricsConfig{},
		"ScoringConfig":  ScoringConfig{},
		"CacheConfig":    CacheConfig{},
		"NotifierConfig": NotifierConfig{},
	}
}

func bindEnvironmentVariables(v *viper.Viper) error {
	var errs []error

	for name, s := range sections() {
		s.setDefaults(v)
		if err := s.bindEnvironmentVariables(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func (config Config) validate() error {
	var errs []error

	if err := config.Logger.validate(); err != nil {
		errs = append(errs, fmt.Errorf("LoggerConfig: %w", err))
	}

	if err := config.DB.validate(); err != nil {
		errs = append(errs, fmt.Errorf("DBConfig: %w", err))
	}

	if err := config.Server.validate(); err != nil {
		errs = append(errs, fmt.Errorf("ServerConfig: %w", err))
	}

	if err := config.Scoring.validate(); err != nil {
		errs = append(errs, fmt.Errorf("ScoringConfig: %w", err))
	}

	if err := config.Cache.validate(); err != nil {
		errs = append(errs, fmt.Errorf("CacheConfig: %w", err))
	}

	if err := config.Notifier.validate(); err != nil {
		errs = append(errs, fmt.Errorf("NotifierConfig: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}

	return nil
}

func bindAll(v *viper.Viper, bindings map[string]string) error {
	var errs []error
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
