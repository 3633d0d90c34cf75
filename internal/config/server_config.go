package config

import (
	"fmt"
	"github.com/spf13/viper"
	"time"
)

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (config ServerConfig) validate() error {
	if config.Address == "" {
		return fmt.Errorf("missing variable: server address")
	}
	return nil
}

func (config ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

func (config ServerConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return v.BindEnv("server.address", "SERVER_ADDRESS")
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

func (config MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.address", ":9090")
}

func (config MetricsConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return v.BindEnv("metrics.address", "METRICS_ADDRESS")
}
