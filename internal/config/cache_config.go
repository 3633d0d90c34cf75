package config

import (
	"fmt"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"time"
)

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
	// Retention keeps stale entries around as a fallback when scoring is down.
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	CleanupSchedule string        `mapstructure:"cleanup_schedule"`
}

func (config CacheConfig) validate() error {
	if config.TTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	if config.Retention < config.TTL {
		return fmt.Errorf("retention %v must not be shorter than ttl %v", config.Retention, config.TTL)
	}
	if _, err := cron.ParseStandard(config.CleanupSchedule); err != nil {
		return fmt.Errorf("invalid cleanup_schedule: %w", err)
	}
	return nil
}

func (config CacheConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.retention", 24*time.Hour)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)
	v.SetDefault("cache.cleanup_schedule", "0 * * * *")
}

func (config CacheConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindAll(v, map[string]string{
		"cache.ttl":       "CACHE_TTL",
		"cache.retention": "CACHE_RETENTION",
	})
}
