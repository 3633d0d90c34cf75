package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"time"
)

type ScoringConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// ServiceToken is forwarded when no caller token is available (backfill runs).
	ServiceToken         string        `mapstructure:"service_token"`
	SingleTimeout        time.Duration `mapstructure:"single_timeout" validate:"gt=0"`
	BatchTimeout         time.Duration `mapstructure:"batch_timeout" validate:"gt=0"`
	BatchAttempts        int           `mapstructure:"batch_attempts" validate:"gte=1,lte=5"`
	RetryDelay           time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
	MaxRequestsPerSecond float32       `mapstructure:"max_requests_per_second" validate:"gte=0"`
	Workers              int           `mapstructure:"workers" validate:"gte=1"`
	QueueSize            int           `mapstructure:"queue_size" validate:"gte=1"`
}

func (config ScoringConfig) validate() error {
	return validator.New().Struct(config)
}

func (config ScoringConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("scoring.single_timeout", 30*time.Second)
	v.SetDefault("scoring.batch_timeout", 60*time.Second)
	v.SetDefault("scoring.batch_attempts", 1)
	v.SetDefault("scoring.retry_delay", 500*time.Millisecond)
	v.SetDefault("scoring.workers", 4)
	v.SetDefault("scoring.queue_size", 256)
}

func (config ScoringConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindAll(v, map[string]string{
		"scoring.base_url":                "SCORING_BASE_URL",
		"scoring.service_token":           "SCORING_SERVICE_TOKEN",
		"scoring.max_requests_per_second": "SCORING_MAX_REQUESTS_PER_SECOND",
	})
}
