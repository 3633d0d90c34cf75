package config

import (
	"fmt"
	"github.com/spf13/viper"
)

type NotifierConfig struct {
	TelegramToken string `mapstructure:"telegram_token"`
	ChatID        int64  `mapstructure:"chat_id"`
}

func (config NotifierConfig) Enabled() bool {
	return config.TelegramToken != ""
}

func (config NotifierConfig) validate() error {
	if config.Enabled() && config.ChatID == 0 {
		return fmt.Errorf("missing variable: chat_id is required when telegram_token is set")
	}
	return nil
}

func (config NotifierConfig) setDefaults(_ *viper.Viper) {}

func (config NotifierConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindAll(v, map[string]string{
		"notifier.telegram_token": "TELEGRAM_TOKEN",
		"notifier.chat_id":        "TELEGRAM_CHAT_ID",
	})
}
