package logger

import (
	"context"
	"github.com/maxaizer/jobmatch/internal/config"
	"github.com/maxaizer/jobmatch/pkg/loki"
	log "github.com/sirupsen/logrus"
	"io"
	"os"
	"path/filepath"
)

const ErrorTypeField = "error_type"

const (
	ErrorTypeDb         = "db"
	ErrorTypeScoringApi = "scoring_api"
	ErrorTypeCache      = "cache"
	ErrorTypeNotifier   = "notifier"
)

var (
	logFile    *os.File
	lokiPusher *loki.Pusher
)

func Setup(cfg config.LoggerConfig) {

	var writers = []io.Writer{os.Stdout}

	if cfg.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0755); err != nil {
			log.Fatalf("Failed to create log directory: %v", err)
		}

		var err error
		logFile, err = os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		writers = append(writers, logFile)
	}

	log.SetOutput(io.MultiWriter(writers...))

	if cfg.JSON {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000 -0700"})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000 -0700",
		})
	}

	addPrometheusHook()

	level := log.InfoLevel
	switch cfg.LogLevel {
	case config.LevelDebug:
		level = log.DebugLevel
	case config.LevelWarning:
		level = log.WarnLevel
	case config.LevelError:
		level = log.ErrorLevel
	case config.LevelFatal:
		level = log.FatalLevel
	}
	log.SetLevel(level)

	if cfg.LokiURL != "" && lokiPusher == nil {
		var err error
		lokiPusher, err = addLokiHook(context.Background(), loki.Config{
			Url:      cfg.LokiURL,
			Labels:   map[string]string{"app": cfg.AppName},
			Username: cfg.LokiUser,
			Password: cfg.LokiPassword,
		}, level)
		if err != nil {
			log.Errorf("Failed to enable Loki logging: %v", err)
		}
	}
}

func Cleanup() {
	if lokiPusher != nil {
		lokiPusher.Stop()
		lokiPusher = nil
	}
	if logFile != nil {
		_ = logFile.Close()
	}
}
