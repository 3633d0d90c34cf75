package main

import (
	"github.com/maxaizer/jobmatch/internal/config"
	"github.com/maxaizer/jobmatch/internal/logger"
	"github.com/maxaizer/jobmatch/internal/repositories"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const app = "jobmatch"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobmatch ranks jobs for candidates and scores their applications",
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"a config file (default is $CONFIG_PATH or ./configs/config.yaml)")

	rootCmd.AddCommand(serveCmd, migrateCmd, rescoreCmd)
}

// setup loads the configuration, configures logging and opens the migrated database.
// The returned func releases everything setup acquired.
func setup() (*config.Config, *repositories.DbContext, func()) {

	cfg := config.Get(cfgFile)
	logger.Setup(cfg.Logger)

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}

	if err = dbContext.Migrate(); err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	return cfg, dbContext, func() {
		if err := dbContext.Close(); err != nil {
			log.Errorf("can't close db: %v", err)
		}
		logger.Cleanup()
	}
}
