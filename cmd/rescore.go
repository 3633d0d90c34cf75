package main

import (
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobmatch/internal/repositories"
	"github.com/maxaizer/jobmatch/internal/services"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rescoreLimit int

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Score applications whose background scoring failed",
	Long: "Queues applications that were never scored and waits until the scoring service " +
		"has answered for each of them. Requests are authenticated with scoring.service_token.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, dbContext, cleanup := setup()
		defer cleanup()

		if cfg.Scoring.ServiceToken == "" {
			log.Warn("scoring.service_token is empty, requests will be sent without authorization")
		}

		applications := repositories.NewApplicationsRepository(dbContext.DB)
		jobs := repositories.NewJobsRepository(dbContext.DB)

		queue := services.NewScoringQueue(EventBus.New(), newScoringClient(cfg.Scoring), applications,
			cfg.Scoring.Workers, max(rescoreLimit, cfg.Scoring.QueueSize))

		submitted, err := services.NewBackfill(applications, jobs, queue).RescoreUnscored(cmd.Context(), rescoreLimit)
		queue.Stop()
		if err != nil {
			log.Fatalf("rescore failed: %v", err)
		}
		log.Infof("rescore finished, processed applications: %v", submitted)
	},
}

func init() {
	rescoreCmd.Flags().IntVar(&rescoreLimit, "limit", 100, "maximum number of applications to rescore")
}
