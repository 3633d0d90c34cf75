package main

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobmatch/internal/api"
	"github.com/maxaizer/jobmatch/internal/cache"
	"github.com/maxaizer/jobmatch/internal/clients/scoring"
	"github.com/maxaizer/jobmatch/internal/config"
	"github.com/maxaizer/jobmatch/internal/metrics"
	"github.com/maxaizer/jobmatch/internal/notify"
	"github.com/maxaizer/jobmatch/internal/repositories"
	"github.com/maxaizer/jobmatch/internal/services"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"os/signal"
	"syscall"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background scoring workers",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, dbContext, cleanup := setup()
		defer cleanup()

		serve(ctx, stop, cfg, dbContext)
	},
}

func newScoringClient(cfg config.ScoringConfig) *scoring.Client {
	client := scoring.NewClient(cfg.BaseURL)
	client.SetTimeouts(cfg.SingleTimeout, cfg.BatchTimeout)
	client.SetRateLimit(cfg.MaxRequestsPerSecond)
	client.SetServiceToken(cfg.ServiceToken)
	return client
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *config.Config, dbContext *repositories.DbContext) {

	metrics.StartMetricsServer(cfg.Metrics.Address)

	jobs := repositories.NewJobsRepository(dbContext.DB)
	applications := repositories.NewApplicationsRepository(dbContext.DB)
	profiles := repositories.NewProfilesRepository(dbContext.DB)
	data := repositories.NewDataRepository(dbContext.DB)

	bus := EventBus.New()

	scoreCache := cache.NewScoreCache(data, cache.SystemClock{}, cfg.Cache.TTL, cfg.Cache.Retention, cfg.Cache.CleanupInterval)
	if err := scoreCache.Subscribe(bus); err != nil {
		log.Fatalf("can't subscribe score cache: %v", err)
	}

	cleaner, err := services.NewCacheCleaner(data, cfg.Cache.Retention, cfg.Cache.CleanupSchedule)
	if err != nil {
		log.Fatalf("can't create cache cleaner: %v", err)
	}
	defer cleaner.Stop()

	if cfg.Notifier.Enabled() {
		notifier, err := notify.NewTelegramNotifier(cfg.Notifier.TelegramToken, cfg.Notifier.ChatID, bus)
		if err != nil {
			log.Fatalf("can't create notifier: %v", err)
		}
		defer notifier.Stop()
	}

	scoringClient := newScoringClient(cfg.Scoring)

	queue := services.NewScoringQueue(bus, scoringClient, applications, cfg.Scoring.Workers, cfg.Scoring.QueueSize)
	defer queue.Stop()

	ranking := services.NewJobRanking(jobs, profiles, scoringClient, scoreCache)
	ranking.SetRetry(cfg.Scoring.BatchAttempts, cfg.Scoring.RetryDelay)

	server, err := api.NewServer(cfg.Server, api.Services{
		Ranking:    ranking,
		Submission: services.NewApplicationSubmission(jobs, applications, queue),
		Profiles:   services.NewProfiles(bus, profiles),
		Review:     services.NewApplicationReview(applications, jobs),
		Search:     scoringClient,
	})
	if err != nil {
		log.Fatalf("can't create api server: %v", err)
	}

	go func() {
		if err := server.Run(); err != nil {
			log.Errorf("api server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down services...")
	if err = server.Shutdown(context.Background()); err != nil {
		log.Errorf("api server shutdown: %v", err)
	}
}
