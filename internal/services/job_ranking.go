package services

import (
	"context"
	"github.com/maxaizer/jobmatch/internal/cache"
	"github.com/maxaizer/jobmatch/internal/clients/scoring"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/maxaizer/jobmatch/internal/logger"
	"github.com/maxaizer/jobmatch/internal/metrics"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"sort"
	"time"
)

type jobLister interface {
	List(ctx context.Context) ([]entities.Job, error)
}

type profileReader interface {
	Get(ctx context.Context, candidateID string) (*entities.Profile, error)
}

type batchScorer interface {
	ScoreBatch(ctx context.Context, candidateID string, jobs []entities.JobDescriptor) (map[string]entities.MatchScore, error)
}

type scoreCache interface {
	Get(ctx context.Context, candidateID string) (cache.Entry, bool)
	IsFresh(entry cache.Entry) bool
	Put(ctx context.Context, candidateID string, generation uint64, scores map[string]int) error
}

type ScoredJob struct {
	entities.Job
	MatchScore entities.MatchScore `json:"matchScore"`
}

type JobRanking struct {
	jobs          jobLister
	profiles      profileReader
	scorer        batchScorer
	cache         scoreCache
	batchAttempts int
	retryDelay    time.Duration
}

func NewJobRanking(jobs jobLister, profiles profileReader, scorer batchScorer, cache scoreCache) *JobRanking {
	return &JobRanking{
		jobs:          jobs,
		profiles:      profiles,
		scorer:        scorer,
		cache:         cache,
		batchAttempts: 1,
	}
}

// SetRetry enables retrying transient batch failures. One attempt means no retry.
func (r *JobRanking) SetRetry(attempts int, delay time.Duration) {
	r.batchAttempts = max(attempts, 1)
	r.retryDelay = delay
}

// RankJobs lists every job with the candidate's match score, best matches first. Scores
// the cache cannot answer are fetched in a single batch call; if that call fails the
// retained cache entry is used even when stale.
func (r *JobRanking) RankJobs(ctx context.Context, candidateID string) ([]ScoredJob, error) {

	start := time.Now()
	defer func() { metrics.RankingDuration.Observe(time.Since(start).Seconds()) }()

	jobs, err := r.jobs.List(ctx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to list jobs: %v", err)
		return nil, errors.Wrap(err, "list jobs")
	}

	result := lo.Map(jobs, func(job entities.Job, _ int) ScoredJob {
		return ScoredJob{Job: job, MatchScore: entities.NoScore()}
	})

	profile, err := r.profiles.Get(ctx, candidateID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get profile of %v: %v", candidateID, err)
		return nil, errors.Wrap(err, "get profile")
	}
	if profile == nil {
		return result, nil
	}

	entry, cached := r.cache.Get(ctx, candidateID)
	fresh := cached && r.cache.IsFresh(entry)

	var needsScoring []entities.JobDescriptor
	for i := range result {
		if fresh {
			if score, ok := entry.ScoreOf(result[i].ID); ok {
				result[i].MatchScore = score
				continue
			}
		}
		needsScoring = append(needsScoring, entities.DescriptorOf(result[i].Job))
	}

	if len(needsScoring) > 0 {
		scores, err := r.scoreBatch(ctx, candidateID, needsScoring)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeScoringApi).
				Errorf("batch scoring failed for candidate %v, serving cached scores: %v", candidateID, err)
			metrics.RankingFallbacks.Inc()
			if cached {
				fillFromEntry(result, entry)
			}
			sortByScore(result)
			return result, nil
		}
		r.applyScores(ctx, candidateID, entry.Generation, result, needsScoring, scores)
	}

	sortByScore(result)
	return result, nil
}

func (r *JobRanking) scoreBatch(ctx context.Context, candidateID string,
	jobs []entities.JobDescriptor) (map[string]entities.MatchScore, error) {

	var scores map[string]entities.MatchScore
	var err error

	_, _, _ = lo.AttemptWhileWithDelay(r.batchAttempts, r.retryDelay, func(i int, _ time.Duration) (error, bool) {
		if i > 0 {
			log.Warnf("retrying batch scoring for candidate %v, attempt %v: %v", candidateID, i+1, err)
		}
		scores, err = r.scorer.ScoreBatch(ctx, candidateID, jobs)
		return err, scoring.IsTransient(err)
	})

	return scores, err
}

func (r *JobRanking) applyScores(ctx context.Context, candidateID string, generation uint64, result []ScoredJob,
	scored []entities.JobDescriptor, scores map[string]entities.MatchScore) {

	toCache := make(map[string]int, len(scored))
	for _, job := range scored {
		score, ok := scores[job.JobID]
		if !ok {
			log.Warnf("scoring service returned no score for job %v, candidate %v", job.JobID, candidateID)
			score = entities.Score(0)
		}
		toCache[job.JobID] = score.Value()
	}

	for i := range result {
		if value, ok := toCache[result[i].ID]; ok {
			result[i].MatchScore = entities.Score(value)
		}
	}

	err := r.cache.Put(ctx, candidateID, generation, toCache)
	if errors.Is(err, cache.ErrInvalidated) {
		log.Debugf("profile of candidate %v changed during scoring, scores not cached", candidateID)
		return
	}
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeCache).
			Errorf("failed to cache scores of candidate %v: %v", candidateID, err)
	}
}

func fillFromEntry(result []ScoredJob, entry cache.Entry) {
	for i := range result {
		if result[i].MatchScore.Known() {
			continue
		}
		if score, ok := entry.ScoreOf(result[i].ID); ok {
			result[i].MatchScore = score
		}
	}
}

func sortByScore(jobs []ScoredJob) {
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[j].MatchScore.Less(jobs[i].MatchScore)
	})
}
