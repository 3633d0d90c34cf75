package services

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobmatch/internal/clients/scoring"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/maxaizer/jobmatch/internal/events"
	"github.com/maxaizer/jobmatch/internal/logger"
	"github.com/maxaizer/jobmatch/internal/metrics"
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

type singleScorer interface {
	ScoreOne(ctx context.Context, candidateID string, job entities.JobDescriptor) (entities.MatchScore, error)
}

type scoreWriter interface {
	UpdateMatchScore(ctx context.Context, id string, score int, scoredAt time.Time) error
}

// ScoringTask asks for one application to be scored in the background. Token is the
// applicant's bearer token; when empty the scoring client falls back to its service token.
type ScoringTask struct {
	ApplicationID string
	CandidateID   string
	Job           entities.Job
	Token         string
}

// ScoringQueue scores applications out of band with a fixed pool of workers. Every task
// gets a single attempt; failures leave the stored score at 0.
type ScoringQueue struct {
	bus          EventBus.Bus
	scorer       singleScorer
	applications scoreWriter
	tasks        chan ScoringTask
	mu           sync.RWMutex
	stopped      bool
	wg           sync.WaitGroup
}

func NewScoringQueue(bus EventBus.Bus, scorer singleScorer, applications scoreWriter, workers, size int) *ScoringQueue {

	q := &ScoringQueue{
		bus:          bus,
		scorer:       scorer,
		applications: applications,
		tasks:        make(chan ScoringTask, max(size, 1)),
	}

	workers = max(workers, 1)
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}

	log.Infof("scoring queue started, workers: %d, capacity: %d", workers, cap(q.tasks))
	return q
}

// Submit enqueues the task without blocking. It reports false when the task was dropped
// because the queue is full or stopped.
func (q *ScoringQueue) Submit(task ScoringTask) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stopped {
		log.Warnf("scoring queue is stopped, application %v will stay unscored", task.ApplicationID)
		metrics.BackgroundTasks.WithLabelValues("dropped").Inc()
		return false
	}

	select {
	case q.tasks <- task:
		return true
	default:
		log.Warnf("scoring queue is full, application %v will stay unscored", task.ApplicationID)
		metrics.BackgroundTasks.WithLabelValues("dropped").Inc()
		return false
	}
}

// Stop rejects new tasks, lets the workers finish the queued ones and waits for them.
func (q *ScoringQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.tasks)
	q.mu.Unlock()

	q.wg.Wait()
	log.Info("scoring queue stopped")
}

func (q *ScoringQueue) work() {
	defer q.wg.Done()
	for task := range q.tasks {
		q.process(task)
	}
}

func (q *ScoringQueue) process(task ScoringTask) {

	ctx := scoring.ContextWithToken(context.Background(), task.Token)
	event := events.ApplicationScored{
		ApplicationID: task.ApplicationID,
		CandidateID:   task.CandidateID,
		JobID:         task.Job.ID,
		JobTitle:      task.Job.Title,
		Score:         entities.NoScore(),
	}

	score, err := q.scorer.ScoreOne(ctx, task.CandidateID, entities.DescriptorOf(task.Job))
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeScoringApi).
			Errorf("failed to score application %v: %v", task.ApplicationID, err)
		metrics.BackgroundTasks.WithLabelValues("failed").Inc()
		q.bus.Publish(events.ApplicationScoredTopic, event)
		return
	}

	score = score.OrZero()
	if err = q.applications.UpdateMatchScore(ctx, task.ApplicationID, score.Value(), time.Now()); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to save score of application %v: %v", task.ApplicationID, err)
		metrics.BackgroundTasks.WithLabelValues("failed").Inc()
		q.bus.Publish(events.ApplicationScoredTopic, event)
		return
	}

	log.Debugf("application %v scored: %v", task.ApplicationID, score.Value())
	metrics.BackgroundTasks.WithLabelValues("scored").Inc()
	event.Score = score
	q.bus.Publish(events.ApplicationScoredTopic, event)
}
