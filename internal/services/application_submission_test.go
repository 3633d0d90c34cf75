package services

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobmatch/internal/clients/scoring"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/maxaizer/jobmatch/internal/events"
	"github.com/maxaizer/jobmatch/internal/repositories"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"sync"
	"testing"
)

type submissionFixture struct {
	submission   *ApplicationSubmission
	queue        *ScoringQueue
	scorer       *mockScorer
	bus          EventBus.Bus
	jobs         *repositories.Jobs
	applications *repositories.Applications
}

func newTestDb(t *testing.T) *repositories.DbContext {
	t.Helper()
	dbCtx, err := repositories.NewDbContext(filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	require.NoError(t, dbCtx.Migrate())
	t.Cleanup(func() { _ = dbCtx.Close() })
	return dbCtx
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	dbCtx := newTestDb(t)
	f := &submissionFixture{
		scorer:       &mockScorer{},
		bus:          EventBus.New(),
		jobs:         repositories.NewJobsRepository(dbCtx.DB),
		applications: repositories.NewApplicationsRepository(dbCtx.DB),
	}
	f.queue = NewScoringQueue(f.bus, f.scorer, f.applications, 2, 16)
	f.submission = NewApplicationSubmission(f.jobs, f.applications, f.queue)

	require.NoError(t, f.jobs.Add(context.Background(), entities.Job{
		ID: "j1", Title: "Python developer", Company: "Acme", Role: "Backend",
		Description: "Python backend", Requirements: "Django", Salary: "100k", PostedBy: "a1",
	}))
	return f
}

var candidate = entities.Identity{UserID: "c1", Role: entities.RoleCandidate, Token: "user-token"}

func Test_Apply_ReturnsPendingAndScoresInBackground(t *testing.T) {
	f := newSubmissionFixture(t)

	var published []events.ApplicationScored
	var mu sync.Mutex
	require.NoError(t, f.bus.Subscribe(events.ApplicationScoredTopic, func(event events.ApplicationScored) {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, event)
	}))

	f.scorer.On("ScoreOne", mock.MatchedBy(func(ctx context.Context) bool {
		return scoring.TokenFromContext(ctx) == "user-token"
	}), "c1", mock.MatchedBy(func(job entities.JobDescriptor) bool {
		return job.JobID == "j1" && job.Description == "Python backend"
	})).Return(entities.Score(85), nil).Once()

	application, err := f.submission.Apply(context.Background(), candidate, "j1")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusPending, application.Status)
	assert.Equal(t, 0, application.MatchScore)
	assert.NotEmpty(t, application.ID)

	f.queue.Stop()

	stored, err := f.applications.GetByID(context.Background(), application.ID)
	require.NoError(t, err)
	assert.Equal(t, 85, stored.MatchScore)
	assert.NotNil(t, stored.ScoredAt)
	assert.Equal(t, entities.StatusPending, stored.Status)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, published, 1)
	assert.Equal(t, entities.Score(85), published[0].Score)
	assert.Equal(t, "Python developer", published[0].JobTitle)
}

func Test_Apply_ScoringFailureLeavesZero(t *testing.T) {
	f := newSubmissionFixture(t)
	f.scorer.On("ScoreOne", mock.Anything, "c1", mock.Anything).
		Return(entities.NoScore(), errors.Wrap(scoring.ErrUpstreamUnavailable, "connection refused")).Once()

	application, err := f.submission.Apply(context.Background(), candidate, "j1")
	require.NoError(t, err)

	f.queue.Stop()

	stored, err := f.applications.GetByID(context.Background(), application.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.MatchScore)
	assert.Nil(t, stored.ScoredAt)
	assert.False(t, stored.Score().Known())
	f.scorer.AssertNumberOfCalls(t, "ScoreOne", 1)
}

func Test_Apply_UnknownJob(t *testing.T) {
	f := newSubmissionFixture(t)
	defer f.queue.Stop()

	_, err := f.submission.Apply(context.Background(), candidate, "missing")
	assert.ErrorIs(t, err, entities.ErrJobNotFound)
	f.scorer.AssertNotCalled(t, "ScoreOne", mock.Anything, mock.Anything, mock.Anything)
}

func Test_Apply_SecondApplicationIsDuplicate(t *testing.T) {
	f := newSubmissionFixture(t)
	f.scorer.On("ScoreOne", mock.Anything, "c1", mock.Anything).Return(entities.Score(50), nil)

	_, err := f.submission.Apply(context.Background(), candidate, "j1")
	require.NoError(t, err)

	_, err = f.submission.Apply(context.Background(), candidate, "j1")
	assert.ErrorIs(t, err, entities.ErrDuplicateApplication)

	f.queue.Stop()
	f.scorer.AssertNumberOfCalls(t, "ScoreOne", 1)
}

func Test_Apply_ConcurrentApplicationsKeepOne(t *testing.T) {
	f := newSubmissionFixture(t)
	f.scorer.On("ScoreOne", mock.Anything, "c1", mock.Anything).Return(entities.Score(50), nil)

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.submission.Apply(context.Background(), candidate, "j1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)
	f.queue.Stop()

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, entities.ErrDuplicateApplication)
	}
	assert.Equal(t, 1, succeeded)

	mine, err := f.submission.ListMine(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func Test_ScoringQueue_DropsWhenStopped(t *testing.T) {
	f := newSubmissionFixture(t)
	f.queue.Stop()

	assert.False(t, f.queue.Submit(ScoringTask{ApplicationID: "a1", CandidateID: "c1"}))
	f.queue.Stop()
	f.scorer.AssertNotCalled(t, "ScoreOne", mock.Anything, mock.Anything, mock.Anything)
}
