package services

import (
	"context"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/stretchr/testify/mock"
	"sync"
	"time"
)

type mockJobs struct {
	mock.Mock
}

func (m *mockJobs) List(ctx context.Context) ([]entities.Job, error) {
	args := m.Called(ctx)
	jobs, _ := args.Get(0).([]entities.Job)
	return jobs, args.Error(1)
}

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) Get(ctx context.Context, candidateID string) (*entities.Profile, error) {
	args := m.Called(ctx, candidateID)
	profile, _ := args.Get(0).(*entities.Profile)
	return profile, args.Error(1)
}

type mockScorer struct {
	mock.Mock
}

func (m *mockScorer) ScoreBatch(ctx context.Context, candidateID string,
	jobs []entities.JobDescriptor) (map[string]entities.MatchScore, error) {
	args := m.Called(ctx, candidateID, jobs)
	scores, _ := args.Get(0).(map[string]entities.MatchScore)
	return scores, args.Error(1)
}

func (m *mockScorer) ScoreOne(ctx context.Context, candidateID string, job entities.JobDescriptor) (entities.MatchScore, error) {
	args := m.Called(ctx, candidateID, job)
	return args.Get(0).(entities.MatchScore), args.Error(1)
}

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(task ScoringTask) bool {
	return m.Called(task).Bool(0)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memorySnapshots struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{data: map[string][]byte{}}
}

func (s *memorySnapshots) Save(_ context.Context, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = data
	return nil
}

func (s *memorySnapshots) Load(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[id], nil
}

func (s *memorySnapshots) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func descriptorIDs(jobs []entities.JobDescriptor) []string {
	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.JobID)
	}
	return ids
}

func jobIDs(jobs []ScoredJob) []string {
	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}
	return ids
}
