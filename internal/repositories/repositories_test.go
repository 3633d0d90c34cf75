package repositories

import (
	"context"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestDb(t *testing.T) *DbContext {
	t.Helper()
	dbCtx, err := NewDbContext(filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	require.NoError(t, dbCtx.Migrate())
	t.Cleanup(func() { _ = dbCtx.Close() })
	return dbCtx
}

func addJob(t *testing.T, jobs *Jobs, id, postedBy string, createdAt time.Time) entities.Job {
	t.Helper()
	job := entities.Job{
		ID:          id,
		Title:       "Title " + id,
		Company:     "Acme",
		Role:        "Engineer",
		Description: "Description " + id,
		Salary:      "100k",
		PostedBy:    postedBy,
		CreatedAt:   createdAt,
	}
	require.NoError(t, jobs.Add(context.Background(), job))
	return job
}

func Test_Jobs_ListNewestFirstAndGetMissing(t *testing.T) {
	dbCtx := newTestDb(t)
	jobs := NewJobsRepository(dbCtx.DB)
	ctx := context.Background()

	now := time.Now()
	addJob(t, jobs, "old", "admin1", now.Add(-time.Hour))
	addJob(t, jobs, "new", "admin2", now)

	list, err := jobs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)

	posted, err := jobs.ListPostedBy(ctx, "admin1")
	require.NoError(t, err)
	require.Len(t, posted, 1)
	assert.Equal(t, "old", posted[0].ID)

	missing, err := jobs.GetByID(ctx, "absent")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func Test_Applications_DuplicateIsRejectedByIndex(t *testing.T) {
	dbCtx := newTestDb(t)
	applications := NewApplicationsRepository(dbCtx.DB)
	ctx := context.Background()

	first := entities.NewApplication("a1", "job", "candidate")
	require.NoError(t, applications.Create(ctx, &first))

	second := entities.NewApplication("a2", "job", "candidate")
	err := applications.Create(ctx, &second)
	assert.ErrorIs(t, err, entities.ErrDuplicateApplication)

	other := entities.NewApplication("a3", "other-job", "candidate")
	assert.NoError(t, applications.Create(ctx, &other))
}

func Test_Applications_ConcurrentCreateKeepsOne(t *testing.T) {
	dbCtx := newTestDb(t)
	applications := NewApplicationsRepository(dbCtx.DB)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			application := entities.NewApplication([]string{"x", "y"}[i], "job", "candidate")
			errs[i] = applications.Create(ctx, &application)
		}(i)
	}
	wg.Wait()

	var created, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case assert.ErrorIs(t, err, entities.ErrDuplicateApplication):
			duplicates++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, duplicates)
}

func Test_Applications_UpdateMatchScoreKeepsStatus(t *testing.T) {
	dbCtx := newTestDb(t)
	applications := NewApplicationsRepository(dbCtx.DB)
	ctx := context.Background()

	application := entities.NewApplication("a1", "job", "candidate")
	require.NoError(t, applications.Create(ctx, &application))
	require.NoError(t, applications.UpdateStatus(ctx, "a1", entities.StatusReviewed))

	require.NoError(t, applications.UpdateMatchScore(ctx, "a1", 77, time.Now()))

	stored, err := applications.GetByID(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 77, stored.MatchScore)
	assert.Equal(t, entities.StatusReviewed, stored.Status)
	assert.NotNil(t, stored.ScoredAt)
	assert.Equal(t, entities.Score(77), stored.Score())

	assert.ErrorIs(t, applications.UpdateMatchScore(ctx, "absent", 1, time.Now()), entities.ErrApplicationNotFound)
	assert.ErrorIs(t, applications.UpdateStatus(ctx, "absent", entities.StatusAccepted), entities.ErrApplicationNotFound)
}

func Test_Applications_SearchAndUnscored(t *testing.T) {
	dbCtx := newTestDb(t)
	applications := NewApplicationsRepository(dbCtx.DB)
	ctx := context.Background()

	for _, item := range []struct {
		id, job string
		score   int
	}{{"a1", "j1", 40}, {"a2", "j1", 90}, {"a3", "j2", 70}} {
		application := entities.NewApplication(item.id, item.job, "c-"+item.id)
		require.NoError(t, applications.Create(ctx, &application))
		if item.id != "a3" {
			require.NoError(t, applications.UpdateMatchScore(ctx, item.id, item.score, time.Now()))
		}
	}
	require.NoError(t, applications.UpdateStatus(ctx, "a1", entities.StatusRejected))

	all, err := applications.Search(ctx, entities.ApplicationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a2", all[0].ID)

	filtered, err := applications.Search(ctx, entities.ApplicationFilter{JobIDs: []string{"j1"}, MinScore: 50})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "a2", filtered[0].ID)

	rejected, err := applications.Search(ctx, entities.ApplicationFilter{Status: entities.StatusRejected})
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, "a1", rejected[0].ID)

	none, err := applications.Search(ctx, entities.ApplicationFilter{JobIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, none)

	unscored, err := applications.ListUnscored(ctx, 10)
	require.NoError(t, err)
	require.Len(t, unscored, 1)
	assert.Equal(t, "a3", unscored[0].ID)
}

func Test_Data_SaveLoadAndExpire(t *testing.T) {
	dbCtx := newTestDb(t)
	data := NewDataRepository(dbCtx.DB)
	ctx := context.Background()

	require.NoError(t, data.Save(ctx, "score_cache:c1", []byte(`{"a":1}`)))
	require.NoError(t, data.Save(ctx, "score_cache:c1", []byte(`{"a":2}`)))
	require.NoError(t, data.Save(ctx, "other:c1", []byte(`x`)))

	value, err := data.Load(ctx, "score_cache:c1")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(value))

	missing, err := data.Load(ctx, "absent")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	removed, err := data.RemoveOlderThan(ctx, "score_cache:", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	other, err := data.Load(ctx, "other:c1")
	require.NoError(t, err)
	assert.Equal(t, "x", string(other))
}

func Test_Data_RemoveOlderThan_TreatsPrefixLiterally(t *testing.T) {
	dbCtx := newTestDb(t)
	data := NewDataRepository(dbCtx.DB)
	ctx := context.Background()

	require.NoError(t, data.Save(ctx, "score_cache:c1", []byte(`1`)))
	require.NoError(t, data.Save(ctx, "scoreXcache:c1", []byte(`2`)))
	require.NoError(t, data.Save(ctx, "score%cache:c1", []byte(`3`)))

	removed, err := data.RemoveOlderThan(ctx, "score_cache:", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	for _, id := range []string{"scoreXcache:c1", "score%cache:c1"} {
		value, err := data.Load(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, value, id)
	}
}

func Test_Profiles_SaveAndGet(t *testing.T) {
	dbCtx := newTestDb(t)
	profiles := NewProfilesRepository(dbCtx.DB)
	ctx := context.Background()

	missing, err := profiles.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, profiles.Save(ctx, entities.Profile{CandidateID: "c1", Skills: "Go"}))
	profile, err := profiles.Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Go", profile.Skills)
}

func Test_Profiles_ListWithResumes(t *testing.T) {
	dbCtx := newTestDb(t)
	profiles := NewProfilesRepository(dbCtx.DB)
	ctx := context.Background()

	require.NoError(t, profiles.Save(ctx, entities.Profile{CandidateID: "c1", ResumeURL: "https://files.example.com/c1.pdf"}))
	require.NoError(t, profiles.Save(ctx, entities.Profile{CandidateID: "c2", Skills: "Go"}))
	require.NoError(t, profiles.Save(ctx, entities.Profile{CandidateID: "c3", ResumeURL: "https://files.example.com/c3.pdf"}))

	withResumes, err := profiles.ListWithResumes(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(withResumes))
	for _, profile := range withResumes {
		ids = append(ids, profile.CandidateID)
	}
	assert.ElementsMatch(t, []string{"c1", "c3"}, ids)
}
