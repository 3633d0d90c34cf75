package services

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/jobmatch/internal/cache"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/maxaizer/jobmatch/internal/events"
	"github.com/maxaizer/jobmatch/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func Test_Profiles_UpdateInvalidatesCachedScores(t *testing.T) {
	dbCtx := newTestDb(t)
	bus := EventBus.New()
	scores := cache.NewScoreCache(repositories.NewDataRepository(dbCtx.DB), newFakeClock(),
		time.Hour, 24*time.Hour, time.Minute)
	require.NoError(t, scores.Subscribe(bus))

	profiles := NewProfiles(bus, repositories.NewProfilesRepository(dbCtx.DB))
	ctx := context.Background()

	require.NoError(t, scores.Put(ctx, "c1", 0, map[string]int{"j1": 85}))

	profile, err := profiles.Update(ctx, "c1", UpdateProfileRequest{Skills: "Go, SQL", Experience: "5 years"})
	require.NoError(t, err)
	assert.Equal(t, "Go, SQL", profile.Skills)

	_, found := scores.Get(ctx, "c1")
	assert.False(t, found)

	stored, err := profiles.Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "5 years", stored.Experience)
}

func Test_Profiles_ResumeUploadKeepsOtherFields(t *testing.T) {
	dbCtx := newTestDb(t)
	bus := EventBus.New()

	var reasons []events.ProfileUpdateReason
	require.NoError(t, bus.Subscribe(events.ProfileUpdatedTopic, func(event events.ProfileUpdated) {
		reasons = append(reasons, event.Reason)
	}))

	profiles := NewProfiles(bus, repositories.NewProfilesRepository(dbCtx.DB))
	ctx := context.Background()

	_, err := profiles.Update(ctx, "c1", UpdateProfileRequest{Skills: "Python"})
	require.NoError(t, err)

	profile, err := profiles.RecordResumeUpload(ctx, "c1", ResumeUploadRequest{ResumeURL: "https://files.example.com/c1.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "Python", profile.Skills)
	assert.Equal(t, "https://files.example.com/c1.pdf", profile.ResumeURL)

	assert.Equal(t, []events.ProfileUpdateReason{events.ProfileEdited, events.ResumeUploaded}, reasons)
}

func Test_Profiles_InvalidResumeURL(t *testing.T) {
	dbCtx := newTestDb(t)
	profiles := NewProfiles(EventBus.New(), repositories.NewProfilesRepository(dbCtx.DB))

	_, err := profiles.RecordResumeUpload(context.Background(), "c1", ResumeUploadRequest{ResumeURL: "not a url"})
	assert.ErrorIs(t, err, entities.ErrInvalidRequest)

	profile, err := profiles.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func Test_Profiles_CandidatesWithResumes(t *testing.T) {
	dbCtx := newTestDb(t)
	profiles := NewProfiles(EventBus.New(), repositories.NewProfilesRepository(dbCtx.DB))
	ctx := context.Background()

	_, err := profiles.RecordResumeUpload(ctx, "c1", ResumeUploadRequest{ResumeURL: "https://files.example.com/c1.pdf"})
	require.NoError(t, err)
	_, err = profiles.Update(ctx, "c2", UpdateProfileRequest{Skills: "Go"})
	require.NoError(t, err)

	_, err = profiles.CandidatesWithResumes(ctx, entities.Identity{UserID: "c1", Role: entities.RoleCandidate})
	assert.ErrorIs(t, err, entities.ErrForbidden)

	candidates, err := profiles.CandidatesWithResumes(ctx, entities.Identity{UserID: "a1", Role: entities.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "c1", candidates[0].CandidateID)
	assert.Equal(t, "https://files.example.com/c1.pdf", candidates[0].ResumeURL)
}
