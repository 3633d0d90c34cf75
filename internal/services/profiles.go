package services

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/go-playground/validator/v10"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/maxaizer/jobmatch/internal/events"
	"github.com/maxaizer/jobmatch/internal/logger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type profileStore interface {
	Get(ctx context.Context, candidateID string) (*entities.Profile, error)
	Save(ctx context.Context, profile entities.Profile) error
	ListWithResumes(ctx context.Context) ([]entities.Profile, error)
}

type UpdateProfileRequest struct {
	Skills     string `json:"skills" validate:"max=5000"`
	Experience string `json:"experience" validate:"max=10000"`
	Education  string `json:"education" validate:"max=5000"`
}

type ResumeUploadRequest struct {
	ResumeURL string `json:"resumeUrl" validate:"required,url"`
}

// Profiles owns candidate profiles. Every change is announced on the bus so cached
// scores computed from the old profile are dropped.
type Profiles struct {
	bus      EventBus.Bus
	profiles profileStore
	validate *validator.Validate
}

func NewProfiles(bus EventBus.Bus, profiles profileStore) *Profiles {
	return &Profiles{bus: bus, profiles: profiles, validate: validator.New()}
}

func (p *Profiles) Get(ctx context.Context, candidateID string) (*entities.Profile, error) {
	profile, err := p.profiles.Get(ctx, candidateID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get profile of %v: %v", candidateID, err)
		return nil, errors.Wrap(err, "get profile")
	}
	return profile, nil
}

// CandidatesWithResumes lists candidates that uploaded a resume. Admins only.
func (p *Profiles) CandidatesWithResumes(ctx context.Context, identity entities.Identity) ([]entities.Profile, error) {
	if !identity.IsAdmin() {
		return nil, entities.ErrForbidden
	}

	profiles, err := p.profiles.ListWithResumes(ctx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to list candidates with resumes: %v", err)
		return nil, errors.Wrap(err, "list candidates with resumes")
	}
	return profiles, nil
}

func (p *Profiles) Update(ctx context.Context, candidateID string, request UpdateProfileRequest) (*entities.Profile, error) {
	if err := p.validate.Struct(request); err != nil {
		return nil, errors.Wrap(entities.ErrInvalidRequest, err.Error())
	}

	return p.mutate(ctx, candidateID, events.ProfileEdited, func(profile *entities.Profile) {
		profile.Skills = request.Skills
		profile.Experience = request.Experience
		profile.Education = request.Education
	})
}

// RecordResumeUpload stores the location of an uploaded resume. Parsing the resume is
// up to the scoring service.
func (p *Profiles) RecordResumeUpload(ctx context.Context, candidateID string, request ResumeUploadRequest) (*entities.Profile, error) {
	if err := p.validate.Struct(request); err != nil {
		return nil, errors.Wrap(entities.ErrInvalidRequest, err.Error())
	}

	return p.mutate(ctx, candidateID, events.ResumeUploaded, func(profile *entities.Profile) {
		profile.ResumeURL = request.ResumeURL
	})
}

func (p *Profiles) mutate(ctx context.Context, candidateID string, reason events.ProfileUpdateReason,
	apply func(profile *entities.Profile)) (*entities.Profile, error) {

	profile, err := p.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &entities.Profile{CandidateID: candidateID}
	}

	apply(profile)
	if err = p.profiles.Save(ctx, *profile); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to save profile of %v: %v", candidateID, err)
		return nil, errors.Wrap(err, "save profile")
	}

	p.bus.Publish(events.ProfileUpdatedTopic, events.ProfileUpdated{CandidateID: candidateID, Reason: reason})
	return profile, nil
}
