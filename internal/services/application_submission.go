package services

import (
	"context"
	"github.com/google/uuid"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/maxaizer/jobmatch/internal/logger"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type jobGetter interface {
	GetByID(ctx context.Context, id string) (*entities.Job, error)
}

type applicationStore interface {
	Exists(ctx context.Context, jobID, candidateID string) (bool, error)
	Create(ctx context.Context, application *entities.Application) error
	ListByCandidate(ctx context.Context, candidateID string) ([]entities.Application, error)
}

type taskSubmitter interface {
	Submit(task ScoringTask) bool
}

type ApplicationSubmission struct {
	jobs         jobGetter
	applications applicationStore
	queue        taskSubmitter
}

func NewApplicationSubmission(jobs jobGetter, applications applicationStore, queue taskSubmitter) *ApplicationSubmission {
	return &ApplicationSubmission{jobs: jobs, applications: applications, queue: queue}
}

// Apply stores a pending application with score 0 and hands it to the scoring queue.
// It returns before the score is known.
func (s *ApplicationSubmission) Apply(ctx context.Context, identity entities.Identity, jobID string) (entities.Application, error) {

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get job %v: %v", jobID, err)
		return entities.Application{}, errors.Wrap(err, "get job")
	}
	if job == nil {
		return entities.Application{}, entities.ErrJobNotFound
	}

	exists, err := s.applications.Exists(ctx, jobID, identity.UserID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to check application: %v", err)
		return entities.Application{}, errors.Wrap(err, "check existing application")
	}
	if exists {
		return entities.Application{}, entities.ErrDuplicateApplication
	}

	application := entities.NewApplication(uuid.NewString(), jobID, identity.UserID)
	if err = s.applications.Create(ctx, &application); err != nil {
		if errors.Is(err, entities.ErrDuplicateApplication) {
			return entities.Application{}, err
		}
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to create application: %v", err)
		return entities.Application{}, errors.Wrap(err, "create application")
	}

	s.queue.Submit(ScoringTask{
		ApplicationID: application.ID,
		CandidateID:   identity.UserID,
		Job:           *job,
		Token:         identity.Token,
	})

	log.Infof("candidate %v applied to job %v", identity.UserID, jobID)
	return application, nil
}

func (s *ApplicationSubmission) ListMine(ctx context.Context, candidateID string) ([]entities.Application, error) {
	applications, err := s.applications.ListByCandidate(ctx, candidateID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to list applications: %v", err)
		return nil, errors.Wrap(err, "list applications")
	}
	return applications, nil
}
