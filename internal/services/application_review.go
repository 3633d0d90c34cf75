package services

import (
	"context"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/maxaizer/jobmatch/internal/logger"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"strings"
)

type applicationSearcher interface {
	Search(ctx context.Context, filter entities.ApplicationFilter) ([]entities.Application, error)
	GetByID(ctx context.Context, id string) (*entities.Application, error)
	UpdateStatus(ctx context.Context, id string, status entities.ApplicationStatus) error
}

type jobAdministration interface {
	Add(ctx context.Context, job entities.Job) error
	GetByID(ctx context.Context, id string) (*entities.Job, error)
	ListPostedBy(ctx context.Context, userID string) ([]entities.Job, error)
	List(ctx context.Context) ([]entities.Job, error)
}

type CreateJobRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Company      string `json:"company" validate:"required,max=200"`
	Role         string `json:"role" validate:"required,max=200"`
	Description  string `json:"description" validate:"required"`
	Salary       string `json:"salary" validate:"required,max=100"`
	Requirements string `json:"requirements"`
}

// ApplicationReview serves employers. Admins work with the jobs they posted and the
// applications to them; superadmins see everything.
type ApplicationReview struct {
	applications applicationSearcher
	jobs         jobAdministration
	validate     *validator.Validate
}

func NewApplicationReview(applications applicationSearcher, jobs jobAdministration) *ApplicationReview {
	return &ApplicationReview{applications: applications, jobs: jobs, validate: validator.New()}
}

func (r *ApplicationReview) List(ctx context.Context, identity entities.Identity,
	filter entities.ApplicationFilter) ([]entities.Application, error) {

	if !identity.IsAdmin() {
		return nil, entities.ErrForbidden
	}

	if identity.Role == entities.RoleAdmin {
		posted, err := r.postedJobIDs(ctx, identity.UserID)
		if err != nil {
			return nil, err
		}
		if filter.JobIDs == nil {
			filter.JobIDs = posted
		} else {
			filter.JobIDs = lo.Intersect(filter.JobIDs, posted)
		}
		if len(filter.JobIDs) == 0 {
			return []entities.Application{}, nil
		}
	}

	applications, err := r.applications.Search(ctx, filter)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to search applications: %v", err)
		return nil, errors.Wrap(err, "search applications")
	}
	return applications, nil
}

func (r *ApplicationReview) UpdateStatus(ctx context.Context, identity entities.Identity,
	applicationID string, status string) (*entities.Application, error) {

	if !identity.IsAdmin() {
		return nil, entities.ErrForbidden
	}

	newStatus, err := entities.ToApplicationStatus(strings.ToLower(status))
	if err != nil {
		return nil, errors.Wrap(entities.ErrInvalidRequest, err.Error())
	}

	application, err := r.applications.GetByID(ctx, applicationID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to get application %v: %v", applicationID, err)
		return nil, errors.Wrap(err, "get application")
	}
	if application == nil {
		return nil, entities.ErrApplicationNotFound
	}

	if identity.Role == entities.RoleAdmin {
		job, err := r.jobs.GetByID(ctx, application.JobID)
		if err != nil {
			return nil, errors.Wrap(err, "get job")
		}
		if job == nil || job.PostedBy != identity.UserID {
			return nil, entities.ErrApplicationNotFound
		}
	}

	if err = r.applications.UpdateStatus(ctx, applicationID, newStatus); err != nil {
		if errors.Is(err, entities.ErrApplicationNotFound) {
			return nil, err
		}
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to update application status: %v", err)
		return nil, errors.Wrap(err, "update status")
	}

	application.Status = newStatus
	log.Infof("application %v moved to %v by %v", applicationID, newStatus, identity.UserID)
	return application, nil
}

func (r *ApplicationReview) CreateJob(ctx context.Context, identity entities.Identity, request CreateJobRequest) (*entities.Job, error) {

	if !identity.IsAdmin() {
		return nil, entities.ErrForbidden
	}
	if err := r.validate.Struct(request); err != nil {
		return nil, errors.Wrap(entities.ErrInvalidRequest, err.Error())
	}

	job := entities.Job{
		ID:           uuid.NewString(),
		Title:        request.Title,
		Company:      request.Company,
		Role:         request.Role,
		Description:  request.Description,
		Salary:       request.Salary,
		Requirements: request.Requirements,
		PostedBy:     identity.UserID,
	}
	if err := r.jobs.Add(ctx, job); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to add job: %v", err)
		return nil, errors.Wrap(err, "add job")
	}
	return &job, nil
}

// ListPostedJobs returns the admin's own jobs, or every job for a superadmin.
func (r *ApplicationReview) ListPostedJobs(ctx context.Context, identity entities.Identity) ([]entities.Job, error) {

	if !identity.IsAdmin() {
		return nil, entities.ErrForbidden
	}

	var jobs []entities.Job
	var err error
	if identity.Role == entities.RoleSuperAdmin {
		jobs, err = r.jobs.List(ctx)
	} else {
		jobs, err = r.jobs.ListPostedBy(ctx, identity.UserID)
	}
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to list posted jobs: %v", err)
		return nil, errors.Wrap(err, "list jobs")
	}
	return jobs, nil
}

func (r *ApplicationReview) postedJobIDs(ctx context.Context, userID string) ([]string, error) {
	jobs, err := r.jobs.ListPostedBy(ctx, userID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to list posted jobs: %v", err)
		return nil, errors.Wrap(err, "list posted jobs")
	}
	return lo.Map(jobs, func(job entities.Job, _ int) string { return job.ID }), nil
}
