package api

import (
	"context"
	"github.com/gin-gonic/gin"
	"github.com/maxaizer/jobmatch/internal/clients/scoring"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/maxaizer/jobmatch/internal/logger"
	"github.com/maxaizer/jobmatch/internal/services"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type jobRanker interface {
	RankJobs(ctx context.Context, candidateID string) ([]services.ScoredJob, error)
}

type applicationSubmitter interface {
	Apply(ctx context.Context, identity entities.Identity, jobID string) (entities.Application, error)
	ListMine(ctx context.Context, candidateID string) ([]entities.Application, error)
}

type profileService interface {
	Get(ctx context.Context, candidateID string) (*entities.Profile, error)
	Update(ctx context.Context, candidateID string, request services.UpdateProfileRequest) (*entities.Profile, error)
	RecordResumeUpload(ctx context.Context, candidateID string, request services.ResumeUploadRequest) (*entities.Profile, error)
	CandidatesWithResumes(ctx context.Context, identity entities.Identity) ([]entities.Profile, error)
}

type semanticSearcher interface {
	SemanticSearch(ctx context.Context, body []byte) (status int, respBody []byte, err error)
}

type reviewService interface {
	List(ctx context.Context, identity entities.Identity, filter entities.ApplicationFilter) ([]entities.Application, error)
	UpdateStatus(ctx context.Context, identity entities.Identity, applicationID string, status string) (*entities.Application, error)
	CreateJob(ctx context.Context, identity entities.Identity, request services.CreateJobRequest) (*entities.Job, error)
	ListPostedJobs(ctx context.Context, identity entities.Identity) ([]entities.Job, error)
}

type Services struct {
	Ranking    jobRanker
	Submission applicationSubmitter
	Profiles   profileService
	Review     reviewService
	Search     semanticSearcher
}

type handlers struct {
	services Services
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) listJobs(c *gin.Context) {
	jobs, err := h.services.Ranking.RankJobs(c.Request.Context(), identityOf(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *handlers) apply(c *gin.Context) {
	application, err := h.services.Submission.Apply(c.Request.Context(), identityOf(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Application submitted successfully", "application": application})
}

func (h *handlers) myApplications(c *gin.Context) {
	applications, err := h.services.Submission.ListMine(c.Request.Context(), identityOf(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"appliedJobIds": lo.Map(applications, func(a entities.Application, _ int) string { return a.JobID }),
		"applications":  applications,
	})
}

func (h *handlers) getProfile(c *gin.Context) {
	profile, err := h.services.Profiles.Get(c.Request.Context(), identityOf(c).UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	if profile == nil {
		abortWithError(c, http.StatusNotFound, "Profile not found", "ProfileNotFound")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (h *handlers) updateProfile(c *gin.Context) {
	var request services.UpdateProfileRequest
	if !bindJSON(c, &request) {
		return
	}
	profile, err := h.services.Profiles.Update(c.Request.Context(), identityOf(c).UserID, request)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "profile": profile})
}

func (h *handlers) uploadResume(c *gin.Context) {
	var request services.ResumeUploadRequest
	if !bindJSON(c, &request) {
		return
	}
	profile, err := h.services.Profiles.RecordResumeUpload(c.Request.Context(), identityOf(c).UserID, request)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Resume uploaded successfully", "profile": profile})
}

func (h *handlers) listPostedJobs(c *gin.Context) {
	jobs, err := h.services.Review.ListPostedJobs(c.Request.Context(), identityOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *handlers) createJob(c *gin.Context) {
	var request services.CreateJobRequest
	if !bindJSON(c, &request) {
		return
	}
	job, err := h.services.Review.CreateJob(c.Request.Context(), identityOf(c), request)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Job created successfully", "job": job})
}

func (h *handlers) listApplications(c *gin.Context) {
	filter, err := parseApplicationFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}
	applications, err := h.services.Review.List(c.Request.Context(), identityOf(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": applications})
}

type candidateResume struct {
	CandidateID string    `json:"candidateId"`
	ResumeURL   string    `json:"resumeUrl"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (h *handlers) candidatesWithResumes(c *gin.Context) {
	profiles, err := h.services.Profiles.CandidatesWithResumes(c.Request.Context(), identityOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": lo.Map(profiles, func(p entities.Profile, _ int) candidateResume {
		return candidateResume{CandidateID: p.CandidateID, ResumeURL: p.ResumeURL, UpdatedAt: p.UpdatedAt}
	})})
}

// semanticSearch proxies the request to the scoring service. Upstream answers, errors
// included, are passed through unchanged.
func (h *handlers) semanticSearch(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), "ValidationError")
		return
	}

	ctx := scoring.ContextWithToken(c.Request.Context(), identityOf(c).Token)
	status, response, err := h.services.Search.SemanticSearch(ctx, body)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeScoringApi).Errorf("semantic search failed: %v", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, errorResponse{Message: "Bad gateway", Error: err.Error()})
		return
	}
	c.Data(status, "application/json", response)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *handlers) updateApplicationStatus(c *gin.Context) {
	var request statusRequest
	if !bindJSON(c, &request) {
		return
	}
	application, err := h.services.Review.UpdateStatus(c.Request.Context(), identityOf(c), c.Param("id"), request.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application status updated", "application": application})
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), "ValidationError")
		return false
	}
	return true
}

func parseApplicationFilter(c *gin.Context) (entities.ApplicationFilter, error) {
	var filter entities.ApplicationFilter

	if jobIDs := c.Query("jobId"); jobIDs != "" {
		filter.JobIDs = lo.Compact(lo.Map(strings.Split(jobIDs, ","), func(id string, _ int) string {
			return strings.TrimSpace(id)
		}))
	}

	if status := c.Query("status"); status != "" {
		parsed, err := entities.ToApplicationStatus(strings.ToLower(status))
		if err != nil {
			return filter, errors.Wrap(entities.ErrInvalidRequest, err.Error())
		}
		filter.Status = parsed
	}

	var err error
	if filter.MinScore, err = queryInt(c, "minScore"); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		return filter, err
	}
	return filter, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.Wrapf(entities.ErrInvalidRequest, "%v must be a non-negative integer", name)
	}
	return value, nil
}
