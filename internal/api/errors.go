package api

import (
	"github.com/gin-gonic/gin"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"net/http"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func abortWithError(c *gin.Context, status int, message, kind string) {
	c.AbortWithStatusJSON(status, errorResponse{Message: message, Error: kind})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entities.ErrJobNotFound):
		abortWithError(c, http.StatusNotFound, "Job not found", "JobNotFound")
	case errors.Is(err, entities.ErrDuplicateApplication):
		abortWithError(c, http.StatusBadRequest, "Already applied to this job", "DuplicateApplication")
	case errors.Is(err, entities.ErrApplicationNotFound):
		abortWithError(c, http.StatusNotFound, "Application not found", "ApplicationNotFound")
	case errors.Is(err, entities.ErrInvalidRequest):
		abortWithError(c, http.StatusBadRequest, err.Error(), "ValidationError")
	case errors.Is(err, entities.ErrForbidden):
		abortWithError(c, http.StatusForbidden, "Access denied", "Forbidden")
	default:
		log.Errorf("request %v %v failed: %v", c.Request.Method, c.Request.URL.Path, err)
		abortWithError(c, http.StatusInternalServerError, "Internal server error", "InternalError")
	}
}
