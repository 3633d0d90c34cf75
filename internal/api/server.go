package api

import (
	"context"
	"github.com/gin-gonic/gin"
	"github.com/maxaizer/jobmatch/internal/config"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"net/http"
	"time"
)

type Server struct {
	http            *http.Server
	shutdownTimeout time.Duration
}

func NewServer(cfg config.ServerConfig, services Services) (*Server, error) {

	if services.Ranking == nil || services.Submission == nil || services.Profiles == nil || services.Review == nil || services.Search == nil {
		return nil, errors.New("all services must be provided")
	}

	return &Server{
		http: &http.Server{
			Addr:         cfg.Address,
			Handler:      NewRouter(services),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

func NewRouter(services Services) *gin.Engine {

	router := gin.New()
	router.Use(gin.Recovery(), logRequests())

	h := &handlers{services: services}
	router.GET("/health", h.health)

	authorized := router.Group("/", identify())

	candidate := authorized.Group("/", requireRole(entities.RoleCandidate))
	candidate.GET("/jobs", h.listJobs)
	candidate.GET("/jobs/my-applications", h.myApplications)
	candidate.POST("/jobs/:id/apply", h.apply)
	candidate.GET("/profile", h.getProfile)
	candidate.PUT("/profile", h.updateProfile)
	candidate.POST("/profile/resume", h.uploadResume)

	admin := authorized.Group("/admin", requireRole(entities.RoleAdmin, entities.RoleSuperAdmin))
	admin.GET("/jobs", h.listPostedJobs)
	admin.POST("/jobs", h.createJob)
	admin.GET("/applications", h.listApplications)
	admin.PATCH("/applications/:id/status", h.updateApplicationStatus)
	admin.GET("/candidates-with-resumes", h.candidatesWithResumes)
	admin.POST("/semantic-search", h.semanticSearch)

	return router
}

// Run blocks until the server stops. A graceful Shutdown is not reported as an error.
func (s *Server) Run() error {
	log.Infof("api server listening on %v", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
		} else {
			entry.Debug("request handled")
		}
	}
}
