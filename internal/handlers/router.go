package handlers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/cover-letter-agent/internal/logging"
)

// HealthCheck is GET /health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type Handlers struct {
	Jobs     *JobHandler
	Sessions *SessionHandler
	Profile  *ProfileHandler
	// Logger receives the causes of internal errors. Nil discards them.
	Logger logging.Logger
}

// NewRouter builds the /api/v1 routes. Everything but the health check sits
// behind authMiddleware.
func NewRouter(h Handlers, authMiddleware gin.HandlerFunc, allowedOrigins []string) *gin.Engine {
	r := gin.Default()

	config := cors.DefaultConfig()
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowedOrigins
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.ExposeHeaders = []string{"Content-Disposition", "X-Word-Count"}
	r.Use(cors.New(config))

	log := h.Logger
	if log == nil {
		log = logging.Discard()
	}
	r.Use(logRequestErrors(log))

	api := r.Group("/api/v1")
	api.GET("/health", HealthCheck)

	secured := api.Group("", authMiddleware)
	{
		// Job Routes
		secured.POST("/jobs/extract", h.Jobs.ParseJob)
		secured.POST("/jobs", h.Jobs.CreateJob)
		secured.GET("/jobs", h.Jobs.ListJobs)
		secured.GET("/jobs/:id", h.Jobs.GetJob)
		secured.PUT("/jobs/:id", h.Jobs.UpdateJob)
		secured.DELETE("/jobs/:id", h.Jobs.DeleteJob)
		secured.GET("/jobs/:id/letters", h.Jobs.ListLetters)

		secured.GET("/profile", h.Profile.Get)
		secured.PUT("/profile", h.Profile.Update)

		// Generator sessions
		secured.POST("/sessions", h.Sessions.Create)
		secured.GET("/sessions/:id", h.Sessions.Get)
		secured.DELETE("/sessions/:id", h.Sessions.Delete)
		secured.POST("/sessions/:id/fetch", h.Sessions.Fetch)
		secured.POST("/sessions/:id/job", h.Sessions.SubmitJob)
		secured.PUT("/sessions/:id/letter", h.Sessions.EditLetter)
		secured.POST("/sessions/:id/letter/save", h.Sessions.SaveLetter)
		secured.GET("/sessions/:id/letter/export", h.Sessions.Export)
		secured.POST("/sessions/:id/reset-error", h.Sessions.ResetError)
		secured.PUT("/sessions/:id/step", h.Sessions.SetStep)
		secured.GET("/sessions/:id/events", h.Sessions.Events)
	}
	return r
}
